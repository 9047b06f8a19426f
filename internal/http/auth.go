package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

func (s *Server) requireToken(next http.Handler) http.Handler {
	if s.token == "" {
		return next
	}
	want := []byte(s.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected unauthenticated request",
				log.NewFields().WithErrorType(log.ErrorTypeAuth).ToSlice()...)
			w.Header().Set("WWW-Authenticate", `Bearer realm="spend"`)
			writeJSON(w, http.StatusUnauthorized, wire.Error{Message: "missing or invalid bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
