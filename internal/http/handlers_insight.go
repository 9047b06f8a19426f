package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshotCache.GetOrLoad(r.Context(), s.monthKey(), s.deps.Insights.Snapshot)
	if err != nil {
		writeError(w, r, log.OpSnapshot, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromSnapshot(snap))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	p, err := s.predictionCache.GetOrLoad(r.Context(), s.monthKey(), s.deps.Insights.Prediction)
	if err != nil {
		writeError(w, r, log.OpPredict, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromPrediction(p))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	text, err := s.deps.Summarizer.Summary(r.Context())
	if err != nil {
		writeError(w, r, log.OpSummary, aiError(err))
		return
	}
	writeJSON(w, http.StatusOK, wire.Summary{Summary: text})
}

// handleCategory suggests a category for a description. A blank
// description is Other without asking the model.
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	var body wire.CategoryRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, log.OpSuggest, err)
		return
	}

	description := sanitizeInput(body.Description)
	if description == "" {
		writeJSON(w, http.StatusOK, wire.CategoryResponse{Category: string(core.CategoryOther)})
		return
	}
	if len(description) > 200 {
		writeError(w, r, log.OpSuggest, core.NewValidationError("description", core.ErrDescriptionTooLong))
		return
	}

	c, err := s.deps.Categorizer.Suggest(r.Context(), description)
	if err != nil {
		writeError(w, r, log.OpSuggest, aiError(err))
		return
	}
	writeJSON(w, http.StatusOK, wire.CategoryResponse{Category: string(c)})
}

// aiError reports model failures as a temporarily unavailable dependency.
func aiError(err error) error {
	if errors.Is(err, backend.ErrAINotConfigured) || errors.Is(err, core.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s", core.ErrUnavailable, strings.TrimSpace(err.Error()))
}
