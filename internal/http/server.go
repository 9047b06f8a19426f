// Package http serves the expense API consumed by the spend CLI and other
// clients: expense CRUD, receipt extraction, insights and the AI helpers.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/cache"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/middleware/ratelimit"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/middleware/security"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/middleware/trace"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

const (
	defaultMaxUploadBytes = 10 << 20
	maxJSONBodyBytes      = 64 << 10
	defaultCacheTTL       = 5 * time.Minute
)

type Server struct {
	http.Server
	deps      *backend.Backend
	logger    *log.Logger
	now       func() time.Time
	token     string
	maxUpload int64
	cacheTTL  time.Duration
	rate      int

	limiter  *ratelimit.Limiter
	detector *security.Detector

	// Insight reads are cached per month and dropped on every write.
	snapshotCache   *cache.Loading[core.RawSnapshot]
	predictionCache *cache.Loading[core.RawPrediction]
	caches          *cache.Manager

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(log.ComponentHTTP) }
}

// WithAPIToken requires "Authorization: Bearer <token>" on every /api
// route. An empty token leaves the API open.
func WithAPIToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rate = perMinute }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) { s.cacheTTL = ttl }
}

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

// WithClock overrides "today" for defaulted expense dates and cache keys.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(addr string, deps *backend.Backend, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		logger:    log.Default(log.ComponentHTTP),
		now:       time.Now,
		maxUpload: defaultMaxUploadBytes,
		cacheTTL:  defaultCacheTTL,
		rate:      ratelimit.DefaultConfig().RequestsPerMinute,
		detector:  security.NewDetector(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.rate})
	s.snapshotCache = cache.NewLoading[core.RawSnapshot](12, s.cacheTTL)
	s.predictionCache = cache.NewLoading[core.RawPrediction](12, s.cacheTTL)
	s.caches = cache.NewManager(s.logger)
	s.caches.Register(s.snapshotCache)
	s.caches.Register(s.predictionCache)
	s.caches.StartCleanup(time.Minute)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("POST /api/upload-receipt", s.handleUploadReceipt)
	api.HandleFunc("GET /api/insights", s.handleInsights)
	api.HandleFunc("GET /api/predict", s.handlePredict)
	api.HandleFunc("GET /api/genai/summary", s.handleSummary)
	api.HandleFunc("POST /api/genai/category", s.handleCategory)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(s.requireToken(api)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(s.flagSuspicious(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and drains the listener. Only the
// first call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"user_agent", r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, wire.Error{Message: "rate limit exceeded, try again later"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.deps.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Pinger.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
				log.NewFields().WithErrorType(log.ErrorTypeDatabase).WithError(err).ToSlice()...)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// monthKey scopes cached insight reads to the calendar month they describe.
func (s *Server) monthKey() string {
	return s.now().Format("2006-01")
}

func (s *Server) invalidateInsights() {
	s.snapshotCache.Purge()
	s.predictionCache.Purge()
}
