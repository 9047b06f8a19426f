package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/amqp"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/apiclient"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/config"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/gemini"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/services"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/session"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/storage"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/storage/memory"
)

type Factory struct {
	logger  *log.Logger
	session *session.Session
}

type Option func(*Factory)

func WithLogger(l *log.Logger) Option {
	return func(f *Factory) { f.logger = l.WithComponent(log.ComponentBackend) }
}

// WithSession supplies the session the remote backend authenticates with.
// Without it a session holding API_TOKEN is created.
func WithSession(s *session.Session) Option {
	return func(f *Factory) { f.session = s }
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{logger: log.Default(log.ComponentBackend)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the backend selected by cfg.DataBackend.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	switch cfg.DataBackend {
	case config.BackendRemote:
		return f.createRemote(cfg)
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, storage.WithLogger(f.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		b := &Backend{Kind: cfg.DataBackend, Insights: repo, Pinger: repo}
		b.closers = append(b.closers, repo)
		return f.finishLocal(ctx, cfg, b, repo)
	case config.BackendMemory:
		store := memory.New()
		b := &Backend{Kind: cfg.DataBackend, Insights: store}
		return f.finishLocal(ctx, cfg, b, store)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func (f *Factory) createRemote(cfg *config.Config) (*Backend, error) {
	s := f.session
	if s == nil {
		s = session.New(cfg.APIToken)
	}
	client, err := apiclient.New(cfg.APIBaseURL, s,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		apiclient.WithCacheTTL(cfg.CacheTTL),
		apiclient.WithLogger(f.logger),
	)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized remote backend", "base_url", cfg.APIBaseURL)
	return &Backend{
		Kind:        cfg.DataBackend,
		Store:       client,
		Insights:    client,
		Extractor:   client,
		Summarizer:  client,
		Categorizer: client,
		Session:     s,
	}, nil
}

// finishLocal wires the optional event publisher and AI services around a
// local store.
func (f *Factory) finishLocal(ctx context.Context, cfg *config.Config, b *Backend, store ports.ExpenseStore) (*Backend, error) {
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", log.FieldError, err.Error())
		} else {
			publisher = client
			b.closers = append(b.closers, client)
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}
	b.Store = services.NewExpenseService(store, publisher, f.logger)

	if cfg.GeminiAPIKey != "" {
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, f.logger)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		b.Extractor = client
		b.Categorizer = client
		b.Summarizer = gemini.NewSummarizer(client, b.Insights)
	} else {
		f.logger.Warn("GEMINI_API_KEY not set, receipt scanning and AI insights are disabled")
		b.Extractor = unconfigured{}
		b.Categorizer = unconfigured{}
		b.Summarizer = unconfigured{}
	}

	f.logger.Info("Initialized local backend",
		"backend", b.Kind,
		"amqp_enabled", publisher != nil,
		"ai_enabled", cfg.GeminiAPIKey != "")
	return b, nil
}

var _ io.Closer = (*Backend)(nil)
