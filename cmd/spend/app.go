package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/cli"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/config"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/console"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/session"
)

// errReported marks an error whose message the command already printed.
var errReported = errors.New("reported")

type app struct {
	console  *console.Console
	prompt   prompter
	now      func() time.Time
	logger   *log.Logger
	cfg      *config.Config
	sessions session.FileStore

	session *session.Session
	backend *backend.Backend
}

func newApp(out io.Writer) *app {
	return &app{
		console: console.New(out),
		prompt:  ptermPrompter{},
		now:     time.Now,
		logger:  log.Discard(),
	}
}

// setup loads the environment for every command. The backend is opened
// lazily by the commands that need it.
func (a *app) setup(*cobra.Command, []string) error {
	cli.LoadEnvFile()
	if os.Getenv("LOG_LEVEL") == "" {
		_ = os.Setenv("LOG_LEVEL", "warn")
	}
	a.logger = cli.SetupLogger(log.ComponentCLI)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	path := cfg.SessionFile
	if path == "" {
		path = session.DefaultPath()
	}
	a.sessions = session.FileStore{Path: path}
	return nil
}

// open builds the backend and admits view through the session gate. Local
// backends need no credentials; the remote one needs a token from
// API_TOKEN or 'spend session set'.
func (a *app) open(ctx context.Context, view string) (*backend.Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}

	token := a.cfg.APIToken
	if token == "" {
		saved, err := a.sessions.Load()
		if err != nil {
			a.logger.Warn("Ignoring unreadable session file", log.FieldError, err.Error())
		}
		token = saved
	}
	a.session = session.New(token)
	a.session.OnRejected(func() {
		if err := a.sessions.Clear(); err != nil {
			a.logger.Warn("Failed to clear rejected session", log.FieldError, err.Error())
		}
	})

	gate := session.NewGate(a.session, a.cfg.DataBackend != config.BackendRemote)
	if err := gate.Admit(view); err != nil {
		return nil, fmt.Errorf("%w. Run 'spend session set <token>' first", err)
	}

	b, err := backend.NewFactory(
		backend.WithLogger(a.logger),
		backend.WithSession(a.session),
	).Create(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", a.cfg.DataBackend, err)
	}
	a.backend = b
	return b, nil
}

func (a *app) close() {
	if a.backend == nil {
		return
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("Failed to close backend", log.FieldError, err.Error())
	}
	a.backend = nil
}

// fail prints the user-facing message for err and returns errReported.
func (a *app) fail(err error) error {
	if errors.Is(err, backend.ErrAINotConfigured) {
		a.console.Warning("AI features are off. Set GEMINI_API_KEY to enable them.")
		return errReported
	}
	a.logger.Debug("Command failed", log.FieldError, err.Error())
	a.console.Error(err)
	return errReported
}
