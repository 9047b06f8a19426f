// Package storage is the SQLite backend. It stores expenses and answers
// insight queries by aggregating them in process.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/analytics"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
)

type SQLiteRepository struct {
	db     *sql.DB
	now    func() time.Time
	logger *log.Logger
}

type Option func(*SQLiteRepository)

func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(r *SQLiteRepository) { r.logger = l.WithComponent(log.ComponentStorage) }
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it to the latest schema.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &SQLiteRepository{
		db:     db,
		now:    time.Now,
		logger: log.Default(log.ComponentStorage),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectExpenses = `SELECT id, amount_cents, category, description, merchant, date, payment_method FROM expenses`

// List returns every expense, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Expense, error) {
	return r.query(ctx, selectExpenses+` ORDER BY date DESC, created_at DESC`)
}

// ListSince returns the expenses dated on or after from.
func (r *SQLiteRepository) ListSince(ctx context.Context, from core.Date) ([]core.Expense, error) {
	return r.query(ctx, selectExpenses+` WHERE date >= ? ORDER BY date DESC, created_at DESC`, from.String())
}

func (r *SQLiteRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, amount_cents, category, description, merchant, date, payment_method)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.Cents, string(e.Category), e.Description, e.Merchant, e.Date.String(), string(e.PaymentMethod))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense saved to SQLite",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(e.ID, e.Amount.Cents, string(e.Category)).ToSlice()...)
	return e, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense %s: %w", id, core.ErrNotFound)
	}
	r.logger.InfoContext(ctx, "Expense deleted from SQLite", log.FieldExpenseID, id)
	return nil
}

// Snapshot aggregates the current month against the previous one.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.RawSnapshot, error) {
	now := r.now()
	from := analytics.MonthOf(core.DateOf(now)).Add(-1).Start()
	expenses, err := r.ListSince(ctx, from)
	if err != nil {
		return core.RawSnapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return analytics.Snapshot(expenses, now), nil
}

// Prediction forecasts next month from the trailing window.
func (r *SQLiteRepository) Prediction(ctx context.Context) (core.RawPrediction, error) {
	now := r.now()
	from := analytics.MonthOf(core.DateOf(now)).Add(-analytics.ForecastWindow).Start()
	expenses, err := r.ListSince(ctx, from)
	if err != nil {
		return core.RawPrediction{}, fmt.Errorf("prediction: %w", err)
	}
	return analytics.Forecast(expenses, now), nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e                         core.Expense
			category, payment, dateAt string
		)
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &category, &e.Description, &e.Merchant, &dateAt, &payment); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(dateAt); err != nil {
			return nil, fmt.Errorf("expense %s has invalid date %q: %w", e.ID, dateAt, err)
		}
		e.Category = core.NormalizeCategory(category)
		e.PaymentMethod = core.PaymentMethod(payment)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}
