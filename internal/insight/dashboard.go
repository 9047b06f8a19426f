package insight

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/ports"
)

// Placeholders shown in place of a section whose fetch failed.
const (
	SnapshotUnavailable   = "Insights are temporarily unavailable."
	PredictionUnavailable = "Spending prediction is temporarily unavailable."
	SummaryUnavailable    = "AI insights are temporarily unavailable."
)

const defaultRecent = 5

// View is everything the dashboard and insight screens render. Each
// section carries its own error; a failed section never hides the others.
type View struct {
	Summary         Summary
	Recommendations Recommendations
	// Comparison is nil when the month-over-month change is not computable.
	Comparison *Comparison
	SummaryErr error

	Prediction    string
	PredictionErr error

	Expenses    []core.Expense
	Recent      []core.Expense
	ExpensesErr error

	AISummary    string
	AISummaryErr error
}

// Loader fetches the independent dashboard sections concurrently.
type Loader struct {
	insights   ports.InsightService
	expenses   ports.ExpenseStore
	summarizer ports.Summarizer
	recent     int
	logger     *log.Logger
}

type LoaderOption func(*Loader)

// WithSummarizer adds the AI summary section.
func WithSummarizer(s ports.Summarizer) LoaderOption {
	return func(l *Loader) { l.summarizer = s }
}

func WithRecent(n int) LoaderOption {
	return func(l *Loader) { l.recent = n }
}

func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger.WithComponent(log.ComponentInsight) }
}

func NewLoader(insights ports.InsightService, expenses ports.ExpenseStore, opts ...LoaderOption) *Loader {
	l := &Loader{
		insights: insights,
		expenses: expenses,
		recent:   defaultRecent,
		logger:   log.Default(log.ComponentInsight),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load issues every fetch at once and merges the results when all have
// returned.
func (l *Loader) Load(ctx context.Context) View {
	var (
		g           errgroup.Group
		raw         core.RawSnapshot
		snapErr     error
		prediction  core.RawPrediction
		predErr     error
		expenses    []core.Expense
		expensesErr error
		aiSummary   string
		aiErr       error
	)

	g.Go(func() error {
		raw, snapErr = l.insights.Snapshot(ctx)
		return nil
	})
	g.Go(func() error {
		prediction, predErr = l.insights.Prediction(ctx)
		return nil
	})
	g.Go(func() error {
		expenses, expensesErr = l.expenses.List(ctx)
		return nil
	})
	if l.summarizer != nil {
		g.Go(func() error {
			aiSummary, aiErr = l.summarizer.Summary(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var v View

	v.Expenses, v.ExpensesErr = expenses, expensesErr
	if expensesErr == nil {
		v.Recent = MostRecent(expenses, l.recent)
	} else {
		l.warn(ctx, "Expense list unavailable", log.OpList, expensesErr)
	}

	if snapErr == nil {
		v.Summary = DeriveSummary(raw, l.transactionCount(raw, expenses, expensesErr))
		v.Recommendations = DeriveRecommendations(v.Summary)
		if c, ok := MonthOverMonth(v.Summary.MonthOverMonthChange); ok {
			v.Comparison = &c
		}
	} else {
		v.SummaryErr = snapErr
		v.Summary = DeriveSummary(core.RawSnapshot{}, 0)
		v.Recommendations = DeriveRecommendations(v.Summary)
		l.warn(ctx, "Insight snapshot unavailable", log.OpSnapshot, snapErr)
	}

	if predErr == nil {
		v.Prediction = FormatPrediction(prediction)
	} else {
		v.Prediction, v.PredictionErr = PredictionUnavailable, predErr
		l.warn(ctx, "Prediction unavailable", log.OpPredict, predErr)
	}

	if l.summarizer != nil {
		if aiErr == nil && aiSummary != "" {
			v.AISummary = aiSummary
		} else {
			v.AISummary, v.AISummaryErr = SummaryUnavailable, aiErr
			if aiErr != nil {
				l.warn(ctx, "AI summary unavailable", log.OpSummary, aiErr)
			}
		}
	}
	return v
}

// transactionCount is the length of the fetched list, so the average is
// total / len(list). When the list failed it falls back to the count
// reported upstream.
func (l *Loader) transactionCount(raw core.RawSnapshot, expenses []core.Expense, listErr error) int {
	if listErr != nil {
		if raw.TransactionCount != nil {
			return *raw.TransactionCount
		}
		return 0
	}
	return len(expenses)
}

func (l *Loader) warn(ctx context.Context, msg, op string, err error) {
	l.logger.WarnContext(ctx, msg, log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
}

// MostRecent returns up to n expenses, newest date first. The input is not
// modified.
func MostRecent(expenses []core.Expense, n int) []core.Expense {
	out := make([]core.Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
