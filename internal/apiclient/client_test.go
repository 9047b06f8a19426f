package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/session"
)

func newTestClient(t *testing.T, h http.Handler, s *session.Session) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, s, WithLogger(log.Discard()), WithCacheTTL(time.Minute))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestListSendsTokenAndCaches(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		io.WriteString(w, `[{"id":"1","amount":12.5,"category":"food","description":"","merchant":"M","date":"2025-01-02","payment_method":"Cash"}]`)
	})
	mux.HandleFunc("POST /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"2","amount":1,"category":"Other","date":"2025-01-03","payment_method":"Card"}`)
	})
	c := newTestClient(t, mux, session.New("tok"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		list, err := c.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].Amount.Cents != 1250 || list[0].Category != core.CategoryFood {
			t.Fatalf("unexpected list: %+v", list)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected cached second list, got %d requests", hits.Load())
	}

	created, err := c.Create(ctx, core.Expense{Amount: core.Money{Cents: 100}, Category: core.CategoryOther, Date: core.NewDate(2025, 1, 3), PaymentMethod: core.PaymentCard})
	if err != nil || created.ID != "2" {
		t.Fatalf("create = %+v, %v", created, err)
	}
	if _, err := c.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("create should invalidate the cache, got %d requests", hits.Load())
	}
}

func TestWriteDuringListIsNotCached(t *testing.T) {
	var hits atomic.Int32
	arrived := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(arrived)
			<-release
		}
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("POST /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"2","amount":1,"category":"Other","date":"2025-01-03","payment_method":"Card"}`)
	})
	c := newTestClient(t, mux, session.New("tok"))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.List(ctx)
		done <- err
	}()
	<-arrived

	if _, err := c.Create(ctx, core.Expense{Amount: core.Money{Cents: 100}, Category: core.CategoryOther, Date: core.NewDate(2025, 1, 3), PaymentMethod: core.PaymentCard}); err != nil {
		t.Fatalf("create: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first list: %v", err)
	}

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("list started before the create was cached, got %d requests", hits.Load())
	}
}

func TestStatusMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "amount must be a non-negative number", "field": "amount"})
	})
	mux.HandleFunc("DELETE /api/expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"expense not found"}`)
	})
	mux.HandleFunc("GET /api/insights", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("GET /api/predict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	s := session.New("tok")
	rejected := false
	s.OnRejected(func() { rejected = true })
	c := newTestClient(t, mux, s)
	ctx := context.Background()

	_, err := c.Create(ctx, core.Expense{})
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Errorf("create: expected amount ValidationError, got %v", err)
	}
	if err := c.Delete(ctx, "gone"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
	if _, err := c.Snapshot(ctx); !errors.Is(err, core.ErrUnavailable) {
		t.Errorf("snapshot: expected ErrUnavailable, got %v", err)
	}
	if _, err := c.Prediction(ctx); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("prediction: expected ErrUnauthorized, got %v", err)
	}
	if !rejected || s.IsAuthenticated() {
		t.Errorf("401 should reject the session")
	}
}

func TestNetworkFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, nil, WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.List(context.Background()); !errors.Is(err, core.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload-receipt", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		if hdr.Header.Get("Content-Type") != "image/png" {
			t.Errorf("part content type = %q", hdr.Header.Get("Content-Type"))
		}
		io.WriteString(w, `{"amount": 9.99, "merchant": null, "suggested_category": "Coffee", "date": null}`)
	})
	c := newTestClient(t, mux, nil)

	r, err := c.Extract(context.Background(), []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if r.Amount == nil || r.Amount.Cents != 999 || r.Merchant != nil || *r.SuggestedCategory != "Coffee" {
		t.Fatalf("unexpected extraction: %+v", r)
	}
}

func TestExtractFailureIsExtractionError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload-receipt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"unsupported file type"}`)
	})
	c := newTestClient(t, mux, nil)

	_, err := c.Extract(context.Background(), []byte("%PDF-"), "application/pdf")
	var xe *core.ExtractionError
	if !errors.As(err, &xe) || xe.Reason != "unsupported file type" {
		t.Fatalf("expected ExtractionError with reason, got %v", err)
	}
}
