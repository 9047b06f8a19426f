package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/apiclient"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/session"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/storage/memory"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type fakeExtractor struct {
	result   core.ReceiptExtraction
	err      error
	gotMIME  string
	gotBytes int
}

func (f *fakeExtractor) Extract(_ context.Context, data []byte, mimeType string) (core.ReceiptExtraction, error) {
	f.gotMIME = mimeType
	f.gotBytes = len(data)
	return f.result, f.err
}

type fakeAI struct {
	summary  string
	category core.Category
	err      error
	calls    atomic.Int32
}

func (f *fakeAI) Summary(context.Context) (string, error) {
	f.calls.Add(1)
	return f.summary, f.err
}

func (f *fakeAI) Suggest(context.Context, string) (core.Category, error) {
	f.calls.Add(1)
	return f.category, f.err
}

type countingInsights struct {
	*memory.Store
	snapshots atomic.Int32
}

func (c *countingInsights) Snapshot(ctx context.Context) (core.RawSnapshot, error) {
	c.snapshots.Add(1)
	return c.Store.Snapshot(ctx)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func newTestServer(t *testing.T, deps *backend.Backend, opts ...Option) *Server {
	t.Helper()
	if deps.Store == nil {
		store := memory.NewWithClock(func() time.Time { return fixedNow })
		deps.Store = store
		deps.Insights = store
	}
	if deps.Extractor == nil {
		deps.Extractor = &fakeExtractor{}
	}
	if deps.Summarizer == nil {
		deps.Summarizer = &fakeAI{}
	}
	if deps.Categorizer == nil {
		deps.Categorizer = &fakeAI{}
	}
	opts = append([]Option{WithLogger(log.Discard()), WithClock(func() time.Time { return fixedNow })}, opts...)
	srv := NewServer(":0", deps, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func serve(srv *Server, method, target string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, r)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) wire.Error {
	t.Helper()
	var body wire.Error
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v: %s", err, rec.Body.String())
	}
	return body
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})

	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		rec := serve(srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
		if rec.Body.String() != want {
			t.Errorf("%s body = %q, want %q", path, rec.Body.String(), want)
		}
	}

	down := newTestServer(t, &backend.Backend{Pinger: failingPinger{}})
	if rec := serve(down, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing store = %d, want 503", rec.Code)
	}
}

func TestExpenseLifecycleThroughClient(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	client, err := apiclient.New(ts.URL, session.New(""), apiclient.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	ctx := context.Background()

	amount, _ := core.ParseAmount("12.50")
	created, err := client.Create(ctx, core.Expense{
		Amount:        amount,
		Category:      core.CategoryFood,
		Merchant:      "Corner Cafe",
		Date:          core.NewDate(2025, 3, 14),
		PaymentMethod: core.PaymentCard,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created expense has no ID")
	}
	if created.Amount.Cents != 1250 || created.Category != core.CategoryFood {
		t.Errorf("created = %+v", created)
	}

	list, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID || list[0].Merchant != "Corner Cafe" {
		t.Fatalf("List = %+v", list)
	}

	snap, err := client.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Total == nil || snap.Total.StringFixed(2) != "12.50" {
		t.Errorf("snapshot total = %v, want 12.50", snap.Total)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := client.Delete(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestCreateExpense(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"valid", `{"amount":12.5,"category":"food","merchant":"Cafe"}`, http.StatusCreated, ""},
		{"negative amount", `{"amount":-5}`, http.StatusBadRequest, "amount"},
		{"missing amount", `{"category":"Food"}`, http.StatusBadRequest, "amount"},
		{"unknown category", `{"amount":5,"category":"Nope"}`, http.StatusBadRequest, "category"},
		{"impossible date", `{"amount":5,"date":"2024-02-30"}`, http.StatusBadRequest, "date"},
		{"unknown payment", `{"amount":5,"payment_method":"Barter"}`, http.StatusBadRequest, "payment_method"},
		{"malformed", `not json`, http.StatusBadRequest, "request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &backend.Backend{})
			rec := serve(srv, http.MethodPost, "/api/expenses", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantField != "" {
				if got := decodeError(t, rec).Field; got != tt.wantField {
					t.Errorf("field = %q, want %q", got, tt.wantField)
				}
			}
		})
	}
}

func TestCreateExpense_Defaults(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})
	rec := serve(srv, http.MethodPost, "/api/expenses", `{"amount":"3.20","description":"  bus\u0000 ticket "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got wire.Expense
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Category != "Other" || got.PaymentMethod != "Cash" || got.Date != "2025-03-15" {
		t.Errorf("defaults = %+v", got)
	}
	if got.Description != "bus ticket" {
		t.Errorf("description = %q, want sanitized", got.Description)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/expenses/"+got.ID {
		t.Errorf("Location = %q", loc)
	}
}

func TestListExpenses_CategoryFilter(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})
	for _, body := range []string{
		`{"amount":1,"category":"Food"}`,
		`{"amount":2,"category":"Bills"}`,
		`{"amount":3,"category":"food"}`,
	} {
		if rec := serve(srv, http.MethodPost, "/api/expenses", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d", rec.Code)
		}
	}

	rec := serve(srv, http.MethodGet, "/api/expenses?category=FOOD", "")
	var got []wire.Expense
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("filtered list has %d rows, want 2", len(got))
	}
	for _, e := range got {
		if e.Category != "Food" {
			t.Errorf("unexpected category %q", e.Category)
		}
	}

	rec = serve(srv, http.MethodGet, "/api/expenses?category=bogus", "")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Field != "category" {
		t.Fatalf("bogus filter = %d %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteExpense_NotFound(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})
	rec := serve(srv, http.MethodDelete, "/api/expenses/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{}, WithAPIToken("s3cret"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusOK},
		{"case-insensitive scheme", "bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("WWW-Authenticate missing")
			}
		})
	}

	if rec := serve(srv, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz should not need a token, got %d", rec.Code)
	}
}

func TestAuth_ClientSessionRejected(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{}, WithAPIToken("s3cret"))
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	sess := session.New("stale")
	client, err := apiclient.New(ts.URL, sess, apiclient.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	if _, err := client.List(context.Background()); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("List err = %v, want ErrUnauthorized", err)
	}
	if sess.IsAuthenticated() {
		t.Error("session should be cleared after a 401")
	}
}

func multipartUpload(t *testing.T, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="receipt"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/upload-receipt", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadReceipt(t *testing.T) {
	merchant := "Fresh Market"
	amount, _ := core.ParseAmount("42.10")
	x := &fakeExtractor{result: core.ReceiptExtraction{Amount: &amount, Merchant: &merchant}}
	srv := newTestServer(t, &backend.Backend{Extractor: x})

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, multipartUpload(t, "file", "image/png", []byte("\x89PNG\r\n\x1a\nfake")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if x.gotMIME != "image/png" {
		t.Errorf("extractor MIME = %q", x.gotMIME)
	}

	var got wire.Extraction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Merchant == nil || *got.Merchant != merchant {
		t.Errorf("merchant = %v", got.Merchant)
	}
	if got.Amount == nil || got.Amount.StringFixed(2) != "42.10" {
		t.Errorf("amount = %v", got.Amount)
	}
	if got.Date != nil || got.SuggestedCategory != nil {
		t.Errorf("absent fields should stay null: %+v", got)
	}
}

func TestUploadReceipt_SniffsUndeclaredType(t *testing.T) {
	x := &fakeExtractor{}
	srv := newTestServer(t, &backend.Backend{Extractor: x})

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, multipartUpload(t, "file", "application/octet-stream", []byte("%PDF-1.4\n%fake")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if x.gotMIME != "application/pdf" {
		t.Errorf("sniffed MIME = %q, want application/pdf", x.gotMIME)
	}
}

func TestUploadReceipt_Failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		field    string
		maxBytes int64
		wantCode int
		wantMsg  string
	}{
		{"unreadable", &core.ExtractionError{Reason: "no total found"}, "file", 0, http.StatusUnprocessableEntity, "no total found"},
		{"model error", &core.ExtractionError{Err: errors.New("boom")}, "file", 0, http.StatusUnprocessableEntity, "could not read the receipt"},
		{"not configured", &core.ExtractionError{Err: backend.ErrAINotConfigured}, "file", 0, http.StatusServiceUnavailable, backend.ErrAINotConfigured.Error()},
		{"wrong field", nil, "image", 0, http.StatusBadRequest, "no file uploaded"},
		{"too large", nil, "file", 8, http.StatusUnprocessableEntity, "file too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.maxBytes > 0 {
				opts = append(opts, WithMaxUploadBytes(tt.maxBytes))
			}
			srv := newTestServer(t, &backend.Backend{Extractor: &fakeExtractor{err: tt.err}}, opts...)

			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, multipartUpload(t, tt.field, "image/jpeg", bytes.Repeat([]byte{0xff}, 64)))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if got := decodeError(t, rec).Message; got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestInsights_CachedUntilWrite(t *testing.T) {
	store := memory.NewWithClock(func() time.Time { return fixedNow })
	insights := &countingInsights{Store: store}
	srv := newTestServer(t, &backend.Backend{Store: store, Insights: insights})

	for i := 0; i < 2; i++ {
		if rec := serve(srv, http.MethodGet, "/api/insights", ""); rec.Code != http.StatusOK {
			t.Fatalf("insights status = %d", rec.Code)
		}
	}
	if got := insights.snapshots.Load(); got != 1 {
		t.Fatalf("snapshot calls = %d, want 1", got)
	}

	serve(srv, http.MethodPost, "/api/expenses", `{"amount":10,"category":"Bills"}`)
	rec := serve(srv, http.MethodGet, "/api/insights", "")
	if got := insights.snapshots.Load(); got != 2 {
		t.Fatalf("snapshot calls after write = %d, want 2", got)
	}

	var body wire.Insights
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total == nil || body.TotalCurrentMonth == nil {
		t.Fatal("both total aliases should be written")
	}
	if body.ByCategory["Bills"].StringFixed(2) != "10.00" || body.CategoryBreakdown["Bills"].StringFixed(2) != "10.00" {
		t.Errorf("breakdown = %+v / %+v", body.ByCategory, body.CategoryBreakdown)
	}
}

func TestPredict(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})
	rec := serve(srv, http.MethodGet, "/api/predict", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body wire.Prediction
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Prediction == nil {
		t.Error("prediction amount should always be present")
	}
}

func TestSummary(t *testing.T) {
	ai := &fakeAI{summary: "You spent most on food."}
	srv := newTestServer(t, &backend.Backend{Summarizer: ai})

	rec := serve(srv, http.MethodGet, "/api/genai/summary", "")
	var body wire.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || body.Summary != ai.summary {
		t.Fatalf("summary = %d %+v", rec.Code, body)
	}

	ai.err = errors.New("quota exceeded")
	if rec := serve(srv, http.MethodGet, "/api/genai/summary", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing model status = %d, want 503", rec.Code)
	}
}

func TestCategory(t *testing.T) {
	ai := &fakeAI{category: core.CategoryTransport}
	srv := newTestServer(t, &backend.Backend{Categorizer: ai})

	rec := serve(srv, http.MethodPost, "/api/genai/category", `{"description":"   "}`)
	var body wire.CategoryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if rec.Code != http.StatusOK || body.Category != "Other" {
		t.Fatalf("blank description = %d %+v", rec.Code, body)
	}
	if ai.calls.Load() != 0 {
		t.Error("blank description should not reach the model")
	}

	rec = serve(srv, http.MethodPost, "/api/genai/category", `{"description":"taxi to airport"}`)
	body = wire.CategoryResponse{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if rec.Code != http.StatusOK || body.Category != "Transport" {
		t.Fatalf("suggest = %d %+v", rec.Code, body)
	}

	ai.err = backend.ErrAINotConfigured
	if rec := serve(srv, http.MethodPost, "/api/genai/category", `{"description":"taxi"}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured status = %d, want 503", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{}, WithRateLimit(2))

	for i := 0; i < 2; i++ {
		if rec := serve(srv, http.MethodGet, "/api/expenses", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := serve(srv, http.MethodGet, "/api/expenses", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if decodeError(t, rec).Message == "" {
		t.Error("429 body should carry a message")
	}
	if rec := serve(srv, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz is not rate limited, got %d", rec.Code)
	}
}

func TestResponsesCarryTraceAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})
	rec := serve(srv, http.MethodGet, "/api/expenses", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := newTestServer(t, &backend.Backend{})
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
