// Package apiclient implements the remote collaborators over the expense
// tracker's REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/cache"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/session"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

const listCacheKey = "expenses"

// Client talks to the API on behalf of one session. It satisfies
// ports.ExpenseStore, ports.ReceiptExtractor, ports.InsightService,
// ports.Summarizer and ports.Categorizer.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	session   *session.Session
	listCache *cache.Loading[[]core.Expense]
	logger    *log.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCacheTTL sets how long a listed page of expenses is reused. Zero
// disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.listCache = nil
			return
		}
		c.listCache = cache.NewLoading[[]core.Expense](1, ttl)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPIClient) }
}

func New(baseURL string, s *session.Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}
	if s == nil {
		s = session.New("")
	}
	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 15 * time.Second},
		session:   s,
		listCache: cache.NewLoading[[]core.Expense](1, 30*time.Second),
		logger:    log.Default(log.ComponentAPIClient),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns every expense. Concurrent callers share one request and the
// result is cached until the next write. A list fetched while a write was
// in flight is returned but not cached.
func (c *Client) List(ctx context.Context) ([]core.Expense, error) {
	var (
		list []core.Expense
		err  error
	)
	if c.listCache != nil {
		list, err = c.listCache.GetOrLoad(ctx, listCacheKey, c.fetchList)
	} else {
		list, err = c.fetchList(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return append([]core.Expense(nil), list...), nil
}

func (c *Client) fetchList(ctx context.Context) ([]core.Expense, error) {
	var body []wire.Expense
	if err := c.doJSON(ctx, http.MethodGet, "/api/expenses", nil, &body); err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(body))
	for _, e := range body {
		out = append(out, e.Core())
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	c.invalidate()
	defer c.invalidate()

	var created wire.Expense
	if err := c.doJSON(ctx, http.MethodPost, "/api/expenses", wire.FromExpense(e), &created); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	c.logger.InfoContext(ctx, "Expense created",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(created.ID, e.Amount.Cents, string(e.Category)).ToSlice()...)
	return created.Core(), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	c.invalidate()
	defer c.invalidate()

	if err := c.doJSON(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

// Extract uploads a receipt as multipart field "file". Any failure is an
// *core.ExtractionError.
func (c *Client) Extract(ctx context.Context, data []byte, mimeType string) (core.ReceiptExtraction, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, receiptFilename(mimeType)))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return core.ReceiptExtraction{}, &core.ExtractionError{Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return core.ReceiptExtraction{}, &core.ExtractionError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return core.ReceiptExtraction{}, &core.ExtractionError{Err: err}
	}

	var body wire.Extraction
	if err := c.do(ctx, http.MethodPost, "/api/upload-receipt", &buf, mw.FormDataContentType(), &body); err != nil {
		xe := &core.ExtractionError{Err: err}
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			xe.Reason = ve.Err.Error()
		}
		return core.ReceiptExtraction{}, xe
	}
	return body.Core(), nil
}

func (c *Client) Snapshot(ctx context.Context) (core.RawSnapshot, error) {
	var body wire.Insights
	if err := c.doJSON(ctx, http.MethodGet, "/api/insights", nil, &body); err != nil {
		return core.RawSnapshot{}, fmt.Errorf("insights: %w", err)
	}
	return body.Core(), nil
}

func (c *Client) Prediction(ctx context.Context) (core.RawPrediction, error) {
	var body wire.Prediction
	if err := c.doJSON(ctx, http.MethodGet, "/api/predict", nil, &body); err != nil {
		return core.RawPrediction{}, fmt.Errorf("predict: %w", err)
	}
	return body.Core(), nil
}

func (c *Client) Summary(ctx context.Context) (string, error) {
	var body wire.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/api/genai/summary", nil, &body); err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	return body.Summary, nil
}

// Suggest asks the server to categorize description. Unknown answers are
// normalized to Other.
func (c *Client) Suggest(ctx context.Context, description string) (core.Category, error) {
	var body wire.CategoryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/genai/category", wire.CategoryRequest{Description: description}, &body); err != nil {
		return core.CategoryOther, fmt.Errorf("suggest category: %w", err)
	}
	return core.NormalizeCategory(body.Category), nil
}

func (c *Client) invalidate() {
	if c.listCache != nil {
		c.listCache.Purge()
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.NewFields().WithErrorType(log.ErrorTypeNetwork).WithError(err).ToSlice()...)
		return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "API request completed",
		log.NewFields().WithHTTPResponse(method, path, resp.StatusCode, time.Since(start).Milliseconds()).ToSlice()...)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", core.ErrUnavailable, err)
		}
		return nil
	}
	return c.statusError(resp)
}

// statusError maps a non-2xx response to the core error kinds.
func (c *Client) statusError(resp *http.Response) error {
	var body wire.Error
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}
	if body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.session.Reject()
		return fmt.Errorf("%w: %s", core.ErrUnauthorized, body.Message)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		field := body.Field
		if field == "" {
			field = "request"
		}
		return core.NewValidationError(field, errors.New(body.Message))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", core.ErrNotFound, body.Message)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", core.ErrUnavailable, resp.StatusCode, body.Message)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body.Message)
}

func receiptFilename(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return "receipt.pdf"
	case "image/png":
		return "receipt.png"
	case "image/jpeg":
		return "receipt.jpg"
	}
	if i := strings.IndexByte(mimeType, '/'); i >= 0 {
		return "receipt." + filepath.Base(mimeType[i+1:])
	}
	return "receipt"
}
