// Package gemini backs receipt extraction, spending summaries and category
// suggestions with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
)

const DefaultModel = "gemini-2.0-flash"

// generator is the subset of *genai.Models the package uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models generator
	model  string
	logger *log.Logger
}

// New creates a Gemini API client. An empty model selects DefaultModel.
func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(gc.Models, model, logger), nil
}

func newClient(models generator, model string, logger *log.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = log.Default(log.ComponentGemini)
	}
	return &Client{models: models, model: model, logger: logger.WithComponent(log.ComponentGemini)}
}

func (c *Client) generate(ctx context.Context, parts ...*genai.Part) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	var temperature float32
	resp, err := c.models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

// cleanModelJSON strips Markdown fences and any prose around the first JSON
// object in raw.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
