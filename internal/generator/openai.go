package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"Xuunu.homeostasis/internal/insight"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 15 * time.Second
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// OpenAI generates insight text with the chat completions endpoint.
type OpenAI struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewOpenAI creates a generator. Empty baseURL, model or timeout fall back to defaults.
// An empty apiKey yields a generator that always reports insight.ErrGeneratorUnavailable.
func NewOpenAI(apiKey, model, baseURL string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &OpenAI{client: client, apiKey: apiKey, model: model}
}

// Generate sends prompt as a single user message. It never retries.
func (g *OpenAI) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	if g.apiKey == "" {
		return "", insight.ErrGeneratorUnavailable
	}

	var result chatResponse
	var apiErr errorResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.apiKey).
		SetBody(chatRequest{
			Model:     g.model,
			Messages:  []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens: maxOutputTokens,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if resp != nil && isQuotaError(resp.StatusCode(), apiErr.Error.Code) {
		return "", fmt.Errorf("openai status %d: %w", resp.StatusCode(), insight.ErrQuotaExceeded)
	}
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(resp.Body()))
		}
		return "", fmt.Errorf("openai status %d: %s", resp.StatusCode(), msg)
	}

	if len(result.Choices) == 0 {
		return "", insight.ErrEmptyGeneration
	}
	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", insight.ErrEmptyGeneration
	}
	return text, nil
}

func isQuotaError(status int, code string) bool {
	return status == http.StatusTooManyRequests || code == "insufficient_quota" || code == "rate_limit_exceeded"
}
