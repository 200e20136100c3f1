package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tune a single completion call.
type Options struct {
	Model       string
	Temperature float64
	JSONMode    bool
	MaxTokens   int
}

// Client is a single opaque chat completion call. There is no structured
// contract beyond plain text (or JSON-mode text) in and out.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string, opts Options) (string, error)
	ModelName() string
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	model   string
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(baseURL string, apiKey string, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		http:    resty.New().SetTimeout(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, userPrompt string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	body := chatRequest{
		Model:       model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if opts.JSONMode {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}

	var parsed chatResponse
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&parsed)
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := req.Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("completion request: %s; body: %s", resp.Status(), resp.String())
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion request: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
