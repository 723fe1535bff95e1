// Package llm wraps an OpenAI-compatible chat completion API. It works
// against any endpoint speaking that wire format, including self-hosted
// Ollama-style services.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

type (
	// Opt contains configuration options for the Client.
	Opt struct {
		baseURL string
		apiKey  string
		model   string
		timeout time.Duration
	}
	// Opts is a function type for configuring Client options.
	Opts func(opt *Opt)
)

// WithBaseURL points the client at a custom OpenAI-compatible endpoint.
func WithBaseURL(u string) Opts {
	return func(opt *Opt) {
		opt.baseURL = u
	}
}

// WithAPIKey sets the API key for the completion service.
func WithAPIKey(k string) Opts {
	return func(opt *Opt) {
		opt.apiKey = k
	}
}

// WithModel sets the default model name for completions.
func WithModel(m string) Opts {
	return func(opt *Opt) {
		opt.model = m
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Opts {
	return func(opt *Opt) {
		opt.timeout = d
	}
}

// Request is one completion round trip.
type Request struct {
	Messages    []openai.ChatCompletionMessage
	Tools       []openai.Tool
	Temperature float32
}

// Client issues chat completions.
type Client struct {
	cli     *openai.Client
	model   string
	timeout time.Duration
}

// New creates a Client. Defaults target a local Ollama-style service.
func New(opts ...Opts) *Client {
	opt := &Opt{
		baseURL: "http://127.0.0.1:11434/v1",
		apiKey:  "unused",
		model:   "qwen3:8b",
		timeout: 60 * time.Second,
	}
	for _, o := range opts {
		o(opt)
	}
	cfg := openai.DefaultConfig(opt.apiKey)
	if opt.baseURL != "" {
		cfg.BaseURL = opt.baseURL
	}
	return &Client{
		cli:     openai.NewClientWithConfig(cfg),
		model:   opt.model,
		timeout: opt.timeout,
	}
}

// Complete sends one completion request and returns the assistant message,
// which may carry tool calls for the caller to execute and feed back.
func (c *Client) Complete(ctx context.Context, req Request) (openai.ChatCompletionMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Tools:       req.Tools,
		Temperature: req.Temperature,
	})
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message, nil
}
