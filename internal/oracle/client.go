// Package oracle calls the external classification model that proposes
// subtag names for a feature.
package oracle

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

// Config configures the oracle client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxRetries  int           // bounded attempts per feature
	RetryDelay  time.Duration // base backoff, grows linearly per attempt
	CallTimeout time.Duration // per-call timeout

	HTTPClient *http.Client // optional, for tests
}

// Client is the classification oracle. One call classifies one feature;
// calls are never pipelined so taxonomy growth between features stays
// visible.
type Client struct {
	api *openai.Client
	cfg Config
}

// New builds a client for an OpenAI-compatible chat completion endpoint.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		apiCfg.HTTPClient = cfg.HTTPClient
	}
	return &Client{api: openai.NewClientWithConfig(apiCfg), cfg: cfg}
}

// Classify proposes subtag names for one feature given the current
// taxonomy snapshot. An empty, error-free result means the entry is not
// classifiable (pure bug fix or announcement). A returned error means the
// retry budget is exhausted; the caller leaves the feature pending so a
// later run retries it.
func (c *Client) Classify(ctx context.Context, title, description string, snapshot taxonomy.Taxonomy) ([]string, error) {
	prompt := BuildPrompt(title, description, snapshot)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		content, err := c.complete(ctx, prompt)
		if err == nil {
			subtags, perr := ExtractSubtags(content)
			if perr == nil {
				return subtags, nil
			}
			err = perr
		}
		lastErr = err

		if attempt < c.cfg.MaxRetries {
			wait := c.cfg.RetryDelay * time.Duration(attempt)
			log.Printf("oracle: attempt %d/%d failed (%v), retrying in %s",
				attempt, c.cfg.MaxRetries, err, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("oracle: %d attempts exhausted: %w", c.cfg.MaxRetries, lastErr)
}

// Chat sends a free-form prompt, used by the summary generator.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: user},
	}
	if system != "" {
		messages = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
		}, messages...)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("oracle chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle chat: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
