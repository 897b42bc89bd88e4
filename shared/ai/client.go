// Package ai wraps the Gemini client behind a minimal completion interface.
package ai

import (
	"context"
	"fmt"
	"time"

	"creatorpulse/shared/config"

	"google.golang.org/genai"
)

// Completer is a black-box text completion. Implementations must honor the
// context deadline; a timed-out call is an error like any other.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg *config.AIConfig) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:  client,
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Complete sends a single text prompt and returns the raw response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}
