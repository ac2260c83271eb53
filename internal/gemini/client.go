// Package gemini wraps the Google generative AI SDK behind the small
// text-generation interface the rest of the service consumes.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"intellect/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client generates text with a fixed model, temperature and output budget.
// It is safe for concurrent use and should be created once per process.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a Gemini client from the configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(cfg.MaxOutputTokens)

	return &Client{client: client, model: model}, nil
}

// Generate runs one generation call and returns the concatenated text parts
// of the response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("generation response contained no text")
	}
	return strings.TrimSpace(sb.String()), nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
