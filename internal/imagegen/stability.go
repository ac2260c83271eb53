// Package imagegen generates images through a Stability-style REST endpoint
// and normalizes them to the square PNG dimensions used for registration.
package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"intellect/internal/config"
)

// Client calls the image-generation endpoint. Safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an image-generation client from the configuration.
func NewClient(cfg config.ImageConfig, log *slog.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: log.With("component", "imagegen"),
	}
}

// Generate produces raw PNG bytes for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("failed to build request form: %w", err)
	}
	if err := writer.WriteField("output_format", "png"); err != nil {
		return nil, fmt.Errorf("failed to build request form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Image service returned an error", "status", resp.StatusCode)
		return nil, fmt.Errorf("image service error: %s - %s", resp.Status, truncate(data, 200))
	}

	return data, nil
}

func truncate(data []byte, max int) string {
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
