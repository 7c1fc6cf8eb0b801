package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// Classifier scores an image against open-vocabulary labels.
type Classifier interface {
	// ZeroShot returns one logit per label, in label order.
	ZeroShot(ctx context.Context, image []byte, labels []string) ([]float64, error)
}

// Captioner describes an image in natural language.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

// Config holds configuration for the vision model server client.
type Config struct {
	BaseURL            string        // Model server URL, e.g., "http://localhost:5001"
	Timeout            time.Duration // Per-request timeout
	MaxNewTokens       int           // Caption generation bound
	BreakerMaxFailures uint32        // Consecutive failures before the breaker opens
	BreakerTimeout     time.Duration // Time the breaker stays open
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "http://localhost:5001",
		Timeout:            60 * time.Second,
		MaxNewTokens:       50,
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
	}
}

// Client talks to the model server hosting the zero-shot (CLIP) and
// captioning (BLIP) checkpoints.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    CircuitBreaker
}

// NewClient creates a new vision model client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: NewCircuitBreaker("vision", config.BreakerTimeout, config.BreakerMaxFailures),
	}
}

type zeroShotResponse struct {
	Logits []float64 `json:"logits"`
	Error  string    `json:"error,omitempty"`
}

type captionResponse struct {
	Caption string `json:"caption"`
	Error   string `json:"error,omitempty"`
}

// ZeroShot implements Classifier.
func (c *Client) ZeroShot(ctx context.Context, image []byte, labels []string) ([]float64, error) {
	body, contentType, err := newImageForm(image, func(w *multipart.Writer) error {
		for _, l := range labels {
			if err := w.WriteField("labels", l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var resp zeroShotResponse
	if err := c.post(ctx, "/v1/zero-shot", body, contentType, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("zero-shot error: %s", resp.Error)
	}
	if len(resp.Logits) != len(labels) {
		return nil, fmt.Errorf("zero-shot returned %d logits for %d labels", len(resp.Logits), len(labels))
	}
	return resp.Logits, nil
}

// Caption implements Captioner.
func (c *Client) Caption(ctx context.Context, image []byte) (string, error) {
	body, contentType, err := newImageForm(image, func(w *multipart.Writer) error {
		return w.WriteField("max_new_tokens", strconv.Itoa(c.config.MaxNewTokens))
	})
	if err != nil {
		return "", err
	}

	var resp captionResponse
	if err := c.post(ctx, "/v1/caption", body, contentType, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("caption error: %s", resp.Error)
	}
	return resp.Caption, nil
}

// Ping checks if the model server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	url := c.config.BaseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vision API not reachable at %s: %w", c.config.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vision API returned status %d", resp.StatusCode)
	}
	return nil
}

func newImageForm(image []byte, fields func(*multipart.Writer) error) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to write image data: %w", err)
	}
	if fields != nil {
		if err := fields(writer); err != nil {
			return nil, "", fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, path string, body *bytes.Buffer, contentType string, out any) error {
	return c.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call vision API: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	})
}
