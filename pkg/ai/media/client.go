// Package media wraps the Gemini image, video, and speech capabilities.
// Each wrapper performs a single generation attempt; retry policy belongs to
// callers.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the Gemini media generation REST APIs.
type Client struct {
	apiKey      string
	baseURL     string
	imageModel  string
	videoModel  string
	speechModel string
	httpClient  *http.Client

	pollMaxAttempts int
	pollInitial     time.Duration
}

// Config for the media client
type Config struct {
	APIKey      string
	BaseURL     string // default: https://generativelanguage.googleapis.com
	ImageModel  string // default: gemini-2.5-flash-image
	VideoModel  string // default: veo-3.0-generate-001
	SpeechModel string // default: gemini-2.5-flash-preview-tts
	Timeout     time.Duration

	// Video long-running-operation polling
	PollMaxAttempts int           // default: 30
	PollInitial     time.Duration // default: 5s, doubled up to a cap
}

// NewClient creates a new media capability client
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gemini-2.5-flash-image"
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = "veo-3.0-generate-001"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 30
	}
	if cfg.PollInitial <= 0 {
		cfg.PollInitial = 5 * time.Second
	}

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		imageModel:      cfg.ImageModel,
		videoModel:      cfg.VideoModel,
		speechModel:     cfg.SpeechModel,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		pollMaxAttempts: cfg.PollMaxAttempts,
		pollInitial:     cfg.PollInitial,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	url := fmt.Sprintf("%s%s?key=%s", c.baseURL, path, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("media request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media API error [%d]: %s", resp.StatusCode, truncate(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
