package media

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const pollBackoffCap = 20 * time.Second

type videoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Error    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// GenerateVideo submits a long-running video generation and polls the
// operation until it completes, fails, or the attempt budget runs out.
// Polling uses exponential backoff and honors ctx cancellation.
func (c *Client) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	name, err := c.submitVideo(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("submit video operation: %w", err)
	}
	return c.pollVideo(ctx, name)
}

func (c *Client) submitVideo(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"instances": []map[string]string{{"prompt": prompt}},
	}

	var op videoOperation
	path := fmt.Sprintf("/v1beta/models/%s:predictLongRunning", c.videoModel)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, &op); err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", fmt.Errorf("empty operation name")
	}
	return op.Name, nil
}

func (c *Client) pollVideo(ctx context.Context, name string) (string, error) {
	backoff := c.pollInitial

	for attempt := 1; attempt <= c.pollMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < pollBackoffCap {
			backoff *= 2
			if backoff > pollBackoffCap {
				backoff = pollBackoffCap
			}
		}

		var op videoOperation
		if err := c.doJSON(ctx, http.MethodGet, "/v1beta/"+name, nil, &op); err != nil {
			return "", err
		}

		if !op.Done {
			continue
		}
		if op.Error != nil {
			return "", fmt.Errorf("video operation failed: code=%d %s", op.Error.Code, op.Error.Message)
		}
		if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
			return "", fmt.Errorf("video operation finished without samples")
		}
		uri := op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
		if uri == "" {
			return "", fmt.Errorf("video operation finished without a URI")
		}
		return uri, nil
	}

	return "", fmt.Errorf("video operation timed out after %d polls", c.pollMaxAttempts)
}
