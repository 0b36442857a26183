package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

type inlinePart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []inlinePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage produces a raster image for the prompt at the given aspect
// ratio ("1:1" or "9:16") and returns the raw bytes plus mime type.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, string, error) {
	if aspectRatio != "1:1" && aspectRatio != "9:16" {
		aspectRatio = "1:1"
	}

	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"TEXT", "IMAGE"},
			"imageConfig": map[string]string{
				"aspectRatio": aspectRatio,
			},
		},
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.imageModel)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, &resp); err != nil {
		return nil, "", err
	}
	if resp.Error != nil {
		return nil, "", fmt.Errorf("image generation error: code=%d %s", resp.Error.Code, resp.Error.Message)
	}

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, "", fmt.Errorf("decode inline image: %w", err)
				}
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return data, mime, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no image in response")
}
