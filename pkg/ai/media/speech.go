package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Prebuilt Gemini TTS voices callers select between.
const (
	VoiceFemale = "Kore"
	VoiceMale   = "Puck"
)

// GenerateSpeech synthesizes the text with the named voice and returns the
// raw audio bytes plus mime type.
func (c *Client) GenerateSpeech(ctx context.Context, text, voiceName string) ([]byte, string, error) {
	if voiceName == "" {
		voiceName = VoiceFemale
	}

	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": text}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"AUDIO"},
			"speechConfig": map[string]any{
				"voiceConfig": map[string]any{
					"prebuiltVoiceConfig": map[string]string{"voiceName": voiceName},
				},
			},
		},
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.speechModel)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, &resp); err != nil {
		return nil, "", err
	}
	if resp.Error != nil {
		return nil, "", fmt.Errorf("speech generation error: code=%d %s", resp.Error.Code, resp.Error.Message)
	}

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, "", fmt.Errorf("decode inline audio: %w", err)
				}
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "audio/pcm"
				}
				return data, mime, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no audio in response")
}
