package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		PollMaxAttempts: 3,
		PollInitial:     time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func inlineDataResponse(mime, data string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{
				{"inlineData": map[string]string{"mimeType": mime, "data": data}},
			}}},
		},
	}
}

func TestGenerateImage_ExtractsInlineData(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cfg := body["generationConfig"].(map[string]any)
		assert.Equal(t, "9:16", cfg["imageConfig"].(map[string]any)["aspectRatio"])

		json.NewEncoder(w).Encode(inlineDataResponse("image/png", base64.StdEncoding.EncodeToString(raw)))
	})

	c := newTestClient(t, handler)
	data, mime, err := c.GenerateImage(context.Background(), "festival poster", "9:16")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "image/png", mime)
}

func TestGenerateImage_DefaultsBadAspectRatio(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cfg := body["generationConfig"].(map[string]any)
		assert.Equal(t, "1:1", cfg["imageConfig"].(map[string]any)["aspectRatio"])
		json.NewEncoder(w).Encode(inlineDataResponse("image/png", base64.StdEncoding.EncodeToString([]byte{1})))
	})

	c := newTestClient(t, handler)
	_, _, err := c.GenerateImage(context.Background(), "p", "16:9")
	require.NoError(t, err)
}

func TestGenerateImage_NoImageInResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	c := newTestClient(t, handler)
	_, _, err := c.GenerateImage(context.Background(), "p", "1:1")
	assert.Error(t, err)
}

func TestGenerateSpeech_ReturnsAudio(t *testing.T) {
	audio := []byte("pcm-bytes")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cfg := body["generationConfig"].(map[string]any)
		voice := cfg["speechConfig"].(map[string]any)["voiceConfig"].(map[string]any)["prebuiltVoiceConfig"].(map[string]any)["voiceName"]
		assert.Equal(t, "Puck", voice)

		json.NewEncoder(w).Encode(inlineDataResponse("audio/pcm", base64.StdEncoding.EncodeToString(audio)))
	})

	c := newTestClient(t, handler)
	data, mime, err := c.GenerateSpeech(context.Background(), "Namaste!", "Puck")
	require.NoError(t, err)
	assert.Equal(t, audio, data)
	assert.Equal(t, "audio/pcm", mime)
}

func TestGenerateVideo_PollsUntilDone(t *testing.T) {
	var polls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-123"})
			return
		}

		polls++
		if polls < 2 {
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-123", "done": false})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-123",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{
						{"video": map[string]string{"uri": "https://videos.example/v.mp4"}},
					},
				},
			},
		})
	})

	c := newTestClient(t, handler)
	uri, err := c.GenerateVideo(context.Background(), "reel background")
	require.NoError(t, err)
	assert.Equal(t, "https://videos.example/v.mp4", uri)
	assert.Equal(t, 2, polls)
}

func TestGenerateVideo_BoundedPolling(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-stuck"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-stuck", "done": false})
	})

	c := newTestClient(t, handler)
	_, err := c.GenerateVideo(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestGenerateVideo_OperationFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-err"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-err",
			"done": true,
			"error": map[string]any{"code": 13, "message": "internal"},
		})
	})

	c := newTestClient(t, handler)
	_, err := c.GenerateVideo(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal")
}

func TestGenerateVideo_ContextCancellation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-slow"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"done": false})
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		PollMaxAttempts: 100,
		PollInitial:     50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.GenerateVideo(ctx, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_APIErrorStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"key invalid"}}`)
	})

	c := newTestClient(t, handler)
	_, _, err := c.GenerateImage(context.Background(), "p", "1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
