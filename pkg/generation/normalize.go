package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unlockify/contentgen/pkg/models"
)

// RetryableError marks a capability reply the orchestrator may retry:
// unparseable output, or valid JSON that asserted neither success nor error.
type RetryableError struct {
	Reason  string
	Message string // model-provided message, when present
}

func (e *RetryableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return e.Reason
}

// ExtractJSON strips surrounding prose and Markdown fences from raw model
// output, returning the span between the first '{' and the last '}'.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	// Fallback cleanup for fenced output with no braces found (degenerate,
	// but cheap to handle the same way the fences are usually emitted)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Normalize turns raw text from the text capability into a structurally
// valid ResponseEnvelope, or classifies the reply as retryable.
//
// Error-flagged envelopes (e.g. INVALID_INPUT from the model) are returned
// as-is and are not retryable. Success envelopes get per-feature key aliases
// coerced to the canonical shape; beyond that the data payload passes
// through leniently.
func Normalize(raw string, feature models.FeatureType) (*models.ResponseEnvelope, error) {
	cleaned := ExtractJSON(raw)

	var env models.ResponseEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return nil, &RetryableError{Reason: "unparseable model output"}
	}

	if !env.Success && !env.Error {
		// Valid JSON that asserts neither success nor explicit error
		return nil, &RetryableError{Reason: "model asserted neither success nor error", Message: env.Message}
	}

	if env.Error {
		if env.Code == "" {
			env.Code = models.CodeAPIError
		}
		if env.Type == "" {
			env.Type = string(feature)
		}
		return &env, nil
	}

	if env.Type == "" {
		env.Type = string(feature)
	}
	env.Data = coerceData(feature, env.Data)

	return &env, nil
}

// coerceData maps the key aliases the model is known to emit onto the
// canonical per-feature shape, so renderers never have to check alternates.
func coerceData(feature models.FeatureType, data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}

	switch feature {
	case models.FeatureInstagram:
		coerceListKey(data, "posts", "options", "captions")
		if _, ok := data["posts"]; !ok {
			// A bare single-post object is tolerated
			if caption, ok := data["caption"]; ok {
				post := map[string]any{"caption": caption}
				if hashtags, ok := data["hashtags"]; ok {
					post["hashtags"] = hashtags
				}
				if hook, ok := data["hook"]; ok {
					post["hook"] = hook
				}
				data["posts"] = []any{post}
				delete(data, "caption")
				delete(data, "hashtags")
				delete(data, "hook")
			}
		}
	case models.FeatureWhatsApp:
		coerceListKey(data, "messages", "variants", "options")
		if raw, ok := data["messages"].([]any); ok {
			data["messages"] = flattenMessages(raw)
		}
	case models.FeatureReels:
		coerceListKey(data, "scripts", "options")
	}

	return data
}

// coerceListKey renames the first present alias to the canonical key.
func coerceListKey(data map[string]any, canonical string, aliases ...string) {
	if _, ok := data[canonical]; ok {
		return
	}
	for _, alias := range aliases {
		if v, ok := data[alias]; ok {
			data[canonical] = v
			delete(data, alias)
			return
		}
	}
}

// flattenMessages unwraps {text: "..."} message items into plain strings.
func flattenMessages(items []any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			if text, ok := obj["text"].(string); ok {
				out = append(out, text)
				continue
			}
			if text, ok := obj["message"].(string); ok {
				out = append(out, text)
				continue
			}
		}
		out = append(out, item)
	}
	return out
}
