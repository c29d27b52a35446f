package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"adstudio/internal/providers/genai"
)

// ModelClient is the remote-model capability the pipeline consumes. The real
// implementation is *genai.Client; tests substitute a scripted fake.
type ModelClient interface {
	GenerateJSON(ctx context.Context, req genai.TextRequest) (string, error)
	GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageResult, error)
}

// decodePayload strips markdown fences, isolates the JSON fragment, and
// unmarshals it into T. Model replies occasionally wrap JSON in prose or
// code fences even when asked not to.
func decodePayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		preview := cleaned
		if len(preview) > 160 {
			preview = preview[:160] + "..."
		}
		return zero, fmt.Errorf("%w (payload: %s)", err, preview)
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
