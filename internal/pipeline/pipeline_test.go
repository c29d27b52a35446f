package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"adstudio/internal/providers/genai"
)

// fakeModel scripts JSON replies in call order and counts image calls.
type fakeModel struct {
	jsonReplies []string
	jsonErr     error
	jsonCalls   atomic.Int32

	imageResult *genai.ImageResult
	imageErrs   []error
	imageCalls  atomic.Int32

	lastText  genai.TextRequest
	lastImage genai.ImageRequest
}

func (f *fakeModel) GenerateJSON(ctx context.Context, req genai.TextRequest) (string, error) {
	f.lastText = req
	n := int(f.jsonCalls.Add(1)) - 1
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	if n >= len(f.jsonReplies) {
		return "", fmt.Errorf("unexpected json call %d", n)
	}
	return f.jsonReplies[n], nil
}

func (f *fakeModel) GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageResult, error) {
	f.lastImage = req
	n := int(f.imageCalls.Add(1)) - 1
	if n < len(f.imageErrs) && f.imageErrs[n] != nil {
		return nil, f.imageErrs[n]
	}
	if f.imageResult == nil {
		return &genai.ImageResult{Data: []byte("png-bytes"), MIME: "image/png"}, nil
	}
	return f.imageResult, nil
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// Canonical scripted replies for a full pipeline run.

func analysisReply() string {
	return mustJSON(map[string]any{
		"productCategory":   "Accessories",
		"productAttributes": map[string]string{"material": "leather", "color": "tan"},
		"targetAudience":    "young professionals",
		"keySellingPoints":  []string{"full-grain leather", "hand stitched"},
		"productType":       "leather wallet",
		"brandTier":         "premium",
	})
}

func conceptsReply() string {
	return mustJSON(map[string]any{
		"concepts": []map[string]any{
			{
				"title":             "Desk of the Deal",
				"description":       "The wallet on a walnut desk beside a fountain pen.",
				"adType":            "Product Showcase",
				"requiresModel":     false,
				"mood":              "Luxurious",
				"aesthetic":         "Editorial",
				"visualDescription": "Warm close-up on a walnut surface.",
			},
			{
				"title":             "Morning Commute",
				"description":       "A commuter slips the wallet into a coat pocket.",
				"adType":            "Lifestyle",
				"requiresModel":     true,
				"mood":              "Energetic",
				"aesthetic":         "Candid",
				"visualDescription": "Motion-blurred street scene at dawn.",
			},
		},
	})
}

func directionReply(modelRequired bool) string {
	return mustJSON(map[string]any{
		"adType":              "Product Showcase",
		"targetPlatform":      "instagram",
		"environment":         "studio",
		"modelRequired":       modelRequired,
		"modelType":           "adult hand model",
		"modelCount":          1,
		"presentationStyle":   "hero shot",
		"mood":                "luxurious",
		"colorPalette":        "warm neutrals",
		"compositionApproach": "negative space",
		"cameraAngle":         "three-quarter",
		"lightingPreference":  "soft",
		"aspectRatio":         "4:5",
		"luxuryGuidelines": map[string]string{
			"lighting":         "low-key with gentle falloff",
			"compositionDepth": "layered foreground",
			"texturePriority":  "leather grain",
			"colorEmotion":     "warm confidence",
			"spaceUse":         "generous negative space",
		},
	})
}

func composeReply(body string) string {
	return mustJSON(map[string]string{"prompt": body})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
