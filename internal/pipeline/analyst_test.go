package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"adstudio/internal/domain/creative"
	"adstudio/internal/providers/genai"
)

func TestAnalyzeProductFromText(t *testing.T) {
	model := &fakeModel{jsonReplies: []string{analysisReply()}}
	analysis, err := AnalyzeProduct(context.Background(), model, creative.ProductInput{Description: "a tan leather wallet"})
	if err != nil {
		t.Fatalf("AnalyzeProduct: %v", err)
	}
	if analysis.BrandTier != creative.TierPremium {
		t.Fatalf("brand tier = %s, want premium", analysis.BrandTier)
	}
	if model.lastText.Image != nil {
		t.Fatal("image attached for a text-only input")
	}
	if !strings.Contains(model.lastText.Instruction, "a tan leather wallet") {
		t.Fatal("description missing from instruction")
	}
}

func TestAnalyzeProductAttachesImage(t *testing.T) {
	model := &fakeModel{jsonReplies: []string{analysisReply()}}
	input := creative.ProductInput{ImageData: []byte("jpeg"), ImageMIME: "image/jpeg", Description: "a wallet"}
	if _, err := AnalyzeProduct(context.Background(), model, input); err != nil {
		t.Fatalf("AnalyzeProduct: %v", err)
	}
	if model.lastText.Image == nil || model.lastText.Image.MIME != "image/jpeg" {
		t.Fatalf("image not forwarded: %+v", model.lastText.Image)
	}
	if !strings.Contains(model.lastText.Instruction, "equally") {
		t.Fatal("dual-input instruction missing the equal-authority framing")
	}
}

func TestAnalyzeProductEmptyInput(t *testing.T) {
	model := &fakeModel{}
	_, err := AnalyzeProduct(context.Background(), model, creative.ProductInput{})
	var validation *creative.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if got := model.jsonCalls.Load(); got != 0 {
		t.Fatalf("model invoked %d times for invalid input", got)
	}
}

func TestAnalyzeProductMissingFieldsIsParseError(t *testing.T) {
	model := &fakeModel{jsonReplies: []string{mustJSON(map[string]any{"productCategory": "Accessories"})}}
	_, err := AnalyzeProduct(context.Background(), model, creative.ProductInput{Description: "a wallet"})
	var parseErr *creative.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want ParseError", err)
	}
	if !strings.Contains(err.Error(), "productType") {
		t.Fatalf("missing fields not named: %v", err)
	}
}

func TestAnalyzeProductUnknownTierCollapses(t *testing.T) {
	reply := mustJSON(map[string]any{
		"productCategory":   "Accessories",
		"productAttributes": map[string]string{"material": "leather"},
		"targetAudience":    "commuters",
		"keySellingPoints":  []string{"durable"},
		"productType":       "wallet",
		"brandTier":         "ultra-exclusive",
	})
	model := &fakeModel{jsonReplies: []string{reply}}
	analysis, err := AnalyzeProduct(context.Background(), model, creative.ProductInput{Description: "a wallet"})
	if err != nil {
		t.Fatalf("AnalyzeProduct: %v", err)
	}
	if analysis.BrandTier != creative.TierUndetermined {
		t.Fatalf("brand tier = %s, want undetermined", analysis.BrandTier)
	}
}

func TestAnalyzeProductSurfacesBlockReason(t *testing.T) {
	model := &fakeModel{jsonErr: &genai.BlockedError{Reason: "SAFETY"}}
	_, err := AnalyzeProduct(context.Background(), model, creative.ProductInput{Description: "a wallet"})
	var invocation *creative.ModelInvocationError
	if !errors.As(err, &invocation) {
		t.Fatalf("error = %v, want ModelInvocationError", err)
	}
	if invocation.Reason != "SAFETY" {
		t.Fatalf("reason = %q, want SAFETY", invocation.Reason)
	}
}

func TestAnalyzeStyleRequiresImage(t *testing.T) {
	_, err := AnalyzeStyle(context.Background(), &fakeModel{}, creative.ProductInput{Description: "no image"})
	var validation *creative.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestAnalyzeStyleMissingOverallStyleIsParseError(t *testing.T) {
	model := &fakeModel{jsonReplies: []string{mustJSON(map[string]any{"colorPalette": "teal"})}}
	_, err := AnalyzeStyle(context.Background(), model, creative.ProductInput{ImageData: []byte("img"), ImageMIME: "image/png"})
	var parseErr *creative.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}

func TestDecodePayloadStripsFences(t *testing.T) {
	raw := "```json\n{\"prompt\":\"hello\"}\n```"
	got, err := decodePayload[composePayload](raw)
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if got.Prompt != "hello" {
		t.Fatalf("prompt = %q, want hello", got.Prompt)
	}
}

func TestDecodePayloadIsolatesJSONFragment(t *testing.T) {
	raw := "Here is the result:\n{\"prompt\":\"hello\"}\nLet me know if you need changes."
	got, err := decodePayload[composePayload](raw)
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if got.Prompt != "hello" {
		t.Fatalf("prompt = %q, want hello", got.Prompt)
	}
}
