package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"adstudio/internal/domain/creative"
	"adstudio/internal/providers/genai"
)

const (
	stageAnalysis      = "product analysis"
	stageStyleAnalysis = "style analysis"
)

// AnalyzeProduct runs the single product-analysis model call. Image and text
// are handed over together; the model is instructed to synthesize both rather
// than prefer one, and to resolve conflicts with its own judgment.
func AnalyzeProduct(ctx context.Context, client ModelClient, input creative.ProductInput) (*creative.ProductAnalysis, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	req := genai.TextRequest{
		Instruction: buildAnalysisInstruction(input),
		Temperature: 0.3,
	}
	if input.HasImage() {
		req.Image = &genai.InlineImage{MIME: input.ImageMIME, Data: input.ImageData}
	}

	raw, err := client.GenerateJSON(ctx, req)
	if err != nil {
		return nil, invocationError(stageAnalysis, err)
	}

	analysis, err := decodePayload[creative.ProductAnalysis](raw)
	if err != nil {
		return nil, &creative.ParseError{Stage: stageAnalysis, Err: err}
	}
	if missing := analysis.RequiredFieldsMissing(); len(missing) > 0 {
		return nil, &creative.ParseError{
			Stage: stageAnalysis,
			Err:   fmt.Errorf("required fields missing: %s", strings.Join(missing, ", ")),
		}
	}
	analysis.BrandTier = creative.NormalizeBrandTier(string(analysis.BrandTier))
	return &analysis, nil
}

// AnalyzeStyle extracts a StyleAnalysis from a reference image for the
// style-transfer path.
func AnalyzeStyle(ctx context.Context, client ModelClient, image creative.ProductInput) (*creative.StyleAnalysis, error) {
	if !image.HasImage() {
		return nil, &creative.ValidationError{Message: "a style reference image is required"}
	}
	if strings.TrimSpace(image.ImageMIME) == "" {
		return nil, &creative.ValidationError{Message: "image mime type is required when image bytes are provided"}
	}

	raw, err := client.GenerateJSON(ctx, genai.TextRequest{
		Instruction: styleAnalysisInstruction,
		Image:       &genai.InlineImage{MIME: image.ImageMIME, Data: image.ImageData},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, invocationError(stageStyleAnalysis, err)
	}

	style, err := decodePayload[creative.StyleAnalysis](raw)
	if err != nil {
		return nil, &creative.ParseError{Stage: stageStyleAnalysis, Err: err}
	}
	if strings.TrimSpace(style.OverallStyle) == "" {
		return nil, &creative.ParseError{Stage: stageStyleAnalysis, Err: fmt.Errorf("required field missing: overallStyle")}
	}
	return &style, nil
}

func buildAnalysisInstruction(input creative.ProductInput) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a senior product strategist preparing a commercial photo shoot. ")
	sb.WriteString("Respond strictly with a JSON object matching this schema: ")
	sb.WriteString(`{"productCategory":string,"productAttributes":{string:string},"targetAudience":string,` +
		`"keySellingPoints":[string],"productType":string,"brandTier":string,"luxurySignals":[string],` +
		`"visualIdentity":string,"recommendedPresets":[string]}`)
	sb.WriteString(". productCategory, productAttributes, targetAudience, keySellingPoints, and productType are mandatory. ")
	sb.WriteString("brandTier must be one of luxury, premium, mid-tier, mass-market, or undetermined; ")
	sb.WriteString("weigh pricing and exclusivity language, category priors (jewelry and watches skew luxury), ")
	sb.WriteString("and the visual presentation cues in the photo if one is attached.")

	hasText := strings.TrimSpace(input.Description) != ""
	if hasText && input.HasImage() {
		sb.WriteString(" A product photo and a written description are both attached. Treat them as equally ")
		sb.WriteString("authoritative: take intent, audience, and messaging from the text and literal visual ")
		sb.WriteString("attributes from the photo, and resolve any conflict with your own judgment.")
	} else if input.HasImage() {
		sb.WriteString(" Analyze the attached product photo.")
	}
	if hasText {
		fmt.Fprintf(sb, " Product description: %q.", strings.TrimSpace(input.Description))
	}
	return sb.String()
}

const styleAnalysisInstruction = "You are a photography art director. Study the attached reference image and " +
	"describe its visual style. Respond strictly with a JSON object matching this schema: " +
	`{"overallStyle":string,"colorPalette":string,"lightingQuality":string,"moodKeywords":[string],` +
	`"composition":string,"backgroundStyle":string}` +
	". Describe the style of the photograph, not its subject."

// invocationError wraps an upstream failure, pulling the block reason out of
// genai errors so diagnostics survive the wrap.
func invocationError(stage string, err error) error {
	return &creative.ModelInvocationError{Stage: stage, Reason: upstreamReason(err), Err: err}
}

func upstreamReason(err error) string {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return blocked.Reason
	}
	return ""
}
