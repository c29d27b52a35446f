package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"adstudio/internal/domain/creative"
	"adstudio/internal/domain/photography"
	"adstudio/internal/providers/genai"
)

const (
	stageCompose      = "prompt composition"
	stageStyleCompose = "style prompt composition"
)

// equipmentSubstitutions maps literal studio jargon to natural-language
// paraphrases. The image model renders what it reads: a prompt containing
// "softbox" tends to put an actual softbox in the frame. Substitution is a
// fixed dictionary lookup applied during composition, never left to model
// discretion. Longer terms sit first so compounds are consumed whole.
var equipmentSubstitutions = []struct {
	Term        string
	Replacement string
}{
	{"beauty dish", "a crisp yet flattering frontal light"},
	{"ring light", "an even circular wash of light"},
	{"key light", "the primary light source"},
	{"fill light", "a soft secondary glow"},
	{"rim light", "a bright edge of light tracing the subject"},
	{"back light", "a luminous rim from behind"},
	{"led panel", "a clean wash of colored light"},
	{"neon tube", "a glowing ribbon of colored light"},
	{"backlight", "a luminous rim from behind"},
	{"spotlight", "a focused beam of light"},
	{"softbox", "a gentle diffused glow"},
	{"reflector", "a soft bounced lift of light"},
	{"umbrella", "a broad bounced spread of light"},
	{"strobe", "a brilliant burst of light"},
}

// ForbiddenEquipmentTerms lists the literal jargon that must never appear in
// composed prose. Exported for the composer tests.
func ForbiddenEquipmentTerms() []string {
	terms := make([]string, len(equipmentSubstitutions))
	for i, s := range equipmentSubstitutions {
		terms[i] = s.Term
	}
	return terms
}

// SubstituteEquipmentTerms rewrites every occurrence of a forbidden term,
// case-insensitively, with its fixed paraphrase.
func SubstituteEquipmentTerms(text string) string {
	for _, s := range equipmentSubstitutions {
		text = replaceFold(text, s.Term, s.Replacement)
	}
	return text
}

// replaceFold is a case-insensitive strings.ReplaceAll.
func replaceFold(text, term, replacement string) string {
	lower := strings.ToLower(text)
	term = strings.ToLower(term)
	var sb strings.Builder
	for {
		idx := strings.Index(lower, term)
		if idx < 0 {
			sb.WriteString(text)
			return sb.String()
		}
		sb.WriteString(text[:idx])
		sb.WriteString(replacement)
		text = text[idx+len(term):]
		lower = lower[idx+len(term):]
	}
}

// antiArtifactGuidance is appended whenever a human model appears in frame.
const antiArtifactGuidance = "Render the human model photorealistically: natural skin texture with visible " +
	"pores, anatomically correct hands with exactly five fingers each, and a relaxed, asymmetric natural pose."

// ComposePrompt synthesizes the analysis, direction, and photographer spec
// into the single artistic prompt sent to the image model. The product's
// identity and placement always open the paragraph so it can never become
// visually subordinate to a model or background.
func ComposePrompt(ctx context.Context, client ModelClient, analysis creative.ProductAnalysis, direction creative.CreativeDirection, spec photography.Spec) (*creative.ArtisticPrompt, error) {
	raw, err := client.GenerateJSON(ctx, genai.TextRequest{
		Instruction: buildComposeInstruction(analysis, direction, spec),
		Temperature: 0.6,
	})
	if err != nil {
		return nil, invocationError(stageCompose, err)
	}

	payload, err := decodePayload[composePayload](raw)
	if err != nil {
		return nil, &creative.ParseError{Stage: stageCompose, Err: err}
	}
	body := strings.TrimSpace(payload.Prompt)
	if body == "" {
		return nil, &creative.ParseError{Stage: stageCompose, Err: fmt.Errorf("required field missing: prompt")}
	}

	return assemblePrompt(productOpening(analysis, direction), body, direction.ModelRequired), nil
}

// ComposeStylePrompt builds the artistic prompt for the style-transfer path
// directly from the style analysis, bypassing concepts, direction, and the
// rule engine.
func ComposeStylePrompt(ctx context.Context, client ModelClient, style creative.StyleAnalysis, productDescription string) (*creative.ArtisticPrompt, error) {
	raw, err := client.GenerateJSON(ctx, genai.TextRequest{
		Instruction: buildStyleComposeInstruction(style, productDescription),
		Temperature: 0.6,
	})
	if err != nil {
		return nil, invocationError(stageStyleCompose, err)
	}

	payload, err := decodePayload[composePayload](raw)
	if err != nil {
		return nil, &creative.ParseError{Stage: stageStyleCompose, Err: err}
	}
	body := strings.TrimSpace(payload.Prompt)
	if body == "" {
		return nil, &creative.ParseError{Stage: stageStyleCompose, Err: fmt.Errorf("required field missing: prompt")}
	}

	opening := "The product from the attached photo stands as the unmistakable focal point of the frame, " +
		"rendered exactly as it appears, re-imagined in the visual style of the reference image."
	return assemblePrompt(opening, body, false), nil
}

type composePayload struct {
	Prompt string `json:"prompt"`
}

// assemblePrompt enforces the two hard composition requirements: the product
// opens the paragraph, and no literal equipment jargon survives into prose.
func assemblePrompt(opening, body string, modelPresent bool) *creative.ArtisticPrompt {
	parts := []string{SubstituteEquipmentTerms(opening), SubstituteEquipmentTerms(body)}
	if modelPresent {
		parts = append(parts, antiArtifactGuidance)
	}
	return &creative.ArtisticPrompt{
		Text:         strings.Join(parts, " "),
		ModelPresent: modelPresent,
	}
}

func productOpening(analysis creative.ProductAnalysis, direction creative.CreativeDirection) string {
	product := strings.TrimSpace(analysis.ProductType)
	if product == "" {
		product = "product"
	}
	placement := "at the visual center of the frame"
	if strings.EqualFold(direction.Presentation, "Flat Lay") {
		placement = "arranged as the centerpiece of a top-down composition"
	}
	return fmt.Sprintf("A %s (%s) is the unmistakable hero of this photograph, placed %s and rendered in full, exact detail before anything else enters the scene.",
		product, strings.TrimSpace(analysis.ProductCategory), placement)
}

func buildComposeInstruction(analysis creative.ProductAnalysis, direction creative.CreativeDirection, spec photography.Spec) string {
	analysisJSON, _ := json.Marshal(analysis)
	directionJSON, _ := json.Marshal(direction)

	sb := &strings.Builder{}
	sb.WriteString("You are a commercial photographer writing the brief for a single synthetic photograph. ")
	fmt.Fprintf(sb, "Product analysis: %s. Creative direction: %s. ", analysisJSON, directionJSON)
	fmt.Fprintf(sb, "Technical plan: %s ", describeSpec(spec))
	sb.WriteString("Respond strictly with a JSON object: {\"prompt\":string}. The prompt is one flowing paragraph ")
	sb.WriteString("of natural prose describing the finished photograph. Open with the product itself and its ")
	sb.WriteString("placement before describing the environment or any person. Describe light as it looks in the ")
	sb.WriteString("image, never as studio equipment. Do not mention cameras, lenses, or brand names of gear.")
	if direction.ModelRequired {
		fmt.Fprintf(sb, " A human model is present (%s); the product must still dominate the frame.", modelSummary(direction))
	}
	return sb.String()
}

func buildStyleComposeInstruction(style creative.StyleAnalysis, productDescription string) string {
	styleJSON, _ := json.Marshal(style)
	sb := &strings.Builder{}
	sb.WriteString("You are a commercial photographer writing the brief for a single synthetic photograph. ")
	fmt.Fprintf(sb, "Reproduce this extracted visual style: %s. ", styleJSON)
	if strings.TrimSpace(productDescription) != "" {
		fmt.Fprintf(sb, "The subject is: %s. ", strings.TrimSpace(productDescription))
	}
	sb.WriteString("Respond strictly with a JSON object: {\"prompt\":string}. One flowing paragraph; the product ")
	sb.WriteString("opens the description; light is described as it looks, never as equipment.")
	return sb.String()
}

func modelSummary(direction creative.CreativeDirection) string {
	count := direction.ModelCount
	if count <= 0 {
		count = 1
	}
	summary := fmt.Sprintf("%d x %s", count, strings.TrimSpace(direction.ModelType))
	if g := strings.TrimSpace(direction.ModelGuidance); g != "" {
		summary += ", " + g
	}
	return summary
}

// describeSpec renders the photographer spec as prose, paraphrasing equipment
// before it ever reaches the model.
func describeSpec(spec photography.Spec) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "The shot uses a %s aperture for %s depth of field, ISO %d, white balance around %dK. ",
		spec.Camera.Aperture, strings.ToLower(spec.Composition.DepthOfField), spec.Camera.ISO, spec.Camera.WhiteBalanceK)
	fmt.Fprintf(sb, "Lighting is %s:", strings.ToLower(spec.Lighting.Style))
	for i, l := range spec.Lighting.Lights {
		if i > 0 {
			sb.WriteString(";")
		}
		fmt.Fprintf(sb, " %s from %s at %d%% strength",
			SubstituteEquipmentTerms(l.Name), l.Position, l.Intensity)
	}
	fmt.Fprintf(sb, ". Shot from a %s angle with %s framing. Background: %s. ",
		strings.ToLower(spec.Composition.Angle), strings.ToLower(spec.Composition.Framing), spec.Background.Description)
	fmt.Fprintf(sb, "Overall treatment: %s style, %s color tone, %s contrast, %s shadows, %s highlight rolloff.",
		strings.ToLower(spec.Aesthetic.Style), strings.ToLower(spec.Aesthetic.ColorTone), strings.ToLower(spec.Aesthetic.Contrast),
		strings.ToLower(spec.Aesthetic.ShadowDepth), strings.ToLower(spec.Aesthetic.HighlightRolloff))
	return sb.String()
}
