package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"adstudio/internal/domain/creative"
	"adstudio/internal/providers/genai"
)

const stageDirection = "direction finalization"

// FinalizeDirection turns the selected concept plus the product analysis into
// a fully specified creative direction. Every field the photography rule
// engine consumes must come back populated; for luxury and premium tiers the
// direction must additionally carry luxury visual guidance.
func FinalizeDirection(ctx context.Context, client ModelClient, concept creative.Concept, analysis creative.ProductAnalysis, platformOverride string) (*creative.CreativeDirection, error) {
	raw, err := client.GenerateJSON(ctx, genai.TextRequest{
		Instruction: buildDirectionInstruction(concept, analysis, platformOverride),
		Temperature: 0.5,
	})
	if err != nil {
		return nil, invocationError(stageDirection, err)
	}

	direction, err := decodePayload[creative.CreativeDirection](raw)
	if err != nil {
		return nil, &creative.ParseError{Stage: stageDirection, Err: err}
	}
	if missing := directionFieldsMissing(direction, analysis.BrandTier); len(missing) > 0 {
		return nil, &creative.ParseError{
			Stage: stageDirection,
			Err:   fmt.Errorf("required fields missing: %s", strings.Join(missing, ", ")),
		}
	}

	// Canonical spelling for every categorical field keeps rule lookups and
	// API output consistent regardless of how the model capitalized them.
	direction.Presentation = creative.CanonicalCategory(direction.Presentation)
	direction.Mood = creative.CanonicalCategory(direction.Mood)
	direction.Environment = creative.CanonicalCategory(direction.Environment)
	direction.CameraAngle = creative.CanonicalCategory(direction.CameraAngle)
	direction.Lighting = creative.CanonicalCategory(direction.Lighting)
	if platformOverride != "" {
		direction.TargetPlatform = platformOverride
	}
	if direction.AspectRatio == "" {
		direction.AspectRatio = defaultAspectForPlatform(direction.TargetPlatform)
	}
	return &direction, nil
}

func directionFieldsMissing(d creative.CreativeDirection, tier creative.BrandTier) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"adType", d.AdType},
		{"environment", d.Environment},
		{"presentationStyle", d.Presentation},
		{"mood", d.Mood},
		{"colorPalette", d.ColorPalette},
		{"compositionApproach", d.Composition},
		{"cameraAngle", d.CameraAngle},
		{"lightingPreference", d.Lighting},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if tier.IsUpMarket() && d.Luxury == nil {
		missing = append(missing, "luxuryGuidelines")
	}
	return missing
}

func buildDirectionInstruction(concept creative.Concept, analysis creative.ProductAnalysis, platformOverride string) string {
	conceptJSON, _ := json.Marshal(concept)
	analysisJSON, _ := json.Marshal(analysis)

	sb := &strings.Builder{}
	sb.WriteString("You are an art director locking the final creative direction for a product photograph. ")
	fmt.Fprintf(sb, "Selected concept: %s. Product analysis: %s. ", conceptJSON, analysisJSON)
	sb.WriteString("Respond strictly with a JSON object: ")
	sb.WriteString(`{"adType":string,"targetPlatform":string,"environment":string,"modelRequired":bool,` +
		`"modelType":string,"modelCount":number,"modelGuidance":string,"presentationStyle":string,` +
		`"mood":string,"colorPalette":string,"compositionApproach":string,"cameraAngle":string,` +
		`"lightingPreference":string,"aspectRatio":string`)
	if analysis.BrandTier.IsUpMarket() {
		sb.WriteString(`,"luxuryGuidelines":{"lighting":string,"compositionDepth":string,` +
			`"texturePriority":string,"colorEmotion":string,"spaceUse":string}`)
	}
	sb.WriteString("}. Every field must be filled in. ")
	sb.WriteString("presentationStyle is one of: On-Model, Intimate, Abstract, Flat Lay, Environmental, Landscape, Hero Shot. ")
	sb.WriteString("cameraAngle is one of: Overhead, Low, Three-Quarter, Eye-Level. ")
	sb.WriteString("lightingPreference is one of: Soft, Dramatic, Neon, Warm, Studio. ")
	sb.WriteString("aspectRatio is one of: 1:1, 4:5, 3:2, 16:9, 9:16.")
	if analysis.BrandTier.IsUpMarket() {
		fmt.Fprintf(sb, " This is a %s product: luxuryGuidelines are mandatory and must direct restrained, high-end visual treatment.", analysis.BrandTier)
	}
	if platformOverride != "" {
		fmt.Fprintf(sb, " Target platform is fixed to %s.", platformOverride)
	}
	return sb.String()
}

func defaultAspectForPlatform(platform string) string {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "instagram", "facebook":
		return "4:5"
	case "story", "stories", "tiktok", "reels":
		return "9:16"
	case "banner", "web", "youtube":
		return "16:9"
	default:
		return "1:1"
	}
}
