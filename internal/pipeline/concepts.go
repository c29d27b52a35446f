package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"adstudio/internal/domain/creative"
	"adstudio/internal/providers/genai"
)

const stageConcepts = "concept generation"

const (
	minConcepts = 2
	maxConcepts = 4
)

// GenerateConcepts asks the model for candidate creative angles and filters
// near-duplicates. This phase never touches the credit ledger or the image
// model: it exists so the caller can pick a direction before committing spend.
func GenerateConcepts(ctx context.Context, client ModelClient, analysis creative.ProductAnalysis, prefs creative.UserPreferences, platform string) ([]creative.Concept, error) {
	prefs.Normalize()

	raw, err := client.GenerateJSON(ctx, genai.TextRequest{
		Instruction: buildConceptsInstruction(analysis, prefs, platform),
		Temperature: 0.8,
	})
	if err != nil {
		return nil, invocationError(stageConcepts, err)
	}

	payload, err := decodePayload[conceptsPayload](raw)
	if err != nil {
		return nil, &creative.ParseError{Stage: stageConcepts, Err: err}
	}

	concepts := dedupeConcepts(payload.Concepts)
	if len(concepts) < minConcepts {
		return nil, &creative.ParseError{
			Stage: stageConcepts,
			Err:   fmt.Errorf("expected at least %d distinct concepts, got %d", minConcepts, len(concepts)),
		}
	}
	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}
	for i := range concepts {
		if concepts[i].ID == "" {
			concepts[i].ID = uuid.NewString()
		}
	}
	return concepts, nil
}

type conceptsPayload struct {
	Concepts []creative.Concept `json:"concepts"`
}

// dedupeConcepts drops candidates that repeat an earlier concept's strategic
// angle: same ad type, or the same mood+aesthetic pairing. Order is preserved.
func dedupeConcepts(in []creative.Concept) []creative.Concept {
	seenAdType := make(map[string]struct{})
	seenAngle := make(map[string]struct{})
	var out []creative.Concept
	for _, c := range in {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Description) == "" {
			continue
		}
		adType := strings.ToLower(strings.TrimSpace(c.AdType))
		angle := strings.ToLower(strings.TrimSpace(c.Mood)) + "|" + strings.ToLower(strings.TrimSpace(c.Aesthetic))
		if _, dup := seenAdType[adType]; dup {
			if _, dupAngle := seenAngle[angle]; dupAngle {
				continue
			}
		}
		seenAdType[adType] = struct{}{}
		seenAngle[angle] = struct{}{}
		out = append(out, c)
	}
	return out
}

func buildConceptsInstruction(analysis creative.ProductAnalysis, prefs creative.UserPreferences, platform string) string {
	summary, _ := json.Marshal(analysis)

	sb := &strings.Builder{}
	sb.WriteString("You are a creative director pitching advertising photography concepts. ")
	fmt.Fprintf(sb, "Product analysis: %s. ", summary)
	sb.WriteString("Propose between 2 and 4 concepts. Respond strictly with a JSON object: ")
	sb.WriteString(`{"concepts":[{"id":string,"title":string,"description":string,"adType":string,` +
		`"requiresModel":bool,"mood":string,"aesthetic":string,"visualDescription":string}]}`)
	sb.WriteString(". Each concept must take a genuinely different strategic angle: different adType, ")
	sb.WriteString("different mood and aesthetic pairing, not merely reworded copy.")

	if platform != "" {
		fmt.Fprintf(sb, " Target platform: %s.", platform)
	}
	writePreference(sb, "human model presence", prefs.ModelPresence)
	writePreference(sb, "aesthetic energy", prefs.AestheticEnergy)
	writePreference(sb, "style direction", prefs.StyleDirection)
	return sb.String()
}

func writePreference(sb *strings.Builder, label, value string) {
	if value == creative.PreferenceAuto {
		fmt.Fprintf(sb, " For %s, choose whatever best fits the product.", label)
		return
	}
	fmt.Fprintf(sb, " The caller requires %s: %s.", label, value)
}
