package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"adstudio/internal/domain/creative"
)

func TestGenerateConceptsHappyPath(t *testing.T) {
	model := &fakeModel{jsonReplies: []string{conceptsReply()}}
	concepts, err := GenerateConcepts(context.Background(), model, sampleAnalysis(), creative.UserPreferences{}, "instagram")
	if err != nil {
		t.Fatalf("GenerateConcepts: %v", err)
	}
	if len(concepts) != 2 {
		t.Fatalf("got %d concepts, want 2", len(concepts))
	}
	for _, c := range concepts {
		if c.ID == "" {
			t.Errorf("concept %q has no ID", c.Title)
		}
	}
	if !strings.Contains(model.lastText.Instruction, "instagram") {
		t.Fatal("platform missing from instruction")
	}
}

func TestGenerateConceptsAutoPreferencesStayOpen(t *testing.T) {
	model := &fakeModel{jsonReplies: []string{conceptsReply()}}
	prefs := creative.UserPreferences{ModelPresence: "let AI decide", AestheticEnergy: "", StyleDirection: "vintage"}
	if _, err := GenerateConcepts(context.Background(), model, sampleAnalysis(), prefs, ""); err != nil {
		t.Fatalf("GenerateConcepts: %v", err)
	}
	if !strings.Contains(model.lastText.Instruction, "choose whatever best fits") {
		t.Fatal("auto preference was not phrased as a free choice")
	}
	if !strings.Contains(model.lastText.Instruction, "style direction: vintage") {
		t.Fatal("explicit preference missing from instruction")
	}
	if strings.Contains(strings.ToLower(model.lastText.Instruction), "let ai decide") {
		t.Fatal("raw auto spelling leaked into the instruction")
	}
}

func TestGenerateConceptsCapsAtFour(t *testing.T) {
	concepts := make([]map[string]any, 6)
	moods := []string{"Calm", "Bold", "Warm", "Fresh", "Serene", "Playful"}
	for i := range concepts {
		concepts[i] = map[string]any{
			"title":       "Concept " + moods[i],
			"description": "Angle built around a " + moods[i] + " read.",
			"adType":      moods[i] + " Showcase",
			"mood":        moods[i],
			"aesthetic":   "Editorial",
		}
	}
	model := &fakeModel{jsonReplies: []string{mustJSON(map[string]any{"concepts": concepts})}}

	got, err := GenerateConcepts(context.Background(), model, sampleAnalysis(), creative.UserPreferences{}, "")
	if err != nil {
		t.Fatalf("GenerateConcepts: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d concepts, want cap of 4", len(got))
	}
}

func TestGenerateConceptsTooFewDistinctIsParseError(t *testing.T) {
	dup := map[string]any{
		"title":       "Same Angle",
		"description": "The same angle twice.",
		"adType":      "Lifestyle",
		"mood":        "Calm",
		"aesthetic":   "Candid",
	}
	model := &fakeModel{jsonReplies: []string{mustJSON(map[string]any{"concepts": []map[string]any{dup, dup}})}}

	_, err := GenerateConcepts(context.Background(), model, sampleAnalysis(), creative.UserPreferences{}, "")
	var parseErr *creative.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}

func TestDedupeConcepts(t *testing.T) {
	in := []creative.Concept{
		{Title: "A", Description: "d", AdType: "Lifestyle", Mood: "Calm", Aesthetic: "Candid"},
		{Title: "B", Description: "d", AdType: "Lifestyle", Mood: "Calm", Aesthetic: "Candid"},
		{Title: "C", Description: "d", AdType: "Lifestyle", Mood: "Bold", Aesthetic: "Editorial"},
		{Title: "", Description: "d", AdType: "Showcase", Mood: "Warm", Aesthetic: "Soft"},
		{Title: "D", Description: "d", AdType: "Showcase", Mood: "Warm", Aesthetic: "Soft"},
	}
	out := dedupeConcepts(in)
	var titles []string
	for _, c := range out {
		titles = append(titles, c.Title)
	}
	want := "A,C,D"
	if got := strings.Join(titles, ","); got != want {
		t.Fatalf("dedupe kept %s, want %s", got, want)
	}
}
