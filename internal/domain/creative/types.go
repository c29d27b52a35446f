package creative

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ProductInput is the raw material a caller supplies: a product photo, a
// free-text description, or both. At least one of the two must be present.
type ProductInput struct {
	ImageData   []byte
	ImageMIME   string
	Description string
}

// Validate enforces the intake contract. Image and text are treated as equally
// authoritative downstream; this check only guarantees there is something to
// analyze at all.
func (p ProductInput) Validate() error {
	if len(p.ImageData) == 0 && strings.TrimSpace(p.Description) == "" {
		return &ValidationError{Message: "either a product image or a text description is required"}
	}
	if len(p.ImageData) > 0 && strings.TrimSpace(p.ImageMIME) == "" {
		return &ValidationError{Message: "image mime type is required when image bytes are provided"}
	}
	return nil
}

// HasImage reports whether the input carries usable image bytes.
func (p ProductInput) HasImage() bool {
	return len(p.ImageData) > 0
}

// BrandTier classifies how up-market a product presents.
type BrandTier string

const (
	TierLuxury       BrandTier = "luxury"
	TierPremium      BrandTier = "premium"
	TierMidTier      BrandTier = "mid-tier"
	TierMassMarket   BrandTier = "mass-market"
	TierUndetermined BrandTier = "undetermined"
)

// NormalizeBrandTier maps free-form model output onto the tier enum. Anything
// unrecognized collapses to undetermined rather than failing.
func NormalizeBrandTier(raw string) BrandTier {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "luxury":
		return TierLuxury
	case "premium":
		return TierPremium
	case "mid-tier", "mid tier", "midtier":
		return TierMidTier
	case "mass-market", "mass market", "massmarket", "budget":
		return TierMassMarket
	default:
		return TierUndetermined
	}
}

// IsUpMarket reports whether the tier triggers luxury visual-guidance
// enrichment during direction finalization.
func (t BrandTier) IsUpMarket() bool {
	return t == TierLuxury || t == TierPremium
}

// ProductAnalysis is the structured understanding of the product produced once
// per request and consumed by both the concept and direction phases.
type ProductAnalysis struct {
	ProductCategory    string            `json:"productCategory"`
	ProductAttributes  map[string]string `json:"productAttributes"`
	TargetAudience     string            `json:"targetAudience"`
	KeySellingPoints   []string          `json:"keySellingPoints"`
	ProductType        string            `json:"productType"`
	BrandTier          BrandTier         `json:"brandTier,omitempty"`
	LuxurySignals      []string          `json:"luxurySignals,omitempty"`
	VisualIdentity     string            `json:"visualIdentity,omitempty"`
	RecommendedPresets []string          `json:"recommendedPresets,omitempty"`
}

// RequiredFieldsMissing lists which mandatory analysis fields the model failed
// to populate. An empty result means the analysis is usable.
func (a ProductAnalysis) RequiredFieldsMissing() []string {
	var missing []string
	if strings.TrimSpace(a.ProductCategory) == "" {
		missing = append(missing, "productCategory")
	}
	if len(a.ProductAttributes) == 0 {
		missing = append(missing, "productAttributes")
	}
	if strings.TrimSpace(a.TargetAudience) == "" {
		missing = append(missing, "targetAudience")
	}
	if len(a.KeySellingPoints) == 0 {
		missing = append(missing, "keySellingPoints")
	}
	if strings.TrimSpace(a.ProductType) == "" {
		missing = append(missing, "productType")
	}
	return missing
}

// PreferenceAuto is the normalized form of "let the system decide" for user
// style preferences. Stages pass it through as a free choice and the rule
// engine resolves whatever comes back through its defaults.
const PreferenceAuto = "auto"

// UserPreferences captures the optional style steers a caller may supply
// before concept generation. Empty values mean auto.
type UserPreferences struct {
	ModelPresence   string `json:"modelPresence,omitempty"`
	AestheticEnergy string `json:"aestheticEnergy,omitempty"`
	StyleDirection  string `json:"styleDirection,omitempty"`
}

// Normalize folds empty and "let ai/system decide" spellings into
// PreferenceAuto so downstream prompt shaping sees one canonical token.
func (p *UserPreferences) Normalize() {
	p.ModelPresence = normalizePreference(p.ModelPresence)
	p.AestheticEnergy = normalizePreference(p.AestheticEnergy)
	p.StyleDirection = normalizePreference(p.StyleDirection)
}

func normalizePreference(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", PreferenceAuto, "let ai decide", "let the ai decide", "let the system decide", "system":
		return PreferenceAuto
	}
	return v
}

// Concept is one candidate creative angle offered for selection before any
// billed work happens. Concepts are ephemeral: the batch is never persisted.
type Concept struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	AdType            string `json:"adType"`
	RequiresModel     bool   `json:"requiresModel"`
	Mood              string `json:"mood"`
	Aesthetic         string `json:"aesthetic"`
	VisualDescription string `json:"visualDescription"`
}

// LuxuryGuidelines is the conditional visual enrichment attached to a
// direction when the analysis indicates a luxury or premium brand tier.
type LuxuryGuidelines struct {
	Lighting         string `json:"lighting"`
	CompositionDepth string `json:"compositionDepth"`
	TexturePriority  string `json:"texturePriority"`
	ColorEmotion     string `json:"colorEmotion"`
	SpaceUse         string `json:"spaceUse"`
}

// CreativeDirection is the finalized, non-revocable set of creative decisions
// for one generation. Once the rule engine has consumed it, it is never
// mutated: the photographer spec must be replayable from the direction alone.
type CreativeDirection struct {
	AdType         string            `json:"adType"`
	TargetPlatform string            `json:"targetPlatform"`
	Environment    string            `json:"environment"`
	ModelRequired  bool              `json:"modelRequired"`
	ModelType      string            `json:"modelType,omitempty"`
	ModelCount     int               `json:"modelCount,omitempty"`
	ModelGuidance  string            `json:"modelGuidance,omitempty"`
	Presentation   string            `json:"presentationStyle"`
	Mood           string            `json:"mood"`
	ColorPalette   string            `json:"colorPalette"`
	Composition    string            `json:"compositionApproach"`
	CameraAngle    string            `json:"cameraAngle"`
	Lighting       string            `json:"lightingPreference"`
	AspectRatio    string            `json:"aspectRatio"`
	Luxury         *LuxuryGuidelines `json:"luxuryGuidelines,omitempty"`
}

// titleCaser normalizes categorical creative fields ("flat lay" -> "Flat Lay")
// so rule lookups and API output agree on one spelling.
var titleCaser = cases.Title(language.English)

// CanonicalCategory trims and title-cases a categorical field value.
func CanonicalCategory(v string) string {
	return titleCaser.String(strings.TrimSpace(v))
}

// StyleAnalysis is the extraction produced from a style-reference image on the
// style-transfer path, which bypasses concepts and direction entirely.
type StyleAnalysis struct {
	OverallStyle    string   `json:"overallStyle"`
	ColorPalette    string   `json:"colorPalette"`
	LightingQuality string   `json:"lightingQuality"`
	MoodKeywords    []string `json:"moodKeywords"`
	Composition     string   `json:"composition"`
	BackgroundStyle string   `json:"backgroundStyle"`
}

// ArtisticPrompt is the single natural-language instruction ultimately sent to
// the image-synthesis model.
type ArtisticPrompt struct {
	Text         string
	ModelPresent bool
}

// GeneratedAsset is the finished synthetic photograph plus the billing
// metadata the caller needs to reconcile spend.
type GeneratedAsset struct {
	ID          string
	Data        []byte
	MIME        string
	Prompt      string
	CreditCost  int
	StorageKey  string
	AspectRatio string
}
