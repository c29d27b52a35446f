package photography

import (
	"strings"

	"adstudio/internal/domain/creative"
)

// Depth-of-field labels used across composition and prompt text.
const (
	DOFShallow = "Shallow"
	DOFMedium  = "Medium"
	DOFDeep    = "Deep"
)

// minISO is the lowest sensitivity the virtual camera offers. It is always
// selected: synthetic photographs have no light budget to trade against noise.
const minISO = 100

// Compose maps a creative direction onto a complete photographer spec. The
// direction is treated as immutable; calling Compose twice with the same
// direction always yields the same spec.
func Compose(d creative.CreativeDirection) Spec {
	aperture, dof := apertureFor(d.Presentation, d.Mood)
	return Spec{
		Camera: Camera{
			Body:          "full-frame mirrorless",
			Lens:          lensFor(d.Presentation),
			Aperture:      aperture,
			ShutterSpeed:  "1/125",
			ISO:           minISO,
			WhiteBalanceK: whiteBalanceFor(d.Mood),
		},
		Lighting: lightingFor(d.Lighting),
		Composition: Composition{
			Angle:        angleFor(d.CameraAngle),
			Framing:      framingFor(d.Presentation),
			DepthOfField: dof,
		},
		Background: backgroundFor(d.Environment, d.Mood),
		Aesthetic:  aestheticFor(d.Mood),
	}
}

// apertureFor picks f-stop and depth of field. Presentation category decides
// first; mood only biases the cases no presentation rule claims.
func apertureFor(presentation, mood string) (string, string) {
	switch key(presentation) {
	case "on-model", "on model", "intimate", "abstract":
		return "f/1.8", DOFShallow
	case "flat lay", "flat-lay", "environmental", "landscape":
		return "f/11", DOFDeep
	}
	switch key(mood) {
	case "luxurious", "nostalgic":
		return "f/2.8", DOFShallow
	case "energetic":
		return "f/8", DOFDeep
	}
	return "f/5.6", DOFMedium
}

func lensFor(presentation string) string {
	switch key(presentation) {
	case "on-model", "on model", "intimate":
		return "85mm prime"
	case "flat lay", "flat-lay":
		return "50mm macro"
	case "environmental", "landscape":
		return "35mm wide"
	case "abstract":
		return "100mm macro"
	default:
		return "50mm prime"
	}
}

func angleFor(cameraAngle string) string {
	switch key(cameraAngle) {
	case "overhead", "top-down", "top down", "bird's eye":
		return "Overhead"
	case "low", "low-angle", "low angle", "hero":
		return "Low Angle"
	case "three-quarter", "three quarter", "45", "45-degree":
		return "Three-Quarter"
	case "eye-level", "eye level", "straight-on", "straight on":
		return "Eye Level"
	default:
		return "Three-Quarter"
	}
}

func framingFor(presentation string) string {
	switch key(presentation) {
	case "intimate", "abstract":
		return "Tight Crop"
	case "environmental", "landscape":
		return "Wide Scene"
	case "flat lay", "flat-lay":
		return "Full Arrangement"
	default:
		return "Centered Product"
	}
}

// whiteBalanceFor maps mood to a kelvin temperature: warm moods sit at
// tungsten, cool or cinematic moods push past daylight, everything else is
// neutral daylight.
func whiteBalanceFor(mood string) int {
	switch key(mood) {
	case "warm", "cozy", "nostalgic", "romantic", "rustic":
		return 3200
	case "cool", "cinematic", "futuristic", "moody", "mysterious":
		return 7000
	default:
		return 5600
	}
}

// Lighting rig styles. Each style maps to a fixed ordered list of named
// lights; the three-point studio rig is the default.
const (
	LightingSoftDiffused = "Soft Diffused"
	LightingHardDramatic = "Hard Dramatic"
	LightingNeonMulti    = "Neon Multi-Point"
	LightingWarmLowAngle = "Warm Low-Angle"
	LightingThreePoint   = "Three-Point Studio"
)

func lightingFor(preference string) Lighting {
	switch key(preference) {
	case "soft", "soft diffused", "diffused", "natural":
		return Lighting{Style: LightingSoftDiffused, Lights: []Light{
			{Name: "key light", Type: "softbox", Position: "45 degrees camera left, high", Intensity: 70},
			{Name: "fill light", Type: "bounce reflector", Position: "camera right, low", Intensity: 40},
		}}
	case "hard", "dramatic", "hard dramatic", "single-source", "single source":
		return Lighting{Style: LightingHardDramatic, Lights: []Light{
			{Name: "key light", Type: "spotlight", Position: "side, slightly behind subject", Intensity: 95},
		}}
	case "neon", "colored", "multi-point", "neon multi-point":
		return Lighting{Style: LightingNeonMulti, Lights: []Light{
			{Name: "key light", Type: "colored LED panel", Position: "camera left", Intensity: 65},
			{Name: "fill light", Type: "colored LED panel", Position: "camera right", Intensity: 55},
			{Name: "backlight", Type: "neon tube", Position: "behind subject", Intensity: 80},
		}}
	case "warm", "golden", "low-angle", "warm low-angle", "golden hour":
		return Lighting{Style: LightingWarmLowAngle, Lights: []Light{
			{Name: "key light", Type: "warm spotlight", Position: "low, camera left", Intensity: 75},
			{Name: "fill light", Type: "bounce reflector", Position: "camera right", Intensity: 30},
		}}
	default:
		return Lighting{Style: LightingThreePoint, Lights: []Light{
			{Name: "key light", Type: "softbox", Position: "45 degrees camera left", Intensity: 80},
			{Name: "fill light", Type: "softbox", Position: "45 degrees camera right", Intensity: 45},
			{Name: "backlight", Type: "spotlight", Position: "behind subject, high", Intensity: 60},
		}}
	}
}

func backgroundFor(environment, mood string) Background {
	switch key(environment) {
	case "studio", "seamless", "indoor studio":
		surface := "matte"
		if isGlossyMood(mood) {
			surface = "glossy"
		}
		return Background{
			Type:        "Studio",
			Surface:     surface,
			Material:    "seamless paper",
			Description: "clean seamless paper sweep with no visible horizon line",
		}
	case "outdoor", "urban", "street", "nature", "beach", "garden":
		return Background{
			Type:        "Environmental",
			Surface:     "natural",
			Material:    "location",
			Description: "real-world setting softened into a gentle background blur",
		}
	case "minimalist", "minimal", "gradient", "abstract":
		return Background{
			Type:        "Minimalist",
			Surface:     "smooth",
			Material:    "none",
			Description: "soft gradient field with no texture to compete with the product",
		}
	default:
		return Background{
			Type:        "Studio",
			Surface:     "matte",
			Material:    "seamless paper",
			Description: "neutral studio sweep",
		}
	}
}

func isGlossyMood(mood string) bool {
	switch key(mood) {
	case "luxurious", "bold", "energetic", "futuristic", "glamorous":
		return true
	}
	return false
}

// aestheticTable maps every supported mood 1:1 to a tonal treatment. An
// unmapped mood falls back to the standard commercial tuple.
var aestheticTable = map[string]Aesthetic{
	"luxurious":  {Style: "Refined Editorial", ColorTone: "Rich", Contrast: "Medium", ShadowDepth: "Deep", HighlightRolloff: "Gentle"},
	"calm":       {Style: "Soft Lifestyle", ColorTone: "Muted", Contrast: "Low", ShadowDepth: "Soft", HighlightRolloff: "Gradual"},
	"energetic":  {Style: "Vivid Commercial", ColorTone: "Saturated", Contrast: "High", ShadowDepth: "Crisp", HighlightRolloff: "Punchy"},
	"nostalgic":  {Style: "Film Emulation", ColorTone: "Warm Faded", Contrast: "Low", ShadowDepth: "Lifted", HighlightRolloff: "Rolled"},
	"dramatic":   {Style: "Chiaroscuro", ColorTone: "Desaturated", Contrast: "High", ShadowDepth: "Deep", HighlightRolloff: "Hard"},
	"playful":    {Style: "Pop Commercial", ColorTone: "Bright", Contrast: "Medium", ShadowDepth: "Soft", HighlightRolloff: "Clean"},
	"minimal":    {Style: "Clean Catalog", ColorTone: "Neutral", Contrast: "Low", ShadowDepth: "Faint", HighlightRolloff: "Clean"},
	"warm":       {Style: "Golden Lifestyle", ColorTone: "Warm", Contrast: "Medium", ShadowDepth: "Soft", HighlightRolloff: "Gentle"},
	"cinematic":  {Style: "Cinematic Grade", ColorTone: "Teal-Orange", Contrast: "High", ShadowDepth: "Deep", HighlightRolloff: "Filmic"},
	"fresh":      {Style: "Airy Commercial", ColorTone: "Cool Clean", Contrast: "Medium", ShadowDepth: "Faint", HighlightRolloff: "Bright"},
	"bold":       {Style: "High-Impact", ColorTone: "Saturated", Contrast: "High", ShadowDepth: "Deep", HighlightRolloff: "Punchy"},
	"serene":     {Style: "Quiet Editorial", ColorTone: "Pastel", Contrast: "Low", ShadowDepth: "Soft", HighlightRolloff: "Gradual"},
	"mysterious": {Style: "Low-Key", ColorTone: "Cool Dark", Contrast: "High", ShadowDepth: "Deep", HighlightRolloff: "Hard"},
}

// standardCommercial is the neutral fallback tuple for unmapped moods.
var standardCommercial = Aesthetic{
	Style:            "Standard Commercial",
	ColorTone:        "Neutral",
	Contrast:         "Medium",
	ShadowDepth:      "Soft",
	HighlightRolloff: "Clean",
}

func aestheticFor(mood string) Aesthetic {
	if a, ok := aestheticTable[key(mood)]; ok {
		return a
	}
	return standardCommercial
}

func key(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
