// Package photography derives a deterministic technical shot plan from a
// finalized creative direction. Everything in here is pure table lookup: no
// remote calls, and every input (including unknown category strings) has a
// defined output, so a legally constructed direction can never fail here.
package photography

// Camera holds the body, glass, and exposure settings for the shot.
type Camera struct {
	Body          string `json:"body"`
	Lens          string `json:"lens"`
	Aperture      string `json:"aperture"`
	ShutterSpeed  string `json:"shutterSpeed"`
	ISO           int    `json:"iso"`
	WhiteBalanceK int    `json:"whiteBalanceK"`
}

// Light is a single named light in the rig, ordered key -> fill -> back.
type Light struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Position  string `json:"position"`
	Intensity int    `json:"intensity"`
}

// Lighting names the rig style and its ordered lights.
type Lighting struct {
	Style  string  `json:"style"`
	Lights []Light `json:"lights"`
}

// Composition describes angle, framing, and depth of field.
type Composition struct {
	Angle        string `json:"angle"`
	Framing      string `json:"framing"`
	DepthOfField string `json:"depthOfField"`
}

// Background describes the surface the product sits against.
type Background struct {
	Type        string `json:"type"`
	Surface     string `json:"surface"`
	Material    string `json:"material"`
	Description string `json:"description"`
}

// Aesthetic is the tonal treatment tuple derived from mood.
type Aesthetic struct {
	Style            string `json:"style"`
	ColorTone        string `json:"colorTone"`
	Contrast         string `json:"contrast"`
	ShadowDepth      string `json:"shadowDepth"`
	HighlightRolloff string `json:"highlightRolloff"`
}

// Spec is the full deterministic technical plan handed to the prompt composer.
type Spec struct {
	Camera      Camera      `json:"camera"`
	Lighting    Lighting    `json:"lighting"`
	Composition Composition `json:"composition"`
	Background  Background  `json:"background"`
	Aesthetic   Aesthetic   `json:"aesthetic"`
}
