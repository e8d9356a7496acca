// Package theme derives a color palette from a user's theme settings.
package theme

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Config is the theme input: hue in degrees, the rest in percent.
type Config struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
	Softness   float64 `json:"softness"`
	Dark       bool    `json:"dark"`
}

// Palette is a resolved set of hex colors for rendering.
type Palette struct {
	Primary      string `json:"primary"`
	PrimaryHover string `json:"primaryHover"`
	PrimaryMuted string `json:"primaryMuted"`
	OnPrimary    string `json:"onPrimary"`
	Accent       string `json:"accent"`
	Background   string `json:"background"`
	Surface      string `json:"surface"`
	Border       string `json:"border"`
	Text         string `json:"text"`
	TextMuted    string `json:"textMuted"`
}

// onPrimaryThreshold is the CIE L* above which text on the primary color is black.
const onPrimaryThreshold = 0.6

// Resolve maps a theme config to a palette. It is pure: equal configs
// always give equal palettes.
func Resolve(cfg Config) Palette {
	h := math.Mod(cfg.Hue, 360)
	if h < 0 {
		h += 360
	}
	s := fraction(cfg.Saturation)
	l := fraction(cfg.Lightness)
	soft := fraction(cfg.Softness)

	// softness trades saturation for a narrower lightness range
	primaryS := s * (1 - 0.5*soft)
	hoverL := math.Max(0, l-0.08*(1-soft))
	mutedS := primaryS * 0.35
	mutedL := l + (1-l)*(0.6+0.2*soft)

	var bgL, surfaceL, borderL, textL, textMutedL float64
	if cfg.Dark {
		bgL, surfaceL, borderL, textL, textMutedL = 0.08+0.04*soft, 0.13+0.04*soft, 0.24, 0.94, 0.68
	} else {
		bgL, surfaceL, borderL, textL, textMutedL = 0.98-0.02*soft, 1, 0.88-0.04*soft, 0.12, 0.40
	}
	neutralS := math.Min(primaryS, 0.2) * (0.4 + 0.6*soft)

	primary := colorful.Hsl(h, primaryS, l)
	return Palette{
		Primary:      primary.Clamped().Hex(),
		PrimaryHover: hex(h, primaryS, hoverL),
		PrimaryMuted: hex(h, mutedS, mutedL),
		OnPrimary:    onColor(primary),
		Accent:       hex(math.Mod(h+150, 360), primaryS, l),
		Background:   hex(h, neutralS, bgL),
		Surface:      hex(h, neutralS, surfaceL),
		Border:       hex(h, neutralS, borderL),
		Text:         hex(h, neutralS*0.5, textL),
		TextMuted:    hex(h, neutralS*0.5, textMutedL),
	}
}

func hex(h, s, l float64) string {
	return colorful.Hsl(h, s, l).Clamped().Hex()
}

// onColor picks black or white text by the perceived lightness of c.
func onColor(c colorful.Color) string {
	if lightness, _, _ := c.Clamped().Lab(); lightness > onPrimaryThreshold {
		return "#000000"
	}
	return "#ffffff"
}

// fraction maps a percent setting to [0,1]. NaN counts as 0.
func fraction(percent float64) float64 {
	if math.IsNaN(percent) {
		return 0
	}
	return math.Max(0, math.Min(100, percent)) / 100
}
