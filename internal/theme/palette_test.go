package theme

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Primary(t *testing.T) {
	for _, tc := range []struct {
		cfg  Config
		want string
	}{
		{Config{Hue: 0, Saturation: 100, Lightness: 50}, "#ff0000"},
		{Config{Hue: 120, Saturation: 100, Lightness: 50}, "#00ff00"},
		{Config{Hue: 240, Saturation: 100, Lightness: 50}, "#0000ff"},
		{Config{Hue: 0, Saturation: 0, Lightness: 100}, "#ffffff"},
		{Config{Hue: 200, Saturation: 80, Lightness: 0}, "#000000"},
		{Config{Hue: 0, Saturation: 0, Lightness: 50}, "#808080"},
		// out of range settings are clamped
		{Config{Hue: 0, Saturation: 250, Lightness: 50}, "#ff0000"},
	} {
		assert.Equal(t, tc.want, Resolve(tc.cfg).Primary, "%+v", tc.cfg)
	}
}

func TestResolve_OnPrimaryFollowsPerceivedLightness(t *testing.T) {
	// same HSL lightness, very different perceived lightness
	assert.Equal(t, "#000000", Resolve(Config{Hue: 60, Saturation: 100, Lightness: 50}).OnPrimary)
	assert.Equal(t, "#ffffff", Resolve(Config{Hue: 240, Saturation: 100, Lightness: 50}).OnPrimary)
}

func TestResolve_Deterministic(t *testing.T) {
	cfg := Config{Hue: 210, Saturation: 70, Lightness: 50, Softness: 30}
	assert.Equal(t, Resolve(cfg), Resolve(cfg))
}

func TestResolve_AllColorsAreHex(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for _, cfg := range []Config{
		{Hue: 0, Saturation: 100, Lightness: 50},
		{Hue: 725, Saturation: 150, Lightness: -20, Softness: 300, Dark: true},
		{Hue: -30, Saturation: 40, Lightness: 80, Softness: 100},
	} {
		p := Resolve(cfg)
		for _, c := range []string{p.Primary, p.PrimaryHover, p.PrimaryMuted, p.OnPrimary, p.Accent,
			p.Background, p.Surface, p.Border, p.Text, p.TextMuted} {
			assert.Regexp(t, hex, c)
		}
	}
}

func TestResolve_HueWraps(t *testing.T) {
	assert.Equal(t,
		Resolve(Config{Hue: 30, Saturation: 60, Lightness: 45}),
		Resolve(Config{Hue: 390, Saturation: 60, Lightness: 45}),
	)
}

func TestResolve_SoftnessDesaturatesPrimary(t *testing.T) {
	sharp := Resolve(Config{Hue: 0, Saturation: 100, Lightness: 50, Softness: 0})
	soft := Resolve(Config{Hue: 0, Saturation: 100, Lightness: 50, Softness: 100})
	assert.Equal(t, "#ff0000", sharp.Primary)
	assert.Equal(t, "#bf4040", soft.Primary)
}

func TestResolve_DarkMode(t *testing.T) {
	light := Resolve(Config{Hue: 210, Saturation: 70, Lightness: 50})
	dark := Resolve(Config{Hue: 210, Saturation: 70, Lightness: 50, Dark: true})
	assert.Equal(t, light.Primary, dark.Primary)
	assert.NotEqual(t, light.Background, dark.Background)
	assert.Equal(t, "#ffffff", light.OnPrimary)
	assert.Equal(t, "#000000", Resolve(Config{Lightness: 75}).OnPrimary)
}
