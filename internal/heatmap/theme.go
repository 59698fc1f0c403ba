// Package heatmap renders pressure frames as palette-mapped images.
package heatmap

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme selects one of the fixed heatmap palettes.
type Theme string

const (
	// ClassicTheme sweeps hue from deep blue to red, the traditional
	// "cold to hot" pressure display.
	ClassicTheme Theme = "classic"

	// ThermalTheme runs black -> red -> yellow -> white.
	ThermalTheme Theme = "thermal"

	// GrayscaleTheme is a monochrome ramp for print-friendly output.
	GrayscaleTheme Theme = "grayscale"

	// DefaultTheme is used when no palette is selected.
	DefaultTheme = ClassicTheme

	// colorMapSize is the number of pre-computed colors per palette.
	colorMapSize = 256
)

const (
	hueStart = 236.0
	hueEnd   = 0.0
)

// Themes lists the available palettes.
func Themes() []Theme {
	return []Theme{ClassicTheme, ThermalTheme, GrayscaleTheme}
}

// ValidTheme reports whether name is a known palette.
func ValidTheme(name string) bool {
	switch Theme(name) {
	case ClassicTheme, ThermalTheme, GrayscaleTheme:
		return true
	}
	return false
}

// themeFunc maps a normalized value [0,1] to a color.
func themeFunc(theme Theme) func(float64) color.Color {
	switch theme {
	case ThermalTheme:
		return func(t float64) color.Color {
			switch {
			case t < 0.33:
				return color.RGBA{R: channel(t * 3), A: 0xff}
			case t < 0.66:
				return color.RGBA{R: 255, G: channel((t - 0.33) * 3), A: 0xff}
			default:
				return color.RGBA{R: 255, G: 255, B: channel((t - 0.66) * 3), A: 0xff}
			}
		}

	case GrayscaleTheme:
		return func(t float64) color.Color {
			v := uint8(math.Pow(t, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 0xff}
		}

	default: // ClassicTheme
		return func(t float64) color.Color {
			hue := hueStart - t*(hueStart-hueEnd)
			return colorful.Hsv(hue, 1, 0.90)
		}
	}
}

// channel converts a [0,1] intensity to an 8-bit channel, saturating
// out-of-range values.
func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}

// colorMap is a pre-computed palette lookup table over [0,1].
type colorMap struct {
	colors []color.Color
}

func newColorMap(theme Theme) *colorMap {
	fn := themeFunc(theme)
	cm := &colorMap{colors: make([]color.Color, colorMapSize)}
	for i := range cm.colors {
		t := float64(i) / float64(colorMapSize-1)
		cm.colors[i] = fn(t)
	}
	return cm
}

// at returns the palette color for a normalized value, clamped to [0,1].
func (cm *colorMap) at(t float64) color.Color {
	index := int(t * float64(colorMapSize-1))
	if index < 0 {
		index = 0
	} else if index >= colorMapSize {
		index = colorMapSize - 1
	}
	return cm.colors[index]
}
