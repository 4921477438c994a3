package imaging

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads successive sprite hues around the color wheel so that
// neighbouring outlines never share a similar color.
const goldenAngle = 137.50776405

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in several representations.
//
// It is used to report detected background colors, where agents typically
// want the hex form for tooling and HSL to reason about the hue.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#rrggbb"
	RGB RGBColor `json:"rgb"` // RGB components
	HSL HSLColor `json:"hsl"` // HSL representation
}

// DescribeColor converts c into a ColorResult.
func DescribeColor(c colorful.Color) ColorResult {
	c = c.Clamped()
	r, g, b := c.RGB255()
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return ColorResult{
		Hex: c.Hex(),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// ParseColor parses a "#rrggbb" or "#rgb" string into an opaque color.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// SpriteColor returns a distinct, saturated outline color for the i-th sprite.
func SpriteColor(i int) color.NRGBA {
	hue := math.Mod(float64(i)*goldenAngle, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 1.0).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// labelTextColor picks a readable text color for labels drawn on a box of
// color box: dark text on light boxes and light text on dark ones.
func labelTextColor(box color.NRGBA) color.NRGBA {
	c, _ := colorful.MakeColor(box)
	if l, _, _ := c.Lab(); l > 0.6 {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}
