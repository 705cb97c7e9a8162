package vis

import (
	"fmt"
	"math"
)

// Color is an RGB triple with a straight alpha in [0,1]. Alpha participates
// in blending only; conversion to the raster's premultiplied representation
// happens at the drawing boundary.
type Color struct {
	R, G, B uint8
	A       float64
}

// RGB returns a fully opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// Alpha returns the color with its alpha replaced.
func (c Color) Alpha(a float64) Color {
	c.A = clamp01(a)
	return c
}

// Scaled returns the color with its alpha multiplied.
func (c Color) Scaled(f float64) Color {
	c.A = clamp01(c.A * f)
	return c
}

func lerpColor(a, b Color, t float64) Color {
	t = clamp01(t)
	return Color{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: a.A + (b.A-a.A)*t,
	}
}

// FromHSV converts hue/saturation/value (h wraps, s and v clamped) to a color.
func FromHSV(h, s, v float64) Color {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	s = clamp01(s)
	v = clamp01(v)

	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return Color{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 1}
}

// ParseHex parses "#rrggbb" or "rrggbb" into an opaque color.
func ParseHex(s string) (Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	return RGB(r, g, b), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
