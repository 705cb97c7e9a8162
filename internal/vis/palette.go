package vis

import colorful "github.com/lucasb-eyer/go-colorful"

// Palette is a named, immutable color set shared by all of a renderer's
// drawing calls. Gradient holds at least three ordered stops.
type Palette struct {
	Name      string
	Primary   Color
	Secondary Color
	Tertiary  Color
	Gradient  []Color
}

const defaultPaletteName = "aurora"

var palettes = []Palette{
	{
		Name:      "aurora",
		Primary:   RGB(0, 229, 255),
		Secondary: RGB(41, 121, 255),
		Tertiary:  RGB(170, 0, 255),
		Gradient: []Color{
			RGB(10, 24, 61),
			RGB(0, 174, 255),
			RGB(20, 255, 161),
			RGB(240, 255, 92),
		},
	},
	{
		Name:      "ember",
		Primary:   RGB(255, 111, 0),
		Secondary: RGB(255, 23, 68),
		Tertiary:  RGB(255, 214, 0),
		Gradient: []Color{
			RGB(40, 8, 6),
			RGB(191, 54, 12),
			RGB(255, 111, 0),
			RGB(255, 234, 100),
		},
	},
	{
		Name:      "neon",
		Primary:   RGB(255, 0, 230),
		Secondary: RGB(0, 255, 209),
		Tertiary:  RGB(255, 238, 0),
		Gradient: []Color{
			RGB(28, 0, 51),
			RGB(148, 0, 255),
			RGB(255, 0, 230),
			RGB(0, 255, 209),
		},
	},
	{
		Name:      "glacier",
		Primary:   RGB(144, 202, 249),
		Secondary: RGB(38, 198, 218),
		Tertiary:  RGB(236, 239, 241),
		Gradient: []Color{
			RGB(10, 20, 40),
			RGB(21, 101, 192),
			RGB(38, 198, 218),
			RGB(225, 245, 254),
		},
	},
	{
		Name:      "mono",
		Primary:   RGB(250, 250, 250),
		Secondary: RGB(158, 158, 158),
		Tertiary:  RGB(97, 97, 97),
		Gradient: []Color{
			RGB(18, 18, 18),
			RGB(97, 97, 97),
			RGB(189, 189, 189),
			RGB(255, 255, 255),
		},
	},
}

// PaletteByName returns the named palette, falling back to the default for
// unknown names.
func PaletteByName(name string) Palette {
	for _, p := range palettes {
		if p.Name == name {
			return p
		}
	}
	return PaletteByName(defaultPaletteName)
}

// PaletteNames lists all available palettes in a stable order.
func PaletteNames() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.Name
	}
	return names
}

// NextPalette cycles to the palette after the named one.
func NextPalette(name string) Palette {
	for i, p := range palettes {
		if p.Name == name {
			return palettes[(i+1)%len(palettes)]
		}
	}
	return PaletteByName(defaultPaletteName)
}

// Sample interpolates the gradient at position t in [0,1], blending between
// adjacent stops in a perceptual color space.
func (p Palette) Sample(t float64) Color {
	stops := p.Gradient
	if len(stops) == 0 {
		return p.Primary
	}
	if len(stops) == 1 {
		return stops[0]
	}
	t = clamp01(t)

	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	frac := pos - float64(i)

	a := toColorful(stops[i])
	b := toColorful(stops[i+1])
	blended := a.BlendLab(b, frac).Clamped()
	return Color{
		R: uint8(blended.R*255 + 0.5),
		G: uint8(blended.G*255 + 0.5),
		B: uint8(blended.B*255 + 0.5),
		A: 1,
	}
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
