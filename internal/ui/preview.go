package ui

import (
	"fmt"
	"image"
	"os"
	"runtime"
	"strings"
	"sync"
)

// Brightness ramp for terminals without color, darkest to brightest.
const asciiRamp = " .:-=+*#%@"

type colorMode uint8

const (
	colorOff colorMode = iota
	colorANSI16
	colorANSI256
	colorTrue
)

var (
	detectOnce sync.Once
	termColor  colorMode
)

// detectColorMode checks terminal capabilities once.
func detectColorMode() colorMode {
	detectOnce.Do(func() {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			termColor = colorOff
			return
		}
		term := strings.ToLower(os.Getenv("TERM"))
		ct := strings.ToLower(os.Getenv("COLORTERM"))
		switch {
		case strings.Contains(ct, "truecolor"), strings.Contains(ct, "24bit"):
			termColor = colorTrue
		case strings.Contains(term, "256color"):
			termColor = colorANSI256
		case term == "dumb":
			termColor = colorOff
		case term == "" && runtime.GOOS == "windows":
			termColor = colorANSI16
		case term == "":
			termColor = colorOff
		default:
			termColor = colorANSI16
		}
	})
	return termColor
}

// Preview turns rendered frames into terminal strings. With color it packs
// two pixel rows per terminal row using "▀" (fg = top pixel, bg = bottom);
// without color each pixel maps to a brightness character.
type Preview struct {
	mode colorMode
	sb   strings.Builder
}

// NewPreview creates a preview renderer for the current terminal.
func NewPreview() *Preview {
	return &Preview{mode: detectColorMode()}
}

// PixelSize returns the raster dimensions the engine should render at to
// fill the given terminal cell area.
func (p *Preview) PixelSize(cols, rows int) (int, int) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	if p.mode == colorOff {
		return cols, rows
	}
	return cols, rows * 2
}

// Render converts the frame into a terminal string of cols x rows cells,
// sampling nearest-neighbor so any raster size works.
func (p *Preview) Render(img *image.RGBA, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}

	p.sb.Reset()
	p.sb.Grow(cols * rows * 24)

	if p.mode == colorOff {
		p.renderASCII(img, cols, rows)
	} else {
		p.renderHalfBlock(img, cols, rows)
	}
	return p.sb.String()
}

func (p *Preview) renderHalfBlock(img *image.RGBA, cols, rows int) {
	b := img.Bounds()
	pixelRows := rows * 2
	var lastFg, lastBg string

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			srcX := b.Min.X + col*b.Dx()/cols
			topY := b.Min.Y + (row*2)*b.Dy()/pixelRows
			botY := b.Min.Y + (row*2+1)*b.Dy()/pixelRows

			top := img.RGBAAt(srcX, topY)
			bot := img.RGBAAt(srcX, botY)

			fg := colorSeq(p.mode, top.R, top.G, top.B, false)
			bg := colorSeq(p.mode, bot.R, bot.G, bot.B, true)
			if fg != lastFg {
				p.sb.WriteString(fg)
				lastFg = fg
			}
			if bg != lastBg {
				p.sb.WriteString(bg)
				lastBg = bg
			}
			p.sb.WriteString("▀")
		}
		p.sb.WriteString(ansiReset)
		lastFg, lastBg = "", ""
		if row < rows-1 {
			p.sb.WriteByte('\n')
		}
	}
}

func (p *Preview) renderASCII(img *image.RGBA, cols, rows int) {
	b := img.Bounds()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			px := img.RGBAAt(b.Min.X+col*b.Dx()/cols, b.Min.Y+row*b.Dy()/rows)
			p.sb.WriteByte(brightnessChar(luminance(px.R, px.G, px.B)))
		}
		if row < rows-1 {
			p.sb.WriteByte('\n')
		}
	}
}

const ansiReset = "\x1b[0m"

// luminance computes perceived brightness (ITU-R BT.601).
func luminance(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

func brightnessChar(lum uint8) byte {
	return asciiRamp[int(lum)*(len(asciiRamp)-1)/255]
}

// colorSeq returns the ANSI escape selecting the given color for either the
// foreground or the background.
func colorSeq(mode colorMode, r, g, b uint8, background bool) string {
	plane := 38
	if background {
		plane = 48
	}
	switch mode {
	case colorTrue:
		return fmt.Sprintf("\x1b[%d;2;%d;%d;%dm", plane, r, g, b)
	case colorANSI256:
		idx := 16 + 36*(int(r)*5/255) + 6*(int(g)*5/255) + int(b)*5/255
		return fmt.Sprintf("\x1b[%d;5;%dm", plane, idx)
	case colorANSI16:
		idx := ansi16Index(r, g, b)
		base := 30
		if background {
			base = 40
		}
		if idx >= 8 {
			base += 60
			idx -= 8
		}
		return fmt.Sprintf("\x1b[%dm", base+idx)
	default:
		return ""
	}
}

// ansi16Index finds the nearest entry in the standard 16-color palette.
func ansi16Index(r, g, b uint8) int {
	best := 0
	bestDist := 1<<31 - 1
	for i, c := range ansi16Palette {
		dr := int(r) - int(c[0])
		dg := int(g) - int(c[1])
		db := int(b) - int(c[2])
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

var ansi16Palette = [16][3]uint8{
	{0, 0, 0},
	{205, 49, 49},
	{13, 188, 121},
	{229, 229, 16},
	{36, 114, 200},
	{188, 63, 188},
	{17, 168, 205},
	{229, 229, 229},
	{102, 102, 102},
	{241, 76, 76},
	{35, 209, 139},
	{245, 245, 67},
	{59, 142, 234},
	{214, 112, 214},
	{41, 184, 219},
	{255, 255, 255},
}
