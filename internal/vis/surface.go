package vis

import (
	"image"
	"image/color"
	"math"
)

// Point is a position in pixel space.
type Point struct {
	X, Y float64
}

// Surface is the RGBA raster all renderers draw into. Every primitive clamps
// its derived geometry against a canvas-proportional maximum, so no draw call
// can run away under extreme settings or an anomalous audio sample.
type Surface struct {
	img *image.RGBA
	w   int
	h   int
}

// NewSurface creates a surface with no backing raster; call Resize first.
func NewSurface() *Surface {
	return &Surface{}
}

// Resize reallocates the raster. Zero or negative dimensions leave the
// surface invalid, which short-circuits all drawing until a valid resize.
func (s *Surface) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		s.img = nil
		s.w, s.h = 0, 0
		return
	}
	if w == s.w && h == s.h && s.img != nil {
		return
	}
	s.w, s.h = w, h
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Valid reports whether the surface has a drawable raster.
func (s *Surface) Valid() bool { return s.img != nil }

// Size returns the raster dimensions in pixels.
func (s *Surface) Size() (int, int) { return s.w, s.h }

// Image exposes the backing raster for preview and capture consumers.
func (s *Surface) Image() *image.RGBA { return s.img }

// ClampLen caps a derived length, radius or offset at twice the larger
// canvas dimension. Non-finite values collapse to zero.
func (s *Surface) ClampLen(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	maxLen := 2 * float64(max(s.w, s.h))
	return clampf(v, -maxLen, maxLen)
}

// Reset restores the known-clean baseline after a render fault: an opaque
// fill with no residual state.
func (s *Surface) Reset(bg Color) {
	s.Fill(bg.Alpha(1))
}

// Fill covers the whole raster with an opaque color.
func (s *Surface) Fill(c Color) {
	if !s.Valid() {
		return
	}
	px := color.RGBA{c.R, c.G, c.B, 255}
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			s.img.SetRGBA(x, y, px)
		}
	}
}

// FillVertical covers the raster with a vertical top-to-bottom gradient.
func (s *Surface) FillVertical(top, bottom Color) {
	if !s.Valid() {
		return
	}
	for y := 0; y < s.h; y++ {
		t := float64(y) / float64(s.h)
		c := lerpColor(top, bottom, t)
		px := color.RGBA{c.R, c.G, c.B, 255}
		for x := 0; x < s.w; x++ {
			s.img.SetRGBA(x, y, px)
		}
	}
}

// Dim fades the whole raster toward a background color, leaving trails from
// previous frames. keep is the fraction of the old frame retained.
func (s *Surface) Dim(bg Color, keep float64) {
	if !s.Valid() {
		return
	}
	keep = clamp01(keep)
	br, bgc, bb := float64(bg.R), float64(bg.G), float64(bg.B)
	pix := s.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = uint8(float64(pix[i])*keep + br*(1-keep))
		pix[i+1] = uint8(float64(pix[i+1])*keep + bgc*(1-keep))
		pix[i+2] = uint8(float64(pix[i+2])*keep + bb*(1-keep))
		pix[i+3] = 255
	}
}

// blend draws one pixel with source-over alpha against the opaque raster.
func (s *Surface) blend(x, y int, c Color) {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return
	}
	a := clamp01(c.A)
	if a <= 0 {
		return
	}
	i := s.img.PixOffset(x, y)
	pix := s.img.Pix
	pix[i] = uint8(float64(c.R)*a + float64(pix[i])*(1-a))
	pix[i+1] = uint8(float64(c.G)*a + float64(pix[i+1])*(1-a))
	pix[i+2] = uint8(float64(c.B)*a + float64(pix[i+2])*(1-a))
	pix[i+3] = 255
}

// FillRect fills an axis-aligned rectangle.
func (s *Surface) FillRect(x, y, w, h float64, c Color) {
	if !s.Valid() {
		return
	}
	w = s.ClampLen(w)
	h = s.ClampLen(h)
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := int(math.Ceil(x+w)), int(math.Ceil(y+h))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > s.w {
		x1 = s.w
	}
	if y1 > s.h {
		y1 = s.h
	}
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			s.blend(xx, yy, c)
		}
	}
}

// Line draws a straight segment of the given thickness.
func (s *Surface) Line(x0, y0, x1, y1, thickness float64, c Color) {
	if !s.Valid() {
		return
	}
	dx := s.ClampLen(x1 - x0)
	dy := s.ClampLen(y1 - y0)
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		s.FillCircle(x0, y0, thickness/2, c)
		return
	}
	steps := int(dist) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := x0 + dx*t
		py := y0 + dy*t
		if thickness <= 1.5 {
			s.blend(int(px), int(py), c)
		} else {
			s.FillCircle(px, py, thickness/2, c)
		}
	}
}

// FillCircle fills a disk.
func (s *Surface) FillCircle(cx, cy, r float64, c Color) {
	if !s.Valid() {
		return
	}
	r = s.ClampLen(r)
	if r <= 0 {
		return
	}
	x0, y0 := int(cx-r), int(cy-r)
	x1, y1 := int(cx+r)+1, int(cy+r)+1
	r2 := r * r
	for yy := y0; yy <= y1; yy++ {
		for xx := x0; xx <= x1; xx++ {
			ddx := float64(xx) + 0.5 - cx
			ddy := float64(yy) + 0.5 - cy
			if ddx*ddx+ddy*ddy <= r2 {
				s.blend(xx, yy, c)
			}
		}
	}
}

// StrokeCircle draws a circle outline of the given line width.
func (s *Surface) StrokeCircle(cx, cy, r, width float64, c Color) {
	if !s.Valid() {
		return
	}
	r = s.ClampLen(r)
	if r <= 0 {
		return
	}
	steps := int(2*math.Pi*r) + 8
	for i := 0; i < steps; i++ {
		a := float64(i) / float64(steps) * 2 * math.Pi
		px := cx + math.Cos(a)*r
		py := cy + math.Sin(a)*r
		if width <= 1.5 {
			s.blend(int(px), int(py), c)
		} else {
			s.FillCircle(px, py, width/2, c)
		}
	}
}

// Arc draws a partial circle outline between two angles (radians).
func (s *Surface) Arc(cx, cy, r, from, to, width float64, c Color) {
	if !s.Valid() {
		return
	}
	r = s.ClampLen(r)
	if r <= 0 || to <= from {
		return
	}
	span := to - from
	if span > 2*math.Pi {
		span = 2 * math.Pi
	}
	steps := int(span*r) + 2
	for i := 0; i <= steps; i++ {
		a := from + span*float64(i)/float64(steps)
		px := cx + math.Cos(a)*r
		py := cy + math.Sin(a)*r
		if width <= 1.5 {
			s.blend(int(px), int(py), c)
		} else {
			s.FillCircle(px, py, width/2, c)
		}
	}
}

// Glow draws a soft radial gradient blob whose alpha falls off with the
// square of the distance from the center.
func (s *Surface) Glow(cx, cy, r float64, c Color) {
	if !s.Valid() {
		return
	}
	r = s.ClampLen(r)
	if r <= 0 {
		return
	}
	x0, y0 := int(cx-r), int(cy-r)
	x1, y1 := int(cx+r)+1, int(cy+r)+1
	r2 := r * r
	for yy := y0; yy <= y1; yy++ {
		for xx := x0; xx <= x1; xx++ {
			ddx := float64(xx) + 0.5 - cx
			ddy := float64(yy) + 0.5 - cy
			d2 := ddx*ddx + ddy*ddy
			if d2 >= r2 {
				continue
			}
			fall := 1 - d2/r2
			s.blend(xx, yy, c.Scaled(fall*fall))
		}
	}
}

// FillQuad fills a convex quadrilateral by scanline. Vertices must be given
// in winding order.
func (s *Surface) FillQuad(p [4]Point, c Color) {
	if !s.Valid() {
		return
	}
	minY, maxY := p[0].Y, p[0].Y
	for _, v := range p[1:] {
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
	}
	y0 := int(math.Max(0, math.Floor(minY)))
	y1 := int(math.Min(float64(s.h-1), math.Ceil(maxY)))

	for yy := y0; yy <= y1; yy++ {
		fy := float64(yy) + 0.5
		minX := math.Inf(1)
		maxX := math.Inf(-1)
		for i := 0; i < 4; i++ {
			a := p[i]
			b := p[(i+1)%4]
			if (a.Y <= fy && b.Y > fy) || (b.Y <= fy && a.Y > fy) {
				t := (fy - a.Y) / (b.Y - a.Y)
				x := a.X + (b.X-a.X)*t
				minX = math.Min(minX, x)
				maxX = math.Max(maxX, x)
			}
		}
		if minX > maxX {
			continue
		}
		xa := int(math.Max(0, math.Floor(minX)))
		xb := int(math.Min(float64(s.w-1), math.Ceil(maxX)))
		for xx := xa; xx <= xb; xx++ {
			s.blend(xx, yy, c)
		}
	}
}
