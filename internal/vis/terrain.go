package vis

import (
	"math"
)

const (
	terrainCols = 48
	terrainRows = 36
	terrainFade = 0.97
)

// terrainRenderer scrolls a height grid toward the camera. Each new far row
// is seeded from the bucketed spectrum with extra weight at the horizontal
// center, so the landscape ridges with the music.
type terrainRenderer struct {
	w, h int

	grid    [][]float64 // [row][col], row 0 is the far edge
	buckets []float64
	scroll  float64
}

// NewTerrain creates the spectral terrain renderer.
func NewTerrain() Renderer {
	g := make([][]float64, terrainRows)
	for i := range g {
		g[i] = make([]float64, terrainCols)
	}
	return &terrainRenderer{
		grid:    g,
		buckets: make([]float64, terrainCols),
	}
}

func (r *terrainRenderer) Name() string { return "terrain" }

func (r *terrainRenderer) Resize(w, h int) { r.w, r.h = w, h }

func (r *terrainRenderer) RenderFrame(s *Surface, f Frame) {
	drawBackground(s, f)

	// scroll rows toward the camera at a rate tied to animation time
	r.scroll += f.Delta * (4 + f.Audio.Bands.Bass/255*6)
	for r.scroll >= 1 {
		r.scroll--
		r.shiftRows(f)
	}

	r.project(s, f)
}

func (r *terrainRenderer) shiftRows(f Frame) {
	last := r.grid[terrainRows-1]
	copy(r.grid[1:], r.grid[:terrainRows-1])
	r.grid[0] = last

	Buckets(r.buckets, f.Audio.Magnitudes)
	for c := 0; c < terrainCols; c++ {
		// weight the center so ridges form a spine down the middle
		center := 1 - math.Abs(float64(c)-terrainCols/2)/(terrainCols/2)
		weight := 0.35 + 0.65*center
		r.grid[0][c] = r.buckets[c] / 255 * weight
	}
	// rows decay as they approach the camera
	for row := 1; row < terrainRows; row++ {
		for c := 0; c < terrainCols; c++ {
			r.grid[row][c] *= terrainFade
		}
	}
}

// project draws the grid far to near so close quads paint over distant ones.
func (r *terrainRenderer) project(s *Surface, f Frame) {
	horizon := float64(r.h) * 0.32
	depth := float64(r.h) - horizon
	maxPeak := float64(r.h) * 0.4

	rowY := func(row float64) float64 {
		// quadratic spacing packs distant rows near the horizon
		t := row / (terrainRows - 1)
		return horizon + t*t*depth
	}
	rowSpread := func(row float64) float64 {
		t := row / (terrainRows - 1)
		return 0.25 + 0.75*t
	}

	for row := 0; row < terrainRows-1; row++ {
		yFar := rowY(float64(row) + r.scroll)
		yNear := rowY(float64(row) + 1 + r.scroll)
		spFar := rowSpread(float64(row) + r.scroll)
		spNear := rowSpread(float64(row) + 1 + r.scroll)
		persp := float64(row) / (terrainRows - 1)

		for c := 0; c < terrainCols-1; c++ {
			h00 := r.grid[row][c] * maxPeak * persp
			h01 := r.grid[row][c+1] * maxPeak * persp
			h10 := r.grid[row+1][c] * maxPeak * persp
			h11 := r.grid[row+1][c+1] * maxPeak * persp

			xf := func(col int, spread float64) float64 {
				t := float64(col)/(terrainCols-1) - 0.5
				return float64(r.w)/2 + t*float64(r.w)*spread
			}

			q := [4]Point{
				{xf(c, spFar), yFar - h00},
				{xf(c+1, spFar), yFar - h01},
				{xf(c+1, spNear), yNear - h11},
				{xf(c, spNear), yNear - h10},
			}

			height := (r.grid[row][c] + r.grid[row+1][c]) / 2
			col := f.Palette.Sample(clamp01(height * 1.4))
			shade := 0.25 + 0.75*persp
			fill := lerpColor(f.Settings.BackgroundColor, col, shade)
			s.FillQuad(q, fill)
			s.Line(q[0].X, q[0].Y, q[1].X, q[1].Y, 1, col.Alpha(0.25+height*0.6))
		}
	}
}
