package vis

import "math"

// flowField is a coarse grid of direction vectors used to advect particles
// and clouds. The grid is regenerated in full on resize; cell values drift
// continuously under noise and bass energy.
type flowField struct {
	cell   float64
	cols   int
	rows   int
	angles []float64
	mags   []float64
}

func newFlowField(cell float64) *flowField {
	return &flowField{cell: cell}
}

func (f *flowField) resize(w, h int) {
	if w <= 0 || h <= 0 {
		f.cols, f.rows = 0, 0
		f.angles = nil
		f.mags = nil
		return
	}
	cols := int(float64(w)/f.cell) + 2
	rows := int(float64(h)/f.cell) + 2
	if cols == f.cols && rows == f.rows {
		return
	}
	f.cols, f.rows = cols, rows
	f.angles = make([]float64, cols*rows)
	f.mags = make([]float64, cols*rows)
}

// update drifts every cell. bass is in [0,255].
func (f *flowField) update(t, bass float64) {
	drive := bass / 255
	for cy := 0; cy < f.rows; cy++ {
		for cx := 0; cx < f.cols; cx++ {
			n := Noise2D(float64(cx)*0.13+t*0.07, float64(cy)*0.13-t*0.05)
			idx := cy*f.cols + cx
			f.angles[idx] = n*math.Pi*4 + drive*math.Pi*0.5
			f.mags[idx] = 18 + drive*60
		}
	}
}

// at returns the flow angle and magnitude for a point, clamped to the grid.
func (f *flowField) at(x, y float64) (angle, mag float64) {
	if f.cols == 0 || f.rows == 0 {
		return 0, 0
	}
	cx := int(x / f.cell)
	cy := int(y / f.cell)
	if cx < 0 {
		cx = 0
	}
	if cx >= f.cols {
		cx = f.cols - 1
	}
	if cy < 0 {
		cy = 0
	}
	if cy >= f.rows {
		cy = f.rows - 1
	}
	idx := cy*f.cols + cx
	return f.angles[idx], f.mags[idx]
}
