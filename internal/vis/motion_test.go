package vis

import (
	"math"
	"testing"
)

func TestSmoothConverges(t *testing.T) {
	v := 0.0
	for i := 0; i < 200; i++ {
		v = Smooth(v, 1, 0.25)
	}
	if math.Abs(v-1) > 1e-6 {
		t.Fatalf("smoothed value = %v, want ~1", v)
	}
}

func TestSmoothNeverOvershoots(t *testing.T) {
	v := 0.0
	for i := 0; i < 50; i++ {
		v = Smooth(v, 1, 0.25)
		if v > 1 {
			t.Fatalf("overshoot at step %d: %v", i, v)
		}
	}
}

func TestPeakHoldStaysAboveSmoothed(t *testing.T) {
	p := NewPeakHold(500)
	p.Resize(1)

	// spike then decay, peaks must always floor at the smoothed value
	levels := []float64{100, 80, 60, 40, 20, 10, 5, 60, 30}
	for _, lv := range levels {
		peaks := p.Update([]float64{lv}, 1.0/60)
		if peaks[0] < lv {
			t.Fatalf("peak %v fell below smoothed %v", peaks[0], lv)
		}
	}
}

func TestPeakHoldFallsWhenSignalDrops(t *testing.T) {
	p := NewPeakHold(500)
	p.Resize(1)
	p.Update([]float64{100}, 1.0/60)

	prev := 100.0
	fell := false
	for i := 0; i < 120; i++ {
		peaks := p.Update([]float64{0}, 1.0/60)
		if peaks[0] > prev {
			t.Fatalf("peak rose without input: %v -> %v", prev, peaks[0])
		}
		if peaks[0] < prev {
			fell = true
		}
		prev = peaks[0]
	}
	if !fell {
		t.Fatal("peak never fell after signal dropped")
	}
	if prev > 1e-9 {
		t.Fatalf("peak did not reach floor, still at %v", prev)
	}
}

func TestPeakHoldResizePreservesWhenUnchanged(t *testing.T) {
	p := NewPeakHold(500)
	p.Resize(2)
	p.Update([]float64{50, 70}, 1.0/60)
	p.Resize(2)
	if got := p.Peaks(); got[0] != 50 || got[1] != 70 {
		t.Fatalf("same-size resize cleared state: %v", got)
	}
	p.Resize(3)
	if got := p.Peaks(); got[0] != 0 || len(got) != 3 {
		t.Fatalf("resize to new size did not reset: %v", got)
	}
}

func TestBucketsAveragesContiguousRuns(t *testing.T) {
	src := []uint8{10, 20, 30, 40, 50, 60}
	dst := make([]float64, 3)
	Buckets(dst, src)
	want := []float64{15, 35, 55}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("bucket %d = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestBucketsMoreBucketsThanBins(t *testing.T) {
	src := []uint8{100, 200}
	dst := make([]float64, 4)
	Buckets(dst, src)
	for i, v := range dst {
		if v != 100 && v != 200 {
			t.Fatalf("bucket %d = %v, want a source bin value", i, v)
		}
	}
}

func TestOnsetDetectorRefractory(t *testing.T) {
	d := OnsetDetector{Threshold: 160, Refractory: 0.15}

	// constant loud energy for one second at 60 fps: the first event fires
	// immediately, then one every 150ms
	events := 0
	for i := 0; i < 60; i++ {
		now := float64(i) / 60
		if d.Detect(now, 255) {
			events++
		}
	}
	if events != 7 {
		t.Fatalf("events = %d, want 7", events)
	}
}

func TestOnsetDetectorBelowThreshold(t *testing.T) {
	d := OnsetDetector{Threshold: 160, Refractory: 0.15}
	for i := 0; i < 120; i++ {
		if d.Detect(float64(i)/60, 159) {
			t.Fatalf("onset fired below threshold at step %d", i)
		}
	}
}

func TestNoise2DRange(t *testing.T) {
	for x := -5.0; x < 5; x += 0.37 {
		for y := -5.0; y < 5; y += 0.41 {
			n := Noise2D(x, y)
			if n < 0 || n >= 1 {
				t.Fatalf("Noise2D(%v,%v) = %v, want [0,1)", x, y, n)
			}
		}
	}
}

func TestNoise2DDeterministic(t *testing.T) {
	if Noise2D(1.5, 2.5) != Noise2D(1.5, 2.5) {
		t.Fatal("noise is not a pure function of position")
	}
}
