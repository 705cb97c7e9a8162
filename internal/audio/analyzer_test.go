package audio

import (
	"errors"
	"math"
	"testing"
)

func TestSetAnalysisParametersClampsFFTSize(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"below floor", 100, 256},
		{"above ceiling", 100000, 8192},
		{"rounds up to power of two", 3000, 4096},
		{"keeps exact power of two", 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer()
			a.SetAnalysisParameters(tt.in, 0.5)
			if got := a.FFTSize(); got != tt.want {
				t.Errorf("FFTSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetAnalysisParametersClampsSmoothing(t *testing.T) {
	a := NewAnalyzer()
	a.SetAnalysisParameters(1024, 1.5)
	if a.smoothing != 1 {
		t.Errorf("smoothing = %v, want 1", a.smoothing)
	}
	a.SetAnalysisParameters(1024, -0.5)
	if a.smoothing != 0 {
		t.Errorf("smoothing = %v, want 0", a.smoothing)
	}
}

func TestSetAnalysisParametersKeepsBuffersOnSameSize(t *testing.T) {
	a := NewAnalyzer()
	a.SetAnalysisParameters(1024, 0.5)
	before := &a.smoothed[0]
	a.SetAnalysisParameters(1024, 0.7)
	if before != &a.smoothed[0] {
		t.Error("workspace reallocated even though the FFT size did not change")
	}
}

func TestSnapshotSilence(t *testing.T) {
	a := NewAnalyzer()
	snap := a.Snapshot()

	if len(snap.Magnitudes) != a.FFTSize()/2 {
		t.Fatalf("len(Magnitudes) = %d, want %d", len(snap.Magnitudes), a.FFTSize()/2)
	}
	if len(snap.Waveform) != a.FFTSize() {
		t.Fatalf("len(Waveform) = %d, want %d", len(snap.Waveform), a.FFTSize())
	}
	for i, m := range snap.Magnitudes {
		if m != 0 {
			t.Fatalf("Magnitudes[%d] = %d, want 0 for silence", i, m)
		}
	}
	for i, w := range snap.Waveform {
		if w != 128 {
			t.Fatalf("Waveform[%d] = %d, want 128 for silence", i, w)
		}
	}
	if snap.Average != 0 {
		t.Errorf("Average = %v, want 0", snap.Average)
	}
	if snap.Bands.Bass != 0 || snap.Bands.Mid != 0 || snap.Bands.Treble != 0 {
		t.Errorf("Bands = %+v, want all zero", snap.Bands)
	}
}

func TestSnapshotLocatesSineBin(t *testing.T) {
	const fftSize = 2048
	const bin = 100

	a := NewAnalyzer()
	a.SetAnalysisParameters(fftSize, 0) // no temporal smoothing

	freq := float64(bin) * playbackSampleRate / fftSize
	stereo := make([]int16, fftSize*2)
	for i := 0; i < fftSize; i++ {
		s := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/playbackSampleRate))
		stereo[i*2] = s
		stereo[i*2+1] = s
	}
	a.WriteSamples(stereo)

	snap := a.Snapshot()

	peak := 0
	for i, m := range snap.Magnitudes {
		if m > snap.Magnitudes[peak] {
			peak = i
		}
	}
	if peak < bin-1 || peak > bin+1 {
		t.Errorf("peak bin = %d, want within 1 of %d", peak, bin)
	}
	if snap.Magnitudes[bin] < 200 {
		t.Errorf("Magnitudes[%d] = %d, want a strong response", bin, snap.Magnitudes[bin])
	}
}

func TestSensitivityScalesSpectrum(t *testing.T) {
	a := NewAnalyzer()
	a.SetAnalysisParameters(512, 0)

	noise := make([]int16, 512*2)
	for i := range noise {
		noise[i] = int16((i*2654435761)%4000 - 2000)
	}
	a.WriteSamples(noise)

	a.SetSensitivity(1.0)
	base := a.Snapshot().Average
	a.SetSensitivity(5.0)
	boosted := a.Snapshot().Average

	if boosted <= base {
		t.Errorf("Average at sensitivity 5 (%v) should exceed sensitivity 1 (%v)", boosted, base)
	}
}

func TestSetSensitivityClamps(t *testing.T) {
	a := NewAnalyzer()
	a.SetSensitivity(10)
	if a.sensitivity != 5 {
		t.Errorf("sensitivity = %v, want 5", a.sensitivity)
	}
	a.SetSensitivity(0)
	if a.sensitivity != 0.1 {
		t.Errorf("sensitivity = %v, want 0.1", a.sensitivity)
	}
}

func TestSplitBands(t *testing.T) {
	mags := make([]uint8, 9)
	for i := range mags[:3] {
		mags[i] = 30
	}
	for i := 3; i < 6; i++ {
		mags[i] = 90
	}
	for i := 6; i < 9; i++ {
		mags[i] = 210
	}

	b := splitBands(mags)
	if b.Bass != 30 || b.Mid != 90 || b.Treble != 210 {
		t.Errorf("splitBands = %+v, want {30 90 210}", b)
	}
}

func TestPlaybackControlsWithoutSource(t *testing.T) {
	a := NewAnalyzer()
	if err := a.Play(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Play() = %v, want ErrNoSource", err)
	}
	if err := a.SeekFraction(0.5); !errors.Is(err, ErrNoSource) {
		t.Errorf("SeekFraction() = %v, want ErrNoSource", err)
	}
	if err := a.SetVolume(0.5); !errors.Is(err, ErrNoSource) {
		t.Errorf("SetVolume() = %v, want ErrNoSource", err)
	}
}

// liveSource mimics capture input: it produces samples but has no timeline.
type liveSource struct{}

func (liveSource) Describe() string              { return "live" }
func (liveSource) Start(feed SampleWriter) error { return nil }
func (liveSource) Close() error                  { return nil }

func TestPlaybackControlsWithLiveSource(t *testing.T) {
	a := NewAnalyzer()
	if err := a.Attach(liveSource{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer a.Detach()

	if err := a.SeekFraction(0.5); !errors.Is(err, ErrNotSeekable) {
		t.Errorf("SeekFraction() = %v, want ErrNotSeekable", err)
	}
	if err := a.Play(); !errors.Is(err, ErrNotSeekable) {
		t.Errorf("Play() = %v, want ErrNotSeekable", err)
	}
}

func TestTapReceivesAndDrains(t *testing.T) {
	a := NewAnalyzer()
	tap := a.NewTap()

	a.WriteSamples([]int16{1, 2, 3, 4})
	got := tap.Drain()
	if len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Fatalf("Drain() = %v, want [1 2 3 4]", got)
	}
	if tap.Drain() != nil {
		t.Error("second Drain() should be empty")
	}

	tap.Close()
	a.WriteSamples([]int16{5, 6})
	if tap.Drain() != nil {
		t.Error("closed tap should not accumulate samples")
	}
	if len(a.taps) != 0 {
		t.Errorf("analyzer still holds %d taps after Close", len(a.taps))
	}
}

func TestSampleRingLatestPadsShortFill(t *testing.T) {
	r := newSampleRing(8)
	r.Write([]int16{1, 2, 3})

	dst := make([]int16, 5)
	r.Latest(dst)
	want := []int16{0, 0, 1, 2, 3}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Latest() = %v, want %v", dst, want)
		}
	}
}

func TestSampleRingLatestKeepsMostRecent(t *testing.T) {
	r := newSampleRing(4)
	r.Write([]int16{1, 2, 3, 4, 5, 6})

	dst := make([]int16, 4)
	r.Latest(dst)
	want := []int16{3, 4, 5, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Latest() = %v, want %v", dst, want)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{1024, 1024},
		{1025, 2048},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDbByteRange(t *testing.T) {
	if v := dbByte(0); v != 0 {
		t.Errorf("dbByte(0) = %v, want 0", v)
	}
	if v := dbByte(1); v != 255 {
		t.Errorf("dbByte(1) = %v, want 255 (0 dBFS saturates)", v)
	}
	lo, hi := dbByte(0.0001), dbByte(0.01)
	if !(lo < hi) {
		t.Errorf("dbByte not monotonic: dbByte(0.0001)=%v, dbByte(0.01)=%v", lo, hi)
	}
}
