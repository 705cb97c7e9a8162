package audio

import (
	"math"
	"math/bits"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	minFFTSize     = 256
	maxFFTSize     = 8192
	defaultFFTSize = 2048

	defaultSmoothing = 0.8

	// Magnitudes are mapped from dBFS to the 0-255 range over this window,
	// matching the scaling visualizers are tuned for.
	dbFloor = -100.0
	dbCeil  = -30.0
)

// Bands holds aggregate band energies, each in [0,255].
type Bands struct {
	Bass   float64
	Mid    float64
	Treble float64
}

// Snapshot is an immutable per-tick view of the analysis state. Slices are
// freshly allocated on every query and safe to retain.
type Snapshot struct {
	Magnitudes []uint8 // frequency bins, len = fftSize/2
	Waveform   []uint8 // time-domain samples centered at 128, len = fftSize
	Bands      Bands
	Average    float64
}

// Analyzer wraps one attached audio source and periodically exposes spectrum,
// waveform and band-energy summaries of the most recent signal.
type Analyzer struct {
	mu          sync.Mutex
	source      Source
	ring        *sampleRing
	taps        []*Tap
	fftSize     int
	smoothing   float64
	sensitivity float64

	fft      *fourier.FFT
	win      []float64
	input    []float64
	coeff    []complex128
	smoothed []float64
	stereo   []int16
}

// NewAnalyzer creates an analyzer with default parameters and no source.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{
		ring:        newSampleRing(maxFFTSize * playbackChannels * 2),
		smoothing:   defaultSmoothing,
		sensitivity: 1.0,
	}
	a.resize(defaultFFTSize)
	return a
}

// resize reallocates the FFT workspace. Caller holds the lock (or is the constructor).
func (a *Analyzer) resize(fftSize int) {
	a.fftSize = fftSize
	a.fft = fourier.NewFFT(fftSize)
	a.win = window.Hann(onesSlice(fftSize))
	a.input = make([]float64, fftSize)
	a.coeff = make([]complex128, fftSize/2+1)
	a.smoothed = make([]float64, fftSize/2)
	a.stereo = make([]int16, fftSize*playbackChannels)
}

func onesSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

// Attach binds a new source, fully detaching any previous one first.
func (a *Analyzer) Attach(src Source) error {
	a.Detach()
	if err := src.Start(a); err != nil {
		return err
	}
	a.mu.Lock()
	a.source = src
	a.mu.Unlock()
	return nil
}

// Detach stops and releases the current source, if any, and clears analysis state.
func (a *Analyzer) Detach() {
	a.mu.Lock()
	src := a.source
	a.source = nil
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
	a.mu.Unlock()

	if src != nil {
		_ = src.Close()
	}
	a.ring.Clear()
}

// Source returns the currently attached source, or nil.
func (a *Analyzer) Source() Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// WriteSamples receives interleaved stereo PCM from the active source.
func (a *Analyzer) WriteSamples(samples []int16) {
	a.ring.Write(samples)

	a.mu.Lock()
	taps := a.taps
	a.mu.Unlock()
	for _, t := range taps {
		t.push(samples)
	}
}

// NewTap registers an independent consumer of the PCM stream, for handing
// the live audio to the capture sink.
func (a *Analyzer) NewTap() *Tap {
	t := &Tap{a: a}
	a.mu.Lock()
	a.taps = append(a.taps, t)
	a.mu.Unlock()
	return t
}

func (a *Analyzer) removeTap(tap *Tap) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.taps {
		if t == tap {
			a.taps = append(a.taps[:i], a.taps[i+1:]...)
			return
		}
	}
}

// SetAnalysisParameters reconfigures the FFT. fftSize is rounded up to a
// power of two and clamped to [256, 8192]; smoothing is clamped to [0,1].
// Buffers are reallocated only when the size actually changes.
func (a *Analyzer) SetAnalysisParameters(fftSize int, smoothing float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := nextPowerOfTwo(fftSize)
	if size < minFFTSize {
		size = minFFTSize
	}
	if size > maxFFTSize {
		size = maxFFTSize
	}
	if size != a.fftSize {
		a.resize(size)
	}

	if smoothing < 0 {
		smoothing = 0
	}
	if smoothing > 1 {
		smoothing = 1
	}
	a.smoothing = smoothing
}

// SetSensitivity scales the reported magnitudes. Clamped to [0.1, 5].
func (a *Analyzer) SetSensitivity(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v < 0.1 {
		v = 0.1
	}
	if v > 5 {
		v = 5
	}
	a.sensitivity = v
}

// FFTSize returns the current FFT size.
func (a *Analyzer) FFTSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fftSize
}

// Snapshot computes the current spectrum, waveform and band summaries from
// the most recent samples. Temporal smoothing advances once per call.
func (a *Analyzer) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.fftSize
	a.ring.Latest(a.stereo)

	waveform := make([]uint8, n)
	for i := 0; i < n; i++ {
		l := int(a.stereo[i*2])
		r := int(a.stereo[i*2+1])
		mono := (l + r) / 2
		waveform[i] = uint8(mono>>8 + 128)
		a.input[i] = float64(mono) / 32768.0 * a.win[i]
	}

	a.fft.Coefficients(a.coeff, a.input)

	half := n / 2
	mags := make([]uint8, half)
	var sum float64
	for i := 0; i < half; i++ {
		mag := cmplx.Abs(a.coeff[i]) * 2 / float64(n)
		a.smoothed[i] = a.smoothed[i]*a.smoothing + mag*(1-a.smoothing)

		v := dbByte(a.smoothed[i]) * a.sensitivity
		if v > 255 {
			v = 255
		}
		mags[i] = uint8(v)
		sum += v
	}

	return Snapshot{
		Magnitudes: mags,
		Waveform:   waveform,
		Bands:      splitBands(mags),
		Average:    sum / float64(half),
	}
}

// dbByte maps a linear magnitude to the 0-255 range over [dbFloor, dbCeil] dBFS.
func dbByte(mag float64) float64 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := (db - dbFloor) / (dbCeil - dbFloor) * 255
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// splitBands reduces the spectrum to bass/mid/treble means over three
// contiguous equal-width bin ranges.
func splitBands(mags []uint8) Bands {
	third := len(mags) / 3
	if third == 0 {
		return Bands{}
	}
	mean := func(lo, hi int) float64 {
		var s float64
		for i := lo; i < hi; i++ {
			s += float64(mags[i])
		}
		return s / float64(hi-lo)
	}
	return Bands{
		Bass:   mean(0, third),
		Mid:    mean(third, 2*third),
		Treble: mean(2*third, len(mags)),
	}
}

// Playback control surface. Each is a no-op error when the attached source
// has no timeline (microphone capture) or nothing is attached.

func (a *Analyzer) transport() (Transport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.source == nil {
		return nil, ErrNoSource
	}
	t, ok := a.source.(Transport)
	if !ok {
		return nil, ErrNotSeekable
	}
	return t, nil
}

func (a *Analyzer) Play() error {
	t, err := a.transport()
	if err != nil {
		return err
	}
	t.Play()
	return nil
}

func (a *Analyzer) Pause() error {
	t, err := a.transport()
	if err != nil {
		return err
	}
	t.Pause()
	return nil
}

func (a *Analyzer) Stop() error {
	t, err := a.transport()
	if err != nil {
		return err
	}
	t.Stop()
	return nil
}

func (a *Analyzer) SeekFraction(frac float64) error {
	t, err := a.transport()
	if err != nil {
		return err
	}
	t.SeekFraction(frac)
	return nil
}

func (a *Analyzer) SetVolume(v float64) error {
	t, err := a.transport()
	if err != nil {
		return err
	}
	t.SetVolume(v)
	return nil
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(n-1))
}
