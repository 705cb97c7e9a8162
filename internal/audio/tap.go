package audio

import "sync"

// tapBufferCap bounds how many samples a slow consumer may lag behind
// before the oldest are dropped (~3s of 44.1kHz stereo).
const tapBufferCap = 44100 * 2 * 3

// Tap is an independent consumer of the PCM stream flowing through the
// analyzer, used to hand the live audio to the capture sink. Closing a tap
// never affects ongoing analysis or any other tap.
type Tap struct {
	mu     sync.Mutex
	buf    []int16
	closed bool
	a      *Analyzer
}

// push appends samples, dropping the oldest when the consumer lags.
func (t *Tap) push(samples []int16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.buf = append(t.buf, samples...)
	if over := len(t.buf) - tapBufferCap; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
}

// Drain returns all samples accumulated since the previous call.
func (t *Tap) Drain() []int16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == 0 {
		return nil
	}
	out := make([]int16, len(t.buf))
	copy(out, t.buf)
	t.buf = t.buf[:0]
	return out
}

// Close detaches the tap from the analyzer.
func (t *Tap) Close() {
	t.mu.Lock()
	t.closed = true
	t.buf = nil
	t.mu.Unlock()
	if t.a != nil {
		t.a.removeTap(t)
	}
}
