package audio

import "sync"

// sampleRing is a thread-safe circular buffer of interleaved int16 PCM samples.
// Writers append continuously; readers fetch the most recent window.
type sampleRing struct {
	buf  []int16
	size int
	w    int // write position
	len  int // current fill level
	mu   sync.Mutex
}

func newSampleRing(size int) *sampleRing {
	return &sampleRing{
		buf:  make([]int16, size),
		size: size,
	}
}

// Write appends samples, overwriting the oldest data when full.
func (r *sampleRing) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.buf[r.w] = s
		r.w = (r.w + 1) % r.size
	}
	r.len += len(samples)
	if r.len > r.size {
		r.len = r.size
	}
}

// Latest fills dst with the most recent len(dst) samples, zero-padding the
// front when the ring holds fewer samples than requested.
func (r *sampleRing) Latest(dst []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(dst)
	avail := r.len
	if avail > n {
		avail = n
	}
	pad := n - avail
	for i := 0; i < pad; i++ {
		dst[i] = 0
	}
	start := (r.w - avail + r.size) % r.size
	for i := 0; i < avail; i++ {
		dst[pad+i] = r.buf[(start+i)%r.size]
	}
}

// Clear resets the ring to empty.
func (r *sampleRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = 0
	r.len = 0
}
