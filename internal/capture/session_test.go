package capture

import (
	"image"
	"testing"

	"github.com/olivier-w/vivid/internal/audio"
)

func testSession(w, h int) *Session {
	return &Session{
		format: pickFormat(""),
		w:      w,
		h:      h,
		fps:    30,
		frames: make(chan []byte, frameQueueDepth),
	}
}

func TestPushFrameNeverBlocks(t *testing.T) {
	s := testSession(8, 8)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	// nobody consumes the queue; pushes beyond its depth must drop
	for i := 0; i < frameQueueDepth*3; i++ {
		s.PushFrame(img, audio.Snapshot{})
	}
	if got := s.Dropped(); got != frameQueueDepth*2 {
		t.Fatalf("dropped = %d, want %d", got, frameQueueDepth*2)
	}
	if len(s.frames) != frameQueueDepth {
		t.Fatalf("queued = %d, want %d", len(s.frames), frameQueueDepth)
	}
}

func TestPushFrameSafeDuringStop(t *testing.T) {
	s := testSession(8, 8)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	pushes := make(chan struct{})
	go func() {
		defer close(pushes)
		for i := 0; i < 2000; i++ {
			s.PushFrame(img, audio.Snapshot{})
		}
	}()
	go func() {
		for range s.frames {
		}
	}()

	// close the queue mid-stream the way Stop does; a racing push must
	// see stopped instead of a closed channel
	s.mu.Lock()
	s.stopped = true
	close(s.frames)
	s.mu.Unlock()

	<-pushes
}

func TestPushFrameRejectsMismatchedBounds(t *testing.T) {
	s := testSession(8, 8)
	s.PushFrame(image.NewRGBA(image.Rect(0, 0, 16, 16)), audio.Snapshot{})
	s.PushFrame(nil, audio.Snapshot{})
	if len(s.frames) != 0 || s.Dropped() != 0 {
		t.Fatalf("mismatched frame entered the queue")
	}
}

func TestElapsedTracksAcceptedFrames(t *testing.T) {
	s := testSession(4, 4)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 3; i++ {
		s.PushFrame(img, audio.Snapshot{})
	}
	if got := s.Elapsed().Milliseconds(); got != 100 {
		t.Fatalf("elapsed = %dms, want 100ms", got)
	}
}

func TestRGBABytesTightPacking(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Pix[0] = 7

	out := rgbaBytes(img)
	if len(out) != 3*2*4 {
		t.Fatalf("len = %d, want %d", len(out), 3*2*4)
	}
	if out[0] != 7 {
		t.Fatal("pixel data not copied")
	}
	out[0] = 99
	if img.Pix[0] != 7 {
		t.Fatal("rgbaBytes aliased the raster")
	}
}

func TestRGBABytesSubImage(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range base.Pix {
		base.Pix[i] = uint8(i)
	}
	sub := base.SubImage(image.Rect(2, 3, 6, 7)).(*image.RGBA)

	out := rgbaBytes(sub)
	if len(out) != 4*4*4 {
		t.Fatalf("len = %d, want %d", len(out), 4*4*4)
	}
	if out[0] != base.Pix[3*base.Stride+2*4] {
		t.Fatal("sub-image rows misaligned")
	}
}

func TestWriteSamplesWithoutEncoderIsSafe(t *testing.T) {
	s := testSession(4, 4)
	s.writeSamples([]int16{1, 2, 3})
}
