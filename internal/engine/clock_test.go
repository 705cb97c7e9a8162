package engine

import (
	"math"
	"testing"
	"time"
)

func TestClockFirstStepIsZero(t *testing.T) {
	var c clock
	if dt := c.step(time.Now(), 1); dt != 0 {
		t.Fatalf("first delta = %v, want 0", dt)
	}
}

func TestClockClampsLongStalls(t *testing.T) {
	var c clock
	base := time.Now()
	c.step(base, 1)
	if dt := c.step(base.Add(3*time.Second), 1); dt != 0.1 {
		t.Fatalf("stall delta = %v, want 0.1", dt)
	}
}

func TestClockNormalStep(t *testing.T) {
	var c clock
	base := time.Now()
	c.step(base, 1)
	dt := c.step(base.Add(16*time.Millisecond), 1)
	if math.Abs(dt-0.016) > 1e-9 {
		t.Fatalf("delta = %v, want 0.016", dt)
	}
}

func TestClockSpeedScalesAnimationTimeOnly(t *testing.T) {
	var c clock
	base := time.Now()
	c.step(base, 2)
	dt := c.step(base.Add(100*time.Millisecond), 2)
	if math.Abs(dt-0.1) > 1e-9 {
		t.Fatalf("real delta = %v, want 0.1", dt)
	}
	if math.Abs(c.time()-0.2) > 1e-9 {
		t.Fatalf("animation time = %v, want 0.2", c.time())
	}
}

func TestClockResetDropsIdleTime(t *testing.T) {
	var c clock
	base := time.Now()
	c.step(base, 1)
	c.step(base.Add(16*time.Millisecond), 1)
	before := c.time()

	c.reset()
	if dt := c.step(base.Add(10*time.Second), 1); dt != 0 {
		t.Fatalf("post-reset delta = %v, want 0", dt)
	}
	if c.time() != before {
		t.Fatalf("reset advanced animation time: %v -> %v", before, c.time())
	}
}

func TestClockBackwardTimeIsIgnored(t *testing.T) {
	var c clock
	base := time.Now()
	c.step(base, 1)
	if dt := c.step(base.Add(-time.Second), 1); dt != 0 {
		t.Fatalf("backward delta = %v, want 0", dt)
	}
}
