package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func TestResolveSeek(t *testing.T) {
	tests := []struct {
		name   string
		pos    int64
		total  int64
		off    int64
		whence int
		want   int64
	}{
		{"start", 50, 100, 20, io.SeekStart, 20},
		{"current", 50, 100, 20, io.SeekCurrent, 70},
		{"end", 50, 100, -10, io.SeekEnd, 90},
		{"clamps below zero", 10, 100, -50, io.SeekCurrent, 0},
		{"clamps above total", 90, 100, 50, io.SeekCurrent, 100},
		{"unknown total passes through", 10, -1, 1000, io.SeekStart, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveSeek(tt.pos, tt.total, tt.off, tt.whence); got != tt.want {
				t.Errorf("resolveSeek = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClampSample(t *testing.T) {
	if got := clampSample(40000); got != 32767 {
		t.Errorf("clampSample(40000) = %d, want 32767", got)
	}
	if got := clampSample(-40000); got != -32768 {
		t.Errorf("clampSample(-40000) = %d, want -32768", got)
	}
	if got := clampSample(123); got != 123 {
		t.Errorf("clampSample(123) = %d, want 123", got)
	}
}

func TestMonoUpmixDuplicatesSamples(t *testing.T) {
	mono := []int16{100, -200, 300}
	raw := make([]byte, len(mono)*2)
	for i, v := range mono {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	src := &memDecoder{Reader: bytes.NewReader(raw), size: int64(len(raw))}

	up := newMonoUpmix(src)
	out := make([]byte, len(raw)*2)
	if _, err := io.ReadFull(up, out); err != nil {
		t.Fatalf("reading upmixed stream: %v", err)
	}

	want := []int16{100, 100, -200, -200, 300, 300}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[i*2:]))
		if got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}

	if up.Length() != src.Length()*2 {
		t.Errorf("Length() = %d, want %d", up.Length(), src.Length()*2)
	}
}
