package capture

import "testing"

func TestPickFormatPreference(t *testing.T) {
	tests := []struct {
		name     string
		encoders string
		want     string
	}{
		{"vp9 available", "V..... libvpx-vp9  VP9\n V..... libx264", "webm"},
		{"only h264", "V..... libx264  H.264", "mp4"},
		{"neither", "V..... mpeg4", "gif"},
		{"no ffmpeg", "", "gif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickFormat(tt.encoders); got.Ext != tt.want {
				t.Fatalf("pickFormat = %q, want %q", got.Ext, tt.want)
			}
		})
	}
}

func TestGifFormatHasNoAudio(t *testing.T) {
	if f := pickFormat(""); f.AudioCodec != "" {
		t.Fatalf("gif fallback claims audio codec %q", f.AudioCodec)
	}
}
