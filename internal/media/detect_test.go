package media

import "testing"

func TestIsSupportedExt(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{".mp3", true},
		{".MP3", true},
		{".wav", true},
		{".ogg", true},
		{".flac", true},
		{".m4a", true},
		{".aac", true},
		{".txt", false},
		{".mp4", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSupportedExt(tt.ext); got != tt.want {
			t.Errorf("IsSupportedExt(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestIsAudioFile(t *testing.T) {
	if !IsAudioFile("/music/song.mp3") || !IsAudioFile("Track.FLAC") {
		t.Error("audio paths not detected")
	}
	if IsAudioFile("notes.txt") || IsAudioFile("song") {
		t.Error("non-audio paths detected")
	}
}

func TestFFmpegFormatsAreSupported(t *testing.T) {
	for ext := range ffmpegExts {
		if !IsSupportedExt(ext) {
			t.Errorf("%s routed to ffmpeg but not listed as supported", ext)
		}
	}
}

func TestNeedsFFmpeg(t *testing.T) {
	if !NeedsFFmpeg(".m4a") || !NeedsFFmpeg(".AAC") {
		t.Error("m4a/aac should require ffmpeg decode")
	}
	if NeedsFFmpeg(".mp3") || NeedsFFmpeg(".flac") {
		t.Error("natively decoded formats should not require ffmpeg")
	}
}
