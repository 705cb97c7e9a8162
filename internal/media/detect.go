package media

import (
	"path/filepath"
	"strings"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
}

// ffmpegExts are formats without a native decoder; they go through an
// ffmpeg subprocess instead.
var ffmpegExts = map[string]bool{
	".m4a": true,
	".aac": true,
}

// IsSupportedExt returns true if the extension is a supported playable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsAudioFile returns true if the path has a supported audio extension.
func IsAudioFile(path string) bool {
	return IsSupportedExt(filepath.Ext(path))
}

// NeedsFFmpeg returns true if the format requires an ffmpeg subprocess decode.
func NeedsFFmpeg(ext string) bool {
	return ffmpegExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of supported audio formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .ogg, .flac, .m4a, .aac"
}
