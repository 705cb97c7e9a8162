package capture

import (
	"os/exec"
	"strings"
	"sync"
)

// Format describes one container the recorder can produce. Formats are
// tried in preference order; gif needs no optional encoder and is the
// guaranteed fallback, at the cost of having no audio track.
type Format struct {
	Ext        string
	Encoder    string   // required ffmpeg video encoder, empty if built in
	VideoArgs  []string // encoder-specific output arguments
	AudioCodec string   // mux-pass audio codec, empty means no audio track
}

var formats = []Format{
	{
		Ext:        "webm",
		Encoder:    "libvpx-vp9",
		VideoArgs:  []string{"-c:v", "libvpx-vp9", "-b:v", "2M", "-pix_fmt", "yuv420p"},
		AudioCodec: "libopus",
	},
	{
		Ext:        "mp4",
		Encoder:    "libx264",
		VideoArgs:  []string{"-c:v", "libx264", "-preset", "veryfast", "-crf", "23", "-pix_fmt", "yuv420p"},
		AudioCodec: "aac",
	},
	{
		Ext:       "gif",
		VideoArgs: []string{"-vf", "fps=15,scale=480:-1:flags=lanczos"},
	},
}

var (
	encodersOnce sync.Once
	encodersOut  string
)

// availableEncoders returns the cached ffmpeg encoder listing.
func availableEncoders() string {
	encodersOnce.Do(func() {
		ffmpeg, err := exec.LookPath("ffmpeg")
		if err != nil {
			return
		}
		out, err := exec.Command(ffmpeg, "-hide_banner", "-encoders").Output()
		if err != nil {
			return
		}
		encodersOut = string(out)
	})
	return encodersOut
}

// pickFormat selects the first preferred format whose encoder appears in
// the listing. An empty listing (no ffmpeg, probe failure) yields gif.
func pickFormat(encoders string) Format {
	for _, f := range formats {
		if f.Encoder == "" || strings.Contains(encoders, f.Encoder) {
			return f
		}
	}
	return formats[len(formats)-1]
}

// PickFormat selects the best capture format the local ffmpeg supports.
func PickFormat() Format {
	return pickFormat(availableEncoders())
}
