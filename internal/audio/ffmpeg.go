package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

var errFFmpegNotFound = fmt.Errorf("ffmpeg not found (required for this format)")

// ffmpegDecoder decodes any ffmpeg-supported audio through a subprocess,
// resampled to the playback rate as signed 16-bit LE stereo. Seek restarts
// the process with -ss.
type ffmpegDecoder struct {
	path       string
	totalBytes int64

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	pos    int64
	closed bool
}

type ffprobeAudioResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func newFFmpegDecoder(path string) (*ffmpegDecoder, error) {
	dur, err := probeAudioDuration(path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	d := &ffmpegDecoder{
		path:       path,
		totalBytes: int64(dur.Seconds() * float64(playbackBytesPerSec)),
	}
	if err := d.start(0); err != nil {
		return nil, err
	}
	return d, nil
}

// probeAudioDuration confirms the file has an audio stream and reads its duration.
func probeAudioDuration(path string) (time.Duration, error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return 0, errFFmpegNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "a:0",
		path,
	)
	cmd.Stdin = nil

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result ffprobeAudioResult
	if err := json.Unmarshal(out, &result); err != nil {
		return 0, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return 0, fmt.Errorf("no audio stream")
	}

	durSec, _ := strconv.ParseFloat(result.Format.Duration, 64)
	return time.Duration(durSec * float64(time.Second)), nil
}

func (d *ffmpegDecoder) start(from time.Duration) error {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return errFFmpegNotFound
	}

	d.stop()

	ctx, cancel := context.WithCancel(context.Background())

	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error"}
	if from > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", from.Seconds()))
	}
	args = append(args,
		"-i", d.path,
		"-vn",
		"-ac", strconv.Itoa(playbackChannels),
		"-ar", strconv.Itoa(playbackSampleRate),
		"-f", "s16le",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	cmd.Stdin = nil
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("starting ffmpeg decode: %w", err)
	}

	d.cmd = cmd
	d.stdout = stdout
	d.cancel = cancel
	return nil
}

func (d *ffmpegDecoder) stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.stdout != nil {
		_ = d.stdout.Close()
		d.stdout = nil
	}
	if d.cmd != nil {
		_ = d.cmd.Wait()
		d.cmd = nil
	}
}

func (d *ffmpegDecoder) Read(p []byte) (int, error) {
	d.mu.Lock()
	stdout := d.stdout
	closed := d.closed
	d.mu.Unlock()

	if closed || stdout == nil {
		return 0, io.EOF
	}
	n, err := stdout.Read(p)
	d.mu.Lock()
	d.pos += int64(n)
	d.mu.Unlock()
	return n, err
}

func (d *ffmpegDecoder) Seek(off int64, whence int) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	newPos := resolveSeek(d.pos, d.totalBytes, off, whence)
	newPos -= newPos % int64(playbackChannels*2)

	from := time.Duration(float64(newPos) / float64(playbackBytesPerSec) * float64(time.Second))
	if err := d.start(from); err != nil {
		return d.pos, err
	}
	d.pos = newPos
	return newPos, nil
}

func (d *ffmpegDecoder) Length() int64     { return d.totalBytes }
func (d *ffmpegDecoder) SampleRate() int   { return playbackSampleRate }
func (d *ffmpegDecoder) ChannelCount() int { return playbackChannels }

func (d *ffmpegDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.stop()
	return nil
}
