package capture

import (
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/util"
)

const (
	captureSampleRate = 44100
	captureChannels   = 2
	frameQueueDepth   = 8
	audioDrainEvery   = 50 * time.Millisecond
)

var ErrFFmpegRequired = fmt.Errorf("ffmpeg not found (required for recording)")

// Session records rendered frames and the live audio stream into a video
// file. Frames arrive on the render loop's clock; the session must never
// block it, so a full queue drops the frame instead of waiting.
type Session struct {
	format Format
	outDir string
	base   string
	w, h   int
	fps    int

	frames  chan []byte
	dropped atomic.Int64
	pushed  atomic.Int64

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	videoPath string
	videoErr  error
	videoDone chan struct{}

	tap       *audio.Tap
	wavFile   *os.File
	wavEnc    *wav.Encoder
	wavPath   string
	sampleBuf *goaudio.IntBuffer
	audioStop chan struct{}
	audioDone chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Start begins recording at the given frame size and rate. The output lands
// in dir with a timestamped name; the container depends on what the local
// ffmpeg can encode.
func Start(dir string, w, h, fps int, tap *audio.Tap) (*Session, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid capture size %dx%d", w, h)
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegRequired
	}

	format := PickFormat()
	s := &Session{
		format:    format,
		outDir:    dir,
		base:      "visualizer-" + time.Now().Format("20060102-150405"),
		w:         w,
		h:         h,
		fps:       fps,
		frames:    make(chan []byte, frameQueueDepth),
		videoDone: make(chan struct{}),
		tap:       tap,
	}
	s.videoPath = filepath.Join(dir, s.base+".video."+format.Ext)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", w, h),
		"-r", strconv.Itoa(fps),
		"-i", "pipe:0",
	}
	args = append(args, format.VideoArgs...)
	args = append(args, "-y", s.videoPath)

	cmd := exec.Command(ffmpeg, args...)
	cmd.Stderr = io.Discard
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg encode: %w", err)
	}
	s.cmd = cmd
	s.stdin = stdin

	go s.encodeLoop()

	if format.AudioCodec != "" && tap != nil {
		if err := s.startAudio(); err != nil {
			util.Debugf("capture: audio track disabled: %v", err)
		}
	}
	return s, nil
}

// PushFrame queues one frame for encoding. Mismatched bounds and full
// queues drop silently; the render loop never waits on the encoder.
func (s *Session) PushFrame(img *image.RGBA, snap audio.Snapshot) {
	if img == nil || img.Bounds().Dx() != s.w || img.Bounds().Dy() != s.h {
		return
	}
	buf := rgbaBytes(img)

	// the queue send stays under the lock so Stop cannot close the
	// channel between the stopped check and the send
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	select {
	case s.frames <- buf:
		s.pushed.Add(1)
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many frames the encoder could not keep up with.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// Elapsed estimates the recorded duration from the accepted frame count.
func (s *Session) Elapsed() time.Duration {
	if s.fps <= 0 {
		return 0
	}
	return time.Duration(s.pushed.Load()) * time.Second / time.Duration(s.fps)
}

// Ext returns the output container extension.
func (s *Session) Ext() string { return s.format.Ext }

// Stop finishes the encode, muxes the audio track when the container has
// one, and returns the final output path. Temp artifacts are removed even
// on failure.
func (s *Session) Stop() (string, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return "", fmt.Errorf("capture already stopped")
	}
	s.stopped = true
	close(s.frames)
	s.mu.Unlock()

	<-s.videoDone
	s.stopAudio()

	if s.videoErr != nil {
		s.cleanup()
		return "", fmt.Errorf("video encode: %w", s.videoErr)
	}

	final := filepath.Join(s.outDir, s.base+"."+s.format.Ext)
	if s.format.AudioCodec == "" || s.wavPath == "" {
		if err := os.Rename(s.videoPath, final); err != nil {
			s.cleanup()
			return "", fmt.Errorf("placing output: %w", err)
		}
		s.cleanup()
		return final, nil
	}

	if err := s.mux(final); err != nil {
		// keep the silent video rather than losing the take
		if renameErr := os.Rename(s.videoPath, final); renameErr != nil {
			s.cleanup()
			return "", fmt.Errorf("muxing audio: %w", err)
		}
		s.cleanup()
		util.Debugf("capture: muxing failed, kept silent video: %v", err)
		return final, nil
	}
	s.cleanup()
	return final, nil
}

// encodeLoop feeds queued frames to ffmpeg until the queue closes.
func (s *Session) encodeLoop() {
	defer close(s.videoDone)
	for buf := range s.frames {
		if _, err := s.stdin.Write(buf); err != nil {
			s.videoErr = fmt.Errorf("writing frame: %w", err)
			break
		}
	}
	// drain any remaining queued frames so Stop's close completes
	for range s.frames {
	}
	_ = s.stdin.Close()
	if err := s.cmd.Wait(); err != nil && s.videoErr == nil {
		s.videoErr = fmt.Errorf("ffmpeg: %w", err)
	}
}

func (s *Session) startAudio() error {
	s.wavPath = filepath.Join(s.outDir, s.base+".audio.wav")
	f, err := os.Create(s.wavPath)
	if err != nil {
		s.wavPath = ""
		return err
	}
	s.wavFile = f
	s.wavEnc = wav.NewEncoder(f, captureSampleRate, 16, captureChannels, 1)
	s.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: captureChannels,
			SampleRate:  captureSampleRate,
		},
	}
	s.audioStop = make(chan struct{})
	s.audioDone = make(chan struct{})
	go s.audioLoop()
	return nil
}

// audioLoop drains the analyzer tap on a short period so the tap's bounded
// buffer never overflows during capture.
func (s *Session) audioLoop() {
	defer close(s.audioDone)
	ticker := time.NewTicker(audioDrainEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.writeSamples(s.tap.Drain())
		case <-s.audioStop:
			s.writeSamples(s.tap.Drain())
			return
		}
	}
}

func (s *Session) writeSamples(samples []int16) {
	if len(samples) == 0 || s.wavEnc == nil {
		return
	}
	if cap(s.sampleBuf.Data) < len(samples) {
		s.sampleBuf.Data = make([]int, len(samples))
	}
	s.sampleBuf.Data = s.sampleBuf.Data[:len(samples)]
	for i, v := range samples {
		s.sampleBuf.Data[i] = int(v)
	}
	if err := s.wavEnc.Write(s.sampleBuf); err != nil {
		util.Debugf("capture: wav write: %v", err)
	}
}

func (s *Session) stopAudio() {
	if s.audioStop != nil {
		close(s.audioStop)
		<-s.audioDone
		s.audioStop = nil
	}
	if s.wavEnc != nil {
		if err := s.wavEnc.Close(); err != nil {
			util.Debugf("capture: closing wav: %v", err)
		}
		s.wavEnc = nil
	}
	if s.wavFile != nil {
		_ = s.wavFile.Close()
		s.wavFile = nil
	}
}

// mux combines the silent video and the wav track into the final file.
func (s *Session) mux(final string) error {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ErrFFmpegRequired
	}
	cmd := exec.Command(ffmpeg,
		"-hide_banner", "-loglevel", "error",
		"-i", s.videoPath,
		"-i", s.wavPath,
		"-c:v", "copy",
		"-c:a", s.format.AudioCodec,
		"-shortest",
		"-y", final,
	)
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}

// cleanup removes whatever intermediate artifacts still exist.
func (s *Session) cleanup() {
	if s.videoPath != "" {
		_ = os.Remove(s.videoPath)
	}
	if s.wavPath != "" {
		_ = os.Remove(s.wavPath)
	}
	if s.tap != nil {
		s.tap.Close()
	}
}

// rgbaBytes flattens the raster into tightly packed RGBA rows.
func rgbaBytes(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if img.Stride == w*4 && b.Min.X == 0 && b.Min.Y == 0 {
		out := make([]byte, len(img.Pix))
		copy(out, img.Pix)
		return out
	}
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		src := img.Pix[(y+b.Min.Y-img.Rect.Min.Y)*img.Stride+(b.Min.X-img.Rect.Min.X)*4:]
		copy(out[y*w*4:(y+1)*w*4], src[:w*4])
	}
	return out
}
