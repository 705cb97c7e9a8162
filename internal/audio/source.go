package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"
)

// SampleWriter receives interleaved stereo PCM as it flows through a source.
type SampleWriter interface {
	WriteSamples(samples []int16)
}

// Source is a bound audio signal producer. Exactly one source is attached to
// the analyzer at a time; Start begins delivering PCM into the feed and Close
// releases all held resources (decoders, subprocesses, capture hardware).
type Source interface {
	Describe() string
	Start(feed SampleWriter) error
	Close() error
}

// Transport is the playback control surface a seekable source provides.
type Transport interface {
	Play()
	Pause()
	Paused() bool
	Stop()
	SeekFraction(frac float64)
	SetVolume(v float64)
	Volume() float64
	Position() time.Duration
	Duration() time.Duration
	Done() <-chan struct{}
}

// FileSource plays a decoded audio file through the output device.
type FileSource struct {
	path   string
	meta   Metadata
	player *filePlayer
}

// NewFileSource creates a source for the given path. Decoding starts on Start.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, meta: ReadMetadata(path)}
}

func (s *FileSource) Describe() string {
	if s.meta.Title != "" {
		return s.meta.Title
	}
	return filepath.Base(s.path)
}

// Meta returns the track metadata read from tags.
func (s *FileSource) Meta() Metadata { return s.meta }

func (s *FileSource) Start(feed SampleWriter) error {
	p, err := newFilePlayer(s.path, feed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	s.player = p
	return nil
}

func (s *FileSource) Close() error {
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
	return nil
}

func (s *FileSource) Play()   { s.player.Play() }
func (s *FileSource) Pause()  { s.player.Pause() }
func (s *FileSource) Stop()   { s.player.Stop() }
func (s *FileSource) Paused() bool {
	return s.player.Paused()
}
func (s *FileSource) SeekFraction(frac float64) { s.player.SeekFraction(frac) }
func (s *FileSource) SetVolume(v float64)       { s.player.SetVolume(v) }
func (s *FileSource) Volume() float64           { return s.player.Volume() }
func (s *FileSource) Position() time.Duration   { return s.player.Position() }
func (s *FileSource) Duration() time.Duration   { return s.player.Duration() }
func (s *FileSource) Done() <-chan struct{}     { return s.player.Done() }

// BufferSource plays raw interleaved stereo PCM at the playback rate from
// memory. Useful for synthesized signals and tests.
type BufferSource struct {
	samples []int16
	player  *filePlayer
}

func NewBufferSource(samples []int16) *BufferSource {
	return &BufferSource{samples: samples}
}

func (s *BufferSource) Describe() string { return "buffer" }

func (s *BufferSource) Start(feed SampleWriter) error {
	raw := make([]byte, len(s.samples)*2)
	for i, v := range s.samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	p, err := newBufferPlayer(&memDecoder{Reader: bytes.NewReader(raw), size: int64(len(raw))}, feed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	s.player = p
	return nil
}

func (s *BufferSource) Close() error {
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
	return nil
}

func (s *BufferSource) Play()                     { s.player.Play() }
func (s *BufferSource) Pause()                    { s.player.Pause() }
func (s *BufferSource) Stop()                     { s.player.Stop() }
func (s *BufferSource) Paused() bool              { return s.player.Paused() }
func (s *BufferSource) SeekFraction(frac float64) { s.player.SeekFraction(frac) }
func (s *BufferSource) SetVolume(v float64)       { s.player.SetVolume(v) }
func (s *BufferSource) Volume() float64           { return s.player.Volume() }
func (s *BufferSource) Position() time.Duration   { return s.player.Position() }
func (s *BufferSource) Duration() time.Duration   { return s.player.Duration() }
func (s *BufferSource) Done() <-chan struct{}     { return s.player.Done() }

// memDecoder adapts an in-memory PCM block to the decoder interface.
type memDecoder struct {
	*bytes.Reader
	size int64
}

func (d *memDecoder) Length() int64     { return d.size }
func (d *memDecoder) SampleRate() int   { return playbackSampleRate }
func (d *memDecoder) ChannelCount() int { return playbackChannels }
