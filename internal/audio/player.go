package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	playbackSampleRate  = 44100
	playbackChannels    = 2
	playbackBytesPerSec = playbackSampleRate * playbackChannels * 2
)

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   playbackSampleRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// monoUpmix duplicates each mono sample into both stereo channels.
type monoUpmix struct {
	src  pcmDecoder
	tail []byte
}

func newMonoUpmix(src pcmDecoder) *monoUpmix {
	return &monoUpmix{src: src}
}

func (u *monoUpmix) Read(p []byte) (int, error) {
	if len(u.tail) > 0 {
		n := copy(p, u.tail)
		u.tail = u.tail[n:]
		return n, nil
	}

	src := make([]byte, len(p)/2+2)
	n, err := u.src.Read(src)
	samples := n / 2
	if samples == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	out := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		copy(out[i*4:], src[i*2:i*2+2])
		copy(out[i*4+2:], src[i*2:i*2+2])
	}
	written := copy(p, out)
	if written < len(out) {
		u.tail = out[written:]
	}
	return written, err
}

func (u *monoUpmix) Seek(off int64, whence int) (int64, error) {
	pos, err := u.src.Seek(off/2-(off/2)%2, whence)
	u.tail = nil
	return pos * 2, err
}

func (u *monoUpmix) Length() int64 {
	if u.src.Length() < 0 {
		return -1
	}
	return u.src.Length() * 2
}
func (u *monoUpmix) SampleRate() int   { return u.src.SampleRate() }
func (u *monoUpmix) ChannelCount() int { return playbackChannels }

// teeReader feeds every byte pulled by the output device into the analyzer
// feed, so analysis tracks what is audibly playing.
type teeReader struct {
	reader io.ReadSeeker
	feed   SampleWriter
	pos    int64
	mu     sync.Mutex
}

func (t *teeReader) Read(p []byte) (int, error) {
	n, err := t.reader.Read(p)
	if n > 0 && t.feed != nil {
		samples := make([]int16, n/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(p[i*2:]))
		}
		t.feed.WriteSamples(samples)
	}
	t.mu.Lock()
	t.pos += int64(n)
	t.mu.Unlock()
	return n, err
}

func (t *teeReader) Pos() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

func (t *teeReader) SetPos(pos int64) {
	t.mu.Lock()
	t.pos = pos
	t.mu.Unlock()
}

// filePlayer drives decoded PCM through the output device.
type filePlayer struct {
	file      *os.File
	decoder   pcmDecoder
	stream    io.ReadSeeker
	tee       *teeReader
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	duration  time.Duration
	volume    float64
	paused    bool
	done      chan struct{}
	mu        sync.Mutex
	closed    bool
}

func newFilePlayer(path string, feed SampleWriter) (*filePlayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	var stream io.ReadSeeker = dec
	if dec.ChannelCount() == 1 {
		stream = newMonoUpmix(dec)
	}

	var dur time.Duration
	if dec.Length() >= 0 {
		totalOut := dec.Length()
		if dec.ChannelCount() == 1 {
			totalOut *= 2
		}
		dur = time.Duration(float64(totalOut) / float64(playbackBytesPerSec) * float64(time.Second))
	}

	p, perr := startPlayer(f, dec, stream, dur, feed)
	if perr != nil {
		f.Close()
		return nil, perr
	}
	return p, nil
}

// newBufferPlayer plays an already-decoded PCM block from memory.
func newBufferPlayer(dec pcmDecoder, feed SampleWriter) (*filePlayer, error) {
	dur := time.Duration(float64(dec.Length()) / float64(playbackBytesPerSec) * float64(time.Second))
	return startPlayer(nil, dec, dec, dur, feed)
}

func startPlayer(f *os.File, dec pcmDecoder, stream io.ReadSeeker, dur time.Duration, feed SampleWriter) (*filePlayer, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, fmt.Errorf("opening audio output: %w", err)
	}

	tee := &teeReader{reader: stream, feed: feed}

	p := &filePlayer{
		file:     f,
		decoder:  dec,
		stream:   stream,
		tee:      tee,
		otoCtx:   ctx,
		duration: dur,
		volume:   0.8,
		done:     make(chan struct{}),
	}

	p.otoPlayer = ctx.NewPlayer(tee)
	p.otoPlayer.SetVolume(p.volume)
	p.otoPlayer.Play()

	go p.monitor()

	return p, nil
}

func (p *filePlayer) monitor() {
	total := p.totalBytes()
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		pos := p.tee.Pos()
		paused := p.paused
		p.mu.Unlock()

		if !paused && total >= 0 && pos >= total {
			close(p.done)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func (p *filePlayer) totalBytes() int64 {
	total := p.decoder.Length()
	if total >= 0 && p.decoder.ChannelCount() == 1 {
		total *= 2
	}
	return total
}

func (p *filePlayer) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *filePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.otoPlayer.Play()
		p.paused = false
	}
}

func (p *filePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.otoPlayer.Pause()
		p.paused = true
	}
}

func (p *filePlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Stop pauses and rewinds to the beginning.
func (p *filePlayer) Stop() {
	p.Pause()
	p.seekBytes(0)
}

// SeekFraction jumps to the given fraction of the track in [0,1].
func (p *filePlayer) SeekFraction(frac float64) {
	total := p.totalBytes()
	if total < 0 {
		return
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	p.seekBytes(int64(frac * float64(total)))
}

func (p *filePlayer) seekBytes(pos int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Align to a sample frame boundary.
	pos -= pos % int64(playbackChannels*2)

	if _, err := p.stream.Seek(pos, io.SeekStart); err != nil {
		return
	}
	p.tee.SetPos(pos)

	// Recreate the oto player to flush its internal buffer.
	wasPaused := p.paused
	p.otoPlayer.Pause()
	p.otoPlayer = p.otoCtx.NewPlayer(p.tee)
	p.otoPlayer.SetVolume(p.volume)
	if !wasPaused {
		p.otoPlayer.Play()
	}
}

func (p *filePlayer) Position() time.Duration {
	secs := float64(p.tee.Pos()) / float64(playbackBytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

func (p *filePlayer) Duration() time.Duration { return p.duration }

func (p *filePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *filePlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.volume = v
	p.otoPlayer.SetVolume(v)
}

func (p *filePlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.otoPlayer.Pause()
	if c, ok := p.decoder.(io.Closer); ok {
		_ = c.Close()
	}
	if p.file != nil {
		p.file.Close()
	}
}
