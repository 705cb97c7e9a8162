package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const micFramesPerBuffer = 1024

// DefaultDevice selects the system default input device.
const DefaultDevice = -1

// InputDevice describes an available capture device.
type InputDevice struct {
	ID         int
	Name       string
	Channels   int
	SampleRate float64
}

// ListInputDevices enumerates capture-capable devices.
func ListInputDevices() ([]InputDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing audio devices: %w", err)
	}

	var out []InputDevice
	for i, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, InputDevice{
			ID:         i,
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
		})
	}
	return out, nil
}

// MicSource captures live microphone input through portaudio.
type MicSource struct {
	deviceID int
	stream   *portaudio.Stream
	feed     SampleWriter
	mono     bool
	started  bool
}

// NewMicSource creates a capture source. Pass DefaultDevice for the system default.
func NewMicSource(deviceID int) *MicSource {
	return &MicSource{deviceID: deviceID}
}

func (s *MicSource) Describe() string { return "microphone" }

func (s *MicSource) Start(feed SampleWriter) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initializing portaudio: %v", ErrSourceUnavailable, err)
	}

	dev, err := s.inputDevice()
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	channels := dev.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	s.mono = channels == 1
	s.feed = feed

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = channels
	params.SampleRate = float64(playbackSampleRate)
	params.FramesPerBuffer = micFramesPerBuffer

	stream, err := portaudio.OpenStream(params, s.onCapture)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: opening capture stream: %v", ErrSourceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("%w: starting capture stream: %v", ErrSourceUnavailable, err)
	}

	s.stream = stream
	s.started = true
	return nil
}

func (s *MicSource) inputDevice() (*portaudio.DeviceInfo, error) {
	if s.deviceID == DefaultDevice {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if s.deviceID < 0 || s.deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", s.deviceID)
	}
	return devices[s.deviceID], nil
}

func (s *MicSource) onCapture(in []int16) {
	if s.feed == nil {
		return
	}
	if !s.mono {
		s.feed.WriteSamples(in)
		return
	}
	stereo := make([]int16, len(in)*2)
	for i, v := range in {
		stereo[i*2] = v
		stereo[i*2+1] = v
	}
	s.feed.WriteSamples(stereo)
}

// Close stops capture and releases the microphone.
func (s *MicSource) Close() error {
	if !s.started {
		return nil
	}
	s.started = false
	var firstErr error
	if err := s.stream.Stop(); err != nil {
		firstErr = err
	}
	if err := s.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.stream = nil
	s.feed = nil
	return firstErr
}
