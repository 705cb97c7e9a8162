package audio

import "errors"

var (
	// ErrSourceUnavailable wraps decode failures and denied capture devices.
	ErrSourceUnavailable = errors.New("audio source unavailable")

	// ErrNoSource is returned by playback controls when nothing is attached.
	// Callers treat it as non-fatal and ignore or log it.
	ErrNoSource = errors.New("no audio source attached")

	// ErrNotSeekable is returned by playback controls when the attached
	// source has no timeline, such as live microphone capture.
	ErrNotSeekable = errors.New("source is not seekable")
)
