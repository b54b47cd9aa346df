// Package capture owns the recording lifecycle: acquiring an input stream,
// picking a container type, accumulating timed chunks and finalizing them
// into one artifact.
package capture

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultTimeslice   = 250 * time.Millisecond
	DefaultMaxDuration = 5 * time.Minute
	DefaultSampleRate  = 16000
)

// PreferredMIMETypes is probed in order; the first supported one wins.
var PreferredMIMETypes = []string{
	"audio/webm",
	"audio/mp4",
	"audio/mp3",
	"audio/wav",
	"audio/mpeg",
	"audio/ogg",
}

// ErrPermissionDenied is returned by Facility.Acquire when the user refused
// microphone access.
var ErrPermissionDenied = errors.New("microphone permission denied")

// Constraints are requested from the input device. Best effort: the actual
// device rate may differ and nothing downstream resamples.
type Constraints struct {
	EchoCancellation bool `json:"echoCancellation"`
	NoiseSuppression bool `json:"noiseSuppression"`
	AutoGainControl  bool `json:"autoGainControl"`
	ChannelCount     int  `json:"channelCount"`
	SampleRate       int  `json:"sampleRate"`
}

func DefaultConstraints() Constraints {
	return Constraints{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
		ChannelCount:     1,
		SampleRate:       DefaultSampleRate,
	}
}

// Facility is the runtime recording facility.
type Facility interface {
	// Available reports whether recording is possible at all.
	Available() bool
	IsTypeSupported(mimeType string) bool
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an acquired input stream.
type Stream interface {
	// Record emits chunks every timeslice until ctx is cancelled; the final
	// chunk is flushed before the channel is closed.
	Record(ctx context.Context, mimeType string, timeslice time.Duration) (<-chan []byte, error)
	// Close releases every track of the stream.
	Close() error
}

// SelectMIMEType returns the first candidate the facility supports, or ""
// meaning the environment default.
func SelectMIMEType(f Facility, candidates []string) string {
	if len(candidates) == 0 {
		candidates = PreferredMIMETypes
	}
	for _, m := range candidates {
		if f.IsTypeSupported(m) {
			return m
		}
	}
	return ""
}
