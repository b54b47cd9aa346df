package models

import (
	"bytes"
	"io"
	"time"
)

// RecordingSession accumulates the chunks of one capture run.
// Owned by capture.Recorder for its whole lifetime.
type RecordingSession struct {
	ID        string
	MIMEType  string // empty means the environment default container
	Chunks    [][]byte
	StartedAt time.Time
	Elapsed   time.Duration
}

// Append stores a copy of chunk, keeping arrival order.
func (s *RecordingSession) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.Chunks = append(s.Chunks, c)
}

func (s *RecordingSession) Size() int {
	n := 0
	for _, c := range s.Chunks {
		n += len(c)
	}
	return n
}

// Finalize concatenates every chunk into one artifact.
func (s *RecordingSession) Finalize() AudioArtifact {
	buf := make([]byte, 0, s.Size())
	for _, c := range s.Chunks {
		buf = append(buf, c...)
	}
	return AudioArtifact{data: buf, mimeType: s.MIMEType}
}

// AudioArtifact is the immutable result of a finished recording.
type AudioArtifact struct {
	data     []byte
	mimeType string
}

func NewAudioArtifact(data []byte, mimeType string) AudioArtifact {
	c := make([]byte, len(data))
	copy(c, data)
	return AudioArtifact{data: c, mimeType: mimeType}
}

func (a AudioArtifact) MIMEType() string { return a.mimeType }
func (a AudioArtifact) Size() int        { return len(a.data) }

// Reader gives read-only access to the payload.
func (a AudioArtifact) Reader() io.Reader { return bytes.NewReader(a.data) }

// Bytes returns a copy of the payload.
func (a AudioArtifact) Bytes() []byte {
	c := make([]byte, len(a.data))
	copy(c, a.data)
	return c
}
