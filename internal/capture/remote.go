package capture

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrStreamClosed     = errors.New("input stream is closed")
	ErrAlreadyRecording = errors.New("stream is already recording")
)

// RemoteHello is what a remote client reports about its recording facility.
type RemoteHello struct {
	RecorderAvailable  bool     `json:"recorder_available"`
	SupportedMIMETypes []string `json:"supported_mime_types"`
	Permission         string   `json:"permission"` // granted|denied|prompt
}

// RemoteFacility is a facility whose device lives on the other end of a
// connection: the peer records, and its chunks are handed in with Push.
type RemoteFacility struct {
	hello     RemoteHello
	supported map[string]struct{}

	mu          sync.Mutex
	constraints Constraints
	acquired    int
	rec         *remoteRecording
	closed      bool
}

type remoteRecording struct {
	out       chan []byte
	mimeType  string
	timeslice time.Duration
}

func NewRemoteFacility(h RemoteHello) *RemoteFacility {
	sup := make(map[string]struct{}, len(h.SupportedMIMETypes))
	for _, m := range h.SupportedMIMETypes {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			sup[m] = struct{}{}
		}
	}
	return &RemoteFacility{hello: h, supported: sup}
}

func (f *RemoteFacility) Available() bool { return f.hello.RecorderAvailable }

func (f *RemoteFacility) IsTypeSupported(mimeType string) bool {
	_, ok := f.supported[strings.ToLower(mimeType)]
	return ok
}

func (f *RemoteFacility) Acquire(_ context.Context, c Constraints) (Stream, error) {
	if strings.EqualFold(f.hello.Permission, "denied") {
		return nil, ErrPermissionDenied
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrStreamClosed
	}
	f.constraints = c
	f.acquired++
	return &remoteStream{f: f}, nil
}

// Acquisitions counts how often a stream was acquired, i.e. how often the
// peer would have been prompted.
func (f *RemoteFacility) Acquisitions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired
}

func (f *RemoteFacility) Constraints() Constraints {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.constraints
}

// Push hands one chunk from the peer to the active recording. It reports
// false when nothing is recording; the chunk is dropped.
func (f *RemoteFacility) Push(chunk []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil || f.closed || len(chunk) == 0 {
		return false
	}
	f.rec.out <- chunk
	return true
}

// Shutdown refuses further streams and pushes.
func (f *RemoteFacility) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type remoteStream struct {
	f      *RemoteFacility
	closed bool
}

func (s *remoteStream) Record(ctx context.Context, mimeType string, timeslice time.Duration) (<-chan []byte, error) {
	f := s.f
	f.mu.Lock()
	switch {
	case s.closed || f.closed:
		f.mu.Unlock()
		return nil, ErrStreamClosed
	case f.rec != nil:
		f.mu.Unlock()
		return nil, ErrAlreadyRecording
	}
	rec := &remoteRecording{out: make(chan []byte, 16), mimeType: mimeType, timeslice: timeslice}
	f.rec = rec
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		if f.rec == rec {
			f.rec = nil
		}
		close(rec.out)
		f.mu.Unlock()
	}()
	return rec.out, nil
}

func (s *remoteStream) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.closed = true
	return nil
}
