package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/utils"
)

// StreamPolicy decides what happens to the input stream between recordings.
type StreamPolicy int

const (
	// RetainStream keeps one acquired stream across recordings so the user
	// is not prompted again.
	RetainStream StreamPolicy = iota
	// StreamPerRecording releases the stream after every stop.
	StreamPerRecording
)

type StreamState string

const (
	StreamReleased StreamState = "released"
	StreamAcquired StreamState = "acquired"
	StreamInUse    StreamState = "in_use"
)

const flushTimeout = 2 * time.Second

type Options struct {
	MaxDuration time.Duration
	Timeslice   time.Duration
	Constraints Constraints
	Policy      StreamPolicy
	Candidates  []string

	// OnAutoStop receives the artifact when the duration ceiling stops the
	// recording. Called from a timer goroutine.
	OnAutoStop func(models.AudioArtifact, error)
}

type Recorder struct {
	facility Facility
	opts     Options
	now      func() time.Time

	mu       sync.Mutex
	stream   Stream
	disabled error
	active   *recording
	closed   bool
}

type recording struct {
	session *models.RecordingSession
	cancel  context.CancelFunc
	done    chan struct{}
	timer   *time.Timer
}

func NewRecorder(f Facility, opts Options) *Recorder {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if opts.Timeslice <= 0 {
		opts.Timeslice = DefaultTimeslice
	}
	if opts.Constraints == (Constraints{}) {
		opts.Constraints = DefaultConstraints()
	}
	return &Recorder{facility: f, opts: opts, now: time.Now}
}

// Start begins a recording. Errors: UNSUPPORTED_ENVIRONMENT (checked before
// any permission prompt), PERMISSION_DENIED (and every later Start),
// CONFLICT when already recording.
func (r *Recorder) Start(ctx context.Context) error {
	const op = "Recorder.Start"

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.closed:
		return utils.E(utils.CodeConflict, op, "recorder is closed", nil)
	case r.active != nil:
		return utils.E(utils.CodeConflict, op, "already recording", nil)
	case r.disabled != nil:
		return r.disabled
	}

	if r.facility == nil || !r.facility.Available() {
		return utils.E(utils.CodeUnsupportedEnvironment, op, "audio recording is not supported in this environment", nil)
	}

	if r.stream == nil {
		s, err := r.facility.Acquire(ctx, r.opts.Constraints)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				r.disabled = utils.E(utils.CodePermissionDenied, op, "microphone access was denied", err)
				return r.disabled
			}
			return utils.E(utils.CodeUnavailable, op, "failed to acquire input stream", err)
		}
		r.stream = s
	}

	mime := SelectMIMEType(r.facility, r.opts.Candidates)

	recCtx, cancel := context.WithCancel(ctx)
	chunks, err := r.stream.Record(recCtx, mime, r.opts.Timeslice)
	if err != nil {
		cancel()
		if r.opts.Policy == StreamPerRecording {
			r.releaseLocked()
		}
		return utils.E(utils.CodeUnavailable, op, "failed to start recording", err)
	}

	rec := &recording{
		session: &models.RecordingSession{
			ID:        uuid.NewString(),
			MIMEType:  mime,
			StartedAt: r.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.collect(rec, chunks)
	rec.timer = time.AfterFunc(r.opts.MaxDuration, r.autoStop)
	r.active = rec
	return nil
}

func (r *Recorder) collect(rec *recording, chunks <-chan []byte) {
	defer close(rec.done)
	for c := range chunks {
		r.mu.Lock()
		rec.session.Append(c)
		rec.session.Elapsed = r.now().Sub(rec.session.StartedAt)
		r.mu.Unlock()
	}
}

// Stop finalizes the recording. A recording with zero bytes yields
// EMPTY_RECORDING instead of an empty artifact.
func (r *Recorder) Stop() (models.AudioArtifact, error) {
	art, ok, err := r.stop()
	if !ok {
		return models.AudioArtifact{}, utils.E(utils.CodeConflict, "Recorder.Stop", "not recording", nil)
	}
	return art, err
}

func (r *Recorder) autoStop() {
	art, ok, err := r.stop()
	if ok && r.opts.OnAutoStop != nil {
		r.opts.OnAutoStop(art, err)
	}
}

func (r *Recorder) stop() (models.AudioArtifact, bool, error) {
	const op = "Recorder.Stop"

	r.mu.Lock()
	rec := r.active
	r.active = nil
	r.mu.Unlock()
	if rec == nil {
		return models.AudioArtifact{}, false, nil
	}

	rec.timer.Stop()
	rec.cancel()
	select {
	case <-rec.done:
	case <-time.After(flushTimeout):
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec.session.Elapsed = r.now().Sub(rec.session.StartedAt)
	if r.opts.Policy == StreamPerRecording {
		r.releaseLocked()
	}

	art := rec.session.Finalize()
	if art.Size() == 0 {
		return models.AudioArtifact{}, true, utils.E(utils.CodeEmptyRecording, op, "recording contains no audio", nil)
	}
	return art, true, nil
}

// Close discards any active recording and releases the stream.
func (r *Recorder) Close() error {
	r.stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.releaseLocked()
}

func (r *Recorder) releaseLocked() error {
	if r.stream == nil {
		return nil
	}
	err := r.stream.Close()
	r.stream = nil
	return err
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

func (r *Recorder) StreamState() StreamState {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.stream == nil:
		return StreamReleased
	case r.active != nil:
		return StreamInUse
	default:
		return StreamAcquired
	}
}

// Elapsed returns the running duration of the active recording.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0
	}
	return r.now().Sub(r.active.session.StartedAt)
}

// MIMEType of the active recording; "" when idle or using the default.
func (r *Recorder) MIMEType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return ""
	}
	return r.active.session.MIMEType
}

func (r *Recorder) Options() Options { return r.opts }
