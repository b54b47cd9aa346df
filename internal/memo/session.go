// Package memo drives one memo cycle through its processing states:
// recording, transcription and post-processing.
package memo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/postprocess"
	"github.com/yoockh/voicememo/internal/utils"
)

// Transcriber turns base64 audio into raw text.
type Transcriber interface {
	Transcribe(ctx context.Context, payloadB64, mimeType string) (string, error)
}

// Event is emitted on every state transition and text change.
type Event struct {
	SessionID  string                 `json:"session_id"`
	State      models.ProcessingState `json:"state"`
	Transcript models.Transcript      `json:"transcript"`
	Code       utils.Code             `json:"code,omitempty"`
	Message    string                 `json:"message,omitempty"`
	At         time.Time              `json:"at"`
}

type Options struct {
	Transcriber Transcriber
	Pipeline    *postprocess.Pipeline
	Log         *logrus.Logger
	OnEvent     func(Event)
}

type Session struct {
	id   string
	opts Options
	log  *logrus.Entry

	mu         sync.Mutex
	state      models.ProcessingState
	transcript models.Transcript
	lastErr    error
}

func NewSession(opts Options) *Session {
	l := opts.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	id := uuid.NewString()
	return &Session{
		id:    id,
		opts:  opts,
		log:   l.WithField("session_id", id),
		state: models.StateIdle,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() models.ProcessingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the current text variants.
func (s *Session) Transcript() models.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Clone()
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// StartRecording moves to recording and discards the previous cycle's text.
// Refused with CONFLICT while a cycle is in flight.
func (s *Session) StartRecording() error {
	const op = "Session.StartRecording"

	s.mu.Lock()
	if !s.state.CanStartRecording() {
		st := s.state
		s.mu.Unlock()
		return utils.E(utils.CodeConflict, op, "cannot start recording while "+string(st), nil)
	}
	s.transcript = models.Transcript{}
	s.lastErr = nil
	ev := s.setStateLocked(models.StateRecording)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// AbortRecording returns to idle when a recording could not produce audio.
func (s *Session) AbortRecording(err error) {
	s.mu.Lock()
	if s.state != models.StateRecording {
		s.mu.Unlock()
		return
	}
	var ev Event
	if err != nil {
		s.lastErr = err
		ev = s.setStateLocked(models.StateErrored)
	} else {
		ev = s.setStateLocked(models.StateIdle)
	}
	s.mu.Unlock()
	s.emit(ev)
}

// Fail marks the cycle errored.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	ev := s.setStateLocked(models.StateErrored)
	s.mu.Unlock()

	s.log.WithError(err).WithField("code", utils.CodeOf(err)).Warn("memo cycle failed")
	s.emit(ev)
}

// Process runs a finished recording through encoding, transcription and
// post-processing. It ends in done, even with one failed derivation, or in
// errored when a stage before post-processing fails.
func (s *Session) Process(ctx context.Context, art models.AudioArtifact) (models.Transcript, error) {
	const op = "Session.Process"

	s.mu.Lock()
	if s.state != models.StateRecording && s.state != models.StateIdle {
		st := s.state
		s.mu.Unlock()
		return models.Transcript{}, utils.E(utils.CodeConflict, op, "cannot process while "+string(st), nil)
	}
	if s.state == models.StateIdle {
		s.transcript = models.Transcript{}
		s.lastErr = nil
	}
	ev := s.setStateLocked(models.StateTranscribing)
	s.mu.Unlock()
	s.emit(ev)

	if art.Size() == 0 {
		err := utils.E(utils.CodeEmptyRecording, op, "recording contains no audio", nil)
		s.Fail(err)
		return models.Transcript{}, err
	}

	payload, err := codec.Encode(art)
	if err != nil {
		s.Fail(err)
		return models.Transcript{}, err
	}

	start := time.Now()
	raw, err := s.opts.Transcriber.Transcribe(ctx, payload, art.MIMEType())
	if err != nil {
		s.Fail(err)
		return models.Transcript{}, err
	}
	s.log.WithFields(logrus.Fields{
		"mime_type": art.MIMEType(),
		"bytes":     art.Size(),
		"took_ms":   time.Since(start).Milliseconds(),
	}).Info("transcribed")

	s.advance(models.StatePostProcessing, func(t *models.Transcript) { t.Raw = raw })

	res, err := s.opts.Pipeline.Run(ctx, raw)
	if err != nil {
		s.Fail(err)
		return s.Transcript(), err
	}

	s.advance(models.StateDone, func(t *models.Transcript) {
		derived := res.Transcript()
		t.FillerRemoved = derived.FillerRemoved
		t.Corrected = derived.Corrected
		t.Errors = derived.Errors
	})
	if res.FillerErr != nil || res.CorrectErr != nil {
		s.log.WithFields(logrus.Fields{
			"filler_error":     res.FillerErr,
			"correction_error": res.CorrectErr,
		}).Warn("post-processing finished with partial results")
	}
	return s.Transcript(), nil
}

// advance applies fn to the transcript and moves to next.
func (s *Session) advance(next models.ProcessingState, fn func(*models.Transcript)) {
	s.mu.Lock()
	fn(&s.transcript)
	ev := s.setStateLocked(next)
	s.mu.Unlock()
	s.emit(ev)
}

// Edit replaces one variant. The other two are untouched.
func (s *Session) Edit(slot models.Slot, text string) error {
	const op = "Session.Edit"

	s.mu.Lock()
	if s.state.Busy() || s.state == models.StateRecording {
		st := s.state
		s.mu.Unlock()
		return utils.E(utils.CodeConflict, op, "cannot edit while "+string(st), nil)
	}
	if err := s.transcript.Set(slot, text); err != nil {
		s.mu.Unlock()
		return utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}
	ev := s.eventLocked()
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

func (s *Session) setStateLocked(st models.ProcessingState) Event {
	s.state = st
	return s.eventLocked()
}

func (s *Session) eventLocked() Event {
	ev := Event{
		SessionID:  s.id,
		State:      s.state,
		Transcript: s.transcript.Clone(),
		At:         time.Now(),
	}
	if s.state == models.StateErrored && s.lastErr != nil {
		ev.Code = utils.CodeOf(s.lastErr)
		ev.Message = utils.Message(s.lastErr)
	}
	return ev
}

func (s *Session) emit(ev Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}
