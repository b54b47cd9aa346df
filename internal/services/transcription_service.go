package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicememo/internal/cache"
	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/providers/stt"
	"github.com/yoockh/voicememo/internal/utils"
)

type TranscriptionService interface {
	// Transcribe satisfies memo.Transcriber.
	Transcribe(ctx context.Context, payloadB64, mimeType string) (string, error)
	TranscribeRequest(ctx context.Context, req models.TranscriptionRequest) (string, error)
	Provider() string
}

type transcriptionService struct {
	stt   stt.Provider
	cache cache.Cache
	ttl   time.Duration
	log   *logrus.Logger
}

// NewTranscriptionService wraps p with a result cache. c may be nil.
func NewTranscriptionService(p stt.Provider, c cache.Cache, ttl time.Duration, log *logrus.Logger) TranscriptionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &transcriptionService{stt: p, cache: c, ttl: ttl, log: log}
}

func (s *transcriptionService) Provider() string { return s.stt.Name() }

func (s *transcriptionService) TranscribeRequest(ctx context.Context, req models.TranscriptionRequest) (string, error) {
	const op = "TranscriptionService.TranscribeRequest"

	if strings.TrimSpace(req.AudioBase64) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "audioData is required", nil)
	}
	mime := strings.TrimSpace(req.MIMEType)
	if mime == "" {
		mime = codec.MIMETypeOfDataURL(req.AudioBase64)
	}
	if mime == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "mimeType is required", nil)
	}
	return s.Transcribe(ctx, req.AudioBase64, mime)
}

func (s *transcriptionService) Transcribe(ctx context.Context, payloadB64, mimeType string) (string, error) {
	audio, err := codec.Decode(payloadB64)
	if err != nil {
		return "", err
	}
	payload := codec.StripDataURLPrefix(payloadB64)

	key := cache.TranscriptionKey(audio, mimeType, s.stt.Name())
	log := s.log.WithFields(logrus.Fields{"provider": s.stt.Name(), "mime_type": mimeType, "bytes": len(audio)})

	if s.cache != nil {
		var cached string
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.WithError(err).Warn("transcription cache read failed")
		} else if hit && cached != "" {
			log.Debug("transcription cache hit")
			return cached, nil
		}
	}

	start := time.Now()
	text, err := s.stt.Transcribe(ctx, payload, mimeType)
	if err != nil {
		log.WithError(err).Warn("transcription failed")
		return "", err
	}
	log.WithField("took_ms", time.Since(start).Milliseconds()).Info("transcription done")

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, text, s.ttl); err != nil {
			log.WithError(err).Warn("transcription cache write failed")
		}
	}
	return text, nil
}
