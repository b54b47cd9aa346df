package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicememo/internal/memo"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/postprocess"
	"github.com/yoockh/voicememo/internal/utils"
)

type ProcessingService interface {
	// Process derives the filler-free and corrected variants of text.
	Process(ctx context.Context, text string) (models.Transcript, error)
	Mode() postprocess.Mode
}

type processingService struct {
	pipeline *postprocess.Pipeline
}

func NewProcessingService(p *postprocess.Pipeline) ProcessingService {
	return &processingService{pipeline: p}
}

func (s *processingService) Mode() postprocess.Mode { return s.pipeline.Mode() }

func (s *processingService) Process(ctx context.Context, text string) (models.Transcript, error) {
	const op = "ProcessingService.Process"

	res, err := s.pipeline.Run(ctx, text)
	if err != nil {
		return models.Transcript{}, err
	}
	if res.Failed() {
		return res.Transcript(), utils.E(utils.CodeCorrection, op, "post-processing failed", res.CorrectErr)
	}
	return res.Transcript(), nil
}

// MemoService runs whole memo cycles: audio in, three text variants out.
type MemoService interface {
	Create(ctx context.Context, art models.AudioArtifact) (*memo.Session, models.Transcript, error)
	NewSession(onEvent func(memo.Event)) *memo.Session
}

type memoService struct {
	transcriber TranscriptionService
	pipeline    *postprocess.Pipeline
	log         *logrus.Logger
}

func NewMemoService(t TranscriptionService, p *postprocess.Pipeline, log *logrus.Logger) MemoService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &memoService{transcriber: t, pipeline: p, log: log}
}

func (s *memoService) NewSession(onEvent func(memo.Event)) *memo.Session {
	return memo.NewSession(memo.Options{
		Transcriber: s.transcriber,
		Pipeline:    s.pipeline,
		Log:         s.log,
		OnEvent:     onEvent,
	})
}

func (s *memoService) Create(ctx context.Context, art models.AudioArtifact) (*memo.Session, models.Transcript, error) {
	sess := s.NewSession(nil)
	t, err := sess.Process(ctx, art)
	return sess, t, err
}
