package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yoockh/voicememo/internal/cache"
	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/utils"
)

const (
	JobStream = "memo:jobs"
	JobGroup  = "memo-workers"
)

// JobStatusChannel is where progress of one job is published.
func JobStatusChannel(jobID string) string { return "memo:" + jobID + ":status" }

// StreamAdder is satisfied by *redis.Client.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

type JobService interface {
	Enqueue(ctx context.Context, req models.TranscriptionRequest) (*models.Job, error)
	Get(ctx context.Context, jobID string) (*models.Job, error)
	Save(ctx context.Context, job *models.Job) error
}

type jobService struct {
	stream StreamAdder
	jobs   cache.Cache
	ttl    time.Duration
	now    func() time.Time
}

func NewJobService(stream StreamAdder, jobs cache.Cache, ttl time.Duration) JobService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &jobService{stream: stream, jobs: jobs, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *jobService) Enqueue(ctx context.Context, req models.TranscriptionRequest) (*models.Job, error) {
	const op = "JobService.Enqueue"

	if strings.TrimSpace(req.AudioBase64) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audioData is required", nil)
	}
	if _, err := codec.Decode(req.AudioBase64); err != nil {
		return nil, err
	}
	mime := strings.TrimSpace(req.MIMEType)
	if mime == "" {
		mime = codec.MIMETypeOfDataURL(req.AudioBase64)
	}
	if mime == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "mimeType is required", nil)
	}

	now := s.now()
	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.JobQueued,
		State:     models.StateIdle,
		MIMEType:  mime,
		Provider:  req.Provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.SetJSON(ctx, cache.JobKey(job.ID), job, s.ttl); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store job", err)
	}

	err := s.stream.XAdd(ctx, &redis.XAddArgs{
		Stream: JobStream,
		Values: map[string]any{
			"job_id":       job.ID,
			"mime_type":    mime,
			"audio_base64": codec.StripDataURLPrefix(req.AudioBase64),
		},
	}).Err()
	if err != nil {
		_ = s.jobs.Del(ctx, cache.JobKey(job.ID))
		return nil, utils.E(utils.CodeUnavailable, op, "failed to enqueue job", err)
	}
	return job, nil
}

func (s *jobService) Get(ctx context.Context, jobID string) (*models.Job, error) {
	const op = "JobService.Get"

	if jobID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_id is required", nil)
	}
	var job models.Job
	hit, err := s.jobs.GetJSON(ctx, cache.JobKey(jobID), &job)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read job", err)
	}
	if !hit {
		return nil, utils.E(utils.CodeNotFound, op, "job not found", utils.ErrNotFound)
	}
	return &job, nil
}

func (s *jobService) Save(ctx context.Context, job *models.Job) error {
	const op = "JobService.Save"

	if job == nil || job.ID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "job_id is required", nil)
	}
	job.UpdatedAt = s.now()
	if err := s.jobs.SetJSON(ctx, cache.JobKey(job.ID), job, s.ttl); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to store job", err)
	}
	return nil
}
