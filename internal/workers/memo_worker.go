package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/memo"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/services"
	"github.com/yoockh/voicememo/internal/utils"
)

// Publisher is satisfied by *redis.Client.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type MemoWorkerPool struct {
	Redis      *redis.Client
	Publisher  Publisher
	Jobs       services.JobService
	Memos      services.MemoService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	wg sync.WaitGroup
}

type statusMessage struct {
	Type       string                 `json:"type"`
	JobID      string                 `json:"job_id"`
	Status     models.JobStatus       `json:"status,omitempty"`
	State      models.ProcessingState `json:"state,omitempty"`
	Transcript *models.Transcript     `json:"transcript,omitempty"`
	Code       string                 `json:"code,omitempty"`
	Message    string                 `json:"message,omitempty"`
}

func (p *MemoWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Jobs == nil || p.Memos == nil {
		return errors.New("MemoWorkerPool missing dependency: Redis/Jobs/Memos must be set")
	}
	p.defaults()

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runConsumer(ctx, consumer)
		}()
	}
	p.Logger.WithFields(logrus.Fields{"stream": p.Stream, "group": p.Group, "workers": p.NumWorkers}).Info("memo workers started")
	return nil
}

// Wait blocks until every consumer has returned after ctx is cancelled.
func (p *MemoWorkerPool) Wait() { p.wg.Wait() }

func (p *MemoWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = services.JobStream
	}
	if p.Group == "" {
		p.Group = services.JobGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	if p.Publisher == nil && p.Redis != nil {
		p.Publisher = p.Redis
	}
}

func (p *MemoWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *MemoWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	jobID := getStr("job_id")
	if jobID == "" {
		return
	}
	p.process(ctx, jobID, getStr("mime_type"), getStr("audio_base64"))
}

func (p *MemoWorkerPool) process(ctx context.Context, jobID, mimeType, payload string) {
	log := p.Logger.WithFields(logrus.Fields{"job_id": jobID, "mime_type": mimeType})
	statusCh := services.JobStatusChannel(jobID)

	job, err := p.Jobs.Get(ctx, jobID)
	if err != nil {
		if !utils.IsCode(err, utils.CodeNotFound) {
			log.WithError(err).Warn("job lookup failed")
		}
		job = &models.Job{ID: jobID, MIMEType: mimeType, CreatedAt: time.Now().UTC()}
	}

	start := time.Now()
	job.Status = models.JobProcessing
	p.save(ctx, log, job)
	p.publish(ctx, statusCh, statusMessage{Type: "status", JobID: jobID, Status: models.JobProcessing})

	fail := func(err error) {
		job.Status = models.JobFailed
		job.State = models.StateErrored
		job.ErrorCode = string(utils.CodeOf(err))
		job.Error = utils.Message(err)
		job.ProcessingTimeMS = time.Since(start).Milliseconds()
		p.save(ctx, log, job)
		p.publish(ctx, statusCh, statusMessage{
			Type: "status", JobID: jobID, Status: models.JobFailed,
			Code: job.ErrorCode, Message: job.Error,
		})
		log.WithError(err).Error("memo job failed")
	}

	audio, err := codec.Decode(payload)
	if err != nil {
		fail(err)
		return
	}

	sess := p.Memos.NewSession(func(ev memo.Event) {
		job.State = ev.State
		p.publish(ctx, statusCh, statusMessage{Type: "state", JobID: jobID, State: ev.State})
	})
	tr, err := sess.Process(ctx, models.NewAudioArtifact(audio, mimeType))
	if err != nil {
		fail(err)
		return
	}

	job.Status = models.JobDone
	job.Transcript = &tr
	job.ProcessingTimeMS = time.Since(start).Milliseconds()
	p.save(ctx, log, job)
	p.publish(ctx, statusCh, statusMessage{Type: "status", JobID: jobID, Status: models.JobDone, Transcript: &tr})
	log.WithField("processing_time_ms", job.ProcessingTimeMS).Info("memo job done")
}

func (p *MemoWorkerPool) save(ctx context.Context, log *logrus.Entry, job *models.Job) {
	if err := p.Jobs.Save(ctx, job); err != nil {
		log.WithError(err).Warn("job save failed")
	}
}

func (p *MemoWorkerPool) publish(ctx context.Context, channel string, m statusMessage) {
	if p.Publisher == nil {
		return
	}
	b, _ := json.Marshal(m)
	_ = p.Publisher.Publish(ctx, channel, string(b)).Err()
}
