package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/voicememo/internal/cache"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/postprocess"
	"github.com/yoockh/voicememo/internal/services"
	"github.com/yoockh/voicememo/internal/utils"
)

type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Transcribe(context.Context, string, string) (string, error) { return f.text, f.err }
func (f *fakeSTT) Name() string                                               { return "fake" }
func (f *fakeSTT) Close() error                                               { return nil }

type fakeLLM struct{ out string }

func (f *fakeLLM) Generate(context.Context, string, float32) (string, error) { return f.out, nil }
func (f *fakeLLM) StreamAnswer(context.Context, string, float32) (<-chan string, <-chan error) {
	return nil, nil
}
func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Close() error { return nil }

type fakePublisher struct {
	mu   sync.Mutex
	msgs map[string][]statusMessage
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var m statusMessage
	_ = json.Unmarshal([]byte(message.(string)), &m)
	if f.msgs == nil {
		f.msgs = map[string][]statusMessage{}
	}
	f.msgs[channel] = append(f.msgs[channel], m)
	return redis.NewIntResult(1, nil)
}

type nopStream struct{}

func (nopStream) XAdd(context.Context, *redis.XAddArgs) *redis.StringCmd {
	return redis.NewStringResult("1-0", nil)
}

func newPool(stt *fakeSTT) (*MemoWorkerPool, services.JobService, *fakePublisher) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	jobs := services.NewJobService(nopStream{}, cache.NewMemoryCache(), time.Minute)
	ts := services.NewTranscriptionService(stt, nil, 0, log)
	pipe := postprocess.NewPipeline(postprocess.NewCorrector(&fakeLLM{out: "会議です。"}, 0.3), postprocess.PipelineOptions{})
	pub := &fakePublisher{}
	pool := &MemoWorkerPool{
		Jobs:      jobs,
		Memos:     services.NewMemoService(ts, pipe, log),
		Publisher: pub,
		Logger:    log,
	}
	pool.defaults()
	return pool, jobs, pub
}

func TestMemoWorker_ProcessesJob(t *testing.T) {
	pool, jobs, pub := newPool(&fakeSTT{text: "えーと、会議です。"})
	ctx := context.Background()

	job, err := jobs.Enqueue(ctx, models.TranscriptionRequest{
		AudioBase64: base64.StdEncoding.EncodeToString([]byte("audio")),
		MIMEType:    "audio/webm",
	})
	require.NoError(t, err)

	pool.handleMsg(ctx, redis.XMessage{ID: "1-0", Values: map[string]any{
		"job_id":       job.ID,
		"mime_type":    "audio/webm",
		"audio_base64": base64.StdEncoding.EncodeToString([]byte("audio")),
	}})

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobDone, got.Status)
	assert.Equal(t, models.StateDone, got.State)
	require.NotNil(t, got.Transcript)
	assert.Equal(t, "えーと、会議です。", got.Transcript.Raw)
	assert.Equal(t, "会議です。", got.Transcript.FillerRemoved)
	assert.Equal(t, "会議です。", got.Transcript.Corrected)

	msgs := pub.msgs[services.JobStatusChannel(job.ID)]
	require.NotEmpty(t, msgs)
	assert.Equal(t, models.JobProcessing, msgs[0].Status)
	last := msgs[len(msgs)-1]
	assert.Equal(t, models.JobDone, last.Status)
	require.NotNil(t, last.Transcript)

	var states []models.ProcessingState
	for _, m := range msgs {
		if m.Type == "state" {
			states = append(states, m.State)
		}
	}
	assert.Equal(t, []models.ProcessingState{models.StateTranscribing, models.StatePostProcessing, models.StateDone}, states)
}

func TestMemoWorker_TranscriptionFailure(t *testing.T) {
	pool, jobs, pub := newPool(&fakeSTT{err: utils.E(utils.CodeTranscription, "fake", "no speech was recognized", nil)})
	ctx := context.Background()

	pool.process(ctx, "job-1", "audio/webm", base64.StdEncoding.EncodeToString([]byte("audio")))

	got, err := jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.Equal(t, string(utils.CodeTranscription), got.ErrorCode)
	assert.Equal(t, "no speech was recognized", got.Error)

	msgs := pub.msgs[services.JobStatusChannel("job-1")]
	assert.Equal(t, models.JobFailed, msgs[len(msgs)-1].Status)
}

func TestMemoWorker_BadPayload(t *testing.T) {
	pool, jobs, _ := newPool(&fakeSTT{text: "x"})
	ctx := context.Background()

	pool.process(ctx, "job-2", "audio/webm", "not base64!")

	got, err := jobs.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.Equal(t, string(utils.CodeDecode), got.ErrorCode)
}

func TestMemoWorker_IgnoresMessagesWithoutJobID(t *testing.T) {
	pool, _, pub := newPool(&fakeSTT{text: "x"})
	pool.handleMsg(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]any{"mime_type": "audio/webm"}})
	assert.Empty(t, pub.msgs)
}

func TestMemoWorker_StartRequiresDependencies(t *testing.T) {
	p := &MemoWorkerPool{}
	assert.Error(t, p.Start(context.Background()))
}
