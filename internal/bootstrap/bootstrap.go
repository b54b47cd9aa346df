// Package bootstrap wires configuration into providers and services for the
// server and the CLI.
package bootstrap

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicememo/config"
	"github.com/yoockh/voicememo/internal/cache"
	"github.com/yoockh/voicememo/internal/capture"
	"github.com/yoockh/voicememo/internal/postprocess"
	"github.com/yoockh/voicememo/internal/providers/llm"
	"github.com/yoockh/voicememo/internal/providers/stt"
	"github.com/yoockh/voicememo/internal/services"
	"github.com/yoockh/voicememo/internal/utils"
)

type Runtime struct {
	Config *config.Config
	Log    *logrus.Logger

	STT       stt.Provider
	LLM       llm.Provider
	Corrector *postprocess.Corrector
	Pipeline  *postprocess.Pipeline

	Redis *redis.Client // nil when not configured
	Cache cache.Cache

	Transcription services.TranscriptionService
	Processing    services.ProcessingService
	Memos         services.MemoService
	Jobs          services.JobService // nil without Redis
}

type Options struct {
	// UseRedis connects to Redis when an address is configured.
	UseRedis bool
}

func Build(ctx context.Context, cfg *config.Config, log *logrus.Logger, o Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Log: log}

	var err error
	if rt.STT, err = stt.New(ctx, cfg); err != nil {
		return nil, err
	}
	if rt.LLM, err = llm.New(ctx, cfg); err != nil {
		rt.Close()
		return nil, err
	}

	fillers, err := postprocess.LoadFillerRulesFile(cfg.FillersFile)
	if err != nil {
		rt.Close()
		return nil, utils.E(utils.CodeInvalidArgument, "bootstrap.Build", "cannot load FILLERS_FILE", err)
	}
	rt.Corrector = postprocess.NewCorrector(rt.LLM, cfg.CorrectionTemperature)
	rt.Pipeline = postprocess.NewPipeline(
		rt.Corrector,
		postprocess.PipelineOptions{
			Mode:                  postprocess.Mode(cfg.PipelineMode),
			SequentialTemperature: cfg.SequentialTemperature,
			Fillers:               fillers,
		},
	)

	rt.Cache = cache.NewMemoryCache()
	if o.UseRedis {
		rdb, err := config.NewRedis(ctx, cfg)
		switch {
		case errors.Is(err, config.ErrRedisNotConfigured):
			log.Warn("redis not configured: using in-process cache, job API disabled")
		case err != nil:
			rt.Close()
			return nil, err
		default:
			rt.Redis = rdb
			rt.Cache = cache.NewRedisCache(rdb, "voicememo:")
			rt.Jobs = services.NewJobService(rdb, rt.Cache, cfg.CacheTTL)
		}
	}

	rt.Transcription = services.NewTranscriptionService(rt.STT, rt.Cache, cfg.CacheTTL, log)
	rt.Processing = services.NewProcessingService(rt.Pipeline)
	rt.Memos = services.NewMemoService(rt.Transcription, rt.Pipeline, log)
	return rt, nil
}

// CaptureOptions maps recording settings onto the capture layer.
func CaptureOptions(cfg *config.Config) capture.Options {
	policy := capture.RetainStream
	if !cfg.RetainStream {
		policy = capture.StreamPerRecording
	}
	return capture.Options{
		MaxDuration: cfg.MaxRecordingDuration,
		Timeslice:   cfg.ChunkInterval,
		Policy:      policy,
	}
}

func (rt *Runtime) Close() {
	if rt.STT != nil {
		_ = rt.STT.Close()
	}
	if rt.LLM != nil {
		_ = rt.LLM.Close()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
}
