package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicememo/config"
	"github.com/yoockh/voicememo/internal/api/handlers"
	"github.com/yoockh/voicememo/internal/api/middleware"
	"github.com/yoockh/voicememo/internal/api/routes"
	"github.com/yoockh/voicememo/internal/bootstrap"
	"github.com/yoockh/voicememo/internal/logger"
	"github.com/yoockh/voicememo/internal/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Fatal("config error")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, log, bootstrap.Options{UseRedis: true})
	if err != nil {
		log.WithError(err).Fatal("init error")
	}
	defer rt.Close()

	var pool *workers.MemoWorkerPool
	if rt.Redis != nil {
		pool = &workers.MemoWorkerPool{
			Redis:      rt.Redis,
			Jobs:       rt.Jobs,
			Memos:      rt.Memos,
			NumWorkers: cfg.Workers,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("worker init error")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))

	deps := routes.Deps{
		Transcribe: handlers.NewTranscribeHandler(rt.Transcription),
		Memo:       handlers.NewMemoHandler(rt.Processing, rt.Memos),
		WS:         handlers.NewWSHandler(rt.Memos, bootstrap.CaptureOptions(cfg), log),
		BodyLimit:  cfg.MaxBodyBytes,
	}
	if rt.Jobs != nil {
		deps.Jobs = handlers.NewJobHandler(rt.Jobs)
	}
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":          cfg.Port,
			"transcription": rt.STT.Name(),
			"correction":    rt.LLM.Name(),
			"pipeline":      cfg.PipelineMode,
		}).Info("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if pool != nil {
		pool.Wait()
	}
}
