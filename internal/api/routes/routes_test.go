package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/yoockh/voicememo/internal/api/handlers"
	"github.com/yoockh/voicememo/internal/cache"
	"github.com/yoockh/voicememo/internal/capture"
	"github.com/yoockh/voicememo/internal/postprocess"
	"github.com/yoockh/voicememo/internal/services"
)

type echoSTT struct{}

func (echoSTT) Transcribe(context.Context, string, string) (string, error) { return "ok", nil }
func (echoSTT) Name() string                                               { return "echo" }
func (echoSTT) Close() error                                               { return nil }

type echoLLM struct{}

func (echoLLM) Generate(_ context.Context, p string, _ float32) (string, error) { return "ok", nil }
func (echoLLM) StreamAnswer(context.Context, string, float32) (<-chan string, <-chan error) {
	return nil, nil
}
func (echoLLM) Name() string { return "echo" }
func (echoLLM) Close() error { return nil }

func engine(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	ts := services.NewTranscriptionService(echoSTT{}, cache.NewMemoryCache(), time.Minute, log)
	pipe := postprocess.NewPipeline(postprocess.NewCorrector(echoLLM{}, 0.3), postprocess.PipelineOptions{})
	memos := services.NewMemoService(ts, pipe, log)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Transcribe: handlers.NewTranscribeHandler(ts),
		Memo:       handlers.NewMemoHandler(services.NewProcessingService(pipe), memos),
		WS:         handlers.NewWSHandler(memos, capture.Options{}, log),
		BodyLimit:  limit,
	})
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_Ping(t *testing.T) {
	w := do(engine(0), http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRoutes_JobsAbsentWithoutRedis(t *testing.T) {
	w := do(engine(0), http.MethodPost, "/api/jobs", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_ProcessWired(t *testing.T) {
	w := do(engine(0), http.MethodPost, "/api/process", `{"text":"えーと、今日は晴れ"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"corrected":"ok"`)
}

func TestRoutes_BodyLimit(t *testing.T) {
	body := `{"audioData":"` + strings.Repeat("A", 128) + `","mimeType":"audio/webm"}`
	w := do(engine(64), http.MethodPost, "/api/transcribe", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")

	w = do(engine(1<<20), http.MethodPost, "/api/transcribe", body)
	assert.Equal(t, http.StatusOK, w.Code)
}
