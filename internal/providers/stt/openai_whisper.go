package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/utils"
)

type transcriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OpenAIWhisper struct {
	c      transcriber
	apiKey string
	model  string
}

func NewOpenAIWhisper(o OpenAIOptions) *OpenAIWhisper {
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.Model == "" {
		o.Model = openai.Whisper1
	}
	return &OpenAIWhisper{c: openai.NewClientWithConfig(cfg), apiKey: o.APIKey, model: o.Model}
}

func (w *OpenAIWhisper) Name() string  { return "openai" }
func (w *OpenAIWhisper) Close() error { return nil }

// FileNameFor names the upload so the backend can sniff the container.
func FileNameFor(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "webm"):
		return "memo.webm"
	case strings.Contains(m, "mp4"):
		return "memo.mp4"
	case strings.Contains(m, "wav"):
		return "memo.wav"
	case strings.Contains(m, "mp3"), strings.Contains(m, "mpeg"):
		return "memo.mp3"
	case strings.Contains(m, "flac"):
		return "memo.flac"
	default:
		return "memo.ogg"
	}
}

func (w *OpenAIWhisper) Transcribe(ctx context.Context, payloadB64, mimeType string) (string, error) {
	const op = "OpenAIWhisper.Transcribe"

	if w.apiKey == "" {
		return "", missingCredential(op, "OPENAI_API_KEY")
	}
	audio, err := codec.Decode(payloadB64)
	if err != nil {
		return "", err
	}

	resp, err := w.c.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: FileNameFor(mimeType),
		Reader:   bytes.NewReader(audio),
		Language: "ja",
	})
	if err != nil {
		if code := httpStatusOf(err); code != 0 && ctx.Err() == nil {
			return "", utils.E(utils.CodeTranscription, op,
				fmt.Sprintf("transcription backend returned HTTP %d", code),
				fmt.Errorf("%w: %w", ErrUpstream, err))
		}
		return "", upstreamError(ctx, op, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", noResults(op)
	}
	return text, nil
}

func httpStatusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
