// Package stt adapts speech-to-text backends to one contract: base64 audio
// plus its MIME type in, transcript text out.
package stt

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yoockh/voicememo/config"
	"github.com/yoockh/voicememo/internal/utils"
)

type Provider interface {
	Transcribe(ctx context.Context, payloadB64, mimeType string) (string, error)
	Name() string
	Close() error
}

var (
	// ErrNoResults means the backend answered but recognized nothing.
	ErrNoResults = errors.New("no transcription results")
	// ErrUpstream means the backend call itself failed.
	ErrUpstream = errors.New("transcription backend failed")
)

// New builds the provider selected by TRANSCRIPTION_PROVIDER.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.TranscriptionProvider {
	case config.ProviderGemini:
		return NewGemini(ctx, GeminiOptions{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GoogleProject,
			Location: cfg.GoogleRegion,
			Model:    cfg.GeminiModel,
		})
	case config.ProviderSpeech:
		return NewGoogleSpeech(ctx, cfg.SpeechAPIKey, cfg.SpeechLanguage)
	case config.ProviderOpenAI:
		return NewOpenAIWhisper(OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAITranscribeModel,
		}), nil
	}
	return nil, utils.E(utils.CodeInvalidArgument, "stt.New", "unknown transcription provider: "+cfg.TranscriptionProvider, nil)
}

func missingCredential(op, key string) error {
	return utils.E(utils.CodeMissingCredential, op, key+" is not set", nil)
}

func noResults(op string) error {
	return utils.E(utils.CodeTranscription, op, "no speech was recognized", ErrNoResults)
}

// upstreamError keeps caller cancellation distinct from backend failure.
func upstreamError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return utils.E(utils.CodeTimeout, op, "transcription timed out", ctxErr)
		}
		return utils.E(utils.CodeUnavailable, op, "transcription cancelled", ctxErr)
	}
	msg := "transcription backend failed"
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		msg = fmt.Sprintf("transcription backend failed: %s", s.Code())
	}
	return utils.E(utils.CodeTranscription, op, msg, fmt.Errorf("%w: %w", ErrUpstream, err))
}
