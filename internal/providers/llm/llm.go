// Package llm wraps the text-generation backends used for correction.
package llm

import (
	"context"

	"github.com/yoockh/voicememo/config"
	"github.com/yoockh/voicememo/internal/utils"
)

type Provider interface {
	// Generate returns the whole completion for prompt.
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
	// StreamAnswer returns a stream of text chunks (incremental).
	StreamAnswer(ctx context.Context, prompt string, temperature float32) (chunks <-chan string, errs <-chan error)
	Name() string
	Close() error
}

// New builds the provider selected by CORRECTION_PROVIDER.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	const op = "llm.New"
	switch cfg.CorrectionProvider {
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, utils.E(utils.CodeMissingCredential, op, "GEMINI_API_KEY is not set", nil)
		}
		return NewVertexGemini(ctx, cfg.GoogleProject, cfg.GoogleRegion, cfg.GeminiModel, cfg.GeminiAPIKey)
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, utils.E(utils.CodeMissingCredential, op, "OPENAI_API_KEY is not set", nil)
		}
		return NewOpenAIChat(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIChatModel), nil
	}
	return nil, utils.E(utils.CodeInvalidArgument, op, "unknown correction provider: "+cfg.CorrectionProvider, nil)
}
