package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/yoockh/voicememo/internal/utils"
)

const (
	ProviderGemini = "gemini"
	ProviderSpeech = "speech"
	ProviderOpenAI = "openai"

	PipelineConcurrent = "concurrent"
	PipelineSequential = "sequential"
)

type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	TranscriptionProvider string `env:"TRANSCRIPTION_PROVIDER" env-default:"gemini"`
	CorrectionProvider    string `env:"CORRECTION_PROVIDER" env-default:"gemini"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
	GoogleProject string `env:"GOOGLE_CLOUD_PROJECT"`
	GoogleRegion  string `env:"GOOGLE_CLOUD_LOCATION" env-default:"us-central1"`

	SpeechAPIKey   string `env:"GOOGLE_SPEECH_API_KEY"`
	SpeechLanguage string `env:"SPEECH_LANGUAGE" env-default:"ja-JP"`

	OpenAIAPIKey          string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL         string `env:"OPENAI_BASE_URL"`
	OpenAITranscribeModel string `env:"OPENAI_TRANSCRIBE_MODEL" env-default:"whisper-1"`
	OpenAIChatModel       string `env:"OPENAI_CHAT_MODEL" env-default:"gpt-4o-mini"`

	PipelineMode          string  `env:"PIPELINE_MODE" env-default:"concurrent"`
	FillersFile           string  `env:"FILLERS_FILE"`
	CorrectionTemperature float32 `env:"CORRECTION_TEMPERATURE" env-default:"0.3"`
	SequentialTemperature float32 `env:"SEQUENTIAL_TEMPERATURE" env-default:"0.5"`

	MaxRecordingDuration time.Duration `env:"MAX_RECORDING_DURATION" env-default:"5m"`
	ChunkInterval        time.Duration `env:"CHUNK_INTERVAL" env-default:"250ms"`
	RetainStream         bool          `env:"RETAIN_STREAM" env-default:"true"`

	RedisAddr string        `env:"REDIS_ADDR"`
	RedisURI  string        `env:"REDIS_URI"`
	RedisURL  string        `env:"REDIS_URL"`
	CacheTTL  time.Duration `env:"CACHE_TTL" env-default:"24h"`
	Workers   int           `env:"WORKERS" env-default:"4"`

	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" env-default:"33554432"`
}

// Load reads .env (when present) and the process environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RedisTarget returns the first configured of REDIS_ADDR, REDIS_URI, REDIS_URL.
func (c *Config) RedisTarget() string {
	for _, v := range []string{c.RedisAddr, c.RedisURI, c.RedisURL} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks provider selection and the credentials it needs, so a
// missing key is reported at startup rather than on the first request.
func (c *Config) Validate() error {
	const op = "Config.Validate"

	c.TranscriptionProvider = strings.ToLower(strings.TrimSpace(c.TranscriptionProvider))
	c.CorrectionProvider = strings.ToLower(strings.TrimSpace(c.CorrectionProvider))
	c.PipelineMode = strings.ToLower(strings.TrimSpace(c.PipelineMode))

	var errs []error

	switch c.TranscriptionProvider {
	case ProviderGemini:
		errs = append(errs, c.requireGemini(op)...)
	case ProviderSpeech:
		if c.SpeechAPIKey == "" {
			errs = append(errs, utils.E(utils.CodeMissingCredential, op, "GOOGLE_SPEECH_API_KEY is not set", nil))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, utils.E(utils.CodeMissingCredential, op, "OPENAI_API_KEY is not set", nil))
		}
	default:
		errs = append(errs, utils.E(utils.CodeInvalidArgument, op, "unknown TRANSCRIPTION_PROVIDER: "+c.TranscriptionProvider, nil))
	}

	switch c.CorrectionProvider {
	case ProviderGemini:
		if c.TranscriptionProvider != ProviderGemini {
			errs = append(errs, c.requireGemini(op)...)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" && c.TranscriptionProvider != ProviderOpenAI {
			errs = append(errs, utils.E(utils.CodeMissingCredential, op, "OPENAI_API_KEY is not set", nil))
		}
	default:
		errs = append(errs, utils.E(utils.CodeInvalidArgument, op, "unknown CORRECTION_PROVIDER: "+c.CorrectionProvider, nil))
	}

	if c.PipelineMode != PipelineConcurrent && c.PipelineMode != PipelineSequential {
		errs = append(errs, utils.E(utils.CodeInvalidArgument, op, "PIPELINE_MODE must be concurrent or sequential", nil))
	}
	if c.MaxRecordingDuration <= 0 {
		errs = append(errs, utils.E(utils.CodeInvalidArgument, op, "MAX_RECORDING_DURATION must be positive", nil))
	}
	if c.ChunkInterval <= 0 {
		errs = append(errs, utils.E(utils.CodeInvalidArgument, op, "CHUNK_INTERVAL must be positive", nil))
	}

	return errors.Join(errs...)
}

func (c *Config) requireGemini(op string) []error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, utils.E(utils.CodeMissingCredential, op, "GEMINI_API_KEY is not set", nil))
	}
	if c.GoogleProject == "" {
		errs = append(errs, utils.E(utils.CodeMissingCredential, op, "GOOGLE_CLOUD_PROJECT is not set", nil))
	}
	return errs
}
