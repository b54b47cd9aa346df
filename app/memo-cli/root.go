package main

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yoockh/voicememo/config"
	"github.com/yoockh/voicememo/internal/bootstrap"
	"github.com/yoockh/voicememo/internal/logger"
	"github.com/yoockh/voicememo/internal/utils"
)

var (
	envFile  string
	logLevel string
	mimeFlag string
	modeFlag string
)

// buildRuntime is swapped in tests.
var buildRuntime = func(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*bootstrap.Runtime, error) {
	return bootstrap.Build(ctx, cfg, log, bootstrap.Options{})
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Transcribe and clean up Japanese voice memos",
		Long: `memo turns recorded audio into three text variants: the raw transcript,
a copy with filler words removed, and an LLM-corrected copy.

Providers are chosen with the same environment variables as the server
(TRANSCRIPTION_PROVIDER, CORRECTION_PROVIDER, PIPELINE_MODE, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file first")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	cmd.PersistentFlags().StringVar(&mimeFlag, "mime", "", "Audio MIME type (inferred from the file extension when empty)")
	cmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Post-processing mode: concurrent or sequential")

	cmd.AddCommand(newTranscribeCommand())
	cmd.AddCommand(newProcessCommand())
	cmd.AddCommand(newRunCommand())

	return cmd
}

// setup loads configuration and builds the runtime for one command.
func setup(cmd *cobra.Command) (*bootstrap.Runtime, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, "memo.setup", "cannot read env file", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if modeFlag != "" {
		cfg.PipelineMode = modeFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	log := logger.NewWithOutput(cmd.ErrOrStderr(), logLevel)
	return buildRuntime(cmd.Context(), cfg, log)
}

var extMIME = map[string]string{
	".webm": "audio/webm",
	".mp4":  "audio/mp4",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
}

// mimeFor returns the explicit type when set, else one inferred from path.
func mimeFor(path, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := extMIME[ext]; ok {
		return m, nil
	}
	if m := mime.TypeByExtension(ext); strings.HasPrefix(m, "audio/") {
		if i := strings.IndexByte(m, ';'); i >= 0 {
			m = m[:i]
		}
		return m, nil
	}
	return "", utils.E(utils.CodeInvalidArgument, "memo.mimeFor", "cannot infer audio type of "+filepath.Base(path)+"; pass --mime", nil)
}
