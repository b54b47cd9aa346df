package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/utils"
)

var outDir string

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <audio-file>",
		Short: "Run a full memo cycle on an audio file",
		Long: `Transcribe an audio file, then derive the filler-free and corrected
variants. The three texts are printed, and with --out also written to
raw.txt, filler_removed.txt and corrected.txt in that directory.`,
		Args: cobra.ExactArgs(1),
		RunE: runE,
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write the three variants to")
	return cmd
}

func runE(cmd *cobra.Command, args []string) error {
	art, err := readAudio(args[0])
	if err != nil {
		return err
	}
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	_, t, runErr := rt.Memos.Create(cmd.Context(), art)
	if t.Raw != "" {
		printTranscript(cmd.OutOrStdout(), t)
		if outDir != "" {
			if err := writeVariants(outDir, t); err != nil {
				return err
			}
		}
	}
	return runErr
}

// writeVariants writes one file per slot. Slots that failed are skipped.
func writeVariants(dir string, t models.Transcript) error {
	const op = "memo.writeVariants"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return utils.E(utils.CodeInternal, op, "cannot create output directory", err)
	}
	for _, s := range []models.Slot{models.SlotRaw, models.SlotFillerRemoved, models.SlotCorrected} {
		if _, failed := t.Errors[s]; failed {
			continue
		}
		path := filepath.Join(dir, string(s)+".txt")
		if err := os.WriteFile(path, []byte(t.Get(s)+"\n"), 0o644); err != nil {
			return utils.E(utils.CodeInternal, op, fmt.Sprintf("cannot write %s", filepath.Base(path)), err)
		}
	}
	return nil
}
