package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/postprocess"
	"github.com/yoockh/voicememo/internal/utils"
)

var streamFlag bool

func newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [text-file|-]",
		Short: "Remove fillers from a transcript and correct it",
		Long: `Read a raw transcript from a file, or stdin when the argument is "-" or
missing, and print the filler-free and corrected variants.

With --stream only the corrected text is produced, written as the model
generates it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: processE,
	}
	cmd.Flags().BoolVar(&streamFlag, "stream", false, "Stream the corrected text as it is generated")
	return cmd
}

func processE(cmd *cobra.Command, args []string) error {
	raw, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	if streamFlag {
		return streamCorrection(cmd, rt.Corrector, raw)
	}

	t, err := rt.Processing.Process(cmd.Context(), raw)
	printTranscript(out, t)
	return err
}

func readText(stdin io.Reader, args []string) (string, error) {
	var (
		b   []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", utils.E(utils.CodeInvalidArgument, "memo.readText", "cannot read transcript", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", utils.E(utils.CodeDegenerateInput, "memo.readText", "transcript is empty", nil)
	}
	return text, nil
}

func streamCorrection(cmd *cobra.Command, c *postprocess.Corrector, raw string) error {
	out := cmd.OutOrStdout()
	chunks, errs := c.Stream(cmd.Context(), raw)
	for chunk := range chunks {
		fmt.Fprint(out, chunk)
	}
	fmt.Fprintln(out)
	if err := <-errs; err != nil {
		return utils.E(utils.CodeCorrection, "memo.streamCorrection", "correction stream failed", err)
	}
	return nil
}

func printTranscript(w io.Writer, t models.Transcript) {
	for _, s := range []models.Slot{models.SlotRaw, models.SlotFillerRemoved, models.SlotCorrected} {
		fmt.Fprintf(w, "[%s]\n", s)
		if msg, ok := t.Errors[s]; ok {
			fmt.Fprintf(w, "(error) %s\n\n", msg)
			continue
		}
		fmt.Fprintf(w, "%s\n\n", t.Get(s))
	}
}
