package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/utils"
)

func newTranscribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Print the raw transcript of an audio file",
		Args:  cobra.ExactArgs(1),
		RunE:  transcribeE,
	}
}

func transcribeE(cmd *cobra.Command, args []string) error {
	art, err := readAudio(args[0])
	if err != nil {
		return err
	}
	payload, err := codec.Encode(art)
	if err != nil {
		return err
	}
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	text, err := rt.Transcription.Transcribe(cmd.Context(), payload, art.MIMEType())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func readAudio(path string) (models.AudioArtifact, error) {
	mimeType, err := mimeFor(path, mimeFlag)
	if err != nil {
		return models.AudioArtifact{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.AudioArtifact{}, utils.E(utils.CodeInvalidArgument, "memo.readAudio", "cannot read audio file", err)
	}
	if len(data) == 0 {
		return models.AudioArtifact{}, utils.E(utils.CodeEmptyRecording, "memo.readAudio", "audio file is empty", nil)
	}
	return models.NewAudioArtifact(data, mimeType), nil
}
