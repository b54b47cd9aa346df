package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/yoockh/voicememo/internal/codec"
)

// recognizer is the slice of *speech.Client the adapter uses.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

type GoogleSpeech struct {
	c        recognizer
	apiKey   string
	language string
}

func NewGoogleSpeech(ctx context.Context, apiKey, language string) (*GoogleSpeech, error) {
	if apiKey == "" {
		return nil, missingCredential("GoogleSpeech.New", "GOOGLE_SPEECH_API_KEY")
	}
	c, err := speech.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return newGoogleSpeech(c, apiKey, language), nil
}

func newGoogleSpeech(c recognizer, apiKey, language string) *GoogleSpeech {
	if language == "" {
		language = "ja-JP"
	}
	return &GoogleSpeech{c: c, apiKey: apiKey, language: language}
}

func (g *GoogleSpeech) Name() string { return "speech" }

func (g *GoogleSpeech) Close() error {
	if g.c == nil {
		return nil
	}
	return g.c.Close()
}

// EncodingFor maps a container MIME type to the recognizer encoding.
// Unrecognized types fall back to Ogg/Opus.
func EncodingFor(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	case strings.Contains(m, "mp3"), strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	default:
		return speechpb.RecognitionConfig_OGG_OPUS
	}
}

func SampleRateFor(mimeType string) int32 {
	if strings.Contains(strings.ToLower(mimeType), "webm") {
		return 48000
	}
	return 16000
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, payloadB64, mimeType string) (string, error) {
	const op = "GoogleSpeech.Transcribe"

	if g.apiKey == "" {
		return "", missingCredential(op, "GOOGLE_SPEECH_API_KEY")
	}
	audio, err := codec.Decode(payloadB64)
	if err != nil {
		return "", err
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   EncodingFor(mimeType),
			SampleRateHertz:            SampleRateFor(mimeType),
			LanguageCode:               g.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", upstreamError(ctx, op, err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, " ")
	if text == "" {
		return "", noResults(op)
	}
	return text, nil
}
