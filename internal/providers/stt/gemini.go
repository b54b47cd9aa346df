package stt

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/providers/llm"
)

const geminiInstruction = "この音声を日本語で文字起こししてください。" +
	"話された内容をそのまま書き起こし、適切な句読点を付けてください。" +
	"文字起こし結果のテキストのみを出力してください。"

// generator is the slice of *genai.GenerativeModel the adapter uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...vertexgenai.Part) (*vertexgenai.GenerateContentResponse, error)
}

type GeminiOptions struct {
	APIKey   string
	Project  string
	Location string
	Model    string
}

// Gemini transcribes by sending the audio as an inline part of a
// multimodal generation request.
type Gemini struct {
	client *vertexgenai.Client
	model  generator
	apiKey string
}

func NewGemini(ctx context.Context, o GeminiOptions) (*Gemini, error) {
	const op = "Gemini.New"
	if o.APIKey == "" {
		return nil, missingCredential(op, "GEMINI_API_KEY")
	}
	if o.Project == "" {
		return nil, missingCredential(op, "GOOGLE_CLOUD_PROJECT")
	}
	if o.Location == "" {
		o.Location = "us-central1"
	}
	if o.Model == "" {
		o.Model = "gemini-1.5-flash"
	}

	c, err := vertexgenai.NewClient(ctx, o.Project, o.Location, option.WithAPIKey(o.APIKey))
	if err != nil {
		return nil, err
	}
	m := c.GenerativeModel(o.Model)
	llm.ConfigureModel(m, 0)

	g := newGemini(m, o.APIKey)
	g.client = c
	return g, nil
}

func newGemini(m generator, apiKey string) *Gemini {
	return &Gemini{model: m, apiKey: apiKey}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Gemini) Transcribe(ctx context.Context, payloadB64, mimeType string) (string, error) {
	const op = "Gemini.Transcribe"

	if g.apiKey == "" {
		return "", missingCredential(op, "GEMINI_API_KEY")
	}
	audio, err := codec.Decode(payloadB64)
	if err != nil {
		return "", err
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	resp, err := g.model.GenerateContent(ctx,
		vertexgenai.Blob{MIMEType: mimeType, Data: audio},
		vertexgenai.Text(geminiInstruction),
	)
	if err != nil {
		return "", upstreamError(ctx, op, err)
	}

	text := strings.TrimSpace(llm.ResponseText(resp))
	if text == "" {
		return "", noResults(op)
	}
	return text, nil
}
