package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var errNoClient = errors.New("vertex client is not initialized")

type generator interface {
	GenerateContent(ctx context.Context, parts ...vertexgenai.Part) (*vertexgenai.GenerateContentResponse, error)
}

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string

	// model returns a configured model per call; temperature is per request.
	model func(temperature float32) generator
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName, apiKey string) (*VertexGemini, error) {
	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	v := &VertexGemini{client: c, modelName: modelName}
	v.model = func(t float32) generator { return v.configured(t) }
	return v, nil
}

func (v *VertexGemini) configured(temperature float32) *vertexgenai.GenerativeModel {
	m := v.client.GenerativeModel(v.modelName)
	ConfigureModel(m, temperature)
	return m
}

// ConfigureModel sets temperature and blocks medium-and-above content on
// every harm category.
func ConfigureModel(m *vertexgenai.GenerativeModel, temperature float32) {
	m.SetTemperature(temperature)
	m.SafetySettings = []*vertexgenai.SafetySetting{
		{Category: vertexgenai.HarmCategoryHarassment, Threshold: vertexgenai.HarmBlockMediumAndAbove},
		{Category: vertexgenai.HarmCategoryHateSpeech, Threshold: vertexgenai.HarmBlockMediumAndAbove},
		{Category: vertexgenai.HarmCategorySexuallyExplicit, Threshold: vertexgenai.HarmBlockMediumAndAbove},
		{Category: vertexgenai.HarmCategoryDangerousContent, Threshold: vertexgenai.HarmBlockMediumAndAbove},
	}
}

func (v *VertexGemini) Name() string { return "gemini" }

func (v *VertexGemini) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}

func (v *VertexGemini) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := v.model(temperature).GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}
	return ResponseText(resp), nil
}

func (v *VertexGemini) StreamAnswer(ctx context.Context, prompt string, temperature float32) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if v.client == nil {
			errs <- errNoClient
			return
		}

		it := v.configured(temperature).GenerateContentStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}
			if t := ResponseText(resp); t != "" {
				select {
				case out <- t:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
	}()

	return out, errs
}

// ResponseText concatenates the text parts of every candidate.
func ResponseText(resp *vertexgenai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
