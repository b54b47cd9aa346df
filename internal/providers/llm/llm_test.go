package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/voicememo/config"
	"github.com/yoockh/voicememo/internal/utils"
)

type fakeGenerator struct {
	prompt string
	resp   *vertexgenai.GenerateContentResponse
	err    error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...vertexgenai.Part) (*vertexgenai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if t, ok := parts[0].(vertexgenai.Text); ok {
			f.prompt = string(t)
		}
	}
	return f.resp, f.err
}

func TestVertexGemini_Generate(t *testing.T) {
	f := &fakeGenerator{resp: &vertexgenai.GenerateContentResponse{Candidates: []*vertexgenai.Candidate{
		{Content: &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text("今日は"), vertexgenai.Text("会議です。")}}},
		{Content: nil},
	}}}
	var gotTemp float32 = -1
	v := &VertexGemini{model: func(temp float32) generator { gotTemp = temp; return f }}

	out, err := v.Generate(context.Background(), "直して", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "今日は会議です。", out)
	assert.Equal(t, "直して", f.prompt)
	assert.Equal(t, float32(0.3), gotTemp)

	f.err = errors.New("quota")
	_, err = v.Generate(context.Background(), "x", 0.3)
	assert.EqualError(t, err, "quota")
}

func TestVertexGemini_StreamWithoutClient(t *testing.T) {
	v := &VertexGemini{}
	chunks, errs := v.StreamAnswer(context.Background(), "x", 0)

	for range chunks {
		t.Fatal("no chunk expected")
	}
	assert.ErrorIs(t, <-errs, errNoClient)
}

func TestConfigureModel(t *testing.T) {
	m := &vertexgenai.GenerativeModel{}
	ConfigureModel(m, 0)

	require.NotNil(t, m.Temperature)
	assert.Equal(t, float32(0), *m.Temperature)
	require.Len(t, m.SafetySettings, 4)
	cats := map[vertexgenai.HarmCategory]bool{}
	for _, s := range m.SafetySettings {
		assert.Equal(t, vertexgenai.HarmBlockMediumAndAbove, s.Threshold)
		cats[s.Category] = true
	}
	assert.True(t, cats[vertexgenai.HarmCategoryHarassment])
	assert.True(t, cats[vertexgenai.HarmCategoryHateSpeech])
	assert.True(t, cats[vertexgenai.HarmCategorySexuallyExplicit])
	assert.True(t, cats[vertexgenai.HarmCategoryDangerousContent])
}

func TestResponseTextNil(t *testing.T) {
	assert.Equal(t, "", ResponseText(nil))
}

func chatServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model       string  `json:"model"`
			Temperature float32 `json:"temperature"`
			Stream      bool    `json:"stream"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, float32(0.5), req.Temperature)

		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`,
				"echo:"+req.Messages[0].Content)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"今日は", "会議", "です。"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestOpenAIChat_Generate(t *testing.T) {
	srv := chatServer(t)
	defer srv.Close()

	o := NewOpenAIChat("sk-test", srv.URL+"/v1", "")
	out, err := o.Generate(context.Background(), "こんにちは", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "echo:こんにちは", out)
}

func TestOpenAIChat_StreamAnswer(t *testing.T) {
	srv := chatServer(t)
	defer srv.Close()

	o := NewOpenAIChat("sk-test", srv.URL+"/v1", "")
	chunks, errs := o.StreamAnswer(context.Background(), "x", 0.5)

	var b strings.Builder
	for c := range chunks {
		b.WriteString(c)
	}
	assert.NoError(t, <-errs)
	assert.Equal(t, "今日は会議です。", b.String())
}

func TestNew_MissingCredential(t *testing.T) {
	_, err := New(context.Background(), &config.Config{CorrectionProvider: config.ProviderOpenAI})
	assert.True(t, utils.IsCode(err, utils.CodeMissingCredential))

	_, err = New(context.Background(), &config.Config{CorrectionProvider: config.ProviderGemini})
	assert.True(t, utils.IsCode(err, utils.CodeMissingCredential))

	_, err = New(context.Background(), &config.Config{CorrectionProvider: "claude"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
