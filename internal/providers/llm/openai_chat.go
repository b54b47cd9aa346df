package llm

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIChat struct {
	c     *openai.Client
	model string
}

func NewOpenAIChat(apiKey, baseURL, model string) *OpenAIChat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIChat{c: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAIChat) Name() string  { return "openai" }
func (o *OpenAIChat) Close() error { return nil }

func (o *OpenAIChat) request(prompt string, temperature float32) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
}

func (o *OpenAIChat) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := o.c.CreateChatCompletion(ctx, o.request(prompt, temperature))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, ch := range resp.Choices {
		b.WriteString(ch.Message.Content)
	}
	return b.String(), nil
}

func (o *OpenAIChat) StreamAnswer(ctx context.Context, prompt string, temperature float32) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		req := o.request(prompt, temperature)
		req.Stream = true
		stream, err := o.c.CreateChatCompletionStream(ctx, req)
		if err != nil {
			errs <- err
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- err
				return
			}
			for _, ch := range resp.Choices {
				if ch.Delta.Content == "" {
					continue
				}
				select {
				case out <- ch.Delta.Content:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
	}()

	return out, errs
}
