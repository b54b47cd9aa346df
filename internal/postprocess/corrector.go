package postprocess

import (
	"context"
	"strings"

	"github.com/yoockh/voicememo/internal/providers/llm"
	"github.com/yoockh/voicememo/internal/utils"
)

const DefaultCorrectionTemperature float32 = 0.3

const correctionTemplate = `以下は音声メモの文字起こしです。次の点を修正してください。
- 誤字脱字
- 句読点
- 文法
- 文章の流れ

話し言葉の口調はそのまま残し、過度に丁寧な表現や硬い文体には変えないでください。
説明や前置きは書かず、修正後のテキストのみを出力してください。

文字起こし:
`

// CorrectionPrompt wraps text in the fixed correction instruction.
func CorrectionPrompt(text string) string {
	return correctionTemplate + text
}

type Corrector struct {
	llm         llm.Provider
	temperature float32
}

func NewCorrector(p llm.Provider, temperature float32) *Corrector {
	if temperature < 0 {
		temperature = DefaultCorrectionTemperature
	}
	return &Corrector{llm: p, temperature: temperature}
}

func (c *Corrector) Temperature() float32 { return c.temperature }

func (c *Corrector) Correct(ctx context.Context, text string) (string, error) {
	const op = "Corrector.Correct"

	if strings.TrimSpace(text) == "" {
		return "", utils.E(utils.CodeDegenerateInput, op, "text is empty", nil)
	}
	out, err := c.llm.Generate(ctx, CorrectionPrompt(text), c.temperature)
	if err != nil {
		return "", utils.E(utils.CodeCorrection, op, "correction request failed", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", utils.E(utils.CodeCorrection, op, "model returned empty output", nil)
	}
	return out, nil
}

// Stream emits the corrected text incrementally.
func (c *Corrector) Stream(ctx context.Context, text string) (<-chan string, <-chan error) {
	return c.llm.StreamAnswer(ctx, CorrectionPrompt(text), c.temperature)
}
