package postprocess

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/utils"
)

type Mode string

const (
	ModeConcurrent Mode = "concurrent"
	ModeSequential Mode = "sequential"
)

const DefaultSequentialTemperature float32 = 0.5

const combinedTemplate = `以下は音声メモの文字起こしです。次の二つを作成してください。
1. filler_removed: 「えーと」「あの」「えー」などのフィラーだけを取り除いたテキスト
2. corrected: 誤字脱字、句読点、文法、文章の流れを修正したテキスト

話し言葉の口調はそのまま残し、過度に丁寧な表現には変えないでください。
出力は次の形式の JSON のみとし、説明は書かないでください。
{"filler_removed": "...", "corrected": "..."}

文字起こし:
`

// Result holds both derivations of one raw transcript. A failed branch
// leaves its text empty and sets its error; the other branch is kept.
type Result struct {
	Raw           string
	FillerRemoved string
	Corrected     string
	FillerErr     error
	CorrectErr    error
}

func (r Result) Transcript() models.Transcript {
	t := models.Transcript{Raw: r.Raw, FillerRemoved: r.FillerRemoved, Corrected: r.Corrected}
	if r.FillerErr != nil {
		t.SetError(models.SlotFillerRemoved, string(utils.CodeOf(r.FillerErr))+": "+utils.Message(r.FillerErr))
	}
	if r.CorrectErr != nil {
		t.SetError(models.SlotCorrected, string(utils.CodeOf(r.CorrectErr))+": "+utils.Message(r.CorrectErr))
	}
	return t
}

// Failed reports whether both branches failed.
func (r Result) Failed() bool { return r.FillerErr != nil && r.CorrectErr != nil }

type PipelineOptions struct {
	Mode                  Mode
	SequentialTemperature float32
	Fillers               FillerRules
}

type Pipeline struct {
	corrector *Corrector
	opts      PipelineOptions
}

func NewPipeline(c *Corrector, opts PipelineOptions) *Pipeline {
	if opts.Mode == "" {
		opts.Mode = ModeConcurrent
	}
	if opts.SequentialTemperature <= 0 {
		opts.SequentialTemperature = DefaultSequentialTemperature
	}
	if len(opts.Fillers) == 0 {
		opts.Fillers = DefaultFillers
	}
	return &Pipeline{corrector: c, opts: opts}
}

func (p *Pipeline) Mode() Mode { return p.opts.Mode }

// Run derives the filler-free and corrected variants of raw. The returned
// error is non-nil only when raw itself is unusable.
func (p *Pipeline) Run(ctx context.Context, raw string) (Result, error) {
	const op = "Pipeline.Run"

	if strings.TrimSpace(raw) == "" {
		return Result{}, utils.E(utils.CodeDegenerateInput, op, "transcript is empty", nil)
	}
	if p.opts.Mode == ModeSequential {
		return p.runSequential(ctx, raw), nil
	}
	return p.runConcurrent(ctx, raw), nil
}

func (p *Pipeline) runConcurrent(ctx context.Context, raw string) Result {
	res := Result{Raw: raw}

	// Branch errors are kept on the result; returning nil keeps one
	// failure from cancelling the sibling.
	var g errgroup.Group
	g.Go(func() error {
		res.FillerRemoved, res.FillerErr = p.opts.Fillers.Strip(raw)
		return nil
	})
	g.Go(func() error {
		res.Corrected, res.CorrectErr = p.corrector.Correct(ctx, raw)
		return nil
	})
	_ = g.Wait()
	return res
}

func (p *Pipeline) runSequential(ctx context.Context, raw string) Result {
	const op = "Pipeline.Sequential"
	res := Result{Raw: raw}

	out, err := p.corrector.llm.Generate(ctx, combinedTemplate+raw, p.opts.SequentialTemperature)
	if err != nil {
		err = utils.E(utils.CodeCorrection, op, "combined request failed", err)
		res.FillerErr, res.CorrectErr = err, err
		return res
	}

	var parsed struct {
		FillerRemoved string `json:"filler_removed"`
		Corrected     string `json:"corrected"`
	}
	if err := json.Unmarshal([]byte(extractJSON(out)), &parsed); err != nil {
		err = utils.E(utils.CodeCorrection, op, "combined response is not valid JSON", err)
		res.FillerErr, res.CorrectErr = err, err
		return res
	}

	res.FillerRemoved = strings.TrimSpace(parsed.FillerRemoved)
	res.Corrected = strings.TrimSpace(parsed.Corrected)
	if res.FillerRemoved == "" {
		res.FillerErr = utils.E(utils.CodeDegenerateInput, op, "model returned no filler-free text", nil)
	}
	if res.Corrected == "" {
		res.CorrectErr = utils.E(utils.CodeCorrection, op, "model returned empty output", nil)
	}
	return res
}

// extractJSON trims code fences and prose around the first JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
