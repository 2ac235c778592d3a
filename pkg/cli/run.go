package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/mchmarny/recognizer/pkg/config"
	"github.com/mchmarny/recognizer/pkg/logging"
	"github.com/mchmarny/recognizer/pkg/recognizer"
	"github.com/mchmarny/recognizer/pkg/report"
	"github.com/mchmarny/recognizer/pkg/simulate"
	urfave "github.com/urfave/cli/v3"
)

const (
	seedFlagName    = "seed"
	samplesFlagName = "samples"
	brokenFlagName  = "broken"
	scoresFlagName  = "scores"
)

func newRunCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Build a synthetic vocabulary, recognize its test samples and report accuracy",
		UsageText: `recognizer run                        # use config.yaml
   recognizer run --seed 7 --samples 10  # override sampling
   recognizer run --broken JOHN --scores # show -Inf scores of a broken model`,
		HideHelpCommand: true,
		Action:          cmdRun,
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  seedFlagName,
				Usage: "Random seed for the synthetic vocabulary (overrides config)",
			},
			&urfave.IntFlag{
				Name:  samplesFlagName,
				Usage: "Test samples drawn per word (overrides config)",
			},
			&urfave.StringSliceFlag{
				Name:  brokenFlagName,
				Usage: "Words whose model cannot score (overrides config)",
			},
			&urfave.BoolFlag{
				Name:  scoresFlagName,
				Usage: "Include every word score for each sample",
			},
		},
	}
}

// score renders non-finite log-likelihoods as strings, which JSON cannot
// otherwise represent.
type score float64

func (s score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return json.Marshal(logging.FormatScore(f))
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

type sampleView struct {
	ID      int              `json:"id" yaml:"id"`
	Label   string           `json:"label" yaml:"label"`
	Guess   string           `json:"guess" yaml:"guess"`
	Correct bool             `json:"correct" yaml:"correct"`
	Score   score            `json:"score" yaml:"score"`
	Scores  map[string]score `json:"scores,omitempty" yaml:"scores,omitempty"`
}

type runView struct {
	Seed     uint64       `json:"seed" yaml:"seed"`
	Words    []string     `json:"words" yaml:"words"`
	Total    int          `json:"total" yaml:"total"`
	Correct  int          `json:"correct" yaml:"correct"`
	NoGuess  int          `json:"no_guess" yaml:"no_guess"`
	Accuracy float64      `json:"accuracy" yaml:"accuracy"`
	WER      float64      `json:"wer" yaml:"wer"`
	Samples  []sampleView `json:"samples" yaml:"samples"`
}

func cmdRun(_ context.Context, cmd *urfave.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)

	corpus, err := simulate.Build(cfg)
	if err != nil {
		return fmt.Errorf("building corpus: %w", err)
	}

	res, err := recognizer.Recognize(corpus.Models, corpus.Samples)
	if err != nil {
		return fmt.Errorf("recognizing samples: %w", err)
	}

	sum, err := report.Evaluate(res, corpus.Labels)
	if err != nil {
		return fmt.Errorf("evaluating guesses: %w", err)
	}

	slog.Info("recognition complete", "samples", sum.Total, "wer", sum.WER)

	if err := encode(cmd, newRunView(cfg, res, sum, cmd.Bool(scoresFlagName))); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

func applyOverrides(cmd *urfave.Command, cfg *config.Config) {
	if cmd.IsSet(seedFlagName) {
		cfg.Seed = uint64(cmd.Int(seedFlagName))
	}
	if cmd.IsSet(samplesFlagName) {
		cfg.SamplesPerWord = int(cmd.Int(samplesFlagName))
	}
	if cmd.IsSet(brokenFlagName) {
		cfg.Broken = cmd.StringSlice(brokenFlagName)
	}
}

func newRunView(cfg *config.Config, res *recognizer.Result, sum *report.Summary, withScores bool) *runView {
	v := &runView{
		Seed:     cfg.Seed,
		Words:    cfg.Words,
		Total:    sum.Total,
		Correct:  sum.Correct,
		NoGuess:  sum.NoGuess,
		Accuracy: sum.Accuracy,
		WER:      sum.WER,
		Samples:  make([]sampleView, 0, len(sum.Outcomes)),
	}

	for i, o := range sum.Outcomes {
		s := sampleView{
			ID:      o.ID,
			Label:   o.Label,
			Guess:   o.Guess,
			Correct: o.Correct,
			Score:   score(o.Score),
		}
		if withScores {
			s.Scores = make(map[string]score, len(res.Probabilities[i]))
			for w, p := range res.Probabilities[i] {
				s.Scores[w] = score(p)
			}
		}
		v.Samples = append(v.Samples, s)
	}
	return v
}
