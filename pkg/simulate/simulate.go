package simulate

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/mchmarny/recognizer/pkg/config"
	"github.com/mchmarny/recognizer/pkg/hmm"
	"github.com/mchmarny/recognizer/pkg/recognizer"
)

// mixed into the seed for the second PCG word
const streamKey uint64 = 0x9e3779b97f4a7c15

// Corpus is a synthetic vocabulary with labeled test samples drawn from it.
type Corpus struct {
	Models  recognizer.Models
	Samples recognizer.SampleSet
	Labels  map[int]string
}

// Build creates one left-right Gaussian HMM per configured word, in config
// order, and draws SamplesPerWord observations from each. Broken words keep
// their samples but get a model that cannot score. Output depends only on cfg.
func Build(cfg *config.Config) (*Corpus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^streamKey))
	total := len(cfg.Words) * cfg.SamplesPerWord
	ids := rng.Perm(total)

	c := &Corpus{
		Models:  make(recognizer.Models, 0, len(cfg.Words)),
		Samples: make(recognizer.SampleSet, total),
		Labels:  make(map[int]string, total),
	}

	next := 0
	for _, word := range cfg.Words {
		m, err := wordModel(rng, cfg)
		if err != nil {
			return nil, fmt.Errorf("building model for %q: %w", word, err)
		}

		for range cfg.SamplesPerWord {
			n := cfg.MinFrames + rng.IntN(cfg.MaxFrames-cfg.MinFrames+1)
			frames, err := m.Sample(rng, n)
			if err != nil {
				return nil, fmt.Errorf("sampling %q: %w", word, err)
			}
			id := ids[next]
			next++
			c.Samples[id] = recognizer.Observation{Frames: frames}
			c.Labels[id] = word
		}

		var model recognizer.Model = m
		if cfg.IsBroken(word) {
			slog.Debug("breaking model", "word", word)
			model = breakModel(m)
		}
		c.Models = append(c.Models, recognizer.Candidate{Word: word, Model: model})
	}

	slog.Debug("corpus built", "words", len(c.Models), "samples", len(c.Samples))
	return c, nil
}

func wordModel(rng *rand.Rand, cfg *config.Config) (*hmm.GaussianHMM, error) {
	variance := cfg.Noise * cfg.Noise
	means := make([][]float64, cfg.States)
	vars := make([][]float64, cfg.States)
	for i := range cfg.States {
		means[i] = make([]float64, cfg.Features)
		vars[i] = make([]float64, cfg.Features)
		for k := range cfg.Features {
			means[i][k] = rng.NormFloat64() * cfg.Separation
			vars[i][k] = variance
		}
	}
	return hmm.NewLeftRight(means, vars, cfg.Stay)
}

// breakModel returns a copy of m without emission variances so every Score
// call fails.
func breakModel(m *hmm.GaussianHMM) *hmm.GaussianHMM {
	b := m.Clone()
	b.Vars = nil
	return b
}
