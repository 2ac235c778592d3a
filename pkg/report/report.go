package report

import (
	"errors"
	"fmt"
	"math"

	"github.com/mchmarny/recognizer/pkg/recognizer"
)

var (
	ErrNilResult    = errors.New("result required")
	ErrMissingLabel = errors.New("missing label for sample")
)

// Outcome is the recognition outcome for one sample.
type Outcome struct {
	ID      int     `json:"id" yaml:"id"`
	Label   string  `json:"label" yaml:"label"`
	Guess   string  `json:"guess" yaml:"guess"`
	Correct bool    `json:"correct" yaml:"correct"`
	Score   float64 `json:"-" yaml:"-"`
}

// Summary compares guesses with the true labels.
type Summary struct {
	Total    int       `json:"total" yaml:"total"`
	Correct  int       `json:"correct" yaml:"correct"`
	Errors   int       `json:"errors" yaml:"errors"`
	NoGuess  int       `json:"no_guess" yaml:"no_guess"`
	Accuracy float64   `json:"accuracy" yaml:"accuracy"`
	WER      float64   `json:"wer" yaml:"wer"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Evaluate scores the guesses in res against labels keyed by sample id.
// A sample without a guess counts as an error.
func Evaluate(res *recognizer.Result, labels map[int]string) (*Summary, error) {
	if res == nil {
		return nil, ErrNilResult
	}

	s := &Summary{
		Total:    res.Len(),
		Outcomes: make([]Outcome, 0, res.Len()),
	}

	for i, id := range res.IDs {
		label, ok := labels[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrMissingLabel, id)
		}

		guess := res.Guesses[i]
		o := Outcome{
			ID:      id,
			Label:   label,
			Guess:   guess,
			Correct: guess == label,
			Score:   math.Inf(-1),
		}
		if guess != recognizer.NoGuess {
			o.Score = res.Probabilities[i][guess]
		} else {
			s.NoGuess++
		}

		if o.Correct {
			s.Correct++
		} else {
			s.Errors++
		}
		s.Outcomes = append(s.Outcomes, o)
	}

	if s.Total > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Total)
		s.WER = float64(s.Errors) / float64(s.Total)
	}
	return s, nil
}

// Mistakes returns the outcomes whose guess did not match the label.
func (s *Summary) Mistakes() []Outcome {
	list := make([]Outcome, 0, s.Errors)
	for _, o := range s.Outcomes {
		if !o.Correct {
			list = append(list, o)
		}
	}
	return list
}
