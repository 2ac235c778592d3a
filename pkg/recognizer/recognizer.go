package recognizer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// NoGuess is the guess reported for a sample on which no candidate word
// scored above negative infinity, including an empty model collection.
const NoGuess = ""

var (
	// ErrScoring marks a model that could not score an observation.
	// Recognize converts these failures into a score of negative infinity.
	ErrScoring = errors.New("model scoring failed")

	ErrNilTestSet    = errors.New("test set required")
	ErrDuplicateWord = errors.New("duplicate candidate word")
	ErrEmptyWord     = errors.New("candidate word must not be empty")
)

// Model scores an observation sequence against a trained word model and
// returns its log-likelihood. Lengths holds the frame count of each
// sub-sequence in frames.
type Model interface {
	Score(frames [][]float64, lengths []int) (float64, error)
}

// ModelError records which word failed on which sample.
type ModelError struct {
	Word     string
	SampleID int
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("scoring sample %d with %q: %v", e.SampleID, e.Word, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Result holds the per-sample scores and best guesses, index-aligned with
// the test set enumeration order.
type Result struct {
	IDs           []int                `json:"ids" yaml:"ids"`
	Probabilities []map[string]float64 `json:"probabilities" yaml:"probabilities"`
	Guesses       []string             `json:"guesses" yaml:"guesses"`
}

// Len returns the number of recognized samples.
func (r *Result) Len() int {
	return len(r.Guesses)
}

// Best returns the guess for the i-th sample and whether any candidate
// produced a score above negative infinity.
func (r *Result) Best(i int) (string, bool) {
	if i < 0 || i >= len(r.Guesses) {
		return NoGuess, false
	}
	for _, s := range r.Probabilities[i] {
		if s > math.Inf(-1) {
			return r.Guesses[i], true
		}
	}
	return NoGuess, false
}

// Recognize scores every sample in set against every candidate in models
// and picks, per sample, the highest scoring word. Ties go to the candidate
// that comes first in models. Scoring failures are recorded as negative
// infinity and do not stop recognition; any other model error is returned.
func Recognize(models Models, set TestSet) (*Result, error) {
	if set == nil {
		return nil, ErrNilTestSet
	}
	if err := models.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		IDs:           make([]int, 0),
		Probabilities: make([]map[string]float64, 0),
		Guesses:       make([]string, 0),
	}

	for id, obs := range set.All() {
		bestScore := math.Inf(-1)
		bestWord := NoGuess
		probs := make(map[string]float64, len(models))

		for _, c := range models {
			score, err := scoreCandidate(c, id, obs)
			if err != nil {
				return nil, err
			}

			if score > bestScore {
				bestScore = score
				bestWord = c.Word
			}
			probs[c.Word] = score
		}

		slog.Debug("sample recognized", "id", id, "guess", bestWord, "score", bestScore)

		res.IDs = append(res.IDs, id)
		res.Probabilities = append(res.Probabilities, probs)
		res.Guesses = append(res.Guesses, bestWord)
	}

	return res, nil
}

func scoreCandidate(c Candidate, id int, obs Observation) (float64, error) {
	if c.Model == nil {
		slog.Debug("no model for word", "word", c.Word, "id", id)
		return math.Inf(-1), nil
	}

	s, err := c.Model.Score(obs.Frames, obs.FrameLengths())
	if err == nil {
		return s, nil
	}

	merr := &ModelError{Word: c.Word, SampleID: id, Err: err}
	if errors.Is(err, ErrScoring) {
		slog.Debug("scoring failed", "error", merr)
		return math.Inf(-1), nil
	}

	return 0, merr
}
