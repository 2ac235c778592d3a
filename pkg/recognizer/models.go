package recognizer

import (
	"cmp"
	"fmt"
	"slices"
)

// Candidate pairs a word with the model trained for it.
type Candidate struct {
	Word  string
	Model Model
}

// Models is the ordered collection of candidate words. The order decides
// which word wins when two candidates score the same.
type Models []Candidate

// ModelsFromMap returns the models in ascending word order.
func ModelsFromMap(m map[string]Model) Models {
	list := make(Models, 0, len(m))
	for w, model := range m {
		list = append(list, Candidate{Word: w, Model: model})
	}
	slices.SortFunc(list, func(a, b Candidate) int {
		return cmp.Compare(a.Word, b.Word)
	})
	return list
}

// Words lists the candidate words in collection order.
func (m Models) Words() []string {
	words := make([]string, len(m))
	for i, c := range m {
		words[i] = c.Word
	}
	return words
}

// Validate checks that every word is non-empty and appears only once. An
// empty word could not be told apart from NoGuess.
func (m Models) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for i, c := range m {
		if c.Word == NoGuess {
			return fmt.Errorf("%w: candidate %d", ErrEmptyWord, i)
		}
		if _, ok := seen[c.Word]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateWord, c.Word)
		}
		seen[c.Word] = struct{}{}
	}
	return nil
}
