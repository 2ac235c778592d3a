package recognizer

import (
	"iter"
	"maps"
	"slices"
)

// Observation is one test sample: its feature frames and the frame count of
// each sub-sequence. Nil Lengths means a single sequence of len(Frames).
type Observation struct {
	Frames  [][]float64
	Lengths []int
}

// FrameLengths returns the sub-sequence lengths to score with.
func (o Observation) FrameLengths() []int {
	if o.Lengths == nil {
		return []int{len(o.Frames)}
	}
	return o.Lengths
}

// TestSet enumerates samples in ascending id order.
type TestSet interface {
	All() iter.Seq2[int, Observation]
}

// SampleSet is a TestSet backed by a map of sample id to observation.
type SampleSet map[int]Observation

// All yields the samples in ascending id order.
func (s SampleSet) All() iter.Seq2[int, Observation] {
	return func(yield func(int, Observation) bool) {
		for _, id := range slices.Sorted(maps.Keys(s)) {
			if !yield(id, s[id]) {
				return
			}
		}
	}
}

// Len returns the number of samples.
func (s SampleSet) Len() int {
	return len(s)
}
