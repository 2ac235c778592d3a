package hmm

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

var errInvalidStay = errors.New("self-transition probability must be in (0, 1)")

// NewLeftRight returns a model whose states are visited in order: it starts
// in the first state, and each state either repeats with probability stay or
// advances to the next one. The last state always repeats. The model keeps
// its own copies of means and vars.
func NewLeftRight(means, vars [][]float64, stay float64) (*GaussianHMM, error) {
	if !(stay > 0 && stay < 1) {
		return nil, errInvalidStay
	}

	n := len(means)
	m := &GaussianHMM{
		StartProb: make([]float64, n),
		TransMat:  make([][]float64, n),
		Means:     cloneRows(means),
		Vars:      cloneRows(vars),
	}
	if n > 0 {
		m.StartProb[0] = 1
	}
	for i := range n {
		m.TransMat[i] = make([]float64, n)
		if i == n-1 {
			m.TransMat[i][i] = 1
			continue
		}
		m.TransMat[i][i] = stay
		m.TransMat[i][i+1] = 1 - stay
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Sample draws an observation sequence of n frames from the model.
func (m *GaussianHMM) Sample(rng *rand.Rand, n int) ([][]float64, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", n)
	}

	frames := make([][]float64, n)
	state := draw(rng, m.StartProb)
	for t := range n {
		frame := make([]float64, m.NumFeatures())
		for k := range frame {
			dist := m.normal(state, k)
			dist.Src = rng
			frame[k] = dist.Rand()
		}
		frames[t] = frame
		state = draw(rng, m.TransMat[state])
	}
	return frames, nil
}

// Clone returns a deep copy of the model parameters.
func (m *GaussianHMM) Clone() *GaussianHMM {
	if m == nil {
		return nil
	}
	return &GaussianHMM{
		StartProb: slices.Clone(m.StartProb),
		TransMat:  cloneRows(m.TransMat),
		Means:     cloneRows(m.Means),
		Vars:      cloneRows(m.Vars),
	}
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// draw picks an index from the discrete distribution p.
func draw(rng *rand.Rand, p []float64) int {
	u := rng.Float64()
	var acc float64
	for i, v := range p {
		acc += v
		if u < acc {
			return i
		}
	}
	// rounding left u above the running sum, take the last reachable index
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] > 0 {
			return i
		}
	}
	return len(p) - 1
}
