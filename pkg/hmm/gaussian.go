package hmm

import (
	"fmt"
	"math"

	"github.com/mchmarny/recognizer/pkg/recognizer"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrMalformedModel is returned when the model parameters are inconsistent.
	ErrMalformedModel = fmt.Errorf("%w: malformed model", recognizer.ErrScoring)

	// ErrIncompatibleInput is returned when an observation does not fit the model.
	ErrIncompatibleInput = fmt.Errorf("%w: incompatible observation", recognizer.ErrScoring)
)

const probEpsilon = 1e-6

// GaussianHMM is a hidden Markov model with diagonal-covariance Gaussian
// emissions. Means and Vars are indexed [state][feature].
type GaussianHMM struct {
	StartProb []float64   `json:"start_prob" yaml:"start_prob"`
	TransMat  [][]float64 `json:"trans_mat" yaml:"trans_mat"`
	Means     [][]float64 `json:"means" yaml:"means"`
	Vars      [][]float64 `json:"vars" yaml:"vars"`
}

// NumStates returns the number of hidden states.
func (m *GaussianHMM) NumStates() int {
	return len(m.StartProb)
}

// NumFeatures returns the dimension of a single frame.
func (m *GaussianHMM) NumFeatures() int {
	if len(m.Means) == 0 {
		return 0
	}
	return len(m.Means[0])
}

// Validate checks the parameter shapes and variances.
func (m *GaussianHMM) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrMalformedModel)
	}

	n := m.NumStates()
	if n == 0 {
		return fmt.Errorf("%w: no states", ErrMalformedModel)
	}
	if len(m.TransMat) != n || len(m.Means) != n || len(m.Vars) != n {
		return fmt.Errorf("%w: expected %d states in every parameter", ErrMalformedModel, n)
	}

	d := m.NumFeatures()
	if d == 0 {
		return fmt.Errorf("%w: no features", ErrMalformedModel)
	}

	if err := checkDistribution(m.StartProb); err != nil {
		return fmt.Errorf("%w: start probabilities %v", ErrMalformedModel, err)
	}

	for i := range n {
		if len(m.TransMat[i]) != n {
			return fmt.Errorf("%w: transition row %d has %d entries, want %d", ErrMalformedModel, i, len(m.TransMat[i]), n)
		}
		if err := checkDistribution(m.TransMat[i]); err != nil {
			return fmt.Errorf("%w: transition row %d %v", ErrMalformedModel, i, err)
		}
		if len(m.Means[i]) != d || len(m.Vars[i]) != d {
			return fmt.Errorf("%w: state %d expected %d features", ErrMalformedModel, i, d)
		}
		for j, v := range m.Vars[i] {
			if !(v > 0) || math.IsInf(v, 1) {
				return fmt.Errorf("%w: state %d variance %d is %v", ErrMalformedModel, i, j, v)
			}
		}
	}
	return nil
}

// Score returns the log-likelihood of frames under the model, summed over
// the sub-sequences given by lengths.
func (m *GaussianHMM) Score(frames [][]float64, lengths []int) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("%w: empty sequence", ErrIncompatibleInput)
	}
	if lengths == nil {
		lengths = []int{len(frames)}
	}

	total := 0
	for _, l := range lengths {
		if l <= 0 {
			return 0, fmt.Errorf("%w: non-positive length %d", ErrIncompatibleInput, l)
		}
		if l > len(frames)-total {
			return 0, fmt.Errorf("%w: lengths exceed %d frames", ErrIncompatibleInput, len(frames))
		}
		total += l
	}
	if total != len(frames) {
		return 0, fmt.Errorf("%w: lengths sum to %d, have %d frames", ErrIncompatibleInput, total, len(frames))
	}

	d := m.NumFeatures()
	for t, f := range frames {
		if len(f) != d {
			return 0, fmt.Errorf("%w: frame %d has %d features, model expects %d", ErrIncompatibleInput, t, len(f), d)
		}
	}

	logStart := logSlice(m.StartProb)
	logTrans := make([][]float64, len(m.TransMat))
	for i, row := range m.TransMat {
		logTrans[i] = logSlice(row)
	}

	var ll float64
	start := 0
	for _, l := range lengths {
		ll += m.forward(frames[start:start+l], logStart, logTrans)
		start += l
	}
	return ll, nil
}

// forward runs the forward algorithm in log space.
func (m *GaussianHMM) forward(frames [][]float64, logStart []float64, logTrans [][]float64) float64 {
	n := m.NumStates()
	alpha := make([]float64, n)
	next := make([]float64, n)
	terms := make([]float64, n)

	for i := range n {
		alpha[i] = logStart[i] + m.logEmission(i, frames[0])
	}

	for _, f := range frames[1:] {
		for j := range n {
			for i := range n {
				terms[i] = alpha[i] + logTrans[i][j]
			}
			next[j] = floats.LogSumExp(terms) + m.logEmission(j, f)
		}
		alpha, next = next, alpha
	}

	return floats.LogSumExp(alpha)
}

// logEmission is the log density of frame under the Gaussian of state i.
func (m *GaussianHMM) logEmission(i int, frame []float64) float64 {
	var lp float64
	for k, x := range frame {
		lp += m.normal(i, k).LogProb(x)
	}
	return lp
}

// normal is the emission distribution of feature k in state i.
func (m *GaussianHMM) normal(i, k int) distuv.Normal {
	return distuv.Normal{Mu: m.Means[i][k], Sigma: math.Sqrt(m.Vars[i][k])}
}

func checkDistribution(p []float64) error {
	var sum float64
	for _, v := range p {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("has entry %v outside [0, 1]", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > probEpsilon {
		return fmt.Errorf("sum to %v", sum)
	}
	return nil
}

func logSlice(p []float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = math.Log(v)
	}
	return out
}
