package simulate

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/mchmarny/recognizer/pkg/config"
	"github.com/mchmarny/recognizer/pkg/recognizer"
	"github.com/mchmarny/recognizer/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := config.Default()
	c.Words = []string{"JOHN", "MARY", "BOOK"}
	c.SamplesPerWord = 4
	c.Separation = 6
	c.Noise = 0.3
	return c
}

func TestBuild(t *testing.T) {
	cfg := testConfig()

	c, err := Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.Words, c.Models.Words())
	assert.Equal(t, 12, c.Samples.Len())
	assert.Len(t, c.Labels, 12)

	perWord := map[string]int{}
	for id, obs := range c.Samples.All() {
		label, ok := c.Labels[id]
		require.True(t, ok)
		perWord[label]++

		n := len(obs.Frames)
		assert.GreaterOrEqual(t, n, cfg.MinFrames)
		assert.LessOrEqual(t, n, cfg.MaxFrames)
		for _, f := range obs.Frames {
			assert.Len(t, f, cfg.Features)
		}
	}
	for _, w := range cfg.Words {
		assert.Equal(t, cfg.SamplesPerWord, perWord[w])
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(testConfig())
	require.NoError(t, err)
	b, err := Build(testConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Samples, b.Samples)
	assert.Equal(t, a.Labels, b.Labels)

	cfg := testConfig()
	cfg.Seed++
	c, err := Build(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Samples, c.Samples)
}

func TestBuild_RecognizesWellSeparatedWords(t *testing.T) {
	c, err := Build(testConfig())
	require.NoError(t, err)

	res, err := recognizer.Recognize(c.Models, c.Samples)
	require.NoError(t, err)

	s, err := report.Evaluate(res, c.Labels)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Accuracy, 0.9)
	assert.Zero(t, s.NoGuess)
}

func TestBuild_BrokenWordScoresNegativeInfinity(t *testing.T) {
	cfg := testConfig()
	cfg.Broken = []string{"MARY"}

	c, err := Build(cfg)
	require.NoError(t, err)

	res, err := recognizer.Recognize(c.Models, c.Samples)
	require.NoError(t, err)
	require.Equal(t, c.Samples.Len(), res.Len())

	for i, p := range res.Probabilities {
		assert.True(t, math.IsInf(p["MARY"], -1))
		assert.NotEqual(t, "MARY", res.Guesses[i])
	}
}

func TestBreakModel_DoesNotShareParameters(t *testing.T) {
	cfg := testConfig()
	m, err := wordModel(rand.New(rand.NewPCG(1, 1)), cfg)
	require.NoError(t, err)

	b := breakModel(m)
	assert.Nil(t, b.Vars)
	assert.NoError(t, m.Validate())

	b.TransMat[0][0] = 0
	b.Means[0][0] = 1e9
	assert.Equal(t, cfg.Stay, m.TransMat[0][0])
	assert.NotEqual(t, 1e9, m.Means[0][0])
}

func TestBuild_EmptyVocabulary(t *testing.T) {
	cfg := testConfig()
	cfg.Words = nil

	c, err := Build(cfg)
	require.NoError(t, err)
	assert.Empty(t, c.Models)
	assert.Zero(t, c.Samples.Len())
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.States = 0

	_, err := Build(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = Build(nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
