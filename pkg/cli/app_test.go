package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	initLogging(false)
	os.Exit(m.Run())
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	err := app.Run(context.Background(), append([]string{appName}, args...))
	return buf.String(), err
}

type runResult struct {
	Seed     uint64   `json:"seed"`
	Words    []string `json:"words"`
	Total    int      `json:"total"`
	Correct  int      `json:"correct"`
	NoGuess  int      `json:"no_guess"`
	Accuracy float64  `json:"accuracy"`
	WER      float64  `json:"wer"`
	Samples  []struct {
		ID     int            `json:"id"`
		Label  string         `json:"label"`
		Guess  string         `json:"guess"`
		Score  any            `json:"score"`
		Scores map[string]any `json:"scores"`
	} `json:"samples"`
}

func TestRun(t *testing.T) {
	dir := t.TempDir()

	out, err := runApp(t, "--config", dir, "run", "--seed", "11", "--samples", "2")
	require.NoError(t, err)

	var res runResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Equal(t, uint64(11), res.Seed)
	assert.Equal(t, len(res.Words)*2, res.Total)
	assert.Len(t, res.Samples, res.Total)
	assert.InDelta(t, 1.0, res.Accuracy+res.WER, 1e-9)
	for _, s := range res.Samples {
		assert.Nil(t, s.Scores)
	}
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestRun_BrokenScores(t *testing.T) {
	out, err := runApp(t, "--config", t.TempDir(), "run", "--broken", "JOHN", "--scores")
	require.NoError(t, err)

	var res runResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.Samples)

	for _, s := range res.Samples {
		require.Len(t, s.Scores, len(res.Words))
		assert.Equal(t, "-Inf", s.Scores["JOHN"])
		assert.NotEqual(t, "JOHN", s.Guess)
		assert.IsType(t, float64(0), s.Scores["MARY"])
	}
}

func TestRun_UnknownBrokenWord(t *testing.T) {
	_, err := runApp(t, "--config", t.TempDir(), "run", "--broken", "NOPE")
	assert.Error(t, err)
}

func TestRun_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a, err := runApp(t, "--config", dir, "run", "--scores")
	require.NoError(t, err)
	b, err := runApp(t, "--config", dir, "run", "--scores")
	require.NoError(t, err)
	assert.JSONEq(t, a, b)
}

func TestConfigCmd_YAML(t *testing.T) {
	out, err := runApp(t, "--config", t.TempDir(), "--format", "yaml", "config")
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 3, cfg["states"])
	assert.Contains(t, cfg, "words")
}

func TestConfigCmd_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("states: 0\n"), 0600))

	_, err := runApp(t, "--config", dir, "config")
	assert.Error(t, err)
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := runApp(t, "--config", t.TempDir(), "--format", "xml", "config")
	assert.Error(t, err)
}

func TestScoreMarshalJSON(t *testing.T) {
	b, err := json.Marshal(map[string]score{"A": -12.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"A": -12.5}`, string(b))
}
