package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

var (
	defaultWords = []string{"JOHN", "MARY", "BOOK", "BUY", "CAR", "GIVE", "HOUSE", "VISIT"}

	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the parameters of the synthetic vocabulary used to exercise
// the recognizer.
type Config struct {
	Seed           uint64   `json:"seed" yaml:"seed"`
	Words          []string `json:"words" yaml:"words"`
	States         int      `json:"states" yaml:"states"`
	Features       int      `json:"features" yaml:"features"`
	MinFrames      int      `json:"min_frames" yaml:"min_frames"`
	MaxFrames      int      `json:"max_frames" yaml:"max_frames"`
	SamplesPerWord int      `json:"samples_per_word" yaml:"samples_per_word"`
	Separation     float64  `json:"separation" yaml:"separation"`
	Noise          float64  `json:"noise" yaml:"noise"`
	Stay           float64  `json:"stay" yaml:"stay"`
	Broken         []string `json:"broken,omitempty" yaml:"broken,omitempty"`
}

// Default returns the config written when none exists.
func Default() *Config {
	return &Config{
		Seed:           42,
		Words:          slices.Clone(defaultWords),
		States:         3,
		Features:       4,
		MinFrames:      8,
		MaxFrames:      20,
		SamplesPerWord: 3,
		Separation:     2.0,
		Noise:          1.0,
		Stay:           0.6,
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config required", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Words))
	for _, w := range c.Words {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("%w: empty word", ErrInvalidConfig)
		}
		if _, ok := seen[w]; ok {
			return fmt.Errorf("%w: duplicate word %q", ErrInvalidConfig, w)
		}
		seen[w] = struct{}{}
	}
	for _, b := range c.Broken {
		if _, ok := seen[b]; !ok {
			return fmt.Errorf("%w: broken word %q not in words", ErrInvalidConfig, b)
		}
	}

	switch {
	case c.States < 1:
		return fmt.Errorf("%w: states must be positive, got %d", ErrInvalidConfig, c.States)
	case c.Features < 1:
		return fmt.Errorf("%w: features must be positive, got %d", ErrInvalidConfig, c.Features)
	case c.MinFrames < 1 || c.MaxFrames < c.MinFrames:
		return fmt.Errorf("%w: frame range [%d, %d]", ErrInvalidConfig, c.MinFrames, c.MaxFrames)
	case c.SamplesPerWord < 0:
		return fmt.Errorf("%w: samples per word must not be negative, got %d", ErrInvalidConfig, c.SamplesPerWord)
	case !(c.Noise > 0):
		return fmt.Errorf("%w: noise must be positive, got %v", ErrInvalidConfig, c.Noise)
	case c.Separation < 0:
		return fmt.Errorf("%w: separation must not be negative, got %v", ErrInvalidConfig, c.Separation)
	case !(c.Stay > 0 && c.Stay < 1):
		return fmt.Errorf("%w: stay must be in (0, 1), got %v", ErrInvalidConfig, c.Stay)
	}
	return nil
}

// IsBroken reports whether word is configured to have a malformed model.
func (c *Config) IsBroken(word string) bool {
	return slices.Contains(c.Broken, word)
}

// Save writes c to the config file in dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads the config from directory or creates a default one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating config dir", "path", dirPath)
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("writing default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config file %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the named directory under the user home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
