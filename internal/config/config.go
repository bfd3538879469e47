package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Scan controls directory traversal and metadata reads.
type Scan struct {
	Extensions  []string `toml:"extensions"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	Workers     int      `toml:"workers"`
}

// Camera describes how the camera marks bracketed frames.
type Camera struct {
	BracketExposureMode int `toml:"bracket_exposure_mode"`
}

// Classifier contains the bracket detection parameters.
type Classifier struct {
	Sizes          []int    `toml:"sizes"`
	Tolerance      float64  `toml:"tolerance"`
	Patterns       []string `toml:"patterns"`
	MaxSpanSeconds float64  `toml:"max_span_seconds"`
}

// Cache contains configuration for the per-file metadata cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics contains configuration for Prometheus textfile output.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for bif.
type Config struct {
	Scan       Scan       `toml:"scan"`
	Camera     Camera     `toml:"camera"`
	Classifier Classifier `toml:"classifier"`
	Cache      Cache      `toml:"cache"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the expanded per-user config location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or the first of ~/.config/bif/config.toml
// and ./bif.toml that exists when path is empty. A missing file yields the
// defaults. It returns the config, the file it was read from (or would be),
// and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	source, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(source, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, source, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%s: %s", path, strings.TrimSpace(strict.String()))
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("%s:%d:%d: %s", path, row, col, decodeErr.Error())
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// locate picks the config file. An explicit path is used even when it does
// not exist yet; Load then falls back to defaults.
func locate(path string) (string, bool, error) {
	candidates := []string{path}
	if strings.TrimSpace(path) == "" {
		candidates = []string{defaultConfigPath, projectConfigName}
	}

	var first string
	for _, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = expanded
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err == nil:
			return "", false, fmt.Errorf("config %s is a directory", expanded)
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// expandPath resolves a leading ~ and makes the result absolute. Empty stays
// empty.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = home + strings.TrimPrefix(value, "~")
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath applies the same rules Load uses for path settings.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// ErrSampleExists reports that CreateSample refused to replace a file.
var ErrSampleExists = errors.New("config file already exists")

// CreateSample writes the annotated sample configuration to path. An existing
// file is only replaced when overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w at %s", ErrSampleExists, path)
	}
	if err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		_ = file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}
