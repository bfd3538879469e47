package config

import (
	"os"
	"path/filepath"
	"strings"

	"bif/internal/bracket"
)

const (
	defaultConfigPath          = "~/.config/bif/config.toml"
	projectConfigName          = "bif.toml"
	defaultWorkers             = 4
	defaultBracketExposureMode = 2
	defaultLogFormat           = "console"

	// DefaultLogLevel keeps routine scans quiet; malformed files still surface.
	DefaultLogLevel = "warn"
)

// Default returns a Config populated with defaults.
func Default() Config {
	opts := bracket.DefaultOptions()
	patterns := make([]string, 0, len(opts.Kinds))
	for _, kind := range opts.Kinds {
		patterns = append(patterns, kind.String())
	}
	return Config{
		Scan: Scan{
			Extensions:  []string{".jpg"},
			ExcludeDirs: []string{".git"},
			Workers:     defaultWorkers,
		},
		Camera: Camera{
			BracketExposureMode: defaultBracketExposureMode,
		},
		Classifier: Classifier{
			Sizes:     opts.Sizes,
			Tolerance: float64(opts.Tolerance),
			Patterns:  patterns,
		},
		Cache: Cache{
			Path: defaultCachePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  DefaultLogLevel,
		},
	}
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "bif", "metadata.db")
	}
	return "~/.cache/bif/metadata.db"
}
