package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"bif/internal/bracket"
	"bif/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("BIF_LOG_LEVEL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "bif", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".cache", "bif", "metadata.db"); cfg.Cache.Path != want {
		t.Fatalf("cache path = %q, want %q", cfg.Cache.Path, want)
	}
	if cfg.Cache.Enabled {
		t.Fatal("expected cache disabled by default")
	}
	if cfg.Scan.Workers != 4 {
		t.Fatalf("workers = %d, want 4", cfg.Scan.Workers)
	}
	if cfg.Camera.BracketExposureMode != 2 {
		t.Fatalf("bracket exposure mode = %d, want 2", cfg.Camera.BracketExposureMode)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	opts, err := cfg.ClassifierOptions()
	if err != nil {
		t.Fatalf("ClassifierOptions: %v", err)
	}
	if len(opts.Sizes) != 3 || opts.Sizes[0] != 7 || opts.Sizes[2] != 3 {
		t.Fatalf("sizes = %v, want [7 5 3]", opts.Sizes)
	}
	if opts.Tolerance != bracket.DefaultTolerance {
		t.Fatalf("tolerance = %v", opts.Tolerance)
	}
	if len(opts.Kinds) != 2 || opts.Kinds[0] != bracket.KindSequential || opts.Kinds[1] != bracket.KindPeriodic {
		t.Fatalf("kinds = %v", opts.Kinds)
	}
	if opts.Accept != nil {
		t.Fatal("duration guard should be disabled by default")
	}
}

func TestLoadProjectConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("bif.toml", []byte("[scan]\nworkers = 2\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "bif.toml" {
		t.Fatalf("resolved = %q exists=%v", resolved, exists)
	}
	if cfg.Scan.Workers != 2 {
		t.Fatalf("workers = %d, want 2", cfg.Scan.Workers)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BIF_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "custom.toml")
	body := `
[scan]
extensions = ["JPG", ".arw", ".jpg"]
exclude_dirs = [" .thumbnails ", ""]

[classifier]
sizes = [9, 5, 3]
tolerance = 0.05
patterns = ["Periodic", "oscillating"]
max_span_seconds = 3.5

[cache]
enabled = true
path = "~/bif-cache/meta.db"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists=%v", resolved, exists)
	}
	if got := strings.Join(cfg.Scan.Extensions, ","); got != ".jpg,.arw" {
		t.Fatalf("extensions = %q", got)
	}
	if len(cfg.Scan.ExcludeDirs) != 1 || cfg.Scan.ExcludeDirs[0] != ".thumbnails" {
		t.Fatalf("exclude dirs = %q", cfg.Scan.ExcludeDirs)
	}
	home, _ := os.UserHomeDir()
	if cfg.Cache.Path != filepath.Join(home, "bif-cache", "meta.db") {
		t.Fatalf("cache path = %q", cfg.Cache.Path)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}

	opts, err := cfg.ClassifierOptions()
	if err != nil {
		t.Fatalf("ClassifierOptions: %v", err)
	}
	if opts.Kinds[0] != bracket.KindPeriodic || opts.Kinds[1] != bracket.KindOscillating {
		t.Fatalf("kinds = %v", opts.Kinds)
	}
	if opts.Accept == nil {
		t.Fatal("expected duration guard")
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	window := []bracket.Record{{Timestamp: start}, {Timestamp: start.Add(4 * time.Second)}}
	if opts.Accept(window) {
		t.Fatal("4s window accepted by a 3.5s guard")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.toml")
	if err := os.WriteFile(path, []byte("[classifier]\nsize = [5, 3]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvOverridesLogLevel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BIF_LOG_LEVEL", "INFO")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"error\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("log level = %q, want info from env", cfg.Logging.Level)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	defaults := config.Default()
	if len(cfg.Classifier.Sizes) != len(defaults.Classifier.Sizes) {
		t.Fatalf("sample sizes %v differ from defaults %v", cfg.Classifier.Sizes, defaults.Classifier.Sizes)
	}
	if cfg.Camera.BracketExposureMode != defaults.Camera.BracketExposureMode {
		t.Fatalf("sample exposure mode %d differs from default", cfg.Camera.BracketExposureMode)
	}

	t.Setenv("HOME", t.TempDir())
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}

	if err := config.CreateSample(path, false); !errors.Is(err, config.ErrSampleExists) {
		t.Fatalf("second CreateSample = %v, want ErrSampleExists", err)
	}
	if err := os.WriteFile(path, []byte("# edited\n"), 0o644); err != nil {
		t.Fatalf("edit sample: %v", err)
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("overwrite sample: %v", err)
	}
	if contents, _ := os.ReadFile(path); strings.HasPrefix(string(contents), "# edited") {
		t.Fatal("overwrite left the edited file in place")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		invalid bool
	}{
		{name: "no sizes", mutate: func(c *config.Config) { c.Classifier.Sizes = nil }, invalid: true},
		{name: "size one", mutate: func(c *config.Config) { c.Classifier.Sizes = []int{3, 1} }, invalid: true},
		{name: "even size", mutate: func(c *config.Config) { c.Classifier.Sizes = []int{6, 3} }, invalid: true},
		{name: "ascending sizes", mutate: func(c *config.Config) { c.Classifier.Sizes = []int{3, 5, 7} }, invalid: true},
		{name: "zero tolerance", mutate: func(c *config.Config) { c.Classifier.Tolerance = 0 }, invalid: true},
		{name: "negative span", mutate: func(c *config.Config) { c.Classifier.MaxSpanSeconds = -1 }},
		{name: "span beyond duration range", mutate: func(c *config.Config) { c.Classifier.MaxSpanSeconds = 1e12 }},
		{name: "zero workers", mutate: func(c *config.Config) { c.Scan.Workers = 0 }},
		{name: "no extensions", mutate: func(c *config.Config) { c.Scan.Extensions = nil }},
		{name: "unknown pattern", mutate: func(c *config.Config) { c.Classifier.Patterns = []string{"spiral"} }},
		{name: "unknown log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }},
		{name: "unknown log level", mutate: func(c *config.Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tt.invalid && !errors.Is(err, bracket.ErrInvalidOptions) {
				t.Fatalf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.Classifier.MaxSpanSeconds = 9e9
	if err := cfg.Validate(); err != nil {
		t.Fatalf("span within duration range rejected: %v", err)
	}
}
