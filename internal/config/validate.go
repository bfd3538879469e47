package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"bif/internal/bracket"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if _, err := c.ClassifierOptions(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScan() error {
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must list at least one extension")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive (got %d)", c.Scan.Workers)
	}
	if c.Camera.BracketExposureMode < 0 {
		return fmt.Errorf("camera.bracket_exposure_mode must not be negative (got %d)", c.Camera.BracketExposureMode)
	}
	return nil
}

// ClassifierOptions translates the [classifier] section into bracket options.
func (c *Config) ClassifierOptions() (bracket.Options, error) {
	kinds := make([]bracket.Kind, 0, len(c.Classifier.Patterns))
	for _, name := range c.Classifier.Patterns {
		kind, err := bracket.ParseKind(name)
		if err != nil {
			return bracket.Options{}, fmt.Errorf("classifier.patterns: %w", err)
		}
		kinds = append(kinds, kind)
	}

	span := c.Classifier.MaxSpanSeconds
	if span < 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return bracket.Options{}, fmt.Errorf("classifier.max_span_seconds must be a non-negative number (got %v)", span)
	}
	if span > maxSpanSeconds {
		return bracket.Options{}, fmt.Errorf("classifier.max_span_seconds must be at most %.0f (got %v)", maxSpanSeconds, span)
	}

	opts := bracket.Options{
		Sizes:     append([]int(nil), c.Classifier.Sizes...),
		Tolerance: bracket.Tolerance(c.Classifier.Tolerance),
		Kinds:     kinds,
	}
	if span > 0 {
		opts.Accept = bracket.MaxSpan(time.Duration(span * float64(time.Second)))
	}
	if err := opts.Validate(); err != nil {
		return bracket.Options{}, fmt.Errorf("classifier: %w", err)
	}
	return opts, nil
}

// maxSpanSeconds is the longest span a time.Duration can hold.
const maxSpanSeconds = float64(math.MaxInt64) / float64(time.Second)

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
