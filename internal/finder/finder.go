// Package finder runs one complete bracket scan: it checks the root, wires
// the metadata reader, cache, and classifier together, and records metrics.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"bif/internal/bracket"
	"bif/internal/config"
	"bif/internal/logging"
	"bif/internal/metacache"
	"bif/internal/metrics"
	"bif/internal/preflight"
	"bif/internal/scan"
)

// Result describes a finished scan.
type Result struct {
	ScanID    string
	Root      string
	Groups    []bracket.Group
	Stats     scan.Stats
	Duration  time.Duration
	CacheUsed bool
}

// Option customizes Run.
type Option func(*runner)

// WithReader replaces the EXIF metadata reader.
func WithReader(reader scan.MetadataReader) Option {
	return func(r *runner) {
		r.reader = reader
	}
}

// WithMetrics records into m instead of a fresh registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *runner) {
		r.metrics = m
	}
}

type runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	reader  scan.MetadataReader
	metrics *metrics.Metrics
}

// Run scans root and returns every bracket group found in it. Invalid
// classifier settings and an unreadable root fail before any file is read.
func Run(ctx context.Context, cfg *config.Config, root string, logger *slog.Logger, opts ...Option) (Result, error) {
	if cfg == nil {
		return Result{}, errors.New("finder: config is required")
	}
	r := &runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}

	scanID := uuid.NewString()
	ctx = logging.WithScanID(ctx, scanID)
	r.logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "finder"))

	classifierOpts, err := cfg.ClassifierOptions()
	if err != nil {
		return Result{}, fmt.Errorf("configure classifier: %w", err)
	}
	classifier, err := bracket.New(classifierOpts)
	if err != nil {
		return Result{}, fmt.Errorf("configure classifier: %w", err)
	}

	useCache, writeMetrics, err := r.preflight(root)
	if err != nil {
		return Result{}, err
	}

	result := Result{ScanID: scanID, Root: root}
	var cache *metacache.Cache
	if useCache {
		cache = r.openCache(ctx)
		if cache != nil {
			defer func() {
				if closeErr := cache.Close(); closeErr != nil {
					r.logger.Warn("close metadata cache", logging.Error(closeErr))
				}
			}()
			result.CacheUsed = true
		}
	}

	sourceOpts := scan.Options{
		Extensions:  cfg.Scan.Extensions,
		ExcludeDirs: cfg.Scan.ExcludeDirs,
		Workers:     cfg.Scan.Workers,
		BracketMode: cfg.Camera.BracketExposureMode,
		Reader:      r.reader,
		Logger:      logger,
	}
	if cache != nil {
		sourceOpts.Cache = cache
	}

	r.logger.Info("scan started",
		logging.String("root", root),
		logging.Int("workers", cfg.Scan.Workers),
		logging.Bool("cache", result.CacheUsed),
	)

	started := time.Now()
	stats, err := scan.New(sourceOpts).Scan(ctx, root, func(rec bracket.Record) error {
		for _, m := range classifier.Push(rec) {
			r.logger.Debug("bracket candidate",
				logging.String("kind", m.Kind.String()),
				logging.Int("size", m.Size),
				logging.String("first", m.Members[0].ID),
			)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("scan %s: %w", root, err)
	}

	result.Groups = slices.Collect(classifier.Groups())
	result.Stats = stats
	result.Duration = time.Since(started)

	r.metrics.ObserveScan(stats, result.Groups, result.Duration)
	if writeMetrics {
		if err := r.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logging.WarnWithContext(r.logger, "metrics textfile not written", "metrics_write_failed",
				logging.Path(cfg.Metrics.Textfile),
				logging.Error(err),
				logging.String(logging.FieldImpact, "scan metrics unavailable"),
			)
		}
	}

	r.logger.Info("scan complete",
		logging.Int("groups", len(result.Groups)),
		logging.Int("candidates", stats.Candidates),
		logging.Int("qualifying", stats.Qualifying),
		logging.Int("skipped", stats.Skipped()),
		logging.Int("cache_hits", stats.CacheHits),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

// preflight fails on an unusable root and switches off optional features
// whose locations are not writable.
func (r *runner) preflight(root string) (useCache, writeMetrics bool, err error) {
	useCache = r.cfg.Cache.Enabled
	writeMetrics = r.cfg.Metrics.Textfile != ""
	for _, res := range preflight.RunAll(r.cfg, root) {
		if res.Passed {
			r.logger.Debug("preflight passed", logging.String("check", res.Name), logging.String("detail", res.Detail))
			continue
		}
		switch res.Name {
		case preflight.NameScanRoot:
			return false, false, res.Err()
		case preflight.NameCacheDir:
			useCache = false
		case preflight.NameMetricDir:
			writeMetrics = false
		}
		logging.WarnWithContext(r.logger, "preflight check failed", "preflight_failed",
			logging.String("check", res.Name),
			logging.String("detail", res.Detail),
			logging.String(logging.FieldImpact, res.Name+" disabled for this scan"),
			logging.String(logging.FieldErrorHint, "fix permissions or update the config"),
		)
	}
	return useCache, writeMetrics, nil
}

func (r *runner) openCache(ctx context.Context) *metacache.Cache {
	cache, err := metacache.Open(ctx, r.cfg.Cache.Path)
	if err == nil {
		return cache
	}
	hint := "run 'bif cache clear' or delete the cache file"
	switch {
	case errors.Is(err, metacache.ErrLocked):
		hint = "another bif scan is running; wait for it to finish"
	case errors.Is(err, metacache.ErrNewerSchema):
		hint = "the cache was written by a newer bif; upgrade or set cache.path elsewhere"
	}
	logging.WarnWithContext(r.logger, "metadata cache unavailable", "cache_unavailable",
		logging.Path(r.cfg.Cache.Path),
		logging.Error(err),
		logging.String(logging.FieldImpact, "scan runs without the metadata cache"),
		logging.String(logging.FieldErrorHint, hint),
	)
	return nil
}
