// Package metrics defines the Prometheus collectors describing a scan and
// writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bif/internal/bracket"
	"bif/internal/scan"
)

// Skip reasons used as the reason label of FilesSkippedTotal.
const (
	ReasonAbsent     = "absent"
	ReasonMalformed  = "malformed"
	ReasonOtherMode  = "other_mode"
	ReasonUnreadable = "unreadable"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	Registry *prometheus.Registry

	FilesScannedTotal      prometheus.Counter
	FilesSkippedTotal      *prometheus.CounterVec
	CacheHitsTotal         prometheus.Counter
	RecordsClassifiedTotal prometheus.Counter
	GroupsTotal            *prometheus.CounterVec
	ScanDuration           prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FilesScannedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bif_files_scanned_total",
				Help: "Image files whose metadata was examined.",
			},
		),
		FilesSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bif_files_skipped_total",
				Help: "Image files that did not qualify, by reason (absent, malformed, other_mode).",
			},
			[]string{"reason"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bif_metadata_cache_hits_total",
				Help: "Metadata reads answered by the cache.",
			},
		),
		RecordsClassifiedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bif_records_classified_total",
				Help: "Qualifying records pushed through the classifier.",
			},
		),
		GroupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bif_groups_total",
				Help: "Bracket groups emitted, by pattern kind.",
			},
			[]string{"kind"},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bif_scan_duration_seconds",
				Help:    "Wall time of a complete scan in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
		),
	}

	m.Registry.MustRegister(
		m.FilesScannedTotal,
		m.FilesSkippedTotal,
		m.CacheHitsTotal,
		m.RecordsClassifiedTotal,
		m.GroupsTotal,
		m.ScanDuration,
	)
	return m
}

// ObserveScan records the outcome of one scan.
func (m *Metrics) ObserveScan(stats scan.Stats, groups []bracket.Group, elapsed time.Duration) {
	m.FilesScannedTotal.Add(float64(stats.Candidates))
	m.FilesSkippedTotal.WithLabelValues(ReasonAbsent).Add(float64(stats.Absent))
	m.FilesSkippedTotal.WithLabelValues(ReasonMalformed).Add(float64(stats.Malformed))
	m.FilesSkippedTotal.WithLabelValues(ReasonOtherMode).Add(float64(stats.OtherMode))
	m.FilesSkippedTotal.WithLabelValues(ReasonUnreadable).Add(float64(stats.Unreadable))
	m.CacheHitsTotal.Add(float64(stats.CacheHits))
	m.RecordsClassifiedTotal.Add(float64(stats.Qualifying))
	for _, kind := range bracket.Kinds() {
		m.GroupsTotal.WithLabelValues(kind.String())
	}
	for _, g := range groups {
		m.GroupsTotal.WithLabelValues(g.Kind.String()).Inc()
	}
	m.ScanDuration.Observe(elapsed.Seconds())
}

// WriteTextfile atomically writes the registry to path.
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
