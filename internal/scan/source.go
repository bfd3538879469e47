package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"bif/internal/bracket"
	"bif/internal/exifmeta"
	"bif/internal/logging"
	"bif/internal/metacache"
)

// MetadataReader extracts capture metadata from one file.
type MetadataReader interface {
	Read(path string) (exifmeta.Metadata, error)
}

// MetadataCache stores metadata read results between scans.
type MetadataCache interface {
	Lookup(ctx context.Context, key metacache.Key) (metacache.Entry, bool, error)
	Store(ctx context.Context, key metacache.Key, entry metacache.Entry) error
}

// Options configures a Source.
type Options struct {
	Extensions  []string
	ExcludeDirs []string
	Workers     int
	// BracketMode is the EXIF ExposureMode value of auto-bracketed frames.
	BracketMode int
	Reader      MetadataReader
	Cache       MetadataCache
	Logger      *slog.Logger
}

// Stats counts what a scan saw.
type Stats struct {
	Candidates int
	Qualifying int
	Absent     int
	Malformed  int
	Unreadable int
	OtherMode  int
	CacheHits  int
}

// Skipped returns the number of candidates that did not become records.
func (s Stats) Skipped() int {
	return s.Absent + s.Malformed + s.Unreadable + s.OtherMode
}

// Source produces bracket records from a directory tree.
type Source struct {
	extensions  map[string]struct{}
	excludeDirs map[string]struct{}
	workers     int
	bracketMode int
	reader      MetadataReader
	cache       MetadataCache
	logger      *slog.Logger
}

// New builds a Source. A nil Reader defaults to the EXIF reader.
func New(opts Options) *Source {
	src := &Source{
		extensions:  make(map[string]struct{}, len(opts.Extensions)),
		excludeDirs: make(map[string]struct{}, len(opts.ExcludeDirs)),
		workers:     max(opts.Workers, 1),
		bracketMode: opts.BracketMode,
		reader:      opts.Reader,
		cache:       opts.Cache,
		logger:      logging.NewComponentLogger(opts.Logger, "scan"),
	}
	for _, ext := range opts.Extensions {
		src.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, name := range opts.ExcludeDirs {
		src.excludeDirs[name] = struct{}{}
	}
	if src.reader == nil {
		src.reader = exifmeta.NewReader()
	}
	return src
}

type candidate struct {
	path string
	id   string
	info fs.FileInfo
	// statErr is set when the entry could not be resolved; such a candidate
	// is reported as unreadable without being read.
	statErr error
}

type outcome struct {
	meta   exifmeta.Metadata
	err    error
	cached bool
}

// Scan walks root and calls yield for every qualifying image in capture
// order. Files that cannot be stat'ed, opened or read are counted and
// skipped; only cancellation, a yield error, or a directory that cannot be
// listed stops the walk.
func (s *Source) Scan(ctx context.Context, root string, yield func(bracket.Record) error) (Stats, error) {
	var stats Stats
	info, err := os.Stat(root)
	if err != nil {
		return stats, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("scan root %s is not a directory", root)
	}
	logger := logging.WithContext(ctx, s.logger)
	err = s.walk(ctx, logger, root, root, yield, &stats)
	return stats, err
}

func (s *Source) walk(ctx context.Context, logger *slog.Logger, root, dir string, yield func(bracket.Record) error, stats *Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", dir, err)
	}

	var (
		files   []candidate
		subdirs []string
	)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if _, skip := s.excludeDirs[entry.Name()]; skip {
				logger.Debug("directory excluded", logging.Path(path))
				continue
			}
			subdirs = append(subdirs, path)
			continue
		}
		if !s.matchesExtension(entry.Name()) {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		file := candidate{path: path, id: filepath.ToSlash(rel)}
		// Symlinks are followed to regular files only.
		info, err := os.Stat(path)
		switch {
		case err != nil:
			file.statErr = err
		case !info.Mode().IsRegular():
			continue
		default:
			file.info = info
		}
		files = append(files, file)
	}

	outcomes, err := s.readBatch(ctx, logger, files)
	if err != nil {
		return err
	}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, ok := s.accept(logger, file, outcomes[i], stats)
		if !ok {
			continue
		}
		if err := yield(record); err != nil {
			return err
		}
	}

	for _, sub := range subdirs {
		if err := s.walk(ctx, logger, root, sub, yield, stats); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) matchesExtension(name string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// readBatch reads metadata for files concurrently. outcomes[i] belongs to files[i].
func (s *Source) readBatch(ctx context.Context, logger *slog.Logger, files []candidate) ([]outcome, error) {
	outcomes := make([]outcome, len(files))
	if len(files) == 0 {
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			out, err := s.read(gctx, logger, files[i])
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *Source) read(ctx context.Context, logger *slog.Logger, file candidate) (outcome, error) {
	if file.statErr != nil {
		return outcome{err: fmt.Errorf("%w: %w", exifmeta.ErrUnreadable, file.statErr)}, nil
	}
	var (
		key      metacache.Key
		useCache = s.cache != nil
	)
	if useCache {
		var err error
		if key, err = metacache.KeyFor(file.path, file.info); err != nil {
			return outcome{err: fmt.Errorf("%w: %w", exifmeta.ErrUnreadable, err)}, nil
		}
		entry, ok, err := s.cache.Lookup(ctx, key)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "metadata cache lookup failed", "cache_lookup_failed",
				logging.Path(file.path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file read without cache"),
				logging.String(logging.FieldErrorHint, "run 'bif cache clear' if this repeats"),
			)
			useCache = false
		case ok:
			meta, readErr := entry.Result()
			return outcome{meta: meta, err: readErr, cached: true}, nil
		}
	}

	meta, err := s.reader.Read(file.path)
	if err != nil && !isClassified(err) {
		err = fmt.Errorf("%w: %w", exifmeta.ErrUnreadable, err)
	}

	if useCache {
		if entry, ok := metacache.EntryFor(meta, err); ok {
			if storeErr := s.cache.Store(ctx, key, entry); storeErr != nil {
				logging.WarnWithContext(logger, "metadata cache store failed", "cache_store_failed",
					logging.Path(file.path),
					logging.Error(storeErr),
					logging.String(logging.FieldImpact, "file will be read again next scan"),
				)
			}
		}
	}
	return outcome{meta: meta, err: err}, nil
}

// accept applies the qualification rules to one read outcome.
func (s *Source) accept(logger *slog.Logger, file candidate, out outcome, stats *Stats) (bracket.Record, bool) {
	stats.Candidates++
	if out.cached {
		stats.CacheHits++
	}

	switch {
	case errors.Is(out.err, exifmeta.ErrMetadataAbsent):
		stats.Absent++
		logger.Debug("no bracketing metadata", logging.Path(file.id), logging.Error(out.err))
		return bracket.Record{}, false
	case errors.Is(out.err, exifmeta.ErrUnreadable):
		stats.Unreadable++
		logging.WarnWithContext(logger, "image unreadable", "file_unreadable",
			logging.Path(file.id),
			logging.Error(out.err),
			logging.String(logging.FieldErrorHint, "check the file exists and is readable"),
		)
		return bracket.Record{}, false
	case errors.Is(out.err, exifmeta.ErrMetadataMalformed):
		stats.Malformed++
		logging.WarnWithContext(logger, "malformed image metadata", "metadata_malformed",
			logging.Path(file.id),
			logging.Error(out.err),
			logging.String(logging.FieldErrorHint, "inspect the file's EXIF block"),
		)
		return bracket.Record{}, false
	case out.meta.ExposureMode != s.bracketMode:
		stats.OtherMode++
		logger.Debug("not an auto-bracketed frame",
			logging.Path(file.id),
			logging.Int("exposure_mode", out.meta.ExposureMode),
		)
		return bracket.Record{}, false
	}

	stats.Qualifying++
	return bracket.Record{
		ID:            file.id,
		Timestamp:     out.meta.Timestamp,
		ExposureValue: out.meta.ExposureValue,
	}, true
}

func isClassified(err error) bool {
	return errors.Is(err, exifmeta.ErrMetadataAbsent) ||
		errors.Is(err, exifmeta.ErrMetadataMalformed) ||
		errors.Is(err, exifmeta.ErrUnreadable)
}
