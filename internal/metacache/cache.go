package metacache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// ErrLocked reports that another process holds the cache.
var ErrLocked = errors.New("metadata cache is in use by another scan")

// ErrNewerSchema reports a cache file written by a newer release of bif.
var ErrNewerSchema = errors.New("metadata cache schema is newer than this build")

// schema upgrades the cache one version at a time: entry i moves a database
// at user_version i to i+1.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS metadata (
    path TEXT PRIMARY KEY,
    size INTEGER NOT NULL,
    mod_time_ns INTEGER NOT NULL,
    status TEXT NOT NULL,
    taken_at TEXT,
    exposure_value REAL,
    exposure_mode INTEGER,
    detail TEXT,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metadata_status ON metadata(status);`,
}

// Cache is an open metadata cache.
type Cache struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Stats summarizes cache contents.
type Stats struct {
	Path      string
	Entries   int
	OK        int
	Absent    int
	Malformed int
	SizeBytes int64
}

// Open takes the cache lock, opens the database at path, and upgrades its schema.
func Open(ctx context.Context, path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: path, lock: lock}
	if err := cache.upgradeSchema(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return cache, nil
}

func (c *Cache) upgradeSchema(ctx context.Context) error {
	var version int
	if err := c.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read cache schema version: %w", err)
	}
	switch {
	case version > len(schema):
		return fmt.Errorf("%w: %s is at version %d, this build knows %d", ErrNewerSchema, c.path, version, len(schema))
	case version == len(schema):
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema upgrade: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for v := version; v < len(schema); v++ {
		if _, err := tx.ExecContext(ctx, schema[v]); err != nil {
			return fmt.Errorf("upgrade cache schema to version %d: %w", v+1, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", len(schema))); err != nil {
		return fmt.Errorf("record cache schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema upgrade: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database and releases the lock.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	if unlockErr := c.lock.Unlock(); unlockErr != nil && err == nil {
		err = fmt.Errorf("release cache lock: %w", unlockErr)
	}
	return err
}

// Lookup returns the entry for key. A file whose size or modification time
// changed since it was stored misses.
func (c *Cache) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	var (
		entry  Entry
		status string
		taken  sql.NullString
		ev     sql.NullFloat64
		mode   sql.NullInt64
		detail sql.NullString
	)
	row := c.db.QueryRowContext(ctx,
		`SELECT status, taken_at, exposure_value, exposure_mode, detail
         FROM metadata WHERE path = ? AND size = ? AND mod_time_ns = ?`,
		key.Path, key.Size, key.ModTimeNS,
	)
	if err := row.Scan(&status, &taken, &ev, &mode, &detail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("lookup %s: %w", key.Path, err)
	}

	entry.Status = Status(status)
	entry.Detail = detail.String
	if entry.Status == StatusOK {
		ts, err := time.Parse(time.RFC3339Nano, taken.String)
		if err != nil {
			return Entry{}, false, fmt.Errorf("decode cached timestamp for %s: %w", key.Path, err)
		}
		entry.Metadata.Timestamp = ts
		entry.Metadata.ExposureValue = ev.Float64
		entry.Metadata.ExposureMode = int(mode.Int64)
	}
	return entry, true, nil
}

// Store records entry under key, replacing any older version of the file.
func (c *Cache) Store(ctx context.Context, key Key, entry Entry) error {
	var (
		taken any
		ev    any
		mode  any
	)
	if entry.Status == StatusOK {
		taken = entry.Metadata.Timestamp.Format(time.RFC3339Nano)
		ev = entry.Metadata.ExposureValue
		mode = entry.Metadata.ExposureMode
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO metadata (path, size, mod_time_ns, status, taken_at, exposure_value, exposure_mode, detail, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
            size = excluded.size,
            mod_time_ns = excluded.mod_time_ns,
            status = excluded.status,
            taken_at = excluded.taken_at,
            exposure_value = excluded.exposure_value,
            exposure_mode = excluded.exposure_mode,
            detail = excluded.detail,
            updated_at = excluded.updated_at`,
		key.Path, key.Size, key.ModTimeNS, string(entry.Status), taken, ev, mode,
		nullableString(entry.Detail), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store %s: %w", key.Path, err)
	}
	return nil
}

// Stats counts entries by status.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: c.path}
	rows, err := c.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM metadata GROUP BY status")
	if err != nil {
		return Stats{}, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan entry count: %w", err)
		}
		stats.Entries += count
		switch Status(status) {
		case StatusOK:
			stats.OK = count
		case StatusAbsent:
			stats.Absent = count
		case StatusMalformed:
			stats.Malformed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate entry counts: %w", err)
	}

	if info, err := os.Stat(c.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// Clear removes every entry and returns how many were deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM metadata")
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return removed, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
