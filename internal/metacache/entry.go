package metacache

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"bif/internal/exifmeta"
)

// Status records the outcome of reading a file's metadata.
type Status string

const (
	StatusOK        Status = "ok"
	StatusAbsent    Status = "absent"
	StatusMalformed Status = "malformed"
)

// Key identifies one version of a file on disk.
type Key struct {
	Path      string
	Size      int64
	ModTimeNS int64
}

// KeyFor builds the cache key for path from its stat result.
func KeyFor(path string, info fs.FileInfo) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, fmt.Errorf("resolve cache key path: %w", err)
	}
	return Key{Path: abs, Size: info.Size(), ModTimeNS: info.ModTime().UnixNano()}, nil
}

// Entry is the cached outcome of one metadata read.
type Entry struct {
	Status   Status
	Metadata exifmeta.Metadata
	Detail   string
}

// EntryFor converts a read result into a cacheable entry. Unreadable files
// and other I/O failures are not cacheable and report false.
func EntryFor(meta exifmeta.Metadata, err error) (Entry, bool) {
	switch {
	case err == nil:
		return Entry{Status: StatusOK, Metadata: meta}, true
	case errors.Is(err, exifmeta.ErrMetadataAbsent):
		return Entry{Status: StatusAbsent, Detail: detail(err, exifmeta.ErrMetadataAbsent)}, true
	case errors.Is(err, exifmeta.ErrMetadataMalformed):
		return Entry{Status: StatusMalformed, Detail: detail(err, exifmeta.ErrMetadataMalformed)}, true
	default:
		return Entry{}, false
	}
}

// Result replays the entry as the metadata read that produced it.
func (e Entry) Result() (exifmeta.Metadata, error) {
	switch e.Status {
	case StatusOK:
		return e.Metadata, nil
	case StatusAbsent:
		return exifmeta.Metadata{}, fmt.Errorf("%w (cached): %s", exifmeta.ErrMetadataAbsent, e.Detail)
	case StatusMalformed:
		return exifmeta.Metadata{}, fmt.Errorf("%w (cached): %s", exifmeta.ErrMetadataMalformed, e.Detail)
	default:
		return exifmeta.Metadata{}, fmt.Errorf("%w: cached entry has unknown status %q", exifmeta.ErrMetadataMalformed, e.Status)
	}
}

func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
