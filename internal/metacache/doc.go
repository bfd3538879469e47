// Package metacache remembers per-file capture metadata between scans.
//
// Entries are keyed by absolute path, size, and modification time, so an
// edited or replaced file misses the cache and is read again. Files without
// EXIF and files with malformed EXIF are cached as well.
//
// The cache is a single SQLite file guarded by an exclusive flock. A second
// process that cannot take the lock gets ErrLocked and should scan uncached.
// The schema version lives in SQLite's user_version; a file from a newer
// release is refused with ErrNewerSchema rather than rewritten.
package metacache
