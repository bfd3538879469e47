// Package exifmeta extracts the capture metadata bracket detection relies on:
// capture time, exposure bias, and exposure mode.
//
// Failures are classified with two sentinels. ErrMetadataAbsent means the
// file carries no usable EXIF block or lacks a required tag; callers skip it
// quietly. ErrMetadataMalformed means a tag is present but its value cannot be
// trusted; callers log and skip it. ErrUnreadable means the file could not be
// opened at all; callers log and skip it too.
package exifmeta
