// Package bracket detects exposure-bracketed bursts in an ordered stream of
// image records.
//
// A Classifier consumes records one at a time in capture order. Each record
// is pushed into a bounded history window; after every push the enabled
// pattern kinds are tested against the window's tail, largest size first, and
// any hit is handed to a ClaimIndex that keeps, for every image, the largest
// group that has claimed it so far. Once the stream is exhausted, Groups
// yields the distinct surviving groups.
//
// A Classifier holds per-scan state and is not safe for concurrent use; build
// a fresh one for every independent scan.
package bracket
