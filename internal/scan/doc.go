// Package scan walks a directory tree and turns qualifying images into
// bracket records in capture order.
//
// Within each directory, files are visited in lexical order before any
// subdirectory, and subdirectories are descended in lexical order. Camera file
// numbering makes this the capture order. Metadata for the files of one
// directory is read concurrently, but records are always delivered in walk
// order. Only frames whose exposure mode marks them as auto-bracketed reach
// the caller.
package scan
