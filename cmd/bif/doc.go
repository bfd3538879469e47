// Package main hosts the bif CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the structured
// logger, and hands work to the internal packages: finder for scans, report
// for rendering, metacache for cache maintenance. Results go to stdout and
// diagnostics to stderr so the output can be piped.
package main
