// Package preflight provides readiness checks for the filesystem paths a
// scan depends on.
//
// The scan root must be readable before any work starts. The cache and
// metrics locations are optional: when their checks fail the scan proceeds
// without them. The CLI "bif config validate" command prints the same checks.
package preflight
