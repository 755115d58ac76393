// Package diag defines the findings model shared by every extraction phase.
//
// # Two channels
//
// Fatal conditions abort the unit being harvested. They travel as *Error
// values returned up the call chain, carrying a Code, the offending subject
// and the wrapped cause.
//
// Recovered conditions (an incomplete struct replaced by an opaque
// placeholder, a collapsed duplicate prototype, a clang warning) are
// Diagnostic records pushed through a Reporter into a Bag. They never stop
// the pipeline.
//
// # Codes
//
// Code values are grouped by phase and rendered with a stable prefix:
// CLS (classification), HRV (harvesting), EMT (emission), IO (parsing and
// output) and PRJ (manifest).
//
// # Rendering
//
// Pretty prints a bag for terminals with optional colour; FormatShort gives
// a stable one-line-per-entry form used by tests and --quiet runs.
package diag
