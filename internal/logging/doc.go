// Package logging assembles structured slog loggers and formatting helpers used
// across mseedcut.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so extraction steps can tag log lines with
// the request correlation ID and the current stage. Console output is written
// to stderr and colorized only when stderr is a terminal. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
