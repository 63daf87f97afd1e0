// Package main hosts the mseedcut CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into segment
// extractions, archive scans, header inspection, journal history, and
// configuration scaffolding. It centralizes configuration resolution,
// logger construction, and exit status mapping so subcommands can focus on
// output instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
