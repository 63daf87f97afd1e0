// Package preflight provides readiness checks for the filesystem paths
// mseedcut reads from and writes to.
//
// These checks run in two contexts:
//   - The extractor calls EnsureSpace right before writing a segment so a
//     full disk fails fast instead of leaving a truncated file.
//   - The CLI "mseedcut config validate" command uses RunAll to display
//     directory and free-space health.
//
// The journal check is gated by its config toggle.
package preflight
