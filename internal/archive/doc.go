// Package archive finds the archive file that covers a requested
// instant.
//
// Archives are named STATION_YYYYMMDD_HHMMSS.<ext>. The filename date is
// only a pre-filter: the authoritative interval of a file is the span of
// its primary trace as read from record headers. Files that cannot be read
// (including ones held under an exclusive lock by their writer) are skipped
// with a warning rather than failing the lookup.
//
// Nothing in this package modifies the archive directory.
package archive
