// Package naming derives output filenames for extracted segments and
// resolves where they are written.
package naming

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultExtension is used when the source file has none.
const DefaultExtension = "mseed"

const stampLayout = "20060102_150405"

// Generate returns STATION_YYYYMMDD_HHMMSS.ext for a segment starting at
// start, taking the station and extension from the source archive name.
// Sources that do not split into at least three underscore-separated parts
// yield NAME_extracted_YYYYMMDD_HHMMSS.ext instead.
func Generate(sourcePath string, start time.Time) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExtension
	}
	if stem == "" || stem == "." {
		stem = "segment"
	}
	stamp := start.UTC().Format(stampLayout)

	if parts := strings.Split(stem, "_"); len(parts) >= 3 && parts[0] != "" {
		return parts[0] + "_" + stamp + "." + ext
	}
	return stem + "_extracted_" + stamp + "." + ext
}

// Resolve picks the output path. An explicit path naming an existing
// directory, or ending in a separator, receives the generated name; any
// other explicit path is used verbatim. Without one the generated name is
// placed in defaultDir.
func Resolve(explicit, defaultDir, generated string) string {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return filepath.Join(defaultDir, generated)
	}
	if strings.HasSuffix(explicit, string(os.PathSeparator)) || strings.HasSuffix(explicit, "/") {
		return filepath.Join(explicit, generated)
	}
	if info, err := os.Stat(explicit); err == nil && info.IsDir() {
		return filepath.Join(explicit, generated)
	}
	return explicit
}

// EnsureParent creates the directory that will hold path. It is a no-op
// when the directory already exists.
func EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
