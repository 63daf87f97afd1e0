package preflight

import (
	"context"
	"path/filepath"

	"mseedcut/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	_ = ctx

	var results []Result

	// Archives are only read.
	results = append(results, CheckDirectoryAccess("Input directory", cfg.Paths.InputDir, false))

	// The output directory is created on demand, so check its nearest
	// existing ancestor.
	results = append(results, CheckDirectoryAccess("Output directory", ExistingAncestor(cfg.Paths.OutputDir), true))

	minFree := uint64(cfg.Extract.MinFreeMiB) * 1024 * 1024
	results = append(results, CheckFreeSpace("Output free space", cfg.Paths.OutputDir, minFree))

	if cfg.Journal.Enabled {
		results = append(results, CheckDirectoryAccess("Journal directory", ExistingAncestor(filepath.Dir(cfg.Journal.Path)), true))
	}

	return results
}
