package preflight

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mseedcut/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir, true)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"), false)
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f, false)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestEnsureSpace(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureSpace(dir, 0); err != nil {
		t.Fatalf("expected zero bytes to fit: %v", err)
	}
	err := EnsureSpace(dir, math.MaxUint64)
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("expected ErrInsufficientSpace, got %v", err)
	}
	var spaceErr *SpaceError
	if !errors.As(err, &spaceErr) || spaceErr.Dir != dir {
		t.Fatalf("expected SpaceError for %s, got %v", dir, err)
	}
}

func TestFreeBytesUsesExistingAncestor(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "a", "b", "c")
	if got := ExistingAncestor(missing); got != dir {
		t.Fatalf("ExistingAncestor = %s, want %s", got, dir)
	}
	if _, err := FreeBytes(missing); err != nil {
		t.Fatalf("FreeBytes on missing path: %v", err)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithJournal())
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("%s failed: %s", r.Name, r.Detail)
		}
	}

	cfg.Paths.InputDir = filepath.Join(t.TempDir(), "missing")
	results = RunAll(context.Background(), cfg)
	if results[0].Passed || !strings.Contains(results[0].Detail, "does not exist") {
		t.Fatalf("expected missing input dir to fail, got %+v", results[0])
	}
}
