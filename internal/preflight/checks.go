package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// ErrInsufficientSpace is returned when the destination filesystem cannot
// hold a segment plus the configured reserve.
var ErrInsufficientSpace = errors.New("insufficient free space")

// SpaceError carries the numbers behind ErrInsufficientSpace.
type SpaceError struct {
	Dir  string
	Need uint64
	Free uint64
}

func (e *SpaceError) Error() string {
	return fmt.Sprintf("%s in %s: need %s, have %s", ErrInsufficientSpace, e.Dir,
		humanize.IBytes(e.Need), humanize.IBytes(e.Free))
}

func (e *SpaceError) Unwrap() error { return ErrInsufficientSpace }

// ErrorKind classifies the failure for exit status mapping.
func (e *SpaceError) ErrorKind() string { return "write" }

// CheckDirectoryAccess verifies that the directory exists and is readable,
// and writable when write is set.
func CheckDirectoryAccess(name, path string, write bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	mode := uint32(unix.R_OK | unix.X_OK)
	label := "read ok"
	if write {
		mode |= unix.W_OK
		label = "read/write ok"
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}

// CheckFreeSpace verifies the filesystem holding path keeps at least
// minFree bytes available.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, below reserve of %s", humanize.IBytes(free), humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

// EnsureSpace fails with a SpaceError when the filesystem holding dir has
// fewer than need bytes available.
func EnsureSpace(dir string, need uint64) error {
	free, err := FreeBytes(dir)
	if err != nil {
		return fmt.Errorf("statfs %s: %w", dir, err)
	}
	if free < need {
		return &SpaceError{Dir: dir, Need: need, Free: free}
	}
	return nil
}

// FreeBytes reports the bytes available to unprivileged users on the
// filesystem holding path, or its nearest existing ancestor.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(ExistingAncestor(path), &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// ExistingAncestor returns path or the closest parent directory that exists.
func ExistingAncestor(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
