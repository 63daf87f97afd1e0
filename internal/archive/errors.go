package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"mseedcut/internal/timespec"
)

var (
	// ErrInputDirNotFound is returned before any listing when the input
	// directory is missing.
	ErrInputDirNotFound = errors.New("input directory not found")
	// ErrNoCoveringArchive is returned when no candidate interval contains
	// the requested instant.
	ErrNoCoveringArchive = errors.New("no archive covers the requested time")
	// ErrHeaderRead marks a candidate whose headers could not be read.
	ErrHeaderRead = errors.New("archive header read failed")
	// ErrArchiveLocked is returned when a writer holds an exclusive lock.
	ErrArchiveLocked = errors.New("archive is locked by a writer")
)

// DirNotFoundError names the missing input directory.
type DirNotFoundError struct {
	Dir string
}

func (e *DirNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInputDirNotFound, e.Dir)
}

func (e *DirNotFoundError) Unwrap() error { return ErrInputDirNotFound }

// ErrorKind classifies the failure for exit status mapping.
func (e *DirNotFoundError) ErrorKind() string { return "not_found" }

// HeaderReadError records why a candidate was skipped.
type HeaderReadError struct {
	Path string
	Err  error
}

func (e *HeaderReadError) Error() string {
	return fmt.Sprintf("read headers of %s: %v", e.Path, e.Err)
}

func (e *HeaderReadError) Unwrap() error { return e.Err }

func (e *HeaderReadError) Is(target error) bool { return target == ErrHeaderRead }

// ErrorKind classifies the failure for exit status mapping.
func (e *HeaderReadError) ErrorKind() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return "not_found"
	}
	return "invalid_archive"
}

// NoCoveringArchiveError lists what was found for the requested day.
type NoCoveringArchiveError struct {
	Target     time.Time
	Date       string
	Dir        string
	Candidates []Candidate
	Skipped    int
}

func (e *NoCoveringArchiveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s in %s", ErrNoCoveringArchive, timespec.Format(e.Target), e.Dir)
	if len(e.Candidates) == 0 {
		fmt.Fprintf(&b, " (no readable archives for %s", e.Date)
	} else {
		fmt.Fprintf(&b, " (available for %s:", e.Date)
		for i, c := range e.Candidates {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s [%s, %s]", c.Name.File, timespec.Format(c.Start), timespec.Format(c.End))
		}
	}
	if e.Skipped > 0 {
		fmt.Fprintf(&b, "; %d unreadable skipped", e.Skipped)
	}
	b.WriteString(")")
	return b.String()
}

func (e *NoCoveringArchiveError) Unwrap() error { return ErrNoCoveringArchive }

// ErrorKind classifies the failure for exit status mapping.
func (e *NoCoveringArchiveError) ErrorKind() string { return "not_found" }
