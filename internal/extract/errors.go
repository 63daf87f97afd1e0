package extract

import (
	"errors"
	"fmt"
	"math"

	"mseedcut/internal/timespec"
)

var (
	// ErrInvalidDuration is returned for non-positive durations.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrEmptySegment is returned when no channel has samples in the window.
	ErrEmptySegment = errors.New("no samples in requested window")
	// ErrWindowExceedsArchive is returned when the window runs past the end
	// of the located archive and partial segments are not allowed.
	ErrWindowExceedsArchive = errors.New("requested window extends beyond the archive")
	// ErrWrite wraps every failure to produce the output file.
	ErrWrite = errors.New("write segment")
)

// DurationError rejects a duration.
type DurationError struct {
	Seconds float64
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("%s: got %g seconds", ErrInvalidDuration, e.Seconds)
}

func (e *DurationError) Unwrap() error { return ErrInvalidDuration }

// ErrorKind classifies the failure for exit status mapping.
func (e *DurationError) ErrorKind() string { return "validation" }

// ValidateDuration accepts finite positive spans up to timespec.MaxSeconds.
func ValidateDuration(seconds float64) error {
	if math.IsNaN(seconds) || seconds <= 0 || seconds > timespec.MaxSeconds {
		return &DurationError{Seconds: seconds}
	}
	return nil
}

// EmptySegmentError reports the requested and available intervals.
type EmptySegmentError struct {
	Source    string
	Requested Interval
	Available Interval
}

func (e *EmptySegmentError) Error() string {
	return fmt.Sprintf("%s: requested %s, %s holds %s", ErrEmptySegment, e.Requested, e.Source, e.Available)
}

func (e *EmptySegmentError) Unwrap() error { return ErrEmptySegment }

// ErrorKind classifies the failure for exit status mapping.
func (e *EmptySegmentError) ErrorKind() string { return "no_data" }

// WindowError reports a window that runs past the archive end.
type WindowError struct {
	Source    string
	Requested Interval
	Available Interval
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("%s: requested %s, %s ends at %s (the rest is in the next archive; use --allow-partial to keep the truncated segment)",
		ErrWindowExceedsArchive, e.Requested, e.Source, timespec.Format(e.Available.End))
}

func (e *WindowError) Unwrap() error { return ErrWindowExceedsArchive }

// ErrorKind classifies the failure for exit status mapping.
func (e *WindowError) ErrorKind() string { return "no_data" }

// WriteError wraps the underlying cause of a failed write.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrWrite, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }

// ErrorKind classifies the failure for exit status mapping.
func (e *WriteError) ErrorKind() string { return "write" }
