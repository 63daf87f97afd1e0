package timespec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Marker separates the calendar date from the time-of-day body and asserts UTC.
const Marker = "Z"

const (
	layoutFraction   = "2006-01-02 15:04:05.999999999"
	layoutNoFraction = "2006-01-02 15:04:05"
	// DateLayout is the compact calendar key used in archive filenames.
	DateLayout = "20060102"
)

// bodyPattern gates time.Parse, which alone accepts a comma separator and
// truncates fractions longer than nine digits.
var bodyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d{1,9})?$`)

// ErrInvalidTimeFormat reports a malformed or non-UTC time specification.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// TimeSpec is an absolute UTC instant parsed from operator input.
type TimeSpec struct {
	Instant time.Time
}

// FormatError describes why a time specification was rejected.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q: %s (use UTC with %q, e.g. 2024-01-15Z14:30:45.250)", ErrInvalidTimeFormat, e.Input, e.Reason, Marker)
}

func (e *FormatError) Unwrap() error { return ErrInvalidTimeFormat }

// ErrorKind classifies the failure for exit status mapping.
func (e *FormatError) ErrorKind() string { return "validation" }

// Parse reads "YYYY-MM-DD" + "Z" + "HH:MM:SS[.fffffffff]". The fractional
// component is optional; no timezone other than the UTC marker is accepted.
func Parse(input string) (TimeSpec, error) {
	raw := strings.TrimSpace(input)
	if !strings.Contains(raw, Marker) {
		return TimeSpec{}, &FormatError{Input: input, Reason: "missing UTC marker"}
	}
	body := strings.Replace(raw, Marker, " ", 1)
	if strings.Contains(body, Marker) {
		return TimeSpec{}, &FormatError{Input: input, Reason: "UTC marker appears more than once"}
	}

	if !bodyPattern.MatchString(body) {
		return TimeSpec{}, &FormatError{Input: input, Reason: "expected YYYY-MM-DDZHH:MM:SS[.fraction] with 1-9 fraction digits"}
	}

	layout := layoutNoFraction
	if strings.Contains(body, ".") {
		layout = layoutFraction
	}
	instant, err := time.ParseInLocation(layout, body, time.UTC)
	if err != nil {
		return TimeSpec{}, &FormatError{Input: input, Reason: "expected YYYY-MM-DDZHH:MM:SS[.fraction]"}
	}
	return TimeSpec{Instant: instant.UTC()}, nil
}

// MustParse is Parse for constants in tests and examples; it panics on error.
func MustParse(input string) TimeSpec {
	ts, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return ts
}

// Date returns the calendar day of the instant as a UTC midnight.
func (t TimeSpec) Date() time.Time {
	y, m, d := t.Instant.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey returns the YYYYMMDD key used to pre-filter archive filenames.
func (t TimeSpec) DateKey() string {
	return t.Instant.Format(DateLayout)
}

// Add returns the instant shifted by a duration in (fractional) seconds.
func (t TimeSpec) Add(seconds float64) TimeSpec {
	return TimeSpec{Instant: t.Instant.Add(Seconds(seconds))}
}

func (t TimeSpec) String() string {
	return Format(t.Instant)
}

// MaxSeconds is the longest span Seconds can represent.
const MaxSeconds = float64(math.MaxInt64 / int64(time.Second))

// Seconds converts fractional seconds to a Duration rounded to the nanosecond.
// Values beyond MaxSeconds saturate.
func Seconds(seconds float64) time.Duration {
	switch {
	case math.IsNaN(seconds):
		return 0
	case seconds > MaxSeconds:
		return time.Duration(math.MaxInt64)
	case seconds < -MaxSeconds:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(seconds*float64(time.Second) + copySign(0.5, seconds))
}

func copySign(v, sign float64) float64 {
	if sign < 0 {
		return -v
	}
	return v
}

// Format renders an instant in the same notation Parse accepts, with
// microsecond precision (the resolution of archive headers).
func Format(instant time.Time) string {
	return instant.UTC().Format("2006-01-02" + Marker + "15:04:05.000000")
}
