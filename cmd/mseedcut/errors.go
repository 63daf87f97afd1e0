package main

import (
	"errors"
	"fmt"
)

// Exit statuses.
const (
	exitFailure  = 1
	exitInvalid  = 2
	exitNotFound = 3
	exitNoData   = 4
)

// errorClassifier allows errors to declare their classification for exit
// status mapping.
type errorClassifier interface {
	ErrorKind() string
}

// exitCode maps an error to the process exit status. Errors implementing
// errorClassifier with kind "validation" or "configuration" exit 2,
// "not_found" exits 3 and "no_data" exits 4. Everything else exits 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var classifier errorClassifier
	if errors.As(err, &classifier) {
		switch classifier.ErrorKind() {
		case "validation", "configuration":
			return exitInvalid
		case "not_found":
			return exitNotFound
		case "no_data":
			return exitNoData
		}
	}
	return exitFailure
}

// errorKind returns the classification recorded in the journal.
func errorKind(err error) string {
	var classifier errorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return "internal"
}

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string     { return e.err.Error() }
func (e *usageError) Unwrap() error     { return e.err }
func (e *usageError) ErrorKind() string { return "validation" }

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// configError marks configuration load and validation failures.
type configError struct {
	err error
}

func (e *configError) Error() string     { return fmt.Sprintf("load config: %v", e.err) }
func (e *configError) Unwrap() error     { return e.err }
func (e *configError) ErrorKind() string { return "configuration" }
