package main

import (
	"errors"
	"fmt"
	"testing"

	"mseedcut/internal/archive"
	"mseedcut/internal/extract"
	"mseedcut/internal/timespec"
)

func TestExitCodeMapping(t *testing.T) {
	_, parseErr := timespec.Parse("garbage")

	cases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"usage", newUsageError("bad flag"), exitInvalid, "validation"},
		{"config", &configError{err: errors.New("boom")}, exitInvalid, "configuration"},
		{"timespec", parseErr, exitInvalid, "validation"},
		{"missing dir", &archive.DirNotFoundError{Dir: "/nope"}, exitNotFound, "not_found"},
		{"wrapped duration", fmt.Errorf("cut: %w", &extract.DurationError{Seconds: -1}), exitInvalid, "validation"},
		{"plain", errors.New("disk on fire"), exitFailure, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.code {
				t.Fatalf("exitCode = %d, want %d", got, tc.code)
			}
			if got := errorKind(tc.err); got != tc.kind {
				t.Fatalf("errorKind = %q, want %q", got, tc.kind)
			}
		})
	}
	if exitCode(nil) != 0 {
		t.Fatal("nil error should exit 0")
	}
}
