package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mseedcut/internal/archive"
	"mseedcut/internal/testsupport"
)

func TestExtractCommandWritesDefaultOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.writeArchive(t)

	stdout, _, err := env.run(t, "extract", "--start", "2024-01-15Z14:30:45.250", "--duration", "60")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := filepath.Join(env.cfg.Paths.OutputDir, "NOM00_20240115_143045.mseed")
	requireContains(t, stdout, source)
	requireContains(t, stdout, want)
	requireContains(t, stdout, "XX.NOM00..HHN")
	requireContains(t, stdout, "12002")
	requireContains(t, stdout, "int32")

	headers, err := archive.ReadHeaders(want, false)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(headers) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(headers))
	}
}

func TestExtractCommandJSONToExplicitDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)
	target := filepath.Join(env.baseDir, "segments") + string(os.PathSeparator)

	stdout, _, err := env.run(t, "--json", "extract", "-s", "2024-01-15Z14:00:00", "-d", "1", "-o", target)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	var summary extractSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, stdout)
	}
	if summary.OutputFile != filepath.Join(env.baseDir, "segments", "NOM00_20240115_140000.mseed") {
		t.Fatalf("unexpected output file %q", summary.OutputFile)
	}
	if summary.Samples != 202 || summary.Partial || len(summary.Digest) != 64 || summary.RequestID == "" {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestExtractCommandExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)

	cases := []struct {
		name string
		args []string
		code int
	}{
		{"missing start", []string{"extract", "--duration", "60"}, exitInvalid},
		{"bad timespec", []string{"extract", "--start", "2024-01-15 14:30:45", "--duration", "60"}, exitInvalid},
		{"bad duration", []string{"extract", "--start", "2024-01-15Z14:30:45", "--duration", "0"}, exitInvalid},
		{"huge duration", []string{"extract", "--start", "2024-01-15Z14:30:45", "--duration", "1e10"}, exitInvalid},
		{"infinite duration", []string{"extract", "--start", "2024-01-15Z14:30:45", "--duration", "inf"}, exitInvalid},
		{"comma fraction", []string{"extract", "--start", "2024-01-15Z14:30:45,250", "--duration", "60"}, exitInvalid},
		{"unknown flag", []string{"extract", "--bogus"}, exitInvalid},
		{"no covering archive", []string{"extract", "--start", "2024-01-15Z16:00:00", "--duration", "60"}, exitNotFound},
		{"missing input dir", []string{"extract", "--start", "2024-01-15Z14:30:00", "--duration", "60", "--input", filepath.Join(env.baseDir, "nope")}, exitNotFound},
		{"window past archive", []string{"extract", "--start", "2024-01-15Z14:59:30", "--duration", "60"}, exitNoData},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.run(t, tc.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := exitCode(err); got != tc.code {
				t.Fatalf("exit code %d, want %d (err: %v)", got, tc.code, err)
			}
		})
	}
}

func TestExtractCommandAllowPartial(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)

	stdout, _, err := env.run(t, "extract", "--start", "2024-01-15Z14:59:30", "--duration", "60", "--allow-partial")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	requireContains(t, stdout, "truncated")
}

func TestExtractCommandRecordsJournal(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithJournal())
	env.writeArchive(t)

	if _, _, err := env.run(t, "extract", "--start", "2024-01-15Z14:30:00", "--duration", "10"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if _, _, err := env.run(t, "extract", "--start", "2024-01-15Z18:00:00", "--duration", "10"); err == nil {
		t.Fatal("expected second extract to fail")
	}

	stdout, _, err := env.run(t, "--json", "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var entries []struct {
		Status    string `json:"status"`
		ErrorKind string `json:"error_kind"`
		Samples   int    `json:"samples"`
	}
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("decode history: %v\n%s", err, stdout)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(entries))
	}
	if entries[0].Status != "failed" || entries[0].ErrorKind != "not_found" {
		t.Fatalf("unexpected newest entry %+v", entries[0])
	}
	if entries[1].Status != "succeeded" || entries[1].Samples != 2002 {
		t.Fatalf("unexpected oldest entry %+v", entries[1])
	}

	text, _, err := env.run(t, "history", "-n", "1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	requireContains(t, text, "not_found")
}
