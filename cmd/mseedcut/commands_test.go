package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mseedcut/internal/testsupport"
)

func TestScanCommandListsCandidatesAndSkipped(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)
	testsupport.WriteJunk(t, filepath.Join(env.cfg.Paths.InputDir, "JUNK0_20240115_150000.mseed"), 700)

	stdout, _, err := env.run(t, "--json", "scan", "--date", "2024-01-15")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	var view scanOutput
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("decode scan: %v\n%s", err, stdout)
	}
	if len(view.Candidates) != 1 || view.Candidates[0].Station != "NOM00" || view.Candidates[0].Channels != 2 {
		t.Fatalf("unexpected candidates %+v", view.Candidates)
	}
	if view.Candidates[0].Start != "2024-01-15Z14:00:00.000000" {
		t.Fatalf("unexpected start %q", view.Candidates[0].Start)
	}
	if len(view.Skipped) != 1 || !strings.HasSuffix(view.Skipped[0].File, "JUNK0_20240115_150000.mseed") {
		t.Fatalf("unexpected skipped %+v", view.Skipped)
	}

	text, _, err := env.run(t, "scan", "--date", "2024-01-15")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	requireContains(t, text, "NOM00_20240115_140000.mseed")
	requireContains(t, text, "[WARN]")
}

func TestScanCommandEmptyDay(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)

	stdout, _, err := env.run(t, "scan", "--date", "2024-01-16")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	requireContains(t, stdout, "No readable archives for 2024-01-16 in "+env.cfg.Paths.InputDir)
}

func TestScanCommandRequiresDate(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "scan")
	if exitCode(err) != exitInvalid {
		t.Fatalf("expected usage failure, got %v", err)
	}
	_, _, err = env.run(t, "scan", "--date", "20240115")
	if exitCode(err) != exitInvalid {
		t.Fatalf("expected usage failure for compact date, got %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.writeArchive(t)

	stdout, _, err := env.run(t, "inspect", source)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	requireContains(t, stdout, "XX.NOM00..HHZ")
	requireContains(t, stdout, "steim2")
	requireContains(t, stdout, "360000")

	_, _, err = env.run(t, "inspect", filepath.Join(env.baseDir, "missing.mseed"))
	if exitCode(err) != exitNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryRequiresJournal(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "history")
	if exitCode(err) != exitInvalid {
		t.Fatalf("expected configuration failure, got %v", err)
	}
}

func TestHistoryEmptyJournal(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithJournal())
	stdout, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	requireContains(t, stdout, "No extractions recorded in "+env.cfg.Journal.Path)
}

func TestConfigInitWritesSample(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	target := filepath.Join(dir, "conf", "mseedcut.toml")

	stdout, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	requireContains(t, stdout, target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	_, _, err = runCLI(t, "config", "init", "--path", target)
	if exitCode(err) != exitInvalid {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	if _, _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
}

func TestConfigValidateReportsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	requireContains(t, stdout, env.configPath)
	requireContains(t, stdout, "== Preflight ==")
	requireContains(t, stdout, "[OK]")
	requireContains(t, stdout, "Configuration valid")
}

func TestConfigValidateRejectsBadConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.configPath, []byte("[extract]\nrecord_length = 1000\n"))

	_, _, err := env.run(t, "config", "validate")
	if exitCode(err) != exitInvalid {
		t.Fatalf("expected configuration failure, got %v", err)
	}
}

func TestConfigShowPrintsTOML(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	requireContains(t, stdout, "[paths]")
	requireContains(t, stdout, env.cfg.Paths.InputDir)
}
