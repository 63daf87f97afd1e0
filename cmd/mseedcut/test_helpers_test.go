package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mseedcut/internal/config"
	"mseedcut/internal/testsupport"
)

var testHour = time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MSEEDCUT_INPUT_DIR", "")
	t.Setenv("MSEEDCUT_OUTPUT_DIR", "")

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "mseedcut.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

// writeArchive places the standard one-hour NOM00 archive in the input dir.
func (env *cliTestEnv) writeArchive(t *testing.T) string {
	t.Helper()
	return testsupport.WriteArchive(t, env.cfg.Paths.InputDir, testsupport.ArchiveSpec{
		Station:  "NOM00",
		Channels: []string{"HHZ", "HHN"},
		Rate:     100,
		Start:    testHour,
		Samples:  360000,
	})
}

// run executes the CLI against the environment's config file.
func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", env.configPath}, args...)...)
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	testsupport.WriteFile(t, path, data)
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q\n%s", want, output)
	}
}
