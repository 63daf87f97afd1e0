package testsupport

import (
	"path/filepath"
	"testing"

	"mseedcut/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Journal.Path = filepath.Join(base, "journal", "journal.db")
	cfgVal.Extract.MinFreeMiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithIntegerEncoding overrides extract.integer_encoding.
func WithIntegerEncoding(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extract.IntegerEncoding = name
	}
}

// WithEncodingPolicy overrides extract.encoding_policy.
func WithEncodingPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extract.EncodingPolicy = policy
	}
}

// WithRecordLength overrides extract.record_length.
func WithRecordLength(length int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extract.RecordLength = length
	}
}

// WithAllowPartial toggles extract.allow_partial.
func WithAllowPartial(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extract.AllowPartial = enabled
	}
}

// WithJournal enables the extraction journal under the test base dir.
func WithJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = true
	}
}
