package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeArchive()
	c.normalizeExtract()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MSEEDCUT_INPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.InputDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("MSEEDCUT_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	var err error
	if c.Paths.InputDir, err = expandPath(strings.TrimSpace(c.Paths.InputDir)); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() {
	ext := strings.TrimSpace(c.Archive.Extension)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = defaultExtension
	}
	c.Archive.Extension = ext
}

func (c *Config) normalizeExtract() {
	if c.Extract.RecordLength == 0 {
		c.Extract.RecordLength = defaultRecordLength
	}
	c.Extract.IntegerEncoding = strings.ToLower(strings.TrimSpace(c.Extract.IntegerEncoding))
	if c.Extract.IntegerEncoding == "" {
		c.Extract.IntegerEncoding = defaultIntegerEncoding
	}
	c.Extract.EncodingPolicy = strings.ToLower(strings.TrimSpace(c.Extract.EncodingPolicy))
	if c.Extract.EncodingPolicy == "" {
		c.Extract.EncodingPolicy = defaultEncodingPolicy
	}
	if c.Extract.MinFreeMiB < 0 {
		c.Extract.MinFreeMiB = 0
	}
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(strings.TrimSpace(c.Journal.Path)); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
