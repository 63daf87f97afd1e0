package config

import (
	"errors"
	"fmt"
)

var integerEncodings = map[string]struct{}{
	"int32":  {},
	"steim1": {},
	"steim2": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.path must be set when journal.enabled is true")
	}
	return nil
}

func (c *Config) validateExtract() error {
	length := c.Extract.RecordLength
	if length < 256 || length > 65536 || length&(length-1) != 0 {
		return fmt.Errorf("extract.record_length must be a power of two between 256 and 65536, got %d", length)
	}
	if _, ok := integerEncodings[c.Extract.IntegerEncoding]; !ok {
		return fmt.Errorf("extract.integer_encoding must be one of int32, steim1, steim2, got %q", c.Extract.IntegerEncoding)
	}
	switch c.Extract.EncodingPolicy {
	case EncodingPolicySegment, EncodingPolicyChannel:
	default:
		return fmt.Errorf("extract.encoding_policy must be %q or %q, got %q", EncodingPolicySegment, EncodingPolicyChannel, c.Extract.EncodingPolicy)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
}
