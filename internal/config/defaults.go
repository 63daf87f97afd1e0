package config

const (
	defaultConfigPath      = "~/.config/mseedcut/config.toml"
	defaultInputDir        = "data/input"
	defaultOutputDir       = "data/output"
	defaultExtension       = "mseed"
	defaultRecordLength    = 4096
	defaultIntegerEncoding = "int32"
	defaultEncodingPolicy  = "segment"
	defaultMinFreeMiB      = 16
	defaultJournalPath     = "~/.local/share/mseedcut/journal.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Encoding policies accepted by extract.encoding_policy.
const (
	EncodingPolicySegment = "segment"
	EncodingPolicyChannel = "channel"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
		},
		Archive: Archive{
			Extension:    defaultExtension,
			RespectLocks: true,
		},
		Extract: Extract{
			RecordLength:    defaultRecordLength,
			IntegerEncoding: defaultIntegerEncoding,
			EncodingPolicy:  defaultEncodingPolicy,
			MinFreeMiB:      defaultMinFreeMiB,
		},
		Journal: Journal{
			Path: defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
