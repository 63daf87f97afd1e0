package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mseedcut/internal/archive"
	"mseedcut/internal/config"
	"mseedcut/internal/extract"
	"mseedcut/internal/journal"
	"mseedcut/internal/logging"
	"mseedcut/internal/naming"
	"mseedcut/internal/timespec"
)

type extractFlags struct {
	start        string
	duration     float64
	input        string
	output       string
	station      string
	allowPartial bool
}

// extractSummary is printed on success.
type extractSummary struct {
	RequestID  string   `json:"request_id"`
	InputFile  string   `json:"input_file"`
	OutputFile string   `json:"output_file"`
	Channels   []string `json:"channels"`
	Samples    int      `json:"total_samples"`
	Encoding   string   `json:"encoding"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Partial    bool     `json:"partial"`
	Records    int      `json:"records"`
	Bytes      int64    `json:"bytes"`
	Digest     string   `json:"blake3"`
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a time window from the covering archive into a new file",
		Example: `  mseedcut extract --start 2024-01-15Z14:30:45.250 --duration 60
  mseedcut extract -s 2024-01-15Z14:30:45 -d 600 -o /tmp/segments/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flags.start) == "" {
				return newUsageError("--start is required")
			}
			if !cmd.Flags().Changed("duration") {
				return newUsageError("--duration is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			summary, err := runExtract(cmd.Context(), cfg, logger, flags)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}
			printExtractSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.start, "start", "s", "", "Window start, e.g. 2024-01-15Z14:30:45.250 (UTC)")
	cmd.Flags().Float64VarP(&flags.duration, "duration", "d", 0, "Window length in seconds")
	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Archive directory (defaults to paths.input_dir)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file or directory (defaults to paths.output_dir)")
	cmd.Flags().StringVar(&flags.station, "station", "", "Only consider archives of this station")
	cmd.Flags().BoolVar(&flags.allowPartial, "allow-partial", false, "Keep a truncated segment when the window runs past the archive end")
	return cmd
}

// runExtract parses, locates, cuts, names, writes and journals one request.
func runExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger, flags extractFlags) (summary extractSummary, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "cli"))
	summary.RequestID = requestID

	defer func() {
		recordJournal(ctx, cfg, log, flags, summary, err)
	}()

	start, err := timespec.Parse(flags.start)
	if err != nil {
		return summary, err
	}
	if err := extract.ValidateDuration(flags.duration); err != nil {
		return summary, err
	}

	inputDir, err := expandOr(flags.input, cfg.Paths.InputDir)
	if err != nil {
		return summary, newUsageError("resolve input directory: %v", err)
	}
	outputArg, err := expandOr(flags.output, "")
	if err != nil {
		return summary, newUsageError("resolve output path: %v", err)
	}

	locator := archive.NewLocator(inputDir, archive.Options{
		Extension:    cfg.Archive.Extension,
		RespectLocks: cfg.Archive.RespectLocks,
		Station:      flags.station,
	}, logger)
	candidate, err := locator.Locate(logging.WithStage(ctx, "locate"), start)
	if err != nil {
		return summary, err
	}
	summary.InputFile = candidate.Path

	opts, err := extract.OptionsFromConfig(cfg)
	if err != nil {
		return summary, &configError{err: err}
	}
	if flags.allowPartial {
		opts.AllowPartial = true
	}
	extractor := extract.New(opts, logger)

	seg, err := extractor.Cut(logging.WithStage(ctx, "cut"), candidate.Path, extract.Request{Start: start, Duration: flags.duration})
	if err != nil {
		return summary, err
	}
	extractor.DecideEncoding(seg)

	outputPath := naming.Resolve(outputArg, cfg.Paths.OutputDir, naming.Generate(candidate.Path, seg.Start()))
	if err := naming.EnsureParent(outputPath); err != nil {
		return summary, &extract.WriteError{Path: outputPath, Err: err}
	}
	result, err := extractor.Write(logging.WithStage(ctx, "write"), seg, outputPath)
	if err != nil {
		return summary, err
	}

	summary.OutputFile = result.Path
	summary.Channels = seg.Channels()
	summary.Samples = seg.Samples()
	summary.Encoding = seg.EncodingSummary()
	summary.Start = timespec.Format(seg.Start())
	summary.End = timespec.Format(seg.End())
	summary.Partial = seg.Partial
	summary.Records = result.Records
	summary.Bytes = result.Bytes
	summary.Digest = result.Digest
	log.Info("extraction complete",
		logging.String("source_file", summary.InputFile),
		logging.String("output_file", summary.OutputFile),
		logging.Int("samples", summary.Samples),
	)
	return summary, nil
}

// recordJournal stores the attempt when the journal is enabled. Journal
// failures are logged and never fail the extraction.
func recordJournal(ctx context.Context, cfg *config.Config, log *slog.Logger, flags extractFlags, summary extractSummary, runErr error) {
	if cfg == nil || !cfg.Journal.Enabled {
		return
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logging.WarnWithContext(ctx, log, "journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check journal.path or disable the journal"),
			logging.String(logging.FieldImpact, "extraction not recorded"),
		)
		return
	}
	defer store.Close()

	entry := journal.Entry{
		RequestID:  summary.RequestID,
		Status:     journal.StatusSucceeded,
		Start:      flags.start,
		Duration:   journalSeconds(flags.duration),
		InputFile:  summary.InputFile,
		OutputFile: summary.OutputFile,
		Channels:   summary.Channels,
		Samples:    summary.Samples,
		Encoding:   summary.Encoding,
		Digest:     summary.Digest,
	}
	if runErr != nil {
		entry.Status = journal.StatusFailed
		entry.ErrorKind = errorKind(runErr)
		entry.ErrorMessage = runErr.Error()
	}
	if _, err := store.Record(ctx, entry); err != nil {
		logging.WarnWithContext(ctx, log, "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "extraction not recorded"),
		)
	}
}

// journalSeconds keeps rejected non-finite durations out of the REAL column.
func journalSeconds(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return seconds
}

func printExtractSummary(out io.Writer, s extractSummary) {
	lines := [][2]string{
		{"Input file", s.InputFile},
		{"Output file", s.OutputFile},
		{"Channels", strings.Join(s.Channels, ", ")},
		{"Total samples", fmt.Sprintf("%d", s.Samples)},
		{"Encoding", s.Encoding},
		{"Interval", s.Start + " - " + s.End},
		{"BLAKE3", s.Digest},
	}
	for _, line := range lines {
		fmt.Fprintf(out, "%-14s %s\n", line[0]+":", line[1])
	}
	if s.Partial {
		fmt.Fprintln(out, "Note: window ran past the archive end; segment is truncated")
	}
}
