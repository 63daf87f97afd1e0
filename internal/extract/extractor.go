package extract

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"mseedcut/internal/archive"
	"mseedcut/internal/config"
	"mseedcut/internal/logging"
	"mseedcut/internal/mseed"
	"mseedcut/internal/preflight"
)

// Options controls how segments are cut and encoded.
type Options struct {
	IntegerEncoding mseed.Encoding
	// Policy is config.EncodingPolicySegment or config.EncodingPolicyChannel.
	Policy       string
	RecordLength int
	AllowPartial bool
	RespectLocks bool
	// MinFreeBytes is kept free on the destination filesystem on top of
	// the segment size.
	MinFreeBytes uint64
}

// OptionsFromConfig maps the [extract] and [archive] sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	enc, err := mseed.ParseEncoding(cfg.Extract.IntegerEncoding)
	if err != nil {
		return Options{}, err
	}
	if kind, _ := enc.Kind(); kind != mseed.KindInt || !enc.Writable() {
		return Options{}, fmt.Errorf("integer encoding %s is not a writable integer encoding", enc)
	}
	return Options{
		IntegerEncoding: enc,
		Policy:          cfg.Extract.EncodingPolicy,
		RecordLength:    cfg.Extract.RecordLength,
		AllowPartial:    cfg.Extract.AllowPartial,
		RespectLocks:    cfg.Archive.RespectLocks,
		MinFreeBytes:    uint64(cfg.Extract.MinFreeMiB) * 1024 * 1024,
	}, nil
}

// Result describes a written segment file.
type Result struct {
	Path    string
	Records int
	Bytes   int64
	// Digest is the hex BLAKE3 hash of the file contents.
	Digest string
}

// Extractor cuts and writes segments.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New builds an extractor.
func New(opts Options, logger *slog.Logger) *Extractor {
	if opts.IntegerEncoding == 0 {
		opts.IntegerEncoding = mseed.EncodingInt32
	}
	if opts.Policy == "" {
		opts.Policy = config.EncodingPolicySegment
	}
	if opts.RecordLength == 0 {
		opts.RecordLength = mseed.DefaultRecordLength
	}
	return &Extractor{opts: opts, logger: logging.NewComponentLogger(logger, "extract")}
}

// Cut reads the archive at path and trims every trace to the request
// window. It does not write anything.
func (e *Extractor) Cut(ctx context.Context, path string, req Request) (*Segment, error) {
	if err := ValidateDuration(req.Duration); err != nil {
		return nil, err
	}
	traces, err := archive.ReadTraces(path, e.opts.RespectLocks, mseed.OnSkip(func(rec mseed.SkippedRecord) {
		e.logger.DebugContext(ctx, "skipping non-numeric record",
			logging.String("channel", rec.SourceID),
			logging.String("record", rec.Sequence),
			logging.String("encoding", rec.Encoding.String()),
		)
	}))
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seg := &Segment{
		Source:    path,
		Requested: Interval{Start: req.Start.Instant, End: req.End()},
	}
	if len(traces) > 0 {
		seg.Available = Interval{Start: traces[0].Start, End: traces[0].End()}
	}

	for i := range traces {
		tr := traces[i]
		if !tr.Trim(seg.Requested.Start, seg.Requested.End) {
			e.logger.DebugContext(ctx, "channel has no samples in window",
				logging.String("channel", tr.SourceID()),
			)
			continue
		}
		e.logger.DebugContext(ctx, "channel trimmed", logging.String("trace", tr.Header().String()))
		seg.Traces = append(seg.Traces, tr)
	}
	if len(seg.Traces) == 0 {
		return nil, &EmptySegmentError{Source: path, Requested: seg.Requested, Available: seg.Available}
	}

	if period := primaryPeriod(traces); seg.Requested.End.Sub(seg.Available.End) > period {
		if !e.opts.AllowPartial {
			return nil, &WindowError{Source: path, Requested: seg.Requested, Available: seg.Available}
		}
		seg.Partial = true
		logging.WarnWithContext(ctx, e.logger, "window extends beyond archive; keeping truncated segment", "segment_truncated",
			logging.String("source_file", path),
			logging.String("requested", seg.Requested.String()),
			logging.String("available", seg.Available.String()),
			logging.String(logging.FieldErrorHint, "extract the remainder from the next archive"),
			logging.String(logging.FieldImpact, "segment shorter than requested"),
		)
	}

	e.logger.InfoContext(ctx, "segment cut",
		logging.String("source_file", path),
		logging.Int("channels", len(seg.Traces)),
		logging.Int("samples", seg.Samples()),
	)
	return seg, nil
}

func primaryPeriod(traces []mseed.Trace) time.Duration {
	if len(traces) == 0 || traces[0].SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / traces[0].SampleRate)
}

// DecideEncoding picks output encodings and converts samples to match.
// Under the segment policy one float trace forces FLOAT32 on every trace;
// otherwise all traces use the configured integer encoding. The channel
// policy makes the same decision per trace.
func (e *Extractor) DecideEncoding(seg *Segment) {
	seg.Encodings = make([]mseed.Encoding, len(seg.Traces))
	anyFloat := false
	for i := range seg.Traces {
		if seg.Traces[i].Kind == mseed.KindFloat {
			anyFloat = true
		}
	}
	for i := range seg.Traces {
		tr := &seg.Traces[i]
		useFloat := anyFloat
		if e.opts.Policy == config.EncodingPolicyChannel {
			useFloat = tr.Kind == mseed.KindFloat
		}
		if useFloat {
			tr.ToFloat32()
			seg.Encodings[i] = mseed.EncodingFloat32
			continue
		}
		seg.Encodings[i] = e.opts.IntegerEncoding
	}
}

// Write encodes the segment to outputPath through a temporary file in the
// same directory. The parent directory must exist. On failure the
// temporary file is removed and the error wraps ErrWrite.
func (e *Extractor) Write(ctx context.Context, seg *Segment, outputPath string) (Result, error) {
	if len(seg.Encodings) != len(seg.Traces) {
		e.DecideEncoding(seg)
	}
	res, err := e.write(seg, outputPath)
	if err != nil {
		logging.ErrorWithContext(ctx, e.logger, "segment write failed", "segment_write_failed",
			logging.String("output_file", outputPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions and free space in the output directory"),
		)
		return Result{}, &WriteError{Path: outputPath, Err: err}
	}
	e.logger.InfoContext(ctx, "segment written",
		logging.String("output_file", res.Path),
		logging.Int("records", res.Records),
		logging.Int64("bytes", res.Bytes),
		logging.String("encoding", seg.EncodingSummary()),
	)
	return res, nil
}

func (e *Extractor) write(seg *Segment, outputPath string) (Result, error) {
	dir := filepath.Dir(outputPath)
	if err := preflight.EnsureSpace(dir, estimateSize(seg, e.opts.RecordLength)+e.opts.MinFreeBytes); err != nil {
		return Result{}, err
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(outputPath)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Result{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := blake3.New()
	buffered := bufio.NewWriter(f)
	counter := &countingWriter{w: io.MultiWriter(buffered, hasher)}
	writer, err := mseed.NewWriter(counter, e.opts.RecordLength)
	if err != nil {
		return Result{}, err
	}
	for i := range seg.Traces {
		if err := writer.WriteTrace(&seg.Traces[i], seg.Encodings[i]); err != nil {
			return Result{}, err
		}
	}
	if err := buffered.Flush(); err != nil {
		return Result{}, err
	}
	if err := f.Sync(); err != nil {
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		return Result{}, err
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return Result{}, err
	}
	committed = true

	return Result{
		Path:    outputPath,
		Records: writer.Records(),
		Bytes:   counter.n,
		Digest:  hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// estimateSize bounds the output size. Five bytes per sample covers the
// least dense Steim packing as well as FLOAT32 and INT32.
func estimateSize(seg *Segment, recordLength int) uint64 {
	if recordLength <= 0 {
		recordLength = mseed.DefaultRecordLength
	}
	payload := recordLength - 64
	var total uint64
	for i := range seg.Traces {
		bytes := seg.Traces[i].Len() * 5
		records := (bytes + payload - 1) / payload
		total += uint64(records * recordLength)
	}
	return total
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
