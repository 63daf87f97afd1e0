package extract

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mseedcut/internal/archive"
	"mseedcut/internal/config"
	"mseedcut/internal/logging"
	"mseedcut/internal/mseed"
	"mseedcut/internal/naming"
	"mseedcut/internal/testsupport"
	"mseedcut/internal/timespec"
)

var hourStart = time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)

// nominalArchive spans 14:00:00.000-14:59:59.990 at 100 Hz.
func nominalArchive(t *testing.T, dir string, channels ...string) string {
	t.Helper()
	return testsupport.WriteArchive(t, dir, testsupport.ArchiveSpec{
		Station:  "NOM00",
		Channels: channels,
		Rate:     100,
		Start:    hourStart,
		Samples:  360000,
	})
}

func newExtractor(t *testing.T, opts ...testsupport.ConfigOption) (*Extractor, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	exOpts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	return New(exOpts, logging.NewNop()), cfg
}

func TestExtractNominalWindow(t *testing.T) {
	ex, cfg := newExtractor(t)
	source := nominalArchive(t, t.TempDir())

	req := Request{Start: timespec.MustParse("2024-01-15Z14:30:45.250"), Duration: 60}
	seg, err := ex.Cut(context.Background(), source, req)
	if err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if seg.Samples() != 6001 {
		t.Fatalf("expected 6001 samples, got %d", seg.Samples())
	}
	wantStart := time.Date(2024, 1, 15, 14, 30, 45, 250000000, time.UTC)
	if !seg.Start().Equal(wantStart) || !seg.End().Equal(wantStart.Add(time.Minute)) {
		t.Fatalf("unexpected segment interval %s - %s", seg.Start(), seg.End())
	}

	name := naming.Generate(source, seg.Start())
	if name != "NOM00_20240115_143045.mseed" {
		t.Fatalf("unexpected output name %q", name)
	}
	out := naming.Resolve("", cfg.Paths.OutputDir, name)
	if err := naming.EnsureParent(out); err != nil {
		t.Fatal(err)
	}

	ex.DecideEncoding(seg)
	res, err := ex.Write(context.Background(), seg, out)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.Path != out || len(res.Digest) != 64 || res.Records == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() != res.Bytes || info.Size()%4096 != 0 {
		t.Fatalf("size %d, reported %d", info.Size(), res.Bytes)
	}

	headers, err := archive.ReadHeaders(out, false)
	if err != nil {
		t.Fatalf("read output headers: %v", err)
	}
	if len(headers) != 1 || headers[0].Samples != 6001 || headers[0].Encoding != mseed.EncodingInt32 {
		t.Fatalf("unexpected output headers %+v", headers)
	}
	if !headers[0].Start.Equal(wantStart) || !headers[0].End.Equal(wantStart.Add(time.Minute)) {
		t.Fatalf("output interval %s - %s", headers[0].Start, headers[0].End)
	}

	leftovers, _ := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, ".*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func TestCutOutsideArchiveIsEmpty(t *testing.T) {
	ex, _ := newExtractor(t)
	source := nominalArchive(t, t.TempDir())

	req := Request{Start: timespec.MustParse("2024-01-15Z23:59:50.0"), Duration: 60}
	_, err := ex.Cut(context.Background(), source, req)
	if !errors.Is(err, ErrEmptySegment) {
		t.Fatalf("expected ErrEmptySegment, got %v", err)
	}
	var empty *EmptySegmentError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptySegmentError, got %T", err)
	}
	if !empty.Requested.End.Equal(time.Date(2024, 1, 16, 0, 0, 50, 0, time.UTC)) {
		t.Fatalf("unexpected requested interval %s", empty.Requested)
	}
	if !empty.Available.Start.Equal(hourStart) ||
		!empty.Available.End.Equal(time.Date(2024, 1, 15, 14, 59, 59, 990000000, time.UTC)) {
		t.Fatalf("unexpected available interval %s", empty.Available)
	}
	if empty.ErrorKind() != "no_data" {
		t.Fatalf("unexpected kind %q", empty.ErrorKind())
	}
}

func TestCutRejectsInvalidDuration(t *testing.T) {
	ex, _ := newExtractor(t)
	for _, d := range []float64{0, -5, 1e10, math.Inf(1), math.NaN()} {
		_, err := ex.Cut(context.Background(), "unused.mseed", Request{Start: timespec.MustParse("2024-01-15Z14:00:00"), Duration: d})
		if !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("duration %g: expected ErrInvalidDuration, got %v", d, err)
		}
	}
}

func TestCutWindowPastArchiveEnd(t *testing.T) {
	source := nominalArchive(t, t.TempDir())
	req := Request{Start: timespec.MustParse("2024-01-15Z14:59:30"), Duration: 60}

	ex, _ := newExtractor(t)
	_, err := ex.Cut(context.Background(), source, req)
	if !errors.Is(err, ErrWindowExceedsArchive) {
		t.Fatalf("expected ErrWindowExceedsArchive, got %v", err)
	}

	partial, _ := newExtractor(t, testsupport.WithAllowPartial(true))
	seg, err := partial.Cut(context.Background(), source, req)
	if err != nil {
		t.Fatalf("Cut with allow_partial failed: %v", err)
	}
	if !seg.Partial || seg.Samples() != 3000 {
		t.Fatalf("expected 3000 samples in partial segment, got %d (partial=%v)", seg.Samples(), seg.Partial)
	}
}

func TestCutAllowsWindowEndingWithinOneSample(t *testing.T) {
	ex, _ := newExtractor(t)
	source := nominalArchive(t, t.TempDir())
	req := Request{Start: timespec.MustParse("2024-01-15Z14:59:00"), Duration: 60}
	seg, err := ex.Cut(context.Background(), source, req)
	if err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if seg.Samples() != 6000 || seg.Partial {
		t.Fatalf("unexpected segment: %d samples partial=%v", seg.Samples(), seg.Partial)
	}
}

func TestDecideEncodingSegmentPolicy(t *testing.T) {
	dir := t.TempDir()
	ex, _ := newExtractor(t, testsupport.WithIntegerEncoding("steim2"))

	intSource := nominalArchive(t, dir, "HHZ", "HHN")
	req := Request{Start: timespec.MustParse("2024-01-15Z14:10:00"), Duration: 10}
	seg, err := ex.Cut(context.Background(), intSource, req)
	if err != nil {
		t.Fatal(err)
	}
	ex.DecideEncoding(seg)
	for i, enc := range seg.Encodings {
		if enc != mseed.EncodingSteim2 || seg.Traces[i].Kind != mseed.KindInt {
			t.Fatalf("trace %d: expected steim2 integers, got %s %s", i, enc, seg.Traces[i].Kind)
		}
	}

	seg.Traces[1].ToFloat32()
	ex.DecideEncoding(seg)
	for i, enc := range seg.Encodings {
		if enc != mseed.EncodingFloat32 || seg.Traces[i].Kind != mseed.KindFloat {
			t.Fatalf("trace %d: expected float32, got %s %s", i, enc, seg.Traces[i].Kind)
		}
	}
	if seg.EncodingSummary() != "float32" {
		t.Fatalf("unexpected summary %q", seg.EncodingSummary())
	}
}

func TestDecideEncodingChannelPolicy(t *testing.T) {
	ex, _ := newExtractor(t, testsupport.WithEncodingPolicy(config.EncodingPolicyChannel))
	source := nominalArchive(t, t.TempDir(), "HHZ", "HHN")
	seg, err := ex.Cut(context.Background(), source, Request{Start: timespec.MustParse("2024-01-15Z14:10:00"), Duration: 10})
	if err != nil {
		t.Fatal(err)
	}
	seg.Traces[1].ToFloat32()
	ex.DecideEncoding(seg)
	if seg.Encodings[0] != mseed.EncodingInt32 || seg.Encodings[1] != mseed.EncodingFloat32 {
		t.Fatalf("unexpected encodings %v", seg.Encodings)
	}
	if seg.EncodingSummary() != "int32,float32" {
		t.Fatalf("unexpected summary %q", seg.EncodingSummary())
	}
}

func TestFloatArchiveWritesFloat32(t *testing.T) {
	ex, cfg := newExtractor(t)
	source := testsupport.WriteArchive(t, t.TempDir(), testsupport.ArchiveSpec{
		Station: "FLT01",
		Rate:    20,
		Start:   hourStart,
		Samples: 72000,
		Float:   true,
	})
	seg, err := ex.Cut(context.Background(), source, Request{Start: timespec.MustParse("2024-01-15Z14:20:00"), Duration: 30})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(cfg.Paths.OutputDir, "float.mseed")
	if err := naming.EnsureParent(out); err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Write(context.Background(), seg, out); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	headers, err := archive.ReadHeaders(out, false)
	if err != nil {
		t.Fatal(err)
	}
	if headers[0].Encoding != mseed.EncodingFloat32 || headers[0].Kind != mseed.KindFloat {
		t.Fatalf("unexpected output encoding %s", headers[0].Encoding)
	}
}

func TestReExtractionIsIdempotent(t *testing.T) {
	for _, encoding := range []string{"int32", "steim1", "steim2"} {
		t.Run(encoding, func(t *testing.T) {
			ex, cfg := newExtractor(t, testsupport.WithIntegerEncoding(encoding))
			source := nominalArchive(t, t.TempDir(), "HHZ", "HHE")
			req := Request{Start: timespec.MustParse("2024-01-15Z14:30:45.253"), Duration: 12.5}

			first, err := ex.Cut(context.Background(), source, req)
			if err != nil {
				t.Fatal(err)
			}
			out := filepath.Join(cfg.Paths.OutputDir, naming.Generate(source, first.Start()))
			if err := naming.EnsureParent(out); err != nil {
				t.Fatal(err)
			}
			if _, err := ex.Write(context.Background(), first, out); err != nil {
				t.Fatal(err)
			}

			second, err := ex.Cut(context.Background(), out, req)
			if err != nil {
				t.Fatalf("re-extraction failed: %v", err)
			}
			if len(second.Traces) != len(first.Traces) {
				t.Fatalf("channel count changed: %d vs %d", len(second.Traces), len(first.Traces))
			}
			for i := range first.Traces {
				diff := first.Traces[i].Len() - second.Traces[i].Len()
				if diff < 0 || diff > 1 {
					t.Fatalf("channel %s: %d then %d samples", first.Traces[i].SourceID(), first.Traces[i].Len(), second.Traces[i].Len())
				}
			}
		})
	}
}

func TestWriteFailureLeavesNoFiles(t *testing.T) {
	ex, _ := newExtractor(t)
	source := nominalArchive(t, t.TempDir())
	seg, err := ex.Cut(context.Background(), source, Request{Start: timespec.MustParse("2024-01-15Z14:10:00"), Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	seg.Traces[0].SampleRate = 0

	dir := t.TempDir()
	_, err = ex.Write(context.Background(), seg, filepath.Join(dir, "bad.mseed"))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty directory after failure, found %d entries", len(entries))
	}
}

func TestWriteMissingDirectoryFails(t *testing.T) {
	ex, _ := newExtractor(t)
	source := nominalArchive(t, t.TempDir())
	seg, err := ex.Cut(context.Background(), source, Request{Start: timespec.MustParse("2024-01-15Z14:10:00"), Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	_, err = ex.Write(context.Background(), seg, filepath.Join(t.TempDir(), "missing", "out.mseed"))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestCutSnapsEachChannelAtItsOwnRate(t *testing.T) {
	ex, cfg := newExtractor(t)
	source := testsupport.WriteArchive(t, t.TempDir(), testsupport.ArchiveSpec{
		Station:  "MIX00",
		Channels: []string{"HHZ", "LHZ"},
		Rate:     100,
		Rates:    []float64{100, 3},
		Offsets:  []time.Duration{0, 7 * time.Millisecond},
		Start:    hourStart,
		Samples:  360000,
	})

	req := Request{Start: timespec.MustParse("2024-01-15Z14:30:45.250"), Duration: 60}
	seg, err := ex.Cut(context.Background(), source, req)
	if err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if len(seg.Traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(seg.Traces))
	}

	want := []struct {
		channel    string
		samples    int
		start, end string
		first      int32
	}{
		{"HHZ", 6001, "2024-01-15Z14:30:45.250000", "2024-01-15Z14:31:45.250000", 84525},
		{"LHZ", 181, "2024-01-15Z14:30:45.340333", "2024-01-15Z14:31:45.340333", 6536},
	}
	for i, w := range want {
		tr := seg.Traces[i]
		if tr.Channel != w.channel || tr.Len() != w.samples {
			t.Fatalf("trace %d: got %s with %d samples, want %s with %d", i, tr.Channel, tr.Len(), w.channel, w.samples)
		}
		if got := timespec.Format(tr.Start); got != w.start {
			t.Fatalf("%s start %s, want %s", w.channel, got, w.start)
		}
		if got := timespec.Format(tr.End()); got != w.end {
			t.Fatalf("%s end %s, want %s", w.channel, got, w.end)
		}
		if tr.Ints[0] != w.first {
			t.Fatalf("%s first sample %d, want %d", w.channel, tr.Ints[0], w.first)
		}
	}

	out := naming.Resolve("", cfg.Paths.OutputDir, naming.Generate(source, seg.Start()))
	if err := naming.EnsureParent(out); err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Write(context.Background(), seg, out); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	headers, err := archive.ReadHeaders(out, false)
	if err != nil {
		t.Fatalf("read output headers: %v", err)
	}
	if len(headers) != 2 {
		t.Fatalf("expected 2 output channels, got %d", len(headers))
	}
	for i, w := range want {
		h := headers[i]
		if h.Channel != w.channel || h.Samples != w.samples {
			t.Fatalf("output %d: got %s with %d samples", i, h.Channel, h.Samples)
		}
		if timespec.Format(h.Start) != w.start || timespec.Format(h.End) != w.end {
			t.Fatalf("output %s interval %s - %s, want %s - %s", w.channel,
				timespec.Format(h.Start), timespec.Format(h.End), w.start, w.end)
		}
	}
}

func TestCutIgnoresLogChannelRecords(t *testing.T) {
	ex, _ := newExtractor(t)
	source := testsupport.WriteArchive(t, t.TempDir(), testsupport.ArchiveSpec{
		Station: "LOG00",
		Rate:    100,
		Start:   hourStart,
		Samples: 360000,
		Log:     "GPS lock regained",
	})

	req := Request{Start: timespec.MustParse("2024-01-15Z14:30:45.250"), Duration: 60}
	seg, err := ex.Cut(context.Background(), source, req)
	if err != nil {
		t.Fatalf("Cut failed on archive with a log record: %v", err)
	}
	if len(seg.Traces) != 1 || seg.Traces[0].Channel != "HHZ" {
		t.Fatalf("expected only the HHZ trace, got %d traces", len(seg.Traces))
	}
	if seg.Samples() != 6001 {
		t.Fatalf("expected 6001 samples, got %d", seg.Samples())
	}

	headers, err := archive.ReadHeaders(source, false)
	if err != nil {
		t.Fatalf("ReadHeaders failed: %v", err)
	}
	if len(headers) != 1 || headers[0].Channel != "HHZ" {
		t.Fatalf("unexpected headers %+v", headers)
	}
}
