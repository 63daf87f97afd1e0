package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"mseedcut/internal/logging"
	"mseedcut/internal/mseed"
	"mseedcut/internal/timespec"
)

// Options tunes candidate selection.
type Options struct {
	// Extension without the leading dot; defaults to DefaultExtension.
	Extension string
	// RespectLocks skips archives a writer holds exclusively.
	RespectLocks bool
	// Station, when set, keeps only archives whose filename station
	// matches case-insensitively.
	Station string
}

// Candidate is an archive file whose name matched the requested date.
type Candidate struct {
	Path   string
	Name   Name
	Start  time.Time
	End    time.Time
	Traces []mseed.TraceHeader
}

// Contains reports whether t lies in [Start, End].
func (c Candidate) Contains(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

// ScanResult lists the readable and skipped candidates for one date.
type ScanResult struct {
	Dir        string
	Date       string
	Candidates []Candidate
	Skipped    []*HeaderReadError
}

// Locator resolves requested instants to archive files in one directory.
type Locator struct {
	dir    string
	opts   Options
	logger *slog.Logger
}

// NewLocator builds a locator for dir.
func NewLocator(dir string, opts Options, logger *slog.Logger) *Locator {
	opts.Extension = strings.TrimPrefix(strings.TrimSpace(opts.Extension), ".")
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	opts.Station = strings.TrimSpace(opts.Station)
	return &Locator{
		dir:    dir,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

// Dir returns the directory being searched.
func (l *Locator) Dir() string {
	return l.dir
}

// Scan reads the headers of every archive named for date (YYYYMMDD), in
// name order. Unreadable candidates are logged and reported in Skipped.
func (l *Locator) Scan(ctx context.Context, date string) (ScanResult, error) {
	result := ScanResult{Dir: l.dir, Date: date}
	info, err := os.Stat(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, &DirNotFoundError{Dir: l.dir}
		}
		return result, fmt.Errorf("inspect input directory: %w", err)
	}
	if !info.IsDir() {
		return result, &DirNotFoundError{Dir: l.dir}
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return result, fmt.Errorf("list input directory: %w", err)
	}
	names := make([]Name, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := ParseName(entry.Name())
		if !ok || !name.matches(date, l.opts.Extension) || !l.stationMatches(name.Station) {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].File < names[j].File })

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path := filepath.Join(l.dir, name.File)
		headers, err := ReadHeaders(path, l.opts.RespectLocks)
		if err != nil {
			skipped := &HeaderReadError{Path: path, Err: err}
			result.Skipped = append(result.Skipped, skipped)
			logging.WarnWithContext(ctx, l.logger, "skipping unreadable archive", "archive_header_read_failed",
				logging.String("source_file", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the file is complete miniSEED and not being written"),
				logging.String(logging.FieldImpact, "candidate excluded from lookup"),
			)
			continue
		}
		primary := headers[0]
		result.Candidates = append(result.Candidates, Candidate{
			Path:   path,
			Name:   name,
			Start:  primary.Start,
			End:    primary.End,
			Traces: headers,
		})
	}
	l.logger.DebugContext(ctx, "archive scan complete",
		logging.String("date", date),
		logging.Int("candidates", len(result.Candidates)),
		logging.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Locate returns the first candidate, in name order, whose header interval
// contains the requested instant. Bounds are inclusive.
func (l *Locator) Locate(ctx context.Context, target timespec.TimeSpec) (Candidate, error) {
	result, err := l.Scan(ctx, target.DateKey())
	if err != nil {
		return Candidate{}, err
	}
	for _, candidate := range result.Candidates {
		if candidate.Contains(target.Instant) {
			l.logger.InfoContext(ctx, "archive located",
				logging.String("source_file", candidate.Path),
				logging.String("target", target.String()),
			)
			return candidate, nil
		}
	}
	return Candidate{}, &NoCoveringArchiveError{
		Target:     target.Instant,
		Date:       result.Date,
		Dir:        l.dir,
		Candidates: result.Candidates,
		Skipped:    len(result.Skipped),
	}
}

func (l *Locator) stationMatches(station string) bool {
	if l.opts.Station == "" {
		return true
	}
	fold := cases.Fold()
	return fold.String(station) == fold.String(l.opts.Station)
}
