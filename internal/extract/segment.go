package extract

import (
	"fmt"
	"time"

	"mseedcut/internal/mseed"
	"mseedcut/internal/timespec"
)

// Interval is a closed time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) String() string {
	return fmt.Sprintf("%s - %s", timespec.Format(i.Start), timespec.Format(i.End))
}

// Request is one extraction window.
type Request struct {
	Start timespec.TimeSpec
	// Duration in seconds; must be positive.
	Duration float64
}

// End returns Start + Duration.
func (r Request) End() time.Time {
	return r.Start.Add(r.Duration).Instant
}

// Segment is the trimmed content of one archive. Traces and Encodings are
// parallel once DecideEncoding has run.
type Segment struct {
	Source    string
	Requested Interval
	Available Interval
	// Partial is set when the window ran past the archive end and the
	// truncated segment was kept.
	Partial   bool
	Traces    []mseed.Trace
	Encodings []mseed.Encoding
}

// Start returns the earliest snapped trace start.
func (s *Segment) Start() time.Time {
	var start time.Time
	for i := range s.Traces {
		if i == 0 || s.Traces[i].Start.Before(start) {
			start = s.Traces[i].Start
		}
	}
	return start
}

// End returns the latest snapped trace end.
func (s *Segment) End() time.Time {
	var end time.Time
	for i := range s.Traces {
		if e := s.Traces[i].End(); i == 0 || e.After(end) {
			end = e
		}
	}
	return end
}

// Samples returns the total sample count across channels.
func (s *Segment) Samples() int {
	total := 0
	for i := range s.Traces {
		total += s.Traces[i].Len()
	}
	return total
}

// Channels returns the NET.STA.LOC.CHA identifier of each trace.
func (s *Segment) Channels() []string {
	ids := make([]string, len(s.Traces))
	for i := range s.Traces {
		ids[i] = s.Traces[i].SourceID()
	}
	return ids
}

// EncodingSummary names the output encodings, e.g. "steim2" or
// "float32,steim2" under the per-channel policy.
func (s *Segment) EncodingSummary() string {
	seen := make(map[mseed.Encoding]bool, len(s.Encodings))
	out := ""
	for _, enc := range s.Encodings {
		if seen[enc] {
			continue
		}
		seen[enc] = true
		if out != "" {
			out += ","
		}
		out += enc.String()
	}
	return out
}
