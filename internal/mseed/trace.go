package mseed

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TraceHeader summarises one contiguous channel run from record headers.
type TraceHeader struct {
	Network    string
	Station    string
	Location   string
	Channel    string
	Quality    byte
	SampleRate float64
	Start      time.Time
	End        time.Time
	Samples    int
	Records    int
	Encoding   Encoding
	Kind       DataKind
}

// SourceID returns the NET.STA.LOC.CHA identifier.
func (h TraceHeader) SourceID() string {
	return sourceID(h.Network, h.Station, h.Location, h.Channel)
}

// Trace is a contiguous run of samples for one channel. Integer data lives
// in Ints and floating point data in Floats; Kind selects which.
type Trace struct {
	Network    string
	Station    string
	Location   string
	Channel    string
	Quality    byte
	SampleRate float64
	Start      time.Time
	Encoding   Encoding
	Kind       DataKind
	Ints       []int32
	Floats     []float64
}

// SourceID returns the NET.STA.LOC.CHA identifier.
func (t *Trace) SourceID() string {
	return sourceID(t.Network, t.Station, t.Location, t.Channel)
}

// Len returns the sample count.
func (t *Trace) Len() int {
	if t.Kind == KindFloat {
		return len(t.Floats)
	}
	return len(t.Ints)
}

// End returns the time of the last sample, start + (n-1)/rate.
func (t *Trace) End() time.Time {
	n := t.Len()
	if n == 0 {
		return t.Start
	}
	return t.Start.Add(sampleOffset(n-1, t.SampleRate))
}

// Header summarises the trace in TraceHeader form.
func (t *Trace) Header() TraceHeader {
	return TraceHeader{
		Network:    t.Network,
		Station:    t.Station,
		Location:   t.Location,
		Channel:    t.Channel,
		Quality:    t.Quality,
		SampleRate: t.SampleRate,
		Start:      t.Start,
		End:        t.End(),
		Samples:    t.Len(),
		Encoding:   t.Encoding,
		Kind:       t.Kind,
	}
}

// Clone returns a deep copy of the trace.
func (t *Trace) Clone() Trace {
	out := *t
	if t.Ints != nil {
		out.Ints = append([]int32(nil), t.Ints...)
	}
	if t.Floats != nil {
		out.Floats = append([]float64(nil), t.Floats...)
	}
	return out
}

// Trim restricts the trace to [start, end]. Each bound moves to the sample
// nearest to it, rounding half away from zero. It reports whether any
// samples remain.
func (t *Trace) Trim(start, end time.Time) bool {
	n := t.Len()
	if n == 0 || t.SampleRate <= 0 || end.Before(start) {
		t.truncate(0, 0)
		return false
	}
	if end.Before(t.Start) || start.After(t.End()) {
		t.truncate(0, 0)
		return false
	}
	if start.After(t.Start) {
		delta := int(math.Round(start.Sub(t.Start).Seconds() * t.SampleRate))
		if delta >= n {
			t.truncate(0, 0)
			return false
		}
		if delta > 0 {
			t.Start = t.Start.Add(sampleOffset(delta, t.SampleRate))
			t.truncate(delta, n)
			n -= delta
		}
	}
	if last := t.End(); end.Before(last) {
		delta := int(math.Round(last.Sub(end).Seconds() * t.SampleRate))
		if delta >= n {
			t.truncate(0, 0)
			return false
		}
		if delta > 0 {
			t.truncate(0, n-delta)
		}
	}
	return t.Len() > 0
}

// ToFloat32 converts the samples to single precision floating point.
func (t *Trace) ToFloat32() {
	var out []float64
	if t.Kind == KindFloat {
		out = make([]float64, len(t.Floats))
		for i, v := range t.Floats {
			out[i] = float64(float32(v))
		}
	} else {
		out = make([]float64, len(t.Ints))
		for i, v := range t.Ints {
			out[i] = float64(float32(v))
		}
	}
	t.Kind = KindFloat
	t.Floats = out
	t.Ints = nil
}

func (t *Trace) truncate(from, to int) {
	if t.Kind == KindFloat {
		t.Floats = t.Floats[from:to]
		return
	}
	t.Ints = t.Ints[from:to]
}

// samplePeriod is the nominal spacing between samples.
func samplePeriod(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(time.Second) / rate))
}

// sampleOffset is the offset of sample i from the first sample.
func sampleOffset(i int, rate float64) time.Duration {
	if rate <= 0 || i == 0 {
		return 0
	}
	return time.Duration(math.Round(float64(i) * float64(time.Second) / rate))
}

func sourceID(network, station, location, channel string) string {
	return strings.Join([]string{network, station, location, channel}, ".")
}

func (h TraceHeader) String() string {
	return fmt.Sprintf("%s | %s - %s | %g Hz, %d samples", h.SourceID(),
		h.Start.Format("2006-01-02T15:04:05.000000Z"), h.End.Format("2006-01-02T15:04:05.000000Z"),
		h.SampleRate, h.Samples)
}
