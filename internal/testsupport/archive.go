package testsupport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mseedcut/internal/mseed"
)

// ArchiveSpec describes a synthetic archive file.
type ArchiveSpec struct {
	Network  string
	Station  string
	Location string
	// Channels defaults to a single HHZ channel.
	Channels []string
	Rate     float64
	// Rates overrides Rate per channel index. A channel with its own rate
	// gets Samples scaled so every channel spans the same time.
	Rates []float64
	// Offsets shifts each channel's first sample from Start.
	Offsets []time.Duration
	Start   time.Time
	Samples int
	// Float writes FLOAT32 samples instead of integers.
	Float        bool
	Encoding     mseed.Encoding
	RecordLength int
	// Name overrides the STATION_YYYYMMDD_HHMMSS.mseed filename.
	Name string
	// Log, when set, adds an ASCII LOG channel record before the data.
	Log string
}

// Traces builds the described traces. Sample i of channel c is
// i%100000 + 1000*c so tests can tell channels and positions apart.
func (s ArchiveSpec) Traces() []mseed.Trace {
	channels := s.Channels
	if len(channels) == 0 {
		channels = []string{"HHZ"}
	}
	network := s.Network
	if network == "" {
		network = "XX"
	}
	traces := make([]mseed.Trace, 0, len(channels))
	for c, channel := range channels {
		rate, samples := s.Rate, s.Samples
		if c < len(s.Rates) && s.Rates[c] > 0 && s.Rates[c] != s.Rate {
			rate = s.Rates[c]
			samples = int(float64(s.Samples) * rate / s.Rate)
		}
		start := s.Start
		if c < len(s.Offsets) {
			start = start.Add(s.Offsets[c])
		}
		tr := mseed.Trace{
			Network:    network,
			Station:    s.Station,
			Location:   s.Location,
			Channel:    channel,
			Quality:    'D',
			SampleRate: rate,
			Start:      start,
			Kind:       mseed.KindInt,
			Ints:       make([]int32, samples),
		}
		for i := range tr.Ints {
			tr.Ints[i] = int32(i%100000 + 1000*c)
		}
		if s.Float {
			tr.ToFloat32()
		}
		traces = append(traces, tr)
	}
	return traces
}

// WriteArchive encodes the archive into dir and returns the file path.
func WriteArchive(t testing.TB, dir string, spec ArchiveSpec) string {
	t.Helper()

	encoding := spec.Encoding
	if encoding == 0 {
		encoding = mseed.EncodingSteim2
		if spec.Float {
			encoding = mseed.EncodingFloat32
		}
	}
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s_%s.mseed", spec.Station, spec.Start.UTC().Format("20060102_150405"))
	}

	var buf bytes.Buffer
	if spec.Log != "" {
		buf.Write(LogRecord(spec.Network, spec.Station, spec.Start, spec.Log))
	}
	err := mseed.Write(&buf, spec.Traces(), mseed.WriteOptions{Encoding: encoding, RecordLength: spec.RecordLength})
	if err != nil {
		t.Fatalf("encode archive %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	WriteFile(t, path, buf.Bytes())
	return path
}

// LogRecord builds a 256-byte big-endian ASCII record for the LOG channel.
func LogRecord(network, station string, start time.Time, text string) []byte {
	if network == "" {
		network = "XX"
	}
	start = start.UTC()
	record := make([]byte, 256)
	be := binary.BigEndian
	copy(record[0:8], "000001D ")
	copy(record[8:20], fmt.Sprintf("%-5s  LOG%-2s", station, network))
	be.PutUint16(record[20:22], uint16(start.Year()))
	be.PutUint16(record[22:24], uint16(start.YearDay()))
	record[24], record[25], record[26] = byte(start.Hour()), byte(start.Minute()), byte(start.Second())
	be.PutUint16(record[30:32], uint16(len(text)))
	record[39] = 1
	be.PutUint16(record[44:46], 64)
	be.PutUint16(record[46:48], 48)
	be.PutUint16(record[48:50], 1000)
	record[52] = byte(mseed.EncodingASCII)
	record[53] = 1
	record[54] = 8
	copy(record[64:], text)
	return record
}
