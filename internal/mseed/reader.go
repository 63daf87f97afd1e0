package mseed

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// SkippedRecord describes a record left out because its payload is not
// numeric samples, such as an ASCII log channel.
type SkippedRecord struct {
	SourceID string
	Sequence string
	Start    time.Time
	Encoding Encoding
}

// ReadOption adjusts ReadHeaders and Read.
type ReadOption func(*readConfig)

type readConfig struct {
	onSkip func(SkippedRecord)
}

// OnSkip registers fn to be told about every skipped record.
func OnSkip(fn func(SkippedRecord)) ReadOption {
	return func(c *readConfig) {
		c.onSkip = fn
	}
}

func newReadConfig(opts []ReadOption) *readConfig {
	cfg := &readConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// skipNonNumeric reports whether the record carries samples this package
// cannot decode, notifying the skip hook when it does.
func (c *readConfig) skipNonNumeric(h recordHeader) bool {
	if h.numSamples == 0 {
		return false
	}
	if _, ok := h.encoding.Kind(); ok {
		return false
	}
	if c.onSkip != nil {
		c.onSkip(SkippedRecord{SourceID: h.sourceID(), Sequence: h.sequence, Start: h.start, Encoding: h.encoding})
	}
	return true
}

// ReadHeaders scans every record header in r without decoding sample data.
// Contiguous records of the same channel are summarised as one TraceHeader,
// in order of first appearance. Records in non-numeric encodings are skipped.
func ReadHeaders(r io.Reader, opts ...ReadOption) ([]TraceHeader, error) {
	cfg := newReadConfig(opts)
	var headers []TraceHeader
	err := eachRecord(r, false, func(h recordHeader, _ []byte) error {
		if cfg.skipNonNumeric(h) {
			return nil
		}
		kind, _ := h.encoding.Kind()
		for i := range headers {
			th := &headers[i]
			if th.SourceID() != h.sourceID() || th.Kind != kind || !sameRate(th.SampleRate, h.sampleRate) {
				continue
			}
			if !continues(th.End, th.Samples, h) {
				continue
			}
			if h.numSamples > 0 {
				if th.Samples == 0 {
					th.Start = h.start
				}
				th.End = h.start.Add(sampleOffset(h.numSamples-1, h.sampleRate))
				th.Samples += h.numSamples
			}
			th.Records++
			return nil
		}
		th := TraceHeader{
			Network:    h.network,
			Station:    h.station,
			Location:   h.location,
			Channel:    h.channel,
			Quality:    h.quality,
			SampleRate: h.sampleRate,
			Start:      h.start,
			End:        h.start,
			Samples:    h.numSamples,
			Records:    1,
			Encoding:   h.encoding,
			Kind:       kind,
		}
		if h.numSamples > 0 {
			th.End = h.start.Add(sampleOffset(h.numSamples-1, h.sampleRate))
		}
		headers = append(headers, th)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return headers, nil
}

// Read decodes every record in r. Records continuing an existing trace of
// the same channel, rate and data kind are appended to it; anything else
// starts a new trace. Records in non-numeric encodings are skipped.
func Read(r io.Reader, opts ...ReadOption) ([]Trace, error) {
	cfg := newReadConfig(opts)
	var traces []Trace
	err := eachRecord(r, true, func(h recordHeader, record []byte) error {
		if h.numSamples == 0 || cfg.skipNonNumeric(h) {
			return nil
		}
		ints, floats, kind, err := decodeSamples(h, record)
		if err != nil {
			return fmt.Errorf("%s record %s: %w", h.sourceID(), h.sequence, err)
		}
		for i := range traces {
			tr := &traces[i]
			if tr.SourceID() != h.sourceID() || tr.Kind != kind || !sameRate(tr.SampleRate, h.sampleRate) {
				continue
			}
			if !continues(tr.End(), tr.Len(), h) {
				continue
			}
			if kind == KindFloat {
				tr.Floats = append(tr.Floats, floats...)
			} else {
				tr.Ints = append(tr.Ints, ints...)
			}
			return nil
		}
		traces = append(traces, Trace{
			Network:    h.network,
			Station:    h.station,
			Location:   h.location,
			Channel:    h.channel,
			Quality:    h.quality,
			SampleRate: h.sampleRate,
			Start:      h.start,
			Encoding:   h.encoding,
			Kind:       kind,
			Ints:       ints,
			Floats:     floats,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return traces, nil
}

// continues reports whether a record starts one sample period after a run
// of n samples ending at last, within half a period.
func continues(last time.Time, n int, h recordHeader) bool {
	if n == 0 {
		return true
	}
	period := samplePeriod(h.sampleRate)
	gap := h.start.Sub(last.Add(period))
	if gap < 0 {
		gap = -gap
	}
	return gap <= period/2
}

func sameRate(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(a, b)
}

// eachRecord walks the records in r. Sample data is only retained when
// withData is set; otherwise the record body is skipped.
func eachRecord(r io.Reader, withData bool, fn func(recordHeader, []byte) error) error {
	lead := make([]byte, leadSize)
	for index := 0; ; index++ {
		n, err := io.ReadFull(r, lead)
		if errors.Is(err, io.EOF) {
			if index == 0 {
				return fmt.Errorf("%w: empty input", ErrNotMiniSEED)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("record %d: truncated (%d bytes): %w", index, n, err)
		}
		h, err := parseHeader(lead)
		if err != nil {
			return fmt.Errorf("record %d: %w", index, err)
		}

		rest := h.recordLength - leadSize
		var record []byte
		switch {
		case withData:
			record = make([]byte, h.recordLength)
			copy(record, lead)
			if _, err := io.ReadFull(r, record[leadSize:]); err != nil {
				return fmt.Errorf("record %d: truncated body: %w", index, err)
			}
		case rest > 0:
			if err := skip(r, int64(rest)); err != nil {
				return fmt.Errorf("record %d: truncated body: %w", index, err)
			}
		}
		if err := fn(h, record); err != nil {
			return err
		}
	}
}

func skip(r io.Reader, n int64) error {
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(n, io.SeekCurrent)
		return err
	}
	copied, err := io.CopyN(io.Discard, r, n)
	if err == nil && copied < n {
		err = io.ErrUnexpectedEOF
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func decodeSamples(h recordHeader, record []byte) ([]int32, []float64, DataKind, error) {
	kind, ok := h.encoding.Kind()
	if !ok {
		return nil, nil, kind, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, h.encoding)
	}
	data := record[h.dataOffset:]
	n := h.numSamples
	order := h.dataOrder

	switch h.encoding {
	case EncodingSteim1, EncodingSteim2:
		level := 1
		if h.encoding == EncodingSteim2 {
			level = 2
		}
		ints, err := decodeSteim(data, n, order, level)
		return ints, nil, KindInt, err
	}

	size := h.encoding.sampleSize()
	if n*size > len(data) {
		return nil, nil, kind, fmt.Errorf("mseed: %d %s samples exceed %d data bytes", n, h.encoding, len(data))
	}
	switch h.encoding {
	case EncodingInt16:
		ints := make([]int32, n)
		for i := range ints {
			ints[i] = int32(int16(order.Uint16(data[i*2:])))
		}
		return ints, nil, KindInt, nil
	case EncodingInt32:
		ints := make([]int32, n)
		for i := range ints {
			ints[i] = int32(order.Uint32(data[i*4:]))
		}
		return ints, nil, KindInt, nil
	case EncodingFloat32:
		floats := make([]float64, n)
		for i := range floats {
			floats[i] = float64(math.Float32frombits(order.Uint32(data[i*4:])))
		}
		return nil, floats, KindFloat, nil
	default:
		floats := make([]float64, n)
		for i := range floats {
			floats[i] = math.Float64frombits(order.Uint64(data[i*8:]))
		}
		return nil, floats, KindFloat, nil
	}
}
