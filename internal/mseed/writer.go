package mseed

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/bits"
	"time"
)

const (
	// DefaultRecordLength is used when WriteOptions.RecordLength is zero.
	DefaultRecordLength = 4096

	writeDataOffset = 64
	maxRecordCount  = math.MaxUint16
)

// WriteOptions controls record layout.
type WriteOptions struct {
	Encoding     Encoding
	RecordLength int
}

// Write encodes every trace with opts.Encoding.
func Write(w io.Writer, traces []Trace, opts WriteOptions) error {
	wr, err := NewWriter(w, opts.RecordLength)
	if err != nil {
		return err
	}
	for i := range traces {
		if err := wr.WriteTrace(&traces[i], opts.Encoding); err != nil {
			return err
		}
	}
	return nil
}

// Writer packs traces into big-endian fixed-length records carrying
// blockettes 1000 and 1001. Sequence numbers run across traces.
type Writer struct {
	w            io.Writer
	recordLength int
	exponent     byte
	sequence     int
	records      int
}

// NewWriter validates the record length, which must be a power of two
// between 256 and 65536. Zero selects DefaultRecordLength.
func NewWriter(w io.Writer, recordLength int) (*Writer, error) {
	if recordLength == 0 {
		recordLength = DefaultRecordLength
	}
	if recordLength < 256 || recordLength > maxRecordLength || bits.OnesCount(uint(recordLength)) != 1 {
		return nil, fmt.Errorf("mseed: record length %d is not a power of two between 256 and 65536", recordLength)
	}
	return &Writer{
		w:            w,
		recordLength: recordLength,
		exponent:     byte(bits.TrailingZeros(uint(recordLength))),
	}, nil
}

// Records returns the number of records written so far.
func (wr *Writer) Records() int {
	return wr.records
}

// WriteTrace encodes tr with enc. Integer encodings require KindInt
// samples; float encodings accept either kind.
func (wr *Writer) WriteTrace(tr *Trace, enc Encoding) error {
	if !enc.Writable() {
		return fmt.Errorf("%w: cannot write %s", ErrUnsupportedEncoding, enc)
	}
	kind, _ := enc.Kind()
	if kind == KindInt && tr.Kind != KindInt {
		return fmt.Errorf("mseed: %s: cannot encode float samples as %s", tr.SourceID(), enc)
	}
	factor, multiplier, err := rateFactors(tr.SampleRate)
	if err != nil {
		return fmt.Errorf("%s: %w", tr.SourceID(), err)
	}

	n := tr.Len()
	capacity := wr.recordLength - writeDataOffset
	var prev int32
	for pos := 0; pos < n; {
		record := make([]byte, wr.recordLength)
		var count, frames int
		switch enc {
		case EncodingSteim1, EncodingSteim2:
			level := 1
			if enc == EncodingSteim2 {
				level = 2
			}
			end := min(n, pos+maxRecordCount)
			var data []byte
			data, count, frames, err = encodeSteim(tr.Ints[pos:end], prev, pos > 0, capacity/steimFrameSize, level)
			if err != nil {
				return fmt.Errorf("mseed: %s: %w", tr.SourceID(), err)
			}
			copy(record[writeDataOffset:], data)
		default:
			size := enc.sampleSize()
			count = min(n-pos, capacity/size, maxRecordCount)
			putSamples(record[writeDataOffset:], tr, pos, count, enc)
		}

		start := tr.Start.Add(sampleOffset(pos, tr.SampleRate))
		wr.sequence++
		wr.putHeader(record, tr, start, count, factor, multiplier, enc, frames)
		if _, err := wr.w.Write(record); err != nil {
			return fmt.Errorf("mseed: write record %d: %w", wr.sequence, err)
		}
		wr.records++
		if tr.Kind == KindInt {
			prev = tr.Ints[pos+count-1]
		}
		pos += count
	}
	return nil
}

func (wr *Writer) putHeader(record []byte, tr *Trace, start time.Time, count int, factor, multiplier int16, enc Encoding, frames int) {
	be := binary.BigEndian
	copy(record[0:6], fmt.Sprintf("%06d", wr.sequence%1000000))
	quality := tr.Quality
	if quality == 0 {
		quality = 'D'
	}
	record[6] = quality
	record[7] = ' '
	putPadded(record[8:13], tr.Station)
	putPadded(record[13:15], tr.Location)
	putPadded(record[15:18], tr.Channel)
	putPadded(record[18:20], tr.Network)
	micros := encodeBTime(record[20:30], start)
	be.PutUint16(record[30:32], uint16(count))
	be.PutUint16(record[32:34], uint16(factor))
	be.PutUint16(record[34:36], uint16(multiplier))
	record[39] = 2
	be.PutUint16(record[44:46], writeDataOffset)
	be.PutUint16(record[46:48], fixedHeaderSize)

	b1000 := record[48:56]
	be.PutUint16(b1000[0:2], blocketteDataOnly)
	be.PutUint16(b1000[2:4], 56)
	b1000[4] = byte(enc)
	b1000[5] = 1
	b1000[6] = wr.exponent

	b1001 := record[56:64]
	be.PutUint16(b1001[0:2], blocketteDataExt)
	be.PutUint16(b1001[2:4], 0)
	b1001[5] = byte(micros)
	if frames <= math.MaxUint8 {
		b1001[7] = byte(frames)
	}
}

func putSamples(dst []byte, tr *Trace, pos, count int, enc Encoding) {
	be := binary.BigEndian
	for i := 0; i < count; i++ {
		switch enc {
		case EncodingInt32:
			be.PutUint32(dst[i*4:], uint32(tr.Ints[pos+i]))
		case EncodingFloat32:
			be.PutUint32(dst[i*4:], math.Float32bits(float32(sampleAsFloat(tr, pos+i))))
		case EncodingFloat64:
			be.PutUint64(dst[i*8:], math.Float64bits(sampleAsFloat(tr, pos+i)))
		}
	}
}

func sampleAsFloat(tr *Trace, i int) float64 {
	if tr.Kind == KindFloat {
		return tr.Floats[i]
	}
	return float64(tr.Ints[i])
}

func putPadded(dst []byte, value string) {
	for i := range dst {
		if i < len(value) {
			dst[i] = value[i]
		} else {
			dst[i] = ' '
		}
	}
}
