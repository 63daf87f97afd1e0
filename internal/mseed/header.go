package mseed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	fixedHeaderSize = 48
	// leadSize is read before the record length is known.
	leadSize = 128

	minRecordLength = 128
	maxRecordLength = 1 << 16

	blocketteDataOnly  = 1000
	blocketteDataExt   = 1001
	blocketteSampleRat = 100

	// activityTimeCorrected marks records whose start already includes
	// the header time correction.
	activityTimeCorrected = 0x02
)

var (
	// ErrNotMiniSEED is returned when a record does not carry a plausible
	// miniSEED 2 fixed header.
	ErrNotMiniSEED = errors.New("mseed: not a miniSEED 2 record")
	// ErrUnsupportedEncoding is returned for data encodings that cannot be decoded.
	ErrUnsupportedEncoding = errors.New("mseed: unsupported data encoding")
)

// recordHeader is the decoded fixed header plus the blockettes this
// package understands.
type recordHeader struct {
	sequence     string
	quality      byte
	network      string
	station      string
	location     string
	channel      string
	start        time.Time
	numSamples   int
	sampleRate   float64
	activity     byte
	dataOffset   int
	encoding     Encoding
	dataOrder    binary.ByteOrder
	recordLength int
	frames       int
}

func (h *recordHeader) sourceID() string {
	return sourceID(h.network, h.station, h.location, h.channel)
}

// parseHeader decodes the fixed header and blockettes found in buf, which
// must hold at least the first leadSize bytes of a record.
func parseHeader(buf []byte) (recordHeader, error) {
	var h recordHeader
	if len(buf) < fixedHeaderSize {
		return h, fmt.Errorf("%w: short header (%d bytes)", ErrNotMiniSEED, len(buf))
	}
	if buf[0] == 'M' && buf[1] == 'S' && buf[2] == 3 {
		return h, fmt.Errorf("%w: miniSEED 3 records are not supported", ErrNotMiniSEED)
	}
	switch buf[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return h, fmt.Errorf("%w: invalid quality indicator %q", ErrNotMiniSEED, buf[6])
	}

	order := headerByteOrder(buf)
	if order == nil {
		return h, fmt.Errorf("%w: implausible start time", ErrNotMiniSEED)
	}

	h.sequence = strings.TrimSpace(string(buf[0:6]))
	h.quality = buf[6]
	h.station = strings.TrimSpace(string(buf[8:13]))
	h.location = strings.TrimSpace(string(buf[13:15]))
	h.channel = strings.TrimSpace(string(buf[15:18]))
	h.network = strings.TrimSpace(string(buf[18:20]))
	h.start = decodeBTime(buf[20:30], order)
	h.numSamples = int(order.Uint16(buf[30:32]))
	h.sampleRate = sampleRateFromFactors(int16(order.Uint16(buf[32:34])), int16(order.Uint16(buf[34:36])))
	h.activity = buf[36]
	numBlockettes := int(buf[39])
	timeCorrection := int32(order.Uint32(buf[40:44]))
	h.dataOffset = int(order.Uint16(buf[44:46]))
	blocketteOffset := int(order.Uint16(buf[46:48]))

	if timeCorrection != 0 && h.activity&activityTimeCorrected == 0 {
		h.start = h.start.Add(time.Duration(timeCorrection) * 100 * time.Microsecond)
	}

	h.dataOrder = binary.BigEndian
	seen := 0
	for offset := blocketteOffset; offset != 0 && seen < numBlockettes; seen++ {
		if offset < fixedHeaderSize || offset+4 > len(buf) {
			break
		}
		kind := order.Uint16(buf[offset:])
		next := int(order.Uint16(buf[offset+2:]))
		switch kind {
		case blocketteDataOnly:
			if offset+8 > len(buf) {
				return h, fmt.Errorf("%w: truncated blockette 1000", ErrNotMiniSEED)
			}
			h.encoding = Encoding(buf[offset+4])
			if buf[offset+5] == 0 {
				h.dataOrder = binary.LittleEndian
			}
			exp := int(buf[offset+6])
			if exp < 7 || exp > 16 {
				return h, fmt.Errorf("%w: record length exponent %d out of range", ErrNotMiniSEED, exp)
			}
			h.recordLength = 1 << exp
		case blocketteDataExt:
			if offset+8 <= len(buf) {
				h.start = h.start.Add(time.Duration(int8(buf[offset+5])) * time.Microsecond)
				h.frames = int(buf[offset+7])
			}
		case blocketteSampleRat:
			if offset+8 <= len(buf) {
				if rate := math.Float32frombits(order.Uint32(buf[offset+4:])); rate > 0 {
					h.sampleRate = float64(rate)
				}
			}
		}
		if next <= offset {
			break
		}
		offset = next
	}

	if h.recordLength == 0 {
		return h, fmt.Errorf("%w: missing blockette 1000", ErrNotMiniSEED)
	}
	if h.numSamples > 0 && (h.dataOffset < fixedHeaderSize || h.dataOffset >= h.recordLength) {
		return h, fmt.Errorf("%w: data offset %d outside record of %d bytes", ErrNotMiniSEED, h.dataOffset, h.recordLength)
	}
	return h, nil
}

// headerByteOrder picks the byte order whose start year and day of year
// are plausible.
func headerByteOrder(buf []byte) binary.ByteOrder {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		year := order.Uint16(buf[20:22])
		doy := order.Uint16(buf[22:24])
		if year >= 1900 && year <= 2500 && doy >= 1 && doy <= 366 {
			return order
		}
	}
	return nil
}

// decodeBTime converts a 10-byte SEED BTIME to UTC.
func decodeBTime(b []byte, order binary.ByteOrder) time.Time {
	year := int(order.Uint16(b[0:2]))
	doy := int(order.Uint16(b[2:4]))
	fract := int(order.Uint16(b[8:10]))
	return time.Date(year, time.January, doy, int(b[4]), int(b[5]), int(b[6]),
		fract*int(100*time.Microsecond), time.UTC)
}

// encodeBTime writes t as a big-endian BTIME and returns the leftover
// microseconds for blockette 1001.
func encodeBTime(b []byte, t time.Time) int8 {
	t = t.UTC().Round(time.Microsecond)
	micros := t.Nanosecond() / int(time.Microsecond)
	binary.BigEndian.PutUint16(b[0:2], uint16(t.Year()))
	binary.BigEndian.PutUint16(b[2:4], uint16(t.YearDay()))
	b[4] = byte(t.Hour())
	b[5] = byte(t.Minute())
	b[6] = byte(t.Second())
	b[7] = 0
	binary.BigEndian.PutUint16(b[8:10], uint16(micros/100))
	return int8(micros % 100)
}

func sampleRateFromFactors(factor, multiplier int16) float64 {
	f, m := float64(factor), float64(multiplier)
	switch {
	case factor > 0 && multiplier > 0:
		return f * m
	case factor > 0 && multiplier < 0:
		return -f / m
	case factor < 0 && multiplier > 0:
		return -m / f
	case factor < 0 && multiplier < 0:
		return 1 / (f * m)
	default:
		return 0
	}
}

// rateFactors finds a factor and multiplier pair that reproduces rate.
func rateFactors(rate float64) (int16, int16, error) {
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return 0, 0, fmt.Errorf("mseed: invalid sample rate %g", rate)
	}
	if rate >= 1 {
		if r := math.Round(rate); r <= math.MaxInt16 && math.Abs(r-rate) <= 1e-9*rate {
			return int16(r), 1, nil
		}
	} else {
		period := 1 / rate
		if r := math.Round(period); r <= math.MaxInt16 && math.Abs(r-period) <= 1e-9*period {
			return -int16(r), 1, nil
		}
	}
	for divisor := 2; divisor <= math.MaxInt16; divisor++ {
		f := rate * float64(divisor)
		r := math.Round(f)
		if r > math.MaxInt16 {
			break
		}
		if r >= 1 && math.Abs(r-f) <= 1e-7*f {
			return int16(r), -int16(divisor), nil
		}
	}
	return 0, 0, fmt.Errorf("mseed: sample rate %g has no factor/multiplier representation", rate)
}
