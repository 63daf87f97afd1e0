package mseed

import (
	"fmt"
	"strings"
)

// Encoding is the blockette 1000 data encoding identifier.
type Encoding uint8

const (
	EncodingASCII   Encoding = 0
	EncodingInt16   Encoding = 1
	EncodingInt32   Encoding = 3
	EncodingFloat32 Encoding = 4
	EncodingFloat64 Encoding = 5
	EncodingSteim1  Encoding = 10
	EncodingSteim2  Encoding = 11
)

// DataKind is the numeric domain of a trace's samples.
type DataKind int

const (
	KindInt DataKind = iota
	KindFloat
)

func (k DataKind) String() string {
	if k == KindFloat {
		return "float"
	}
	return "int"
}

var encodingNames = map[Encoding]string{
	EncodingASCII:   "ascii",
	EncodingInt16:   "int16",
	EncodingInt32:   "int32",
	EncodingFloat32: "float32",
	EncodingFloat64: "float64",
	EncodingSteim1:  "steim1",
	EncodingSteim2:  "steim2",
}

func (e Encoding) String() string {
	if name, ok := encodingNames[e]; ok {
		return name
	}
	return fmt.Sprintf("encoding(%d)", uint8(e))
}

// Kind reports the sample domain an encoding decodes to. ok is false for
// encodings this package cannot decode.
func (e Encoding) Kind() (kind DataKind, ok bool) {
	switch e {
	case EncodingInt16, EncodingInt32, EncodingSteim1, EncodingSteim2:
		return KindInt, true
	case EncodingFloat32, EncodingFloat64:
		return KindFloat, true
	default:
		return KindInt, false
	}
}

// Writable reports whether Writer can produce records in this encoding.
func (e Encoding) Writable() bool {
	switch e {
	case EncodingInt32, EncodingFloat32, EncodingFloat64, EncodingSteim1, EncodingSteim2:
		return true
	default:
		return false
	}
}

// ParseEncoding resolves a lower-case encoding name such as "steim2".
func ParseEncoding(name string) (Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for enc, encName := range encodingNames {
		if encName == name {
			return enc, nil
		}
	}
	return 0, fmt.Errorf("mseed: unknown encoding %q", name)
}

// sampleSize returns the fixed byte width of a sample, or 0 for Steim.
func (e Encoding) sampleSize() int {
	switch e {
	case EncodingInt16:
		return 2
	case EncodingInt32, EncodingFloat32:
		return 4
	case EncodingFloat64:
		return 8
	default:
		return 0
	}
}
