package mseed

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	steimFrameSize     = 64
	steimWordsPerFrame = 16
)

// ErrSteimRange is returned when a first difference cannot be packed.
var ErrSteimRange = errors.New("mseed: difference exceeds steim range")

// steimPacking describes one way of filling a data word.
type steimPacking struct {
	nibble uint32
	dnib   uint32
	hasDn  bool
	count  int
	bits   uint
}

// Ordered densest first so the encoder can pick greedily.
var (
	steim1Packings = []steimPacking{
		{nibble: 1, count: 4, bits: 8},
		{nibble: 2, count: 2, bits: 16},
		{nibble: 3, count: 1, bits: 32},
	}
	steim2Packings = []steimPacking{
		{nibble: 3, dnib: 2, hasDn: true, count: 7, bits: 4},
		{nibble: 3, dnib: 1, hasDn: true, count: 6, bits: 5},
		{nibble: 3, dnib: 0, hasDn: true, count: 5, bits: 6},
		{nibble: 1, count: 4, bits: 8},
		{nibble: 2, dnib: 3, hasDn: true, count: 3, bits: 10},
		{nibble: 2, dnib: 2, hasDn: true, count: 2, bits: 15},
		{nibble: 2, dnib: 1, hasDn: true, count: 1, bits: 30},
	}
)

// decodeSteim integrates n samples out of the frames in data.
func decodeSteim(data []byte, n int, order binary.ByteOrder, level int) ([]int32, error) {
	if n == 0 {
		return []int32{}, nil
	}
	frames := len(data) / steimFrameSize
	diffs := make([]int32, 0, n+7)
	var x0, xn int32
	for f := 0; f < frames && len(diffs) < n; f++ {
		frame := data[f*steimFrameSize : (f+1)*steimFrameSize]
		ctrl := order.Uint32(frame[0:4])
		for w := 1; w < steimWordsPerFrame; w++ {
			word := order.Uint32(frame[w*4:])
			if f == 0 && w == 1 {
				x0 = int32(word)
				continue
			}
			if f == 0 && w == 2 {
				xn = int32(word)
				continue
			}
			nibble := (ctrl >> (30 - 2*uint(w))) & 0x3
			var err error
			diffs, err = unpackSteimWord(diffs, word, nibble, level)
			if err != nil {
				return nil, fmt.Errorf("frame %d word %d: %w", f, w, err)
			}
		}
	}
	if len(diffs) < n {
		return nil, fmt.Errorf("mseed: steim%d data holds %d of %d samples", level, len(diffs), n)
	}

	out := make([]int32, n)
	out[0] = x0
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + diffs[i]
	}
	if out[n-1] != xn {
		return nil, fmt.Errorf("mseed: steim%d last sample %d does not match reverse integration constant %d", level, out[n-1], xn)
	}
	return out, nil
}

func unpackSteimWord(dst []int32, word, nibble uint32, level int) ([]int32, error) {
	if nibble == 0 {
		return dst, nil
	}
	if level == 1 {
		switch nibble {
		case 1:
			return unpackFields(dst, word, 4, 8), nil
		case 2:
			return unpackFields(dst, word, 2, 16), nil
		default:
			return append(dst, int32(word)), nil
		}
	}
	dnib := word >> 30
	switch nibble {
	case 1:
		return unpackFields(dst, word, 4, 8), nil
	case 2:
		switch dnib {
		case 1:
			return unpackFields(dst, word, 1, 30), nil
		case 2:
			return unpackFields(dst, word, 2, 15), nil
		case 3:
			return unpackFields(dst, word, 3, 10), nil
		}
	case 3:
		switch dnib {
		case 0:
			return unpackFields(dst, word, 5, 6), nil
		case 1:
			return unpackFields(dst, word, 6, 5), nil
		case 2:
			return unpackFields(dst, word, 7, 4), nil
		}
	}
	return dst, fmt.Errorf("mseed: invalid steim2 nibble %d/%d", nibble, dnib)
}

// unpackFields extracts count signed fields of the given width, most
// significant first, from the low count*bits bits of word.
func unpackFields(dst []int32, word uint32, count int, bits uint) []int32 {
	mask := uint32(1)<<bits - 1
	if bits == 32 {
		mask = ^uint32(0)
	}
	sign := uint32(1) << (bits - 1)
	for i := count - 1; i >= 0; i-- {
		v := (word >> (uint(i) * bits)) & mask
		if v&sign != 0 && bits < 32 {
			dst = append(dst, int32(v)-int32(uint32(1)<<bits))
			continue
		}
		dst = append(dst, int32(v))
	}
	return dst
}

// encodeSteim packs as many samples as fit into frames Steim frames.
// prev is the last sample of the preceding record; hasPrev is false for
// the first record of a trace. It returns the frame bytes, the number of
// samples consumed and the number of frames used.
func encodeSteim(samples []int32, prev int32, hasPrev bool, frames, level int) ([]byte, int, int, error) {
	packings := steim1Packings
	if level == 2 {
		packings = steim2Packings
	}
	out := make([]byte, frames*steimFrameSize)
	if len(samples) == 0 {
		return out, 0, 0, nil
	}

	diffs := make([]int32, len(samples))
	if hasPrev {
		diffs[0] = samples[0] - prev
	}
	for i := 1; i < len(samples); i++ {
		diffs[i] = samples[i] - samples[i-1]
	}

	pos := 0
	used := 0
	for f := 0; f < frames && pos < len(diffs); f++ {
		frame := out[f*steimFrameSize : (f+1)*steimFrameSize]
		first := 1
		if f == 0 {
			first = 3
		}
		var ctrl uint32
		for w := first; w < steimWordsPerFrame && pos < len(diffs); w++ {
			word, nibble, consumed, err := packSteimWord(diffs[pos:], packings)
			if err != nil {
				return nil, 0, 0, fmt.Errorf("sample %d: %w", pos, err)
			}
			ctrl |= nibble << (30 - 2*uint(w))
			binary.BigEndian.PutUint32(frame[w*4:], word)
			pos += consumed
		}
		binary.BigEndian.PutUint32(frame[0:4], ctrl)
		used++
	}
	binary.BigEndian.PutUint32(out[4:8], uint32(samples[0]))
	binary.BigEndian.PutUint32(out[8:12], uint32(samples[pos-1]))
	return out, pos, used, nil
}

func packSteimWord(diffs []int32, packings []steimPacking) (uint32, uint32, int, error) {
	for _, p := range packings {
		if p.count > len(diffs) || !fitsAll(diffs[:p.count], p.bits) {
			continue
		}
		var word uint32
		mask := uint32(1)<<p.bits - 1
		if p.bits == 32 {
			mask = ^uint32(0)
		}
		for i := 0; i < p.count; i++ {
			word |= (uint32(diffs[i]) & mask) << (uint(p.count-1-i) * p.bits)
		}
		if p.hasDn {
			word |= p.dnib << 30
		}
		return word, p.nibble, p.count, nil
	}
	return 0, 0, 0, fmt.Errorf("%w: %d", ErrSteimRange, diffs[0])
}

func fitsAll(values []int32, bits uint) bool {
	if bits >= 32 {
		return true
	}
	lo := -(int32(1) << (bits - 1))
	hi := int32(1)<<(bits-1) - 1
	for _, v := range values {
		if v < lo || v > hi {
			return false
		}
	}
	return true
}
