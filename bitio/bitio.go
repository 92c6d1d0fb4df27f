// Package bitio provides the bit-level primitives the codec is built on:
// packing and unpacking unsigned integers and fixed-width ASCII strings at
// arbitrary bit offsets in a big-endian byte buffer.
//
// Every other package in this module goes through bitio rather than
// touching raw bytes; it is the only place that does shift-and-mask
// arithmetic.
package bitio

import (
	"fmt"

	"github.com/axiom-data-science/bufrgo/errs"
)

// WriteUint writes the low bitLen bits of value into buf at bitOffset,
// preserving every bit outside [bitOffset, bitOffset+bitLen). buf must
// already be long enough to hold the written range; callers grow it first
// (see section.Buffer.ExtendBits).
//
// Bit 0 of buf is the most significant bit of buf[0] (big-endian bit order,
// matching the wire format).
func WriteUint(buf []byte, value uint64, bitOffset, bitLen int) error {
	if bitLen <= 0 || bitLen > 64 {
		return fmt.Errorf("%w: bit length %d out of range", errs.ErrWidthOverflow, bitLen)
	}
	if bitLen < 64 && value >= (uint64(1)<<uint(bitLen)) {
		return fmt.Errorf("%w: value %d does not fit in %d bits", errs.ErrWidthOverflow, value, bitLen)
	}

	byteStart := bitOffset / 8
	byteEnd := (bitOffset + bitLen + 7) / 8
	if byteEnd > len(buf) {
		return fmt.Errorf("%w: write range [%d:%d) exceeds buffer of length %d",
			errs.ErrIO, byteStart, byteEnd, len(buf))
	}

	// Left-align value's bitLen bits, then shift them into position within
	// the window [byteStart, byteEnd), masking in rather than overwriting.
	window := byteEnd - byteStart
	windowBits := window * 8
	localOffset := bitOffset - byteStart*8

	shift := windowBits - localOffset - bitLen
	shiftedValue := value << uint(shift)
	mask := (uint64(1)<<uint(bitLen) - 1) << uint(shift)

	for i := window - 1; i >= 0; i-- {
		byteMask := byte(mask)
		byteVal := byte(shiftedValue)
		buf[byteStart+i] = (buf[byteStart+i] &^ byteMask) | (byteVal & byteMask)
		mask >>= 8
		shiftedValue >>= 8
	}

	return nil
}

// ReadUint reads bitLen bits from buf at bitOffset and returns them as a
// non-negative integer. Mirrors the source decoder's historical behavior of
// sizing its working window one byte wider than the strict minimum; that
// window is a local allocation, never a read past buf's own bounds.
func ReadUint(buf []byte, bitOffset, bitLen int) (uint64, error) {
	if bitLen <= 0 || bitLen > 64 {
		return 0, fmt.Errorf("%w: bit length %d out of range", errs.ErrWidthOverflow, bitLen)
	}

	byteStart := bitOffset / 8
	minByteLen := (bitLen+(bitOffset-byteStart*8)+7)/8 + 1
	byteEnd := byteStart + minByteLen
	if byteEnd > len(buf) {
		byteEnd = len(buf)
	}
	if byteEnd <= byteStart {
		return 0, fmt.Errorf("%w: read range starting at byte %d exceeds buffer of length %d",
			errs.ErrIO, byteStart, len(buf))
	}

	window := make([]byte, byteEnd-byteStart)
	copy(window, buf[byteStart:byteEnd])

	var acc uint64
	for _, b := range window {
		acc = acc<<8 | uint64(b)
	}

	localOffset := bitOffset - byteStart*8
	windowBits := len(window) * 8
	shift := windowBits - localOffset - bitLen
	if shift < 0 {
		// Window narrower than requested field; shift is negative only
		// when bitLen+localOffset exceeds the window, which cannot happen
		// given minByteLen's construction except at end-of-buffer clamps.
		return 0, fmt.Errorf("%w: insufficient bits available at offset %d", errs.ErrIO, bitOffset)
	}

	result := (acc >> uint(shift)) & (uint64(1)<<uint(bitLen) - 1)

	return result, nil
}

// WriteASCII right-justifies s within bitLen/8 bytes, padding on the left
// with spaces, and writes it at bitOffset. bitLen must be a multiple of 8.
func WriteASCII(buf []byte, s string, bitOffset, bitLen int) error {
	if bitLen%8 != 0 {
		return fmt.Errorf("%w: %d", errs.ErrBadAsciiWidth, bitLen)
	}

	width := bitLen / 8
	padded := padLeft(s, width)

	for i := 0; i < width; i++ {
		if err := WriteUint(buf, uint64(padded[i]), bitOffset+i*8, 8); err != nil {
			return err
		}
	}

	return nil
}

// ReadASCII reassembles bitLen/8 bytes starting at bitOffset and returns
// them as a trimmed string. Non-ASCII bytes are reported as "INVALID"
// rather than causing an error, since verification decoding must not fail
// on malformed payloads.
func ReadASCII(buf []byte, bitOffset, bitLen int) (string, error) {
	if bitLen%8 != 0 {
		return "", fmt.Errorf("%w: %d", errs.ErrBadAsciiWidth, bitLen)
	}

	width := bitLen / 8
	raw := make([]byte, width)
	for i := 0; i < width; i++ {
		v, err := ReadUint(buf, bitOffset+i*8, 8)
		if err != nil {
			return "", err
		}
		if v > 0x7f {
			return "INVALID", nil
		}
		raw[i] = byte(v)
	}

	return trimSpace(string(raw)), nil
}

func padLeft(s string, width int) []byte {
	if len(s) > width {
		s = s[:width]
	}
	out := make([]byte, width)
	pad := width - len(s)
	for i := 0; i < pad; i++ {
		out[i] = ' '
	}
	copy(out[pad:], s)

	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}

	return s[start:end]
}
