// Package decode provides a verification path for reading a single field
// back out of an encoded BUFR section 4 body: given the same descriptor
// metadata the encoder used (bit offset, width, scale, reference), it
// recovers the physical value, optionally resolving a code/flag table
// entry name for coded elements.
package decode

import (
	"fmt"
	"math"

	"github.com/axiom-data-science/bufrgo/bitio"
	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/fxy"
	"github.com/axiom-data-science/bufrgo/tables"
)

// FieldDescriptor is the positional and semantic metadata needed to read
// one numeric or string field out of an encoded buffer. It mirrors the
// subset of template.Field the encoder actually consumed, plus the bit
// offset the encoder placed it at, which template.Field itself does not
// carry (offsets are a property of a particular encoding run, not of the
// template).
type FieldDescriptor struct {
	FXY          fxy.Ref
	BitOffset    int
	BitLen       int
	Scale        int
	Reference    int64
	IsString     bool
	CodeTable    bool
}

// Numeric reads a numeric field from buf and returns its physical value:
// (raw + reference)·10^−scale. Returns math.NaN() if the stored bits are the
// BUFR missing-value sentinel (all ones).
func Numeric(buf []byte, d FieldDescriptor) (float64, error) {
	if d.IsString {
		return 0, fmt.Errorf("%w: field %s is a string, not numeric", errs.ErrBadDescriptor, d.FXY)
	}

	raw, err := bitio.ReadUint(buf, d.BitOffset, d.BitLen)
	if err != nil {
		return 0, err
	}
	if raw == missingSentinel(d.BitLen) {
		return math.NaN(), nil
	}

	return (float64(raw) + float64(d.Reference)) / math.Pow10(d.Scale), nil
}

// String reads a fixed-width ASCII field from buf.
func String(buf []byte, d FieldDescriptor) (string, error) {
	if !d.IsString {
		return "", fmt.Errorf("%w: field %s is not a string", errs.ErrBadDescriptor, d.FXY)
	}

	return bitio.ReadASCII(buf, d.BitOffset, d.BitLen)
}

// CodeFlagName reads d as a numeric code figure and resolves it against
// store's code/flag table for d.FXY.
func CodeFlagName(buf []byte, d FieldDescriptor, store *tables.Store) (string, error) {
	if !d.CodeTable {
		return "", fmt.Errorf("%w: field %s has no code/flag table", errs.ErrBadDescriptor, d.FXY)
	}

	raw, err := bitio.ReadUint(buf, d.BitOffset, d.BitLen)
	if err != nil {
		return "", err
	}

	return store.CodeFlag(d.FXY, int(raw))
}

func missingSentinel(bitLen int) uint64 {
	if bitLen >= 64 {
		return math.MaxUint64
	}

	return uint64(1)<<uint(bitLen) - 1
}
