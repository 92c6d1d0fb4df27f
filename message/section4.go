// Package message assembles a complete BUFR message from a flattened,
// value-bound field sequence (see package template and package animaltag).
// Reading individual fields back out of an encoded buffer is done by
// package decode.
package message

import (
	"fmt"
	"math"

	"github.com/axiom-data-science/bufrgo/bitio"
	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/format"
	"github.com/axiom-data-science/bufrgo/section"
	"github.com/axiom-data-science/bufrgo/template"
)

// numericWidthOverride operator codes, Table C 2-01-YYY.
const (
	opSetNumericWidth24  = 129
	opCancelNumericWidth = 0
)

// encodeState tracks the operator-driven width overrides that persist
// across sibling fields as section 4 is walked in descriptor order.
type encodeState struct {
	numericOverride int // bits; 0 means "use the field's own BitLen"
	asciiOverride   int // bits; 0 means "use the field's own BitLen"
}

// EncodeSection4 bit-packs fields into a section 4 body and returns it as a
// byte slice, including its own length prefix and the reserved byte that
// follows it.
//
// One quirk carried over from the source encoder's historical behavior
// is preserved here rather than "fixed": bitOffset always advances by a
// field's own declared BitLen after it is written, even when an active
// width override caused a different number of bits to actually be
// emitted; operator fields and replication markers consume no bits of
// their own, only updating encoder state. A field immediately following a
// widened one can therefore start its write inside the widened field's
// tail, overwriting part of it — preserved for wire compatibility, not
// "fixed" (see sizeInBits).
func EncodeSection4(fields []template.Field) ([]byte, error) {
	b := section.NewBuffer()
	defer b.Release()

	b.BeginSection()
	b.WriteByte(0) // reserved

	widths := effectiveWidths(fields)
	start := b.ExtendBits(sizeInBits(fields, widths))
	buf := b.Bytes()

	var st encodeState
	bitOffset := start * 8
	wi := 0
	for _, f := range fields {
		switch f.Type {
		case format.FieldOperator:
			applyOperator(&st, f)
			continue
		case format.FieldReplication:
			continue
		case format.FieldString:
			width := widths[wi]
			if err := bitio.WriteASCII(buf, f.Text, bitOffset, width); err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", errs.ErrIO, f.FXY, err)
			}
		case format.FieldNumeric:
			width := widths[wi]
			raw, err := encodeNumeric(f, width)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", errs.ErrIO, f.FXY, err)
			}
			if err := bitio.WriteUint(buf, raw, bitOffset, width); err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", errs.ErrIO, f.FXY, err)
			}
		default:
			return nil, fmt.Errorf("%w: field %s has unencodable type", errs.ErrBadDescriptor, f.FXY)
		}
		// bit_offset advances by the field's own declared width, not the
		// width actually used for the write above, even when an operator
		// override was active; see package doc.
		bitOffset += f.BitLen
		wi++
	}

	return buf, b.EndSection()
}

// effectiveWidths simulates the operator state machine ahead of the real
// write pass and returns, in order, the bit width actually used to encode
// each non-operator, non-replication field: the field's own BitLen, unless
// a numeric or ASCII width override is active.
func effectiveWidths(fields []template.Field) []int {
	var st encodeState
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		switch f.Type {
		case format.FieldOperator:
			applyOperator(&st, f)
		case format.FieldReplication:
			continue
		case format.FieldString:
			width := f.BitLen
			if st.asciiOverride > 0 {
				width = st.asciiOverride
			}
			out = append(out, width)
		case format.FieldNumeric:
			width := f.BitLen
			if st.numericOverride > 0 {
				width = st.numericOverride
			}
			out = append(out, width)
		}
	}

	return out
}

// sizeInBits returns the number of bits the section-4 data area must hold,
// given widths (the effective, override-aware width each field in order
// actually writes). bitOffset advances by each field's own BitLen, per
// §4.6's length rule, but a field whose active override widens it past
// its own BitLen can still reach further into the buffer than that
// advance alone implies, so the size tracks the furthest bit any single
// write reaches rather than the bitOffset total on its own.
func sizeInBits(fields []template.Field, widths []int) int {
	maxBits := 0
	bitOffset := 0
	wi := 0
	for _, f := range fields {
		switch f.Type {
		case format.FieldString, format.FieldNumeric:
			if end := bitOffset + widths[wi]; end > maxBits {
				maxBits = end
			}
			bitOffset += f.BitLen
			wi++
		}
	}
	if bitOffset > maxBits {
		maxBits = bitOffset
	}

	return maxBits
}

// encodeNumeric applies the element's scale/reference to its bound value
// and returns the stored integer, or the all-ones missing-value sentinel
// if the field was never bound.
func encodeNumeric(f template.Field, width int) (uint64, error) {
	if f.Unbound() {
		return missingSentinel(width), nil
	}

	scaled := math.Round(f.Value*math.Pow10(f.Scale)) - float64(f.Reference)
	if scaled < 0 {
		return 0, fmt.Errorf("%w: encoded value %v is negative", errs.ErrWidthOverflow, scaled)
	}
	raw := uint64(scaled)
	if width < 64 && raw >= uint64(1)<<uint(width) {
		return 0, fmt.Errorf("%w: encoded value %d does not fit in %d bits", errs.ErrWidthOverflow, raw, width)
	}

	return raw, nil
}

// missingSentinel returns the all-ones bit pattern BUFR reserves for a
// missing numeric value at the given width.
func missingSentinel(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}

	return uint64(1)<<uint(width) - 1
}

func applyOperator(st *encodeState, f template.Field) {
	switch {
	case f.FXY.F == 2 && f.FXY.X == 1 && f.FXY.Y == opSetNumericWidth24:
		st.numericOverride = 24
	case f.FXY.F == 2 && f.FXY.X == 1 && f.FXY.Y == opCancelNumericWidth:
		st.numericOverride = 0
	case f.FXY.F == 2 && f.FXY.X == 8:
		if f.FXY.Y == 0 {
			st.asciiOverride = 0
		} else {
			st.asciiOverride = f.FXY.Y * 8
		}
	}
}
