package section

import (
	"fmt"

	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/fxy"
)

// Section3 lists the data descriptors that define the message's data
// structure and the number of data subsets (observations) packed into
// section 4.
type Section3 struct {
	SubsetCount uint16
	Observed    bool
	Compressed  bool
	Descriptors []fxy.Ref
}

// WriteTo appends section 3 to b. Each descriptor is written as the
// standard two-byte FXY encoding: (F<<6)|X in the first byte, Y in the
// second; a descriptor list is always an even number of bytes, so no
// padding is needed to keep the section byte-aligned.
func (s Section3) WriteTo(b *Buffer) error {
	b.BeginSection()
	b.WriteByte(0) // reserved
	b.WriteUint16(s.SubsetCount)

	flags := byte(0)
	if s.Observed {
		flags |= 0x80
	}
	if s.Compressed {
		flags |= 0x40
	}
	b.WriteByte(flags)

	for _, d := range s.Descriptors {
		if d.F < 0 || d.F > 3 || d.X < 0 || d.X > 63 || d.Y < 0 || d.Y > 255 {
			return fmt.Errorf("%w: descriptor %s out of range for 2-byte encoding", errs.ErrBadDescriptor, d)
		}
		b.WriteByte(byte(d.F<<6) | byte(d.X))
		b.WriteByte(byte(d.Y))
	}

	return b.EndSection()
}

// ParseSection3 reads section 3 starting at data[0] and returns the parsed
// header along with the number of bytes consumed.
func ParseSection3(data []byte) (Section3, int, error) {
	if len(data) < 7 {
		return Section3{}, 0, fmt.Errorf("%w: section 3 truncated", errs.ErrInvalidHeaderSize)
	}
	length := int(data[0])<<16 | int(data[1])<<8 | int(data[2])
	if length < 7 || len(data) < length {
		return Section3{}, 0, fmt.Errorf("%w: section 3 length %d inconsistent with body", errs.ErrInvalidHeaderSize, length)
	}

	s := Section3{
		SubsetCount: uint16(data[4])<<8 | uint16(data[5]),
		Observed:    data[6]&0x80 != 0,
		Compressed:  data[6]&0x40 != 0,
	}

	descBytes := data[7:length]
	for i := 0; i+1 < len(descBytes); i += 2 {
		f := int(descBytes[i] >> 6)
		x := int(descBytes[i] & 0x3F)
		y := int(descBytes[i+1])
		s.Descriptors = append(s.Descriptors, fxy.New(f, x, y))
	}

	return s, length, nil
}
