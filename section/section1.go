package section

import (
	"fmt"
	"time"

	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/internal/options"
)

// Section1 carries the message's identification metadata: originating
// centre, data category, table versions, and the nominal observation time
// stamped on the message as a whole.
type Section1 struct {
	MasterTable              byte
	OriginatingCentre        uint16
	OriginatingSubcentre     uint16
	UpdateSequenceNumber     byte
	HasSection2              bool
	DataCategory             byte
	InternationalSubCategory byte
	LocalSubCategory         byte
	MasterTableVersion       byte
	LocalTableVersion        byte
	Timestamp                time.Time
}

// Section1Option configures a Section1 built with NewSection1.
type Section1Option = options.Option[*Section1]

// WithOriginatingCentre sets the originating and generating sub-centre.
func WithOriginatingCentre(centre, subcentre uint16) Section1Option {
	return options.NoError(func(s *Section1) {
		s.OriginatingCentre = centre
		s.OriginatingSubcentre = subcentre
	})
}

// WithDataCategory sets the Table A data category and its sub-categories.
func WithDataCategory(category, intlSubcategory, localSubcategory byte) Section1Option {
	return options.NoError(func(s *Section1) {
		s.DataCategory = category
		s.InternationalSubCategory = intlSubcategory
		s.LocalSubCategory = localSubcategory
	})
}

// WithTableVersions sets the master and local table versions in effect.
func WithTableVersions(master, local byte) Section1Option {
	return options.NoError(func(s *Section1) {
		s.MasterTableVersion = master
		s.LocalTableVersion = local
	})
}

// WithTimestamp sets the nominal observation time stamped on the message.
func WithTimestamp(t time.Time) Section1Option {
	return options.NoError(func(s *Section1) { s.Timestamp = t.UTC() })
}

// NewSection1 builds a Section1 for master table 0, update sequence 0, with
// no local section 2, applying opts over those defaults.
func NewSection1(opts ...Section1Option) (Section1, error) {
	s := Section1{MasterTable: 0}
	if err := options.Apply(&s, opts...); err != nil {
		return Section1{}, fmt.Errorf("%w: building section 1: %v", errs.ErrBadInput, err)
	}

	return s, nil
}

// WriteTo appends section 1 to b, including its own 3-byte length
// placeholder, which is back-patched by EndSection.
func (s Section1) WriteTo(b *Buffer) error {
	b.BeginSection()
	b.WriteByte(s.MasterTable)
	b.WriteUint16(s.OriginatingCentre)
	b.WriteUint16(s.OriginatingSubcentre)
	b.WriteByte(s.UpdateSequenceNumber)
	flags := byte(0)
	if s.HasSection2 {
		flags |= 0x80
	}
	b.WriteByte(flags)
	b.WriteByte(s.DataCategory)
	b.WriteByte(s.InternationalSubCategory)
	b.WriteByte(s.LocalSubCategory)
	b.WriteByte(s.MasterTableVersion)
	b.WriteByte(s.LocalTableVersion)
	b.WriteUint16(uint16(s.Timestamp.Year()))
	b.WriteByte(byte(s.Timestamp.Month()))
	b.WriteByte(byte(s.Timestamp.Day()))
	b.WriteByte(byte(s.Timestamp.Hour()))
	b.WriteByte(byte(s.Timestamp.Minute()))
	b.WriteByte(byte(s.Timestamp.Second()))

	return b.EndSection()
}

// section1Len is the byte length of section 1's body, excluding its own
// 3-byte length field.
const section1Len = 19

// ParseSection1 reads section 1 starting at data[0] and returns the parsed
// header along with the number of bytes consumed.
func ParseSection1(data []byte) (Section1, int, error) {
	if len(data) < 3 {
		return Section1{}, 0, fmt.Errorf("%w: section 1 truncated", errs.ErrInvalidHeaderSize)
	}
	length := int(data[0])<<16 | int(data[1])<<8 | int(data[2])
	if length < 3+section1Len || len(data) < length {
		return Section1{}, 0, fmt.Errorf("%w: section 1 length %d inconsistent with body", errs.ErrInvalidHeaderSize, length)
	}

	body := data[3:length]
	s := Section1{
		MasterTable:              body[0],
		OriginatingCentre:        uint16(body[1])<<8 | uint16(body[2]),
		OriginatingSubcentre:     uint16(body[3])<<8 | uint16(body[4]),
		UpdateSequenceNumber:     body[5],
		HasSection2:              body[6]&0x80 != 0,
		DataCategory:             body[7],
		InternationalSubCategory: body[8],
		LocalSubCategory:         body[9],
		MasterTableVersion:       body[10],
		LocalTableVersion:        body[11],
	}
	year := int(body[12])<<8 | int(body[13])
	s.Timestamp = time.Date(year, time.Month(body[14]), int(body[15]), int(body[16]), int(body[17]), int(body[18]), 0, time.UTC)

	return s, length, nil
}
