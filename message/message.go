package message

import (
	"fmt"

	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/fxy"
	"github.com/axiom-data-science/bufrgo/section"
	"github.com/axiom-data-science/bufrgo/template"
)

// Encode assembles a complete BUFR Edition 4 message: sections 0, 1, 3, 4,
// and 5, with every section length and the overall message length
// back-patched once the message is fully written.
//
// top is the top-level sequence descriptor (3-15-023 for the animal-tag
// profile) that fields was expanded from; it is the sole entry in section
// 3's descriptor list, matching how a single top-level template drives one
// message.
func Encode(meta section.Section1, top fxy.Ref, fields []template.Field, subsetCount uint16) ([]byte, error) {
	b := section.NewBuffer()
	defer b.Release()

	section.NewSection0().WriteTo(b)

	if err := meta.WriteTo(b); err != nil {
		return nil, err
	}

	s3 := section.Section3{
		SubsetCount: subsetCount,
		Observed:    true,
		Descriptors: []fxy.Ref{top},
	}
	if err := s3.WriteTo(b); err != nil {
		return nil, err
	}

	body4, err := EncodeSection4(fields)
	if err != nil {
		return nil, err
	}
	b.WriteBytes(body4)

	section.WriteSection5(b)

	if err := b.EndSection(); err != nil {
		return nil, fmt.Errorf("%w: patching total message length: %v", errs.ErrIO, err)
	}

	out := make([]byte, b.Len())
	copy(out, b.Bytes())

	return out, nil
}
