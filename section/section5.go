package section

import (
	"fmt"

	"github.com/axiom-data-science/bufrgo/errs"
)

// endMarker is the fixed 4-byte trailer that closes a BUFR message.
var endMarker = [4]byte{'7', '7', '7', '7'}

// WriteSection5 appends the section 5 end-of-message marker to b. Section
// 5 has no length field of its own.
func WriteSection5(b *Buffer) {
	b.WriteBytes(endMarker[:])
}

// ParseSection5 verifies that data begins with the "7777" end marker and
// returns the number of bytes consumed (always 4).
func ParseSection5(data []byte) (int, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: section 5 truncated", errs.ErrInvalidHeaderSize)
	}
	if data[0] != endMarker[0] || data[1] != endMarker[1] || data[2] != endMarker[2] || data[3] != endMarker[3] {
		return 0, fmt.Errorf("%w: expected %q end marker", errs.ErrInvalidMagic, string(endMarker[:]))
	}

	return 4, nil
}
