package section

import (
	"fmt"

	"github.com/axiom-data-science/bufrgo/errs"
)

// magic is the 4-byte indicator that opens every BUFR message.
var magic = [4]byte{'B', 'U', 'F', 'R'}

// edition4 is the only BUFR edition this package produces or accepts.
const edition4 = 4

// Section0 is the message indicator: the "BUFR" magic, the total message
// length, and the edition number. The length field is written as a
// placeholder here and back-patched by the caller's final Buffer.EndSection
// once the whole message has been assembled.
type Section0 struct {
	Edition byte
}

// NewSection0 returns a Section0 for edition 4, the only edition this
// package supports.
func NewSection0() Section0 {
	return Section0{Edition: edition4}
}

// WriteTo appends section 0 to b: the magic bytes, a reserved 3-byte total
// length placeholder, and the edition byte. The caller is responsible for
// patching the total length once section 5 has been written, since section
// 0's length field covers the entire message, not just itself.
func (s Section0) WriteTo(b *Buffer) {
	b.WriteBytes(magic[:])
	b.BeginMessage(0)
	b.WriteByte(s.Edition)
}

// ParseSection0 reads section 0 from the start of data and returns the
// total message length it declares along with the edition byte. Section 0
// is always 8 bytes long.
func ParseSection0(data []byte) (totalLength int, edition byte, err error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("%w: section 0 requires at least 8 bytes", errs.ErrInvalidHeaderSize)
	}
	if data[0] != magic[0] || data[1] != magic[1] || data[2] != magic[2] || data[3] != magic[3] {
		return 0, 0, fmt.Errorf("%w: expected %q", errs.ErrInvalidMagic, string(magic[:]))
	}
	length := int(data[4])<<16 | int(data[5])<<8 | int(data[6])
	if data[7] != edition4 {
		return 0, 0, fmt.Errorf("%w: unsupported BUFR edition %d", errs.ErrUnsupportedFormat, data[7])
	}

	return length, data[7], nil
}
