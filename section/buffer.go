// Package section assembles and parses the fixed-layout parts of a BUFR
// message: sections 0, 1, 3, and 5. Section 4's variable bit-packed body is
// built by the sibling message package on top of the same Buffer.
package section

import (
	"encoding/binary"
	"fmt"

	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/internal/pool"
)

// Buffer is an append-only, big-endian byte sink with an explicit stack of
// reserved length-patch sites. It wraps a pooled byte buffer rather than a
// seekable stream: every section writes its length placeholder, appends
// its body, then pops the patch site and back-fills the length once the
// body's final size is known.
type Buffer struct {
	bb      *pool.ByteBuffer
	patches []patchSite
}

type patchSite struct {
	offset    int // byte offset of the reserved length field
	countFrom int // byte offset the patched length is measured from
}

// NewBuffer returns a Buffer backed by a buffer drawn from the shared pool.
// Callers must call Release when done to return it.
func NewBuffer() *Buffer {
	return &Buffer{bb: pool.GetBlobBuffer()}
}

// Release returns the underlying buffer to the pool. The Buffer must not be
// used afterward.
func (b *Buffer) Release() {
	pool.PutBlobBuffer(b.bb)
	b.bb = nil
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return b.bb.Len()
}

// Bytes returns the bytes written so far. The slice is owned by the Buffer
// and invalidated by further writes.
func (b *Buffer) Bytes() []byte {
	return b.bb.Bytes()
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(v byte) {
	b.bb.MustWrite([]byte{v})
}

// WriteBytes appends raw bytes verbatim.
func (b *Buffer) WriteBytes(v []byte) {
	b.bb.MustWrite(v)
}

// WriteUint16 appends a big-endian uint16.
func (b *Buffer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.bb.MustWrite(tmp[:])
}

// WriteUint24 appends a big-endian 24-bit unsigned integer.
func (b *Buffer) WriteUint24(v uint32) error {
	if v > 0xFFFFFF {
		return fmt.Errorf("%w: %d does not fit in 24 bits", errs.ErrWidthOverflow, v)
	}
	b.bb.MustWrite([]byte{byte(v >> 16), byte(v >> 8), byte(v)})

	return nil
}

// ExtendBits grows the buffer by enough bytes to hold n additional bits,
// zero-filled, and returns the byte offset at which those bits begin.
func (b *Buffer) ExtendBits(n int) int {
	start := b.bb.Len()
	nBytes := (n + 7) / 8
	b.bb.ExtendOrGrow(nBytes)
	for i := start; i < start+nBytes; i++ {
		b.bb.B[i] = 0
	}

	return start
}

// BeginSection reserves a 3-byte length placeholder and pushes a patch
// site recording where it was written. The eventual length counts bytes
// from the placeholder itself.
func (b *Buffer) BeginSection() {
	b.beginSectionFrom(b.bb.Len())
}

// BeginMessage is like BeginSection but measures the eventual length from
// the given earlier offset rather than from the placeholder's own
// position. Section 0's length field covers the whole message, including
// the magic bytes written before the placeholder.
func (b *Buffer) BeginMessage(countFrom int) {
	b.beginSectionFrom(countFrom)
}

func (b *Buffer) beginSectionFrom(countFrom int) {
	start := b.bb.Len()
	b.bb.ExtendOrGrow(3)
	b.bb.B[start], b.bb.B[start+1], b.bb.B[start+2] = 0, 0, 0
	b.patches = append(b.patches, patchSite{offset: start, countFrom: countFrom})
}

// EndSection pops the most recently opened patch site and back-fills it
// with the number of bytes written since its count-from offset, inclusive
// of the length field itself.
func (b *Buffer) EndSection() error {
	if len(b.patches) == 0 {
		return fmt.Errorf("%w: EndSection called with no open section", errs.ErrIO)
	}
	site := b.patches[len(b.patches)-1]
	b.patches = b.patches[:len(b.patches)-1]

	length := uint32(b.bb.Len() - site.countFrom)
	if length > 0xFFFFFF {
		return fmt.Errorf("%w: section length %d exceeds 24 bits", errs.ErrWidthOverflow, length)
	}
	b.bb.B[site.offset] = byte(length >> 16)
	b.bb.B[site.offset+1] = byte(length >> 8)
	b.bb.B[site.offset+2] = byte(length)

	return nil
}
