// Package errs defines the sentinel errors returned across the codec.
//
// Callers should use errors.Is against these sentinels rather than matching
// on error text; call sites wrap them with fmt.Errorf("...: %w", ...) to
// attach context.
package errs

import "errors"

var (
	// ErrBadDescriptor is returned when an FXY string fails to parse, or
	// references a row absent from the applicable table.
	ErrBadDescriptor = errors.New("bad descriptor")

	// ErrUnresolvedDescriptor is returned when expanding a sequence (F=3)
	// references a child FXY that no table known to the loader defines.
	ErrUnresolvedDescriptor = errors.New("unresolved descriptor")

	// ErrWidthOverflow is returned when a numeric value does not fit in its
	// effective bit width after scale and reference are applied.
	ErrWidthOverflow = errors.New("value overflows field width")

	// ErrBadAsciiWidth is returned when a string field's bit width is not a
	// multiple of 8.
	ErrBadAsciiWidth = errors.New("ascii field width not a multiple of 8")

	// ErrBadInput is returned when an observation table is missing a
	// required column or holds unparseable values.
	ErrBadInput = errors.New("bad input data")

	// ErrIO is returned when writing encoded output fails.
	ErrIO = errors.New("io error")

	// ErrUnsupportedFormat is returned by a dataset loader asked to read a
	// format it does not implement.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")

	// ErrInvalidHeaderSize is returned when a section header is shorter
	// than its fixed wire size.
	ErrInvalidHeaderSize = errors.New("invalid section header size")

	// ErrInvalidMagic is returned when section 0 or section 5 does not
	// carry its required literal bytes.
	ErrInvalidMagic = errors.New("invalid magic bytes")
)
