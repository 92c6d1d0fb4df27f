// Package format defines the small value types shared across the codec: the
// kind of a flattened template field and the compression algorithm used for
// the embedded table bundle.
package format

type (
	// FieldType discriminates how a flattened template field is encoded.
	FieldType uint8

	// CompressionType selects the algorithm used to compress the embedded
	// BUFR table bundle (Tables A/B/D and code/flag tables).
	CompressionType uint8
)

const (
	// FieldNumeric is a Table B element encoded as a scaled, offset unsigned integer.
	FieldNumeric FieldType = 0x1
	// FieldString is a Table B element whose unit is CCITT IA5 (ASCII text).
	FieldString FieldType = 0x2
	// FieldOperator is an F=2 operator marker; it emits no bits but mutates encoder state.
	FieldOperator FieldType = 0x3
	// FieldReplication is an F=1 replication marker.
	FieldReplication FieldType = 0x4
	// FieldSequence is an F=3 sequence marker, present only for diagnostics.
	FieldSequence FieldType = 0x5

	// CompressionNone represents no compression.
	CompressionNone CompressionType = 0x1
	// CompressionZstd represents Zstandard compression.
	CompressionZstd CompressionType = 0x2
	// CompressionS2 represents S2 compression.
	CompressionS2 CompressionType = 0x3
	// CompressionLZ4 represents LZ4 compression.
	CompressionLZ4 CompressionType = 0x4
)

func (f FieldType) String() string {
	switch f {
	case FieldNumeric:
		return "Numeric"
	case FieldString:
		return "String"
	case FieldOperator:
		return "Operator"
	case FieldReplication:
		return "Replication"
	case FieldSequence:
		return "Sequence"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
