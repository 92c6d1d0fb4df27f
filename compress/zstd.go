package compress

// ZstdCompressor provides Zstandard compression for the embedded table bundle.
//
// The table bundle (Tables A/B/D and code/flag tables, §4.3) is a CSV-like
// tabular resource shipped compressed in the binary and decompressed once,
// lazily, the first time a table lookup is requested.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
