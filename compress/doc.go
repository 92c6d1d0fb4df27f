// Package compress provides compression and decompression codecs for the
// embedded BUFR table bundle (Tables A/B/D and code/flag tables).
//
// The bundle ships compressed to keep the binary small; it is decompressed
// once, lazily, the first time the table loader needs it, and the decoded
// rows are cached read-only for the process lifetime. This package has
// nothing to do with BUFR message-level compression (section 3's compressed
// flag), which this codec does not produce.
//
// Four options are available, selected by format.CompressionType:
//   - None: no compression, used in tests and for uncompressed fixtures.
//   - Zstd: best ratio, used for the default embedded bundle.
//   - S2: faster, lower ratio, for large ancillary code/flag tables.
//   - LZ4: fastest decompression, included for parity with bundles produced
//     by other tools in this ecosystem.
package compress
