// Package tables loads BUFR Tables A, B, D, and code/flag tables and
// exposes read-only, FXY-keyed lookups over them.
//
// A small fixture bundle sufficient for sequence template 3-15-023 ships
// embedded in the binary as a single Zstd-compressed archive
// (testdata/bundle.zst, framed CSV sources in testdata/src/) and is
// decompressed once, on first lookup. Production deployments that need the
// full, authoritative WMO table set call NewFromBundle with a reader over an
// externally supplied bundle compressed with any codec the compress
// package supports.
package tables

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/axiom-data-science/bufrgo/compress"
	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/format"
	"github.com/axiom-data-science/bufrgo/fxy"
	"github.com/axiom-data-science/bufrgo/internal/hash"
)

//go:embed testdata/bundle.zst
var embeddedBundle []byte

// BRow is one Table B element row: title, unit, scale and reference for
// the encoding equation, and the element's native bit width.
type BRow struct {
	FXY       fxy.Ref
	Title     string
	Unit      string
	Scale     int
	Reference int64
	BitLen    int
}

// IsString reports whether this element's unit is CCITT IA5 (ASCII text).
func (r BRow) IsString() bool {
	return r.Unit == "CCITT IA5"
}

// ARow is one Table A data-category row.
type ARow struct {
	Code int
	Name string
}

// Store is a read-only, cached view over Tables A, B, D and code/flag
// tables. The zero value is not usable; construct with New.
type Store struct {
	once sync.Once
	err  error

	tableA         map[int]ARow
	tableB         map[uint64]BRow
	tableD         map[uint64][]fxy.Ref
	codeFlag       map[uint64]string
	codeFlagRanges map[uint64][]codeFlagRange
	loadBytes      func() (map[string][]byte, error)
}

// codeFlagRange is one "start-end" inclusive code/flag entry, checked by
// membership rather than expanded into individual codes; some code/flag
// tables define an entry this way for a whole band of reserved or
// local-use figures.
type codeFlagRange struct {
	start, end int
	name       string
}

// New returns a Store backed by the embedded fixture bundle. Table data is
// parsed lazily, on first lookup, and cached for the Store's lifetime.
func New() *Store {
	return &Store{loadBytes: loadEmbedded}
}

// NewFromBundle returns a Store that lazily decompresses and parses an
// externally supplied bundle the first time a lookup is made. r is read in
// full at that point; compression selects the codec used to inflate it.
func NewFromBundle(r io.Reader, compression format.CompressionType) *Store {
	return &Store{
		loadBytes: func() (map[string][]byte, error) {
			raw, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading table bundle: %v", errs.ErrIO, err)
			}

			codec, err := compress.CreateCodec(compression, "table bundle")
			if err != nil {
				return nil, err
			}

			inflated, err := codec.Decompress(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: decompressing table bundle: %v", errs.ErrIO, err)
			}

			return splitArchive(inflated)
		},
	}
}

func (s *Store) ensureLoaded() error {
	s.once.Do(func() {
		files, err := s.loadBytes()
		if err != nil {
			s.err = err
			return
		}

		s.tableA = map[int]ARow{}
		s.tableB = map[uint64]BRow{}
		s.tableD = map[uint64][]fxy.Ref{}
		s.codeFlag = map[uint64]string{}
		s.codeFlagRanges = map[uint64][]codeFlagRange{}

		if err := s.parseTableA(files["table_a.csv"]); err != nil {
			s.err = err
			return
		}
		if err := s.parseTableB(files["table_b.csv"]); err != nil {
			s.err = err
			return
		}
		if err := s.parseTableD(files["table_d.csv"]); err != nil {
			s.err = err
			return
		}
		if err := s.parseCodeFlag(files["code_flag.csv"]); err != nil {
			s.err = err
			return
		}
	})

	return s.err
}

// loadEmbedded decompresses the bundle built into the binary and splits it
// back into its per-table CSV members. This is the path every call to New
// exercises, so the compress package's Zstd codec runs on every cold start,
// not just when a caller supplies an external bundle via NewFromBundle.
func loadEmbedded() (map[string][]byte, error) {
	codec, err := compress.CreateCodec(format.CompressionZstd, "embedded table bundle")
	if err != nil {
		return nil, err
	}

	inflated, err := codec.Decompress(embeddedBundle)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing embedded table bundle: %v", errs.ErrIO, err)
	}

	return splitArchive(inflated)
}

// splitArchive parses a concatenated bundle where each file is framed as
// "### <name>\n<csv bytes>" blocks. testdata/bundle.zst is this framing,
// built from testdata/src/*.csv and then Zstd-compressed.
func splitArchive(data []byte) (map[string][]byte, error) {
	out := map[string][]byte{}
	const marker = "### "

	text := string(data)
	for len(text) > 0 {
		if !strings.HasPrefix(text, marker) {
			return nil, fmt.Errorf("%w: malformed table bundle framing", errs.ErrBadInput)
		}
		text = text[len(marker):]
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return nil, fmt.Errorf("%w: malformed table bundle framing", errs.ErrBadInput)
		}
		name := text[:nl]
		text = text[nl+1:]

		next := strings.Index(text, marker)
		var body string
		if next < 0 {
			body = text
			text = ""
		} else {
			body = text[:next]
			text = text[next:]
		}
		out[name] = []byte(body)
	}

	return out, nil
}

func (s *Store) parseTableA(data []byte) error {
	records, err := readCSV(data)
	if err != nil {
		return err
	}
	for _, rec := range records {
		code, err := strconv.Atoi(rec["code"])
		if err != nil {
			return fmt.Errorf("%w: table A code %q: %v", errs.ErrBadInput, rec["code"], err)
		}
		s.tableA[code] = ARow{Code: code, Name: rec["name"]}
	}

	return nil
}

func (s *Store) parseTableB(data []byte) error {
	records, err := readCSV(data)
	if err != nil {
		return err
	}
	for _, rec := range records {
		ref, err := fxy.Parse(rec["fxy"])
		if err != nil {
			return err
		}
		scale, err := strconv.Atoi(rec["scale"])
		if err != nil {
			return fmt.Errorf("%w: table B scale for %s: %v", errs.ErrBadInput, ref, err)
		}
		reference, err := strconv.ParseInt(rec["reference"], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: table B reference for %s: %v", errs.ErrBadInput, ref, err)
		}
		bitLen, err := strconv.Atoi(rec["bit_len"])
		if err != nil {
			return fmt.Errorf("%w: table B bit_len for %s: %v", errs.ErrBadInput, ref, err)
		}

		s.tableB[refKey(ref)] = BRow{
			FXY:       ref,
			Title:     rec["title"],
			Unit:      rec["unit"],
			Scale:     scale,
			Reference: reference,
			BitLen:    bitLen,
		}
	}

	return nil
}

func (s *Store) parseTableD(data []byte) error {
	records, err := readCSV(data)
	if err != nil {
		return err
	}
	for _, rec := range records {
		parent, err := fxy.Parse(rec["parent"])
		if err != nil {
			return err
		}
		child, err := fxy.Parse(rec["child"])
		if err != nil {
			return err
		}
		key := refKey(parent)
		s.tableD[key] = append(s.tableD[key], child)
	}

	return nil
}

// parseCodeFlag loads one code/flag CSV. The "code" column accepts either a
// single integer code figure or an inclusive "start-end" range, matching
// the BUFRCREX_CodeFlag_en_*.csv CodeFigure column the WMO itself
// publishes: entries like "0-3" or "192-255" reserve a whole band to one
// name instead of enumerating every figure in it.
func (s *Store) parseCodeFlag(data []byte) error {
	records, err := readCSV(data)
	if err != nil {
		return err
	}
	for _, rec := range records {
		ref, err := fxy.Parse(rec["fxy"])
		if err != nil {
			return err
		}

		raw := rec["code"]
		if start, end, ok := parseCodeRange(raw); ok {
			key := refKey(ref)
			s.codeFlagRanges[key] = append(s.codeFlagRanges[key], codeFlagRange{start: start, end: end, name: rec["name"]})
			continue
		}

		code, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: code/flag code for %s: %v", errs.ErrBadInput, ref, err)
		}
		s.codeFlag[codeFlagKey(ref, code)] = rec["name"]
	}

	return nil
}

// parseCodeRange splits a "start-end" code figure into its bounds. ok is
// false for a plain integer code, which the caller parses itself.
func parseCodeRange(raw string) (start, end int, ok bool) {
	dash := strings.IndexByte(raw, '-')
	if dash <= 0 {
		return 0, 0, false
	}

	start, errStart := strconv.Atoi(raw[:dash])
	end, errEnd := strconv.Atoi(raw[dash+1:])
	if errStart != nil || errEnd != nil {
		return 0, 0, false
	}

	return start, end, true
}

func readCSV(data []byte) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parsing table csv: %v", errs.ErrBadInput, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}

	return out, nil
}

func refKey(ref fxy.Ref) uint64 {
	return hash.ID(ref.String())
}

func codeFlagKey(ref fxy.Ref, code int) uint64 {
	return hash.ID(fmt.Sprintf("%s/%d", ref.String(), code))
}

// TableA returns the Table A row for the given data-category code.
func (s *Store) TableA(code int) (ARow, error) {
	if err := s.ensureLoaded(); err != nil {
		return ARow{}, err
	}
	row, ok := s.tableA[code]
	if !ok {
		return ARow{}, fmt.Errorf("%w: table A code %d", errs.ErrBadDescriptor, code)
	}

	return row, nil
}

// TableB returns the element row for ref.
func (s *Store) TableB(ref fxy.Ref) (BRow, error) {
	if err := s.ensureLoaded(); err != nil {
		return BRow{}, err
	}
	row, ok := s.tableB[refKey(ref)]
	if !ok {
		return BRow{}, fmt.Errorf("%w: table B element %s", errs.ErrBadDescriptor, ref)
	}

	return row, nil
}

// TableD returns the ordered child descriptors for sequence ref.
func (s *Store) TableD(ref fxy.Ref) ([]fxy.Ref, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	children, ok := s.tableD[refKey(ref)]
	if !ok {
		return nil, fmt.Errorf("%w: table D sequence %s", errs.ErrUnresolvedDescriptor, ref)
	}

	return children, nil
}

// CodeFlag returns the entry name for ref's code/flag table at the given
// code figure, checking single-code entries first and falling back to any
// "start-end" range entries registered for ref.
func (s *Store) CodeFlag(ref fxy.Ref, code int) (string, error) {
	if err := s.ensureLoaded(); err != nil {
		return "", err
	}
	if name, ok := s.codeFlag[codeFlagKey(ref, code)]; ok {
		return name, nil
	}
	for _, r := range s.codeFlagRanges[refKey(ref)] {
		if code >= r.start && code <= r.end {
			return r.name, nil
		}
	}

	return "", fmt.Errorf("%w: code/flag %s code %d", errs.ErrBadDescriptor, ref, code)
}
