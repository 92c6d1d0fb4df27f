package decode

import (
	"math"
	"testing"

	"github.com/axiom-data-science/bufrgo/bitio"
	"github.com/axiom-data-science/bufrgo/fxy"
	"github.com/axiom-data-science/bufrgo/tables"
	"github.com/stretchr/testify/require"
)

func TestNumeric_RecoversPhysicalValue(t *testing.T) {
	buf := make([]byte, 8)
	// Latitude 45.12345 degrees: scale 5, reference -9000000, 25 bits.
	raw := uint64(45.12345*1e5) + 9000000
	require.NoError(t, bitio.WriteUint(buf, raw, 0, 25))

	d := FieldDescriptor{
		FXY:       fxy.MustParse("005001"),
		BitOffset: 0,
		BitLen:    25,
		Scale:     5,
		Reference: -9000000,
	}

	got, err := Numeric(buf, d)
	require.NoError(t, err)
	require.InDelta(t, 45.12345, got, 1e-4)
}

func TestNumeric_MissingSentinelYieldsNaN(t *testing.T) {
	buf := make([]byte, 4)
	require.NoError(t, bitio.WriteUint(buf, (1<<16)-1, 0, 16))

	d := FieldDescriptor{FXY: fxy.MustParse("012101"), BitOffset: 0, BitLen: 16, Scale: 2, Reference: -27315}

	got, err := Numeric(buf, d)
	require.NoError(t, err)
	require.True(t, math.IsNaN(got))
}

func TestString_ReadsFixedWidthText(t *testing.T) {
	buf := make([]byte, 4)
	require.NoError(t, bitio.WriteASCII(buf, "AB", 0, 32))

	d := FieldDescriptor{FXY: fxy.MustParse("001128"), BitOffset: 0, BitLen: 32, IsString: true}

	got, err := String(buf, d)
	require.NoError(t, err)
	require.Equal(t, "AB", got)
}

func TestNumeric_RejectsStringField(t *testing.T) {
	buf := make([]byte, 4)
	d := FieldDescriptor{IsString: true}

	_, err := Numeric(buf, d)
	require.Error(t, err)
}

func TestCodeFlagName_ResolvesEntry(t *testing.T) {
	buf := make([]byte, 4)
	require.NoError(t, bitio.WriteUint(buf, 10, 0, 8))

	store := tables.New()
	d := FieldDescriptor{FXY: fxy.MustParse("002148"), BitOffset: 0, BitLen: 8, CodeTable: true}

	name, err := CodeFlagName(buf, d, store)
	require.NoError(t, err)
	require.Equal(t, "Marine mammal", name)
}

func TestCodeFlagName_RejectsWhenNotCodeTable(t *testing.T) {
	buf := make([]byte, 4)
	store := tables.New()
	d := FieldDescriptor{CodeTable: false}

	_, err := CodeFlagName(buf, d, store)
	require.Error(t, err)
}
