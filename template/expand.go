// Package template resolves a top-level BUFR sequence descriptor into a
// flat, ordered list of typed fields ready for value binding and bit
// packing.
//
// Expansion is a single depth-first pass: F=3 sequences are inlined in
// place, F=0 elements become leaf fields, F=2 operators become state
// markers, and F=1 replication bodies are emitted once and tagged with a
// replication group so a caller can locate and repeat them a data-driven
// number of times (the domain projector, package animaltag, does this).
package template

import (
	"fmt"
	"math"

	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/format"
	"github.com/axiom-data-science/bufrgo/fxy"
	"github.com/axiom-data-science/bufrgo/tables"
)

// noGroup marks a Field as not belonging to any replication body.
const noGroup = -1

// Field is one entry in a flattened sequence.
type Field struct {
	FXY    fxy.Ref
	Parent fxy.Ref
	Title  string
	Type   format.FieldType

	BitLen    int
	Scale     int
	Reference int64

	// ReplicationGroup is the index, within the returned slice, of the
	// FieldReplication marker whose body this field belongs to, or
	// noGroup if this field sits outside any replication.
	ReplicationGroup int

	// Value is the bound numeric value, or math.NaN() if unbound/missing.
	// Unused for FieldString fields.
	Value float64

	// Text is the bound string value for FieldString fields.
	Text string
}

// Unbound reports whether the field still carries its expansion-time NaN
// placeholder rather than a value bound by a domain projector.
func (f Field) Unbound() bool {
	return f.Type != format.FieldString && math.IsNaN(f.Value)
}

// Expand flattens the sequence named by top into an ordered list of
// fields. store supplies Table B/D lookups.
func Expand(store *tables.Store, top fxy.Ref) ([]Field, error) {
	out := make([]Field, 0, 32)
	if err := expandOne(store, top, fxy.Ref{}, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func expandOne(store *tables.Store, ref fxy.Ref, parent fxy.Ref, out *[]Field) error {
	switch ref.Class() {
	case fxy.ClassElement:
		row, err := store.TableB(ref)
		if err != nil {
			return err
		}
		typ := format.FieldNumeric
		if row.IsString() {
			typ = format.FieldString
		}
		*out = append(*out, Field{
			FXY:              ref,
			Parent:           parent,
			Title:            row.Title,
			Type:             typ,
			BitLen:           row.BitLen,
			Scale:            row.Scale,
			Reference:        row.Reference,
			ReplicationGroup: noGroup,
			Value:            math.NaN(),
		})

		return nil

	case fxy.ClassOperator:
		*out = append(*out, Field{
			FXY:              ref,
			Parent:           parent,
			Title:            operatorTitle(ref),
			Type:             format.FieldOperator,
			ReplicationGroup: noGroup,
			Value:            math.NaN(),
		})

		return nil

	case fxy.ClassSequence:
		children, err := store.TableD(ref)
		if err != nil {
			return err
		}

		return expandChildren(store, children, ref, out)

	case fxy.ClassReplication:
		return fmt.Errorf("%w: replication descriptor %s outside a sequence body", errs.ErrBadDescriptor, ref)

	default:
		return fmt.Errorf("%w: unknown descriptor class for %s", errs.ErrBadDescriptor, ref)
	}
}

func expandChildren(store *tables.Store, children []fxy.Ref, parent fxy.Ref, out *[]Field) error {
	for i := 0; i < len(children); i++ {
		c := children[i]

		if c.Class() != fxy.ClassReplication {
			if err := expandOne(store, c, parent, out); err != nil {
				return err
			}

			continue
		}

		groupIdx := len(*out)
		*out = append(*out, Field{
			FXY:              c,
			Parent:           parent,
			Title:            fmt.Sprintf("replication of %d descriptor(s)", c.X),
			Type:             format.FieldReplication,
			ReplicationGroup: noGroup,
			Value:            math.NaN(),
		})

		// Y==0 means delayed: the immediately following descriptor carries
		// the repetition count and is itself part of the replication body.
		if c.Y == 0 {
			i++
			if i >= len(children) {
				return fmt.Errorf("%w: replication %s missing its delayed count descriptor", errs.ErrBadDescriptor, c)
			}
			start := len(*out)
			if err := expandOne(store, children[i], parent, out); err != nil {
				return err
			}
			tagGroup(*out, start, len(*out), groupIdx)
		}

		bodyStart := len(*out)
		for k := 0; k < c.X; k++ {
			i++
			if i >= len(children) {
				return fmt.Errorf("%w: replication %s body truncated", errs.ErrBadDescriptor, c)
			}
			if err := expandOne(store, children[i], parent, out); err != nil {
				return err
			}
		}
		tagGroup(*out, bodyStart, len(*out), groupIdx)
	}

	return nil
}

// tagGroup assigns group to every field in [start:end) that isn't already
// tagged by a more deeply nested replication.
func tagGroup(fields []Field, start, end, group int) {
	for i := start; i < end; i++ {
		if fields[i].ReplicationGroup == noGroup {
			fields[i].ReplicationGroup = group
		}
	}
}

// Group returns the indices of every field whose ReplicationGroup equals
// the index of the replication marker at markerIdx.
func Group(fields []Field, markerIdx int) []int {
	var idxs []int
	for i, f := range fields {
		if f.ReplicationGroup == markerIdx {
			idxs = append(idxs, i)
		}
	}

	return idxs
}

// FindReplication returns the index of the first FieldReplication marker
// whose immediate parent sequence is parent, searching from start onward.
// Returns -1 if none is found.
func FindReplication(fields []Field, parent fxy.Ref, start int) int {
	for i := start; i < len(fields); i++ {
		if fields[i].Type == format.FieldReplication && fields[i].Parent == parent {
			return i
		}
	}

	return -1
}

func operatorTitle(ref fxy.Ref) string {
	switch {
	case ref.F == 2 && ref.X == 1 && ref.Y == 129:
		return "set numeric width override to 24 bits"
	case ref.F == 2 && ref.X == 1 && ref.Y == 0:
		return "cancel numeric width override"
	case ref.F == 2 && ref.X == 8:
		if ref.Y == 0 {
			return "cancel ascii width override"
		}

		return fmt.Sprintf("set ascii width override to %d bits", ref.Y*8)
	default:
		return fmt.Sprintf("operator %s", ref)
	}
}
