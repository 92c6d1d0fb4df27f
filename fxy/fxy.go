// Package fxy parses and formats BUFR descriptor references: the
// six-character "FXXYYY" strings used throughout Tables A, B, C, and D.
package fxy

import (
	"fmt"

	"github.com/axiom-data-science/bufrgo/errs"
)

// Class identifies what kind of descriptor a Ref names.
type Class int

const (
	// ClassElement (F=0) names a Table B element.
	ClassElement Class = 0
	// ClassReplication (F=1) names a replication marker.
	ClassReplication Class = 1
	// ClassOperator (F=2) names a Table C operator.
	ClassOperator Class = 2
	// ClassSequence (F=3) names a Table D sequence.
	ClassSequence Class = 3
)

// Ref is a parsed (F, X, Y) descriptor reference. It is comparable and safe
// to use as a map key.
type Ref struct {
	F int
	X int
	Y int
}

// Class returns the descriptor class implied by F.
func (r Ref) Class() Class {
	return Class(r.F)
}

// String returns the canonical zero-padded "FXXYYY" form.
func (r Ref) String() string {
	return fmt.Sprintf("%01d%02d%03d", r.F, r.X, r.Y)
}

// New builds a Ref directly from its components, without string parsing.
func New(f, x, y int) Ref {
	return Ref{F: f, X: x, Y: y}
}

// Parse converts a six-character "FXXYYY" descriptor string into a Ref.
// F must be one digit, X two digits, Y three digits, all decimal.
func Parse(s string) (Ref, error) {
	if len(s) != 6 {
		return Ref{}, fmt.Errorf("%w: descriptor %q must be exactly 6 characters", errs.ErrBadDescriptor, s)
	}

	for i := 0; i < 6; i++ {
		if s[i] < '0' || s[i] > '9' {
			return Ref{}, fmt.Errorf("%w: descriptor %q contains non-digit character", errs.ErrBadDescriptor, s)
		}
	}

	f := int(s[0] - '0')
	x := int(s[1]-'0')*10 + int(s[2]-'0')
	y := int(s[3]-'0')*100 + int(s[4]-'0')*10 + int(s[5]-'0')

	return Ref{F: f, X: x, Y: y}, nil
}

// MustParse is Parse, panicking on error. Intended for package-level
// literals of known-good descriptors (e.g. operator constants).
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return r
}
