package tileset

import (
	"fmt"

	"github.com/bodgit/dtef/rules"
)

// MissingFileError is returned when a file referenced by a package is absent.
type MissingFileError struct {
	Name string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("dtef: required file %q is missing", e.Name)
}

func (e *MissingFileError) Unwrap() error {
	return e.Err
}

// FormatError is returned when a sheet or the metadata document is malformed.
type FormatError struct {
	File string
	Err  error
}

func (e *FormatError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("dtef: %v", e.Err)
	}
	return fmt.Sprintf("dtef: %s: %v", e.File, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// RangeError is returned when an index is outside [0, Limit).
type RangeError struct {
	Name  string
	Value int
	Limit int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("dtef: %s index %d out of range [0, %d)", e.Name, e.Value, e.Limit)
}

// UnresolvedError is returned when a rule or extra slot does not refer to an
// existing chunk.
type UnresolvedError struct {
	Category  Category
	Mask      rules.Neighbor
	Variation int
	Extra     bool
	Kind      ExtraKind
	Slot      int
	Index     int
}

func (e *UnresolvedError) Error() string {
	if e.Extra {
		return fmt.Sprintf("dtef: extra %s slot %d refers to missing chunk %d", e.Kind, e.Slot, e.Index)
	}
	return fmt.Sprintf("dtef: %s rule %s variation %d refers to missing chunk %d", e.Category, e.Mask, e.Variation, e.Index)
}
