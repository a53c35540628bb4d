/*
Package rules implements the 47 canonical neighbor rules used to lay out
dungeon tiles on a sheet and the partition of all 256 raw neighbor masks over
them.

A raw mask records which of the eight surrounding cells share the state of the
cell being drawn. A diagonal neighbor only changes the drawn chunk when both
cardinal neighbors next to it are also set, so every raw mask collapses onto
one of 47 canonical patterns.
*/
package rules

import (
	"fmt"
	"strings"
)

// Neighbor is a set of neighboring cells, using the native bit layout.
type Neighbor uint8

// Each neighboring cell.
const (
	South Neighbor = 1 << iota
	SouthEast
	East
	NorthEast
	North
	NorthWest
	West
	SouthWest
)

// All has every neighbor set.
const All = North | NorthEast | East | SouthEast | South | SouthWest | West | NorthWest

// NumMasks is the number of raw masks.
const NumMasks = 256

const (
	// Columns is the number of rule columns per category on a sheet
	Columns = 6
	// Rows is the number of rule rows on a sheet
	Rows = 8
	// Count is the number of grid cells in the table, including the empty cell
	Count = Columns * Rows
)

var names = [...]struct {
	n Neighbor
	s string
}{
	{NorthWest, "NW"},
	{North, "N"},
	{NorthEast, "NE"},
	{West, "W"},
	{East, "E"},
	{SouthWest, "SW"},
	{South, "S"},
	{SouthEast, "SE"},
}

func (n Neighbor) String() string {
	if n == 0 {
		return "0"
	}
	var parts []string
	for _, x := range names {
		if n&x.n != 0 {
			parts = append(parts, x.s)
		}
	}
	return strings.Join(parts, "|")
}

// Has reports whether every neighbor in o is also set in n.
func (n Neighbor) Has(o Neighbor) bool {
	return n&o == o
}

// Rule is one cell of the canonical grid.
type Rule struct {
	Mask Neighbor
	// Empty marks the single grid cell that holds no rule
	Empty bool
}

func (r Rule) String() string {
	if r.Empty {
		return "empty"
	}
	return r.Mask.String()
}

const (
	nw = NorthWest
	n  = North
	ne = NorthEast
	w  = West
	e  = East
	sw = SouthWest
	s  = South
	se = SouthEast
)

func rule(m Neighbor) Rule { return Rule{Mask: m} }

// Draw order on the sheet, row by row.
var table = [Count]Rule{
	rule(e | s | se), rule(w | e | sw | s | se), rule(w | sw | s), rule(e | s), rule(w | e), rule(w | s),
	rule(n | ne | e | s | se), rule(All), rule(nw | n | w | sw | s), rule(n | s), rule(0), rule(n | w),
	rule(n | ne | e), rule(nw | n | ne | w | e), rule(nw | n | w), rule(n | e), rule(s), {Empty: true},
	rule(nw | n | w | e | sw | s), rule(n | ne | w | e | s | se), rule(w | e | s), rule(e), rule(n | w | e | s), rule(w),
	rule(n | w | e | sw | s | se), rule(nw | n | ne | w | e | s), rule(n | w | e), rule(n | e | s), rule(n), rule(n | w | s),
	rule(nw | n | ne | w | e | sw | s), rule(nw | n | ne | w | e | s | se), rule(n | ne | e | s), rule(nw | n | w | s), rule(w | e | sw | s), rule(w | e | s | se),
	rule(nw | n | w | e | sw | s | se), rule(n | ne | w | e | sw | s | se), rule(n | e | s | se), rule(n | w | sw | s), rule(nw | n | w | e), rule(n | ne | w | e),
	rule(n | w | e | s | se), rule(n | w | e | sw | s), rule(n | ne | w | e | s), rule(nw | n | w | e | s), rule(n | ne | w | e | sw | s), rule(nw | n | w | e | s | se),
}

// ConsistencyError is returned when a rule table does not partition every raw
// mask exactly once.
type ConsistencyError struct {
	Mask   Neighbor
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("rules: mask %#02x (%s): %s", uint8(e.Mask), e.Mask, e.Reason)
}

// Normalize clears every diagonal neighbor whose two adjacent cardinal
// neighbors are not both set.
func Normalize(m Neighbor) Neighbor {
	if !m.Has(North | West) {
		m &^= NorthWest
	}
	if !m.Has(North | East) {
		m &^= NorthEast
	}
	if !m.Has(South | West) {
		m &^= SouthWest
	}
	if !m.Has(South | East) {
		m &^= SouthEast
	}
	return m
}

// Expand returns, for each position in t, every raw mask that collapses onto
// the rule at that position. Empty cells get no masks.
func Expand(t []Rule) ([][]Neighbor, error) {
	position := make(map[Neighbor]int, len(t))
	for i, r := range t {
		if r.Empty {
			continue
		}
		if _, ok := position[r.Mask]; ok {
			return nil, &ConsistencyError{Mask: r.Mask, Reason: "pattern appears more than once"}
		}
		position[r.Mask] = i
	}

	buckets := make([][]Neighbor, len(t))
	for i := 0; i < NumMasks; i++ {
		m := Neighbor(i)
		p, ok := position[Normalize(m)]
		if !ok {
			return nil, &ConsistencyError{Mask: m, Reason: "no matching rule"}
		}
		buckets[p] = append(buckets[p], m)
	}

	for _, r := range t {
		if r.Empty {
			continue
		}
		if Normalize(r.Mask) != r.Mask {
			return nil, &ConsistencyError{Mask: r.Mask, Reason: "rule is not in canonical form"}
		}
	}

	return buckets, nil
}

var (
	buckets   [][]Neighbor
	canonical [NumMasks]int
	index     = make(map[Neighbor]int)
)

func init() {
	var err error
	if buckets, err = Expand(table[:]); err != nil {
		panic(err)
	}
	for i, b := range buckets {
		for _, m := range b {
			canonical[m] = i
		}
		if !table[i].Empty {
			index[table[i].Mask] = i
		}
	}
}

// Table returns a copy of the canonical rule grid.
func Table() [Count]Rule {
	return table
}

// Position returns the grid column and row of table position i.
func Position(i int) (int, int) {
	return i % Columns, i / Columns
}

// Bucket returns the raw masks that collapse onto table position i, in
// ascending order.
func Bucket(i int) []Neighbor {
	return append([]Neighbor(nil), buckets[i]...)
}

// Canonical returns the table position of the rule that raw mask m collapses
// onto.
func Canonical(m Neighbor) int {
	return canonical[m]
}

// Index returns the table position of canonical pattern m, or -1 if m is not
// one of the canonical patterns.
func Index(m Neighbor) int {
	if i, ok := index[m]; ok {
		return i
	}
	return -1
}
