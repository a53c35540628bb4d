/*
Package tileset models a native dungeon tileset: the chunk rasters, the
global palette, the chunk index of every neighbor rule per terrain category
and variation, the irregular extra slots and the two animated palettes.

Source is the read side used when exporting; Committer is the single write
point used when importing.
*/
package tileset

import (
	"fmt"
	"image/color"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/rules"
)

const (
	// Variations is the number of alternate appearances per rule
	Variations = 3
	// PaletteSize is the number of colors in the global palette
	PaletteSize = 256
	// ColorsPerPalette is the number of colors in each sub-palette
	ColorsPerPalette = 16
	// AnimatedPalettes is the number of sub-palettes that can be animated
	AnimatedPalettes = 2
	// FirstAnimatedPalette is the sub-palette number of the first animated
	// palette
	FirstAnimatedPalette = 10
)

// Category is a terrain category.
type Category int

// Terrain categories, in native order.
const (
	Wall Category = iota
	Water
	Floor
	numCategories
)

// Categories lists every terrain category in native order.
var Categories = [numCategories]Category{Wall, Water, Floor}

func (c Category) String() string {
	switch c {
	case Wall:
		return "wall"
	case Water:
		return "water"
	case Floor:
		return "floor"
	}
	return "unknown"
}

// ExtraKind is a kind of irregular single-slot chunk with no neighbor
// semantics. The engine meaning of WallOrVoid is not known and the slots are
// carried through unchanged.
type ExtraKind int

// Extra kinds, in native order.
const (
	Floor1 ExtraKind = iota
	WallOrVoid
	Floor2
	numExtraKinds
)

// ExtraKinds lists every extra kind in native order.
var ExtraKinds = [numExtraKinds]ExtraKind{Floor1, WallOrVoid, Floor2}

func (k ExtraKind) String() string {
	switch k {
	case Floor1:
		return "FLOOR1"
	case WallOrVoid:
		return "WALL_OR_VOID"
	case Floor2:
		return "FLOOR2"
	}
	return "UNKNOWN"
}

// Animation describes one animated sub-palette. Each frame holds all 16
// colors; Durations holds how many engine frames each color is shown for.
type Animation struct {
	Frames    [][ColorsPerPalette]color.RGBA
	Durations [ColorsPerPalette]int
}

// Animated reports whether the palette has any frames.
func (a Animation) Animated() bool {
	return len(a.Frames) > 0
}

func (a Animation) clone() Animation {
	return Animation{
		Frames:    append([][ColorsPerPalette]color.RGBA(nil), a.Frames...),
		Durations: a.Durations,
	}
}

// Source is the read side of a native tileset.
type Source interface {
	// Colors returns the global palette
	Colors() color.Palette
	// Chunk returns the rendered content of chunk i
	Chunk(i int) (chunk.Chunk, error)
	// Mapping returns the chunk index drawn for raw mask m of category c
	// using variation v
	Mapping(c Category, m rules.Neighbor, v int) (int, error)
	// ExtraLen returns the number of slots of kind k
	ExtraLen(k ExtraKind) int
	// Extra returns the chunk index of slot i of kind k
	Extra(k ExtraKind, i int) (int, error)
	// Animation returns the animation of animated palette slot 0 or 1
	Animation(slot int) Animation
}

// Committer receives a fully resolved tileset.
type Committer interface {
	Commit(*Tileset) error
}

// Tileset is an in-memory native tileset. It implements Source and
// Committer.
type Tileset struct {
	Palette    color.Palette
	Chunks     []chunk.Chunk
	Mappings   [numCategories][rules.NumMasks][Variations]int
	Extras     [numExtraKinds][]int
	Animations [AnimatedPalettes]Animation
}

// New returns a tileset with an all black palette and a single blank chunk
// used by every rule.
func New() *Tileset {
	t := &Tileset{
		Palette: make(color.Palette, PaletteSize),
		Chunks:  make([]chunk.Chunk, 1),
	}
	for i := range t.Palette {
		t.Palette[i] = color.RGBA{A: 0xff}
	}
	return t
}

// Colors returns the global palette.
func (t *Tileset) Colors() color.Palette {
	return t.Palette
}

// Chunk returns the content of chunk i.
func (t *Tileset) Chunk(i int) (chunk.Chunk, error) {
	if i < 0 || i >= len(t.Chunks) {
		return chunk.Chunk{}, &RangeError{Name: "chunk", Value: i, Limit: len(t.Chunks)}
	}
	return t.Chunks[i], nil
}

func checkMapping(c Category, v int) error {
	if c < 0 || c >= numCategories {
		return &RangeError{Name: "category", Value: int(c), Limit: int(numCategories)}
	}
	if v < 0 || v >= Variations {
		return &RangeError{Name: "variation", Value: v, Limit: Variations}
	}
	return nil
}

// Mapping returns the chunk index drawn for raw mask m of category c using
// variation v.
func (t *Tileset) Mapping(c Category, m rules.Neighbor, v int) (int, error) {
	if err := checkMapping(c, v); err != nil {
		return 0, err
	}
	return t.Mappings[c][m][v], nil
}

// SetMapping sets the chunk index drawn for raw mask m of category c using
// variation v.
func (t *Tileset) SetMapping(c Category, m rules.Neighbor, v, i int) error {
	if err := checkMapping(c, v); err != nil {
		return err
	}
	t.Mappings[c][m][v] = i
	return nil
}

// ExtraLen returns the number of slots of kind k.
func (t *Tileset) ExtraLen(k ExtraKind) int {
	if k < 0 || k >= numExtraKinds {
		return 0
	}
	return len(t.Extras[k])
}

// Extra returns the chunk index of slot i of kind k.
func (t *Tileset) Extra(k ExtraKind, i int) (int, error) {
	if i < 0 || i >= t.ExtraLen(k) {
		return 0, &RangeError{Name: k.String(), Value: i, Limit: t.ExtraLen(k)}
	}
	return t.Extras[k][i], nil
}

// SetExtra sets the chunk index of slot i of kind k, growing the slots of
// that kind as needed. New slots in between are set to -1.
func (t *Tileset) SetExtra(k ExtraKind, i, idx int) error {
	if k < 0 || k >= numExtraKinds {
		return &RangeError{Name: "extra kind", Value: int(k), Limit: int(numExtraKinds)}
	}
	if i < 0 {
		return &RangeError{Name: k.String(), Value: i, Limit: len(t.Extras[k])}
	}
	for len(t.Extras[k]) <= i {
		t.Extras[k] = append(t.Extras[k], -1)
	}
	t.Extras[k][i] = idx
	return nil
}

// Animation returns the animation of animated palette slot 0 or 1.
func (t *Tileset) Animation(slot int) Animation {
	if slot < 0 || slot >= AnimatedPalettes {
		return Animation{}
	}
	return t.Animations[slot]
}

// Clone returns a deep copy of t.
func (t *Tileset) Clone() *Tileset {
	c := &Tileset{
		Palette:  append(color.Palette(nil), t.Palette...),
		Chunks:   append([]chunk.Chunk(nil), t.Chunks...),
		Mappings: t.Mappings,
	}
	for k := range t.Extras {
		c.Extras[k] = append([]int(nil), t.Extras[k]...)
	}
	for i := range t.Animations {
		c.Animations[i] = t.Animations[i].clone()
	}
	return c
}

// Validate checks that t has a full palette and that every rule and extra
// slot refers to an existing chunk.
func (t *Tileset) Validate() error {
	if len(t.Palette) != PaletteSize {
		return fmt.Errorf("dtef: palette has %d colors, expected %d", len(t.Palette), PaletteSize)
	}
	for c := range t.Mappings {
		for m := range t.Mappings[c] {
			for v, i := range t.Mappings[c][m] {
				if i < 0 || i >= len(t.Chunks) {
					return &UnresolvedError{Category: Category(c), Mask: rules.Neighbor(m), Variation: v, Index: i}
				}
			}
		}
	}
	for k := range t.Extras {
		for n, i := range t.Extras[k] {
			if i < 0 || i >= len(t.Chunks) {
				return &UnresolvedError{Extra: true, Kind: ExtraKind(k), Slot: n, Index: i}
			}
		}
	}
	return nil
}

// Commit replaces the contents of t with a copy of n.
func (t *Tileset) Commit(n *Tileset) error {
	if err := n.Validate(); err != nil {
		return err
	}
	*t = *n.Clone()
	return nil
}
