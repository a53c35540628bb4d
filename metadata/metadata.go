/*
Package metadata implements the XML document that accompanies the tile
sheets of an exchange package.

The document describes the two animated palettes and catalogs every chunk
that cannot be expressed by a canonical grid cell:

	<DungeonTileset dimensions="24">
	  <Animation palette="10">
	    <Frame>
	      <Color duration="6">ff8000</Color>
	      ...
	    </Frame>
	  </Animation>
	  <Animation palette="11"/>
	  <AdditionalTiles>
	    <Tile file="tileset_more.png" x="0" y="0">
	      <Mapping type="wall" nw="0" n="1" ne="1" e="0" se="0" s="0" sw="0" w="0" variation="0"/>
	      <SpecialMapping identifier="EOS_EXTRA_FLOOR1_0"/>
	    </Tile>
	  </AdditionalTiles>
	</DungeonTileset>

Older documents store a single duration on the Animation element instead of
one per color on the first frame; both are accepted when decoding.
*/
package metadata

import (
	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/tileset"
)

// Filename is the expected filename used when writing to disk
const Filename = "tileset.dtef.xml"

// Element and attribute names.
const (
	dungeonTileset  = "DungeonTileset"
	dimensions      = "dimensions"
	animation       = "Animation"
	palette         = "palette"
	duration        = "duration"
	frame           = "Frame"
	colorTag        = "Color"
	additionalTiles = "AdditionalTiles"
	tile            = "Tile"
	mapping         = "Mapping"
	specialMapping  = "SpecialMapping"
	identifier      = "identifier"
	variation       = "variation"
	typeAttr        = "type"
)

// Tokens used for the terrain category of a mapping.
const (
	typeWall      = "wall"
	typeSecondary = "secondary"
	typeFloor     = "floor"
)

// Ref is one back-reference from a catalog tile to a rule or extra slot
// using it.
type Ref struct {
	Category  tileset.Category
	Mask      rules.Neighbor
	Variation int

	// Special refs address an extra slot instead of a rule
	Special bool
	Kind    tileset.ExtraKind
	Index   int
}

// Tile is one catalog entry: a chunk at grid cell (X, Y) of File and every
// rule or extra slot that uses it.
type Tile struct {
	File string
	X, Y int
	Refs []Ref
}

// Document is the decoded metadata.
type Document struct {
	Dimensions int
	Animations [tileset.AnimatedPalettes]tileset.Animation
	Tiles      []Tile
}

// New returns an empty document for the native chunk size.
func New() *Document {
	return &Document{
		Dimensions: chunk.Dim,
	}
}
