package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"testing"

	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/tileset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameXML(base uint8, durations []int) string {
	b := new(strings.Builder)
	b.WriteString("<Frame>")
	for i := 0; i < tileset.ColorsPerPalette; i++ {
		if durations != nil {
			fmt.Fprintf(b, `<Color duration="%d">%02x0000</Color>`, durations[i], base+uint8(i))
		} else {
			fmt.Fprintf(b, `<Color>%02x0000</Color>`, base+uint8(i))
		}
	}
	b.WriteString("</Frame>")
	return b.String()
}

func repeat(n, count int) []int {
	d := make([]int, count)
	for i := range d {
		d[i] = n
	}
	return d
}

func document(body string) string {
	return `<?xml version="1.0"?><DungeonTileset dimensions="24">` + body + `</DungeonTileset>`
}

func TestDecodeLegacyDurations(t *testing.T) {
	legacy := document(`<Animation palette="10" duration="6">` + frameXML(0, nil) + frameXML(0x10, nil) + `</Animation><Animation palette="11"/>`)
	current := document(`<Animation palette="10">` + frameXML(0, repeat(6, 16)) + frameXML(0x10, nil) + `</Animation><Animation palette="11"/>`)

	a, err := Decode(strings.NewReader(legacy))
	require.NoError(t, err)
	b, err := Decode(strings.NewReader(current))
	require.NoError(t, err)

	assert.Equal(t, b, a)
	assert.Len(t, a.Animations[0].Frames, 2)
	assert.Equal(t, repeat(6, 16), a.Animations[0].Durations[:])
	assert.Equal(t, color.RGBA{R: 0x11, A: 0xff}, a.Animations[0].Frames[1][1])
	assert.False(t, a.Animations[1].Animated())
}

func TestDecodePerColorWins(t *testing.T) {
	d := repeat(3, 16)
	d[4] = 9
	doc := document(`<Animation palette="11" duration="6">` + frameXML(0, d) + `</Animation>`)

	x, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 9, x.Animations[1].Durations[4])
	assert.Equal(t, 3, x.Animations[1].Durations[0])
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]string{
		"wrong root":           `<Tileset dimensions="24"/>`,
		"missing dimensions":   `<DungeonTileset/>`,
		"wrong dimensions":     `<DungeonTileset dimensions="16"/>`,
		"fifteen colors":       document(`<Animation palette="10" duration="1"><Frame>` + strings.Repeat(`<Color>000000</Color>`, 15) + `</Frame></Animation>`),
		"bad color":            document(`<Animation palette="10" duration="1"><Frame>` + strings.Repeat(`<Color>zz0000</Color>`, 16) + `</Frame></Animation>`),
		"no durations":         document(`<Animation palette="10">` + frameXML(0, nil) + `</Animation>`),
		"partial durations":    document(`<Animation palette="10"><Frame><Color duration="1">000000</Color>` + strings.Repeat(`<Color>000000</Color>`, 15) + `</Frame></Animation>`),
		"wrong palette":        document(`<Animation palette="3"/>`),
		"duplicate palette":    document(`<Animation palette="10"/><Animation palette="10"/>`),
		"unexpected in frame":  document(`<Animation palette="10" duration="1"><Frame>` + strings.Repeat(`<Colour>000000</Colour>`, 16) + `</Frame></Animation>`),
		"unknown type":         document(`<AdditionalTiles><Tile file="tileset_more.png" x="0" y="0"><Mapping type="lava" nw="0" n="0" ne="0" e="0" se="0" s="0" sw="0" w="0" variation="0"/></Tile></AdditionalTiles>`),
		"missing neighbor":     document(`<AdditionalTiles><Tile file="tileset_more.png" x="0" y="0"><Mapping type="wall" nw="0" n="0" ne="0" e="0" se="0" s="0" sw="0" variation="0"/></Tile></AdditionalTiles>`),
		"unknown identifier":   document(`<AdditionalTiles><Tile file="tileset_more.png" x="0" y="0"><SpecialMapping identifier="EOS_EXTRA_LAVA_0"/></Tile></AdditionalTiles>`),
		"missing file":         document(`<AdditionalTiles><Tile x="0" y="0"/></AdditionalTiles>`),
		"negative coordinates": document(`<AdditionalTiles><Tile file="tileset_more.png" x="-1" y="0"/></AdditionalTiles>`),
		"unexpected in tile":   document(`<AdditionalTiles><Tile file="tileset_more.png" x="0" y="0"><Other/></Tile></AdditionalTiles>`),
		"malformed":            `<DungeonTileset dimensions="24">`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			var fe *tileset.FormatError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, Filename, fe.File)
		})
	}
}

func TestDecodeVariationRange(t *testing.T) {
	doc := document(`<AdditionalTiles><Tile file="tileset_more.png" x="0" y="0"><Mapping type="floor" nw="0" n="0" ne="0" e="0" se="0" s="0" sw="0" w="0" variation="3"/></Tile></AdditionalTiles>`)

	_, err := Decode(strings.NewReader(doc))
	var re *tileset.RangeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 3, re.Value)
}

func TestDecodeIgnoresUnknownBlocks(t *testing.T) {
	doc := document(`<SomethingElse><Foo/></SomethingElse><AdditionalTiles><Tile file="tileset_more.png" x="1" y="2"><SpecialMapping identifier="EOS_EXTRA_WALL_OR_VOID_4"/></Tile></AdditionalTiles>`)

	d, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, d.Tiles, 1)
	assert.Equal(t, Tile{File: "tileset_more.png", X: 1, Y: 2, Refs: []Ref{{Special: true, Kind: tileset.WallOrVoid, Index: 4}}}, d.Tiles[0])
}

func TestRoundTrip(t *testing.T) {
	d := New()
	for i := range d.Animations[0].Durations {
		d.Animations[0].Durations[i] = i
	}
	var f [tileset.ColorsPerPalette]color.RGBA
	for i := range f {
		f[i] = color.RGBA{R: uint8(i), G: 0x80, B: 0xff, A: 0xff}
	}
	d.Animations[0].Frames = append(d.Animations[0].Frames, f, f)
	d.Tiles = []Tile{
		{
			File: "tileset_more.png",
			X:    3,
			Y:    0,
			Refs: []Ref{
				{Category: tileset.Water, Mask: rules.North | rules.NorthEast, Variation: 2},
				{Category: tileset.Wall, Mask: rules.All, Variation: 0},
				{Special: true, Kind: tileset.Floor2, Index: 7},
			},
		},
		{File: "tileset_1.png", X: 5, Y: 5},
	}

	b, err := d.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("<?xml")))
	assert.Contains(t, string(b), `identifier="EOS_EXTRA_FLOOR2_7"`)
	assert.Contains(t, string(b), `type="secondary" nw="0" n="1" ne="1" e="0" se="0" s="0" sw="0" w="0" variation="2"`)

	n := new(Document)
	require.NoError(t, n.UnmarshalBinary(b))
	assert.Equal(t, d, n)
}

func TestEncodeRejectsBadVariation(t *testing.T) {
	d := New()
	d.Tiles = []Tile{{File: "tileset_more.png", Refs: []Ref{{Variation: 5}}}}

	err := Encode(new(bytes.Buffer), d)
	var re *tileset.RangeError
	assert.True(t, errors.As(err, &re))
}

func TestIdentifier(t *testing.T) {
	for _, k := range tileset.ExtraKinds {
		kind, i, err := ParseIdentifier(Identifier(k, 12))
		require.NoError(t, err)
		assert.Equal(t, k, kind)
		assert.Equal(t, 12, i)
	}
}
