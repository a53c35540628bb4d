package dtef

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/sheet"
	"github.com/bodgit/dtef/tileset"
	"github.com/stretchr/testify/require"
)

func testPalette() color.Palette {
	p := make(color.Palette, sheet.Colors)
	for i := range p {
		p[i] = color.RGBA{uint8(i), uint8(i * 7), uint8(255 - i), 0xff}
	}
	return p
}

// pattern returns distinct non-blank content for every seed below 65536.
func pattern(seed int) chunk.Chunk {
	var c chunk.Chunk
	for i := range c {
		c[i] = uint8(i % 13)
	}
	c[0] = uint8(seed)
	c[1] = uint8(seed>>8) + 1
	return c
}

// distinct returns a tileset where every canonical cell of every variation
// has its own content, numbered in the order an import assigns indices. Chunk
// 0 is blank and unused, chunk 1 is the solid wall.
func distinct() *tileset.Tileset {
	ts := tileset.New()
	ts.Palette = testPalette()
	ts.Chunks = []chunk.Chunk{{}, pattern(1)}

	table := rules.Table()
	for _, cat := range tileset.Categories {
		for p, r := range table {
			if r.Empty {
				continue
			}
			for v := 0; v < tileset.Variations; v++ {
				idx := 1
				if cat != tileset.Wall || r.Mask != rules.All || v != 0 {
					idx = len(ts.Chunks)
					ts.Chunks = append(ts.Chunks, pattern(idx))
				}
				for _, m := range rules.Bucket(p) {
					ts.Mappings[cat][m][v] = idx
				}
			}
		}
	}
	return ts
}

func addChunk(ts *tileset.Tileset, c chunk.Chunk) int {
	ts.Chunks = append(ts.Chunks, c)
	return len(ts.Chunks) - 1
}

func mapFS(t *testing.T, p *Package) fstest.MapFS {
	files, err := p.Files()
	require.NoError(t, err)

	fsys := make(fstest.MapFS, len(files))
	for name, b := range files {
		fsys[name] = &fstest.MapFile{Data: b}
	}
	return fsys
}

func encodePNG(t *testing.T, m image.Image) []byte {
	b := new(bytes.Buffer)
	require.NoError(t, png.Encode(b, m))
	return b.Bytes()
}

func content(t *testing.T, ts tileset.Source, i int) chunk.Chunk {
	c, err := ts.Chunk(i)
	require.NoError(t, err)
	return c
}

// requireEquivalent checks that every rule and extra slot of b draws the same
// content as in a.
func requireEquivalent(t *testing.T, a, b *tileset.Tileset) {
	require.True(t, sheet.SamePalette(a.Palette, b.Palette))
	require.Equal(t, a.Animations, b.Animations)

	for _, cat := range tileset.Categories {
		for m := 0; m < rules.NumMasks; m++ {
			for v := 0; v < tileset.Variations; v++ {
				i, err := a.Mapping(cat, rules.Neighbor(m), v)
				require.NoError(t, err)
				j, err := b.Mapping(cat, rules.Neighbor(m), v)
				require.NoError(t, err)
				require.Equal(t, content(t, a, i), content(t, b, j), "%s mask %s variation %d", cat, rules.Neighbor(m), v)
			}
		}
	}

	for _, k := range tileset.ExtraKinds {
		require.Equal(t, a.ExtraLen(k), b.ExtraLen(k), "%s", k)
		for n := 0; n < a.ExtraLen(k); n++ {
			i, err := a.Extra(k, n)
			require.NoError(t, err)
			j, err := b.Extra(k, n)
			require.NoError(t, err)
			require.Equal(t, content(t, a, i), content(t, b, j), "%s slot %d", k, n)
		}
	}
}
