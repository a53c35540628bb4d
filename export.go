package dtef

import (
	"fmt"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/metadata"
	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/sheet"
	"github.com/bodgit/dtef/tileset"
	"github.com/sirupsen/logrus"
)

type placement struct {
	file string
	x, y int
}

type exporter struct {
	src    tileset.Source
	logger logrus.FieldLogger

	// Content indices, not native chunk indices
	ix     *chunk.Indexer
	native map[int]int

	placed   [tileset.Variations]map[int]placement
	overflow []int
	tiles    map[int]int

	pkg *Package
}

// content returns the content index of native chunk i.
func (e *exporter) content(i int) (int, error) {
	if c, ok := e.native[i]; ok {
		return c, nil
	}
	px, err := e.src.Chunk(i)
	if err != nil {
		return 0, err
	}
	c := e.ix.Insert(px)
	e.native[i] = c
	return c, nil
}

func (e *exporter) mapping(c tileset.Category, m rules.Neighbor, v int) (int, error) {
	i, err := e.src.Mapping(c, m, v)
	if err != nil {
		return 0, err
	}
	return e.content(i)
}

// lookup returns the first variation sheet cell holding content c.
func (e *exporter) lookup(c int) (placement, bool) {
	for _, placed := range e.placed {
		if p, ok := placed[c]; ok {
			return p, true
		}
	}
	return placement{}, false
}

// catalog records that content c is used by r, placing c on the overflow
// sheet if no sheet holds it yet.
func (e *exporter) catalog(c int, r metadata.Ref) {
	t, ok := e.tiles[c]
	if !ok {
		p, found := e.lookup(c)
		if !found {
			n := len(e.overflow)
			p = placement{OverflowFilename, n % sheet.Columns, n / sheet.Columns}
			e.overflow = append(e.overflow, c)
		}
		e.pkg.Metadata.Tiles = append(e.pkg.Metadata.Tiles, metadata.Tile{File: p.file, X: p.x, Y: p.y})
		t = len(e.pkg.Metadata.Tiles) - 1
		e.tiles[c] = t
		e.logger.WithFields(logrus.Fields{
			"file": p.file,
			"x":    p.x,
			"y":    p.y,
		}).Debug("Added catalog tile")
	}
	e.pkg.Metadata.Tiles[t].Refs = append(e.pkg.Metadata.Tiles[t].Refs, r)
}

// Export packs src into an exchange package.
func (c *Converter) Export(src tileset.Source) (*Package, error) {
	colors := src.Colors()
	if len(colors) != sheet.Colors {
		return nil, fmt.Errorf("dtef: palette has %d colors, expected %d", len(colors), sheet.Colors)
	}
	palette := sheet.Opaque(colors)

	e := &exporter{
		src:    src,
		logger: c.logger,
		ix:     chunk.NewIndexer(),
		native: make(map[int]int),
		tiles:  make(map[int]int),
		pkg: &Package{
			Metadata: metadata.New(),
		},
	}
	for v := range e.pkg.Sheets {
		e.pkg.Sheets[v] = sheet.New(sheet.Columns, sheet.Rows, palette)
		e.placed[v] = make(map[int]placement)
	}

	// Content the importer will assign to each canonical cell
	var expected [len(tileset.Categories)][rules.Count][tileset.Variations]int

	table := rules.Table()
	for ci, cat := range tileset.Categories {
		for p, r := range table {
			if r.Empty {
				continue
			}
			x, y := rules.Position(p)
			x += ci * rules.Columns

			for v := 0; v < tileset.Variations; v++ {
				n, err := e.mapping(cat, r.Mask, v)
				if err != nil {
					return nil, err
				}

				if v > 0 {
					prev := expected[ci][p][v-1]
					// Left blank, the importer inherits the previous variation
					if n == prev {
						expected[ci][p][v] = prev
						continue
					}
					// A blank cell can't be told apart from inheritance so
					// the catalog carries it instead
					if px := e.ix.Chunk(n); px.IsBlank() {
						expected[ci][p][v] = prev
						continue
					}
				}

				px := e.ix.Chunk(n)
				if err := px.Draw(e.pkg.Sheets[v], x, y); err != nil {
					return nil, err
				}
				expected[ci][p][v] = n
				if _, ok := e.placed[v][n]; !ok {
					e.placed[v][n] = placement{VariationFilenames[v], x, y}
				}
			}
		}
	}

	for ci, cat := range tileset.Categories {
		for i := 0; i < rules.NumMasks; i++ {
			m := rules.Neighbor(i)
			p := rules.Canonical(m)
			for v := 0; v < tileset.Variations; v++ {
				n, err := e.mapping(cat, m, v)
				if err != nil {
					return nil, err
				}
				if n == expected[ci][p][v] {
					continue
				}
				e.catalog(n, metadata.Ref{Category: cat, Mask: m, Variation: v})
			}
		}
	}

	extras := 0
	for _, k := range tileset.ExtraKinds {
		if l := src.ExtraLen(k); l > extras {
			extras = l
		}
	}
	for i := 0; i < extras; i++ {
		for _, k := range tileset.ExtraKinds {
			if i >= src.ExtraLen(k) {
				continue
			}
			idx, err := src.Extra(k, i)
			if err != nil {
				return nil, err
			}
			n, err := e.content(idx)
			if err != nil {
				return nil, err
			}
			e.catalog(n, metadata.Ref{Special: true, Kind: k, Index: i})
		}
	}

	e.pkg.Overflow = sheet.New(sheet.Columns, sheet.OverflowRows(len(e.overflow)), palette)
	for i, n := range e.overflow {
		px := e.ix.Chunk(n)
		if err := px.Draw(e.pkg.Overflow, i%sheet.Columns, i/sheet.Columns); err != nil {
			return nil, err
		}
	}

	for slot := range e.pkg.Metadata.Animations {
		a := src.Animation(slot)
		e.pkg.Metadata.Animations[slot] = tileset.Animation{
			Frames:    append(a.Frames[:0:0], a.Frames...),
			Durations: a.Durations,
		}
	}

	c.logger.WithFields(logrus.Fields{
		"chunks":   e.ix.Len(),
		"catalog":  len(e.pkg.Metadata.Tiles),
		"overflow": len(e.overflow),
	}).Info("Exported tileset")

	return e.pkg, nil
}
