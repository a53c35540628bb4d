package dtef

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/metadata"
	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/sheet"
	"github.com/bodgit/dtef/tileset"
	"github.com/sirupsen/logrus"
)

var errPaletteMismatch = errors.New("palette does not match the other sheets")

func readFile(fsys fs.FS, name string) ([]byte, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &tileset.MissingFileError{Name: name, Err: err}
		}
		return nil, err
	}
	return b, nil
}

type unpacker struct {
	fsys   fs.FS
	logger logrus.FieldLogger

	ix      *chunk.Indexer
	palette color.Palette
	sheets  map[string]*image.Paletted

	// Chunk index of every canonical cell of a variation sheet and of every
	// cell of a lazily loaded catalog sheet
	cells map[string]map[image.Point]int
}

func (u *unpacker) open(name string) (*image.Paletted, error) {
	if m, ok := u.sheets[name]; ok {
		return m, nil
	}

	b, err := readFile(u.fsys, name)
	if err != nil {
		return nil, err
	}

	m, err := sheet.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, &tileset.FormatError{File: name, Err: err}
	}

	if u.palette == nil {
		u.palette = m.Palette
	} else if !sheet.SamePalette(u.palette, m.Palette) {
		return nil, &tileset.FormatError{File: name, Err: errPaletteMismatch}
	}

	u.sheets[name] = m

	u.logger.WithFields(logrus.Fields{
		"file":   name,
		"width":  m.Bounds().Dx(),
		"height": m.Bounds().Dy(),
	}).Debug("Loaded sheet")

	return m, nil
}

func catalogError(format string, a ...interface{}) error {
	return &tileset.FormatError{File: MetadataFilename, Err: fmt.Errorf(format, a...)}
}

func isVariationSheet(name string) bool {
	for _, v := range VariationFilenames {
		if v == name {
			return true
		}
	}
	return false
}

// resolve returns the chunk index of the cell referenced by catalog tile t.
func (u *unpacker) resolve(t metadata.Tile) (int, error) {
	if !fs.ValidPath(t.File) {
		return 0, catalogError("invalid tile file %q", t.File)
	}

	if isVariationSheet(t.File) {
		// Canonical cells resolve to what the canonical pass assigned,
		// inheritance included
		if i, ok := u.cells[t.File][image.Pt(t.X, t.Y)]; ok {
			return i, nil
		}
		m, err := u.open(t.File)
		if err != nil {
			return 0, err
		}
		px, err := chunk.FromImage(m, t.X, t.Y)
		if err != nil {
			return 0, catalogError("tile (%d, %d) of %s: %w", t.X, t.Y, t.File, err)
		}
		return u.ix.Insert(px), nil
	}

	cells, ok := u.cells[t.File]
	if !ok {
		m, err := u.open(t.File)
		if err != nil {
			return 0, err
		}

		// Index every cell as soon as the sheet is first used
		cells = make(map[image.Point]int)
		cols, rows := chunk.Grid(m)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				px, err := chunk.FromImage(m, x, y)
				if err != nil {
					return 0, err
				}
				cells[image.Pt(x, y)] = u.ix.Insert(px)
			}
		}
		u.cells[t.File] = cells
	}

	i, ok := cells[image.Pt(t.X, t.Y)]
	if !ok {
		return 0, catalogError("tile (%d, %d) is outside %s", t.X, t.Y, t.File)
	}
	return i, nil
}

// Unpack reads an exchange package from fsys into a new tileset. Nothing
// outside the returned tileset is modified.
func (c *Converter) Unpack(fsys fs.FS) (*tileset.Tileset, error) {
	b, err := readFile(fsys, MetadataFilename)
	if err != nil {
		return nil, err
	}
	doc, err := metadata.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	u := &unpacker{
		fsys:   fsys,
		logger: c.logger,
		ix:     chunk.NewIndexer(),
		sheets: make(map[string]*image.Paletted),
		cells:  make(map[string]map[image.Point]int),
	}

	var variations [tileset.Variations]*image.Paletted
	for v, name := range VariationFilenames {
		u.cells[name] = make(map[image.Point]int)
		m, err := u.open(name)
		if err != nil {
			return nil, err
		}
		if err := sheet.CheckSize(m, sheet.Columns, sheet.Rows); err != nil {
			return nil, &tileset.FormatError{File: name, Err: err}
		}
		variations[v] = m
	}

	ts := tileset.New()

	// Chunk 0 is always blank, the solid wall chunk follows it
	u.ix.Insert(chunk.Chunk{})
	x, y := rules.Position(rules.Index(rules.All))
	full, err := chunk.FromImage(variations[0], x, y)
	if err != nil {
		return nil, err
	}
	u.ix.Insert(full)

	var assigned [tileset.Variations]int
	table := rules.Table()
	for ci, cat := range tileset.Categories {
		for p, r := range table {
			if r.Empty {
				continue
			}
			x, y := rules.Position(p)
			x += ci * rules.Columns

			for v, m := range variations {
				px, err := chunk.FromImage(m, x, y)
				if err != nil {
					return nil, err
				}
				if v > 0 && px.IsBlank() {
					assigned[v] = assigned[v-1]
				} else {
					assigned[v] = u.ix.Insert(px)
				}
				u.cells[VariationFilenames[v]][image.Pt(x, y)] = assigned[v]
				for _, mask := range rules.Bucket(p) {
					ts.Mappings[cat][mask][v] = assigned[v]
				}
			}
		}
	}

	extras := make(map[tileset.ExtraKind]map[int]int)
	for _, t := range doc.Tiles {
		i, err := u.resolve(t)
		if err != nil {
			return nil, err
		}
		for _, r := range t.Refs {
			if r.Special {
				if extras[r.Kind] == nil {
					extras[r.Kind] = make(map[int]int)
				}
				extras[r.Kind][r.Index] = i
				continue
			}
			if err := ts.SetMapping(r.Category, r.Mask, r.Variation, i); err != nil {
				return nil, &tileset.FormatError{File: MetadataFilename, Err: err}
			}
		}
	}

	for _, k := range tileset.ExtraKinds {
		for n := 0; n < len(extras[k]); n++ {
			i, ok := extras[k][n]
			if !ok {
				return nil, catalogError("extra %s slot %d is missing", k, n)
			}
			if err := ts.SetExtra(k, n, i); err != nil {
				return nil, err
			}
		}
	}

	ts.Palette = sheet.Opaque(u.palette)
	ts.Chunks = u.ix.Chunks()
	ts.Animations = doc.Animations

	if err := ts.Validate(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"chunks": len(ts.Chunks),
		"sheets": len(u.sheets),
	}).Info("Unpacked tileset")

	return ts, nil
}

// Import unpacks the exchange package in fsys and commits it to dst. dst is
// left untouched if anything fails before the commit.
func (c *Converter) Import(fsys fs.FS, dst tileset.Committer) error {
	ts, err := c.Unpack(fsys)
	if err != nil {
		return err
	}
	return dst.Commit(ts)
}
