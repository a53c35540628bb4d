package dtef

import (
	"bytes"
	"errors"
	"image"
	"io/fs"

	"github.com/bodgit/dtef/animation"
	"github.com/bodgit/dtef/metadata"
	"github.com/bodgit/dtef/tileset"
	"github.com/sirupsen/logrus"
)

// Animate renders the animated palettes of the exchange package in fsys as
// frames for every sheet. The overflow sheet is optional.
func (c *Converter) Animate(fsys fs.FS) ([]animation.Frame, error) {
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
		sheets: make(map[string]*image.Paletted),
	}

	var sheets []animation.Sheet
	for _, name := range append(VariationFilenames[:], OverflowFilename) {
		m, err := u.open(name)
		if err != nil {
			var me *tileset.MissingFileError
			if name == OverflowFilename && errors.As(err, &me) {
				continue
			}
			return nil, err
		}
		sheets = append(sheets, animation.Sheet{Name: name, Image: m})
	}

	frames := animation.Materialize(doc.Animations, sheets)

	c.logger.WithFields(logrus.Fields{
		"sheets": len(sheets),
		"frames": len(frames),
	}).Info("Materialized animation")

	return frames, nil
}
