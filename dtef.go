/*
Package dtef converts native dungeon tilesets to and from the Dungeon Tile
Exchange Format.

An exchange package is a directory holding three variation sheets, an
overflow sheet and an XML document:

	tileset_0.png     variation 0 of every canonical rule
	tileset_1.png     variation 1, blank cells inherit variation 0
	tileset_2.png     variation 2, blank cells inherit variation 1
	tileset_more.png  chunks not found on any variation sheet
	tileset.dtef.xml  animated palettes and the catalog of extra mappings

Every raw neighbor mask that draws something other than its canonical rule,
and every extra slot, is listed in the catalog with the sheet cell holding
its chunk.
*/
package dtef

import (
	"io/ioutil"

	"github.com/bodgit/dtef/metadata"
	"github.com/bodgit/dtef/tileset"
	"github.com/sirupsen/logrus"
)

// Filenames used within a package.
const (
	Variation0Filename = "tileset_0.png"
	Variation1Filename = "tileset_1.png"
	Variation2Filename = "tileset_2.png"
	OverflowFilename   = "tileset_more.png"
	MetadataFilename   = metadata.Filename
)

// VariationFilenames lists the sheet used for each variation slot.
var VariationFilenames = [tileset.Variations]string{
	Variation0Filename,
	Variation1Filename,
	Variation2Filename,
}

// Converter converts between native tilesets and exchange packages. A
// Converter holds no state between calls.
type Converter struct {
	logger logrus.FieldLogger
}

// New returns a Converter that logs to logger. A nil logger discards all
// output.
func New(logger logrus.FieldLogger) *Converter {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(ioutil.Discard)
		logger = l
	}
	return &Converter{
		logger: logger,
	}
}
