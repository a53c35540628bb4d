package dtef

import (
	"bytes"
	"image"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/bodgit/dtef/metadata"
	"github.com/bodgit/dtef/sheet"
	"github.com/bodgit/dtef/tileset"
)

// Package is an exchange package held in memory.
type Package struct {
	Metadata *metadata.Document
	Sheets   [tileset.Variations]*image.Paletted
	Overflow *image.Paletted
}

// Files encodes every file of the package, keyed by filename.
func (p *Package) Files() (map[string][]byte, error) {
	files := make(map[string][]byte, len(p.Sheets)+2)

	encode := func(name string, m *image.Paletted) error {
		b := new(bytes.Buffer)
		if err := sheet.Encode(b, m); err != nil {
			return err
		}
		files[name] = b.Bytes()
		return nil
	}

	for i, m := range p.Sheets {
		if err := encode(VariationFilenames[i], m); err != nil {
			return nil, err
		}
	}

	if err := encode(OverflowFilename, p.Overflow); err != nil {
		return nil, err
	}

	b, err := p.Metadata.MarshalBinary()
	if err != nil {
		return nil, err
	}
	files[MetadataFilename] = b

	return files, nil
}

// WriteDir writes every file of the package into dir, creating it if
// necessary.
func (p *Package) WriteDir(dir string) error {
	files, err := p.Files()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ioutil.WriteFile(filepath.Join(dir, name), files[name], 0666); err != nil {
			return err
		}
	}

	return nil
}
