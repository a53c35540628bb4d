package sheet

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/bodgit/dtef/chunk"
)

var (
	// ErrNotIndexed is returned when a sheet is not a palette-indexed image
	ErrNotIndexed = errors.New("sheet: image is not palette-indexed")
	// ErrPaletteSize is returned when a sheet does not carry a full palette
	ErrPaletteSize = fmt.Errorf("sheet: palette must have exactly %d colors", Colors)
	// ErrTooSmall is returned when a sheet cannot hold the expected grid
	ErrTooSmall = errors.New("sheet: image is too small")
)

// Decode reads a PNG sheet from r. The image must be palette-indexed with a
// full 256 color palette.
func Decode(r io.Reader) (*image.Paletted, error) {
	m, err := png.Decode(r)
	if err != nil {
		return nil, err
	}

	pm, ok := m.(*image.Paletted)
	if !ok {
		return nil, ErrNotIndexed
	}

	if len(pm.Palette) != Colors {
		return nil, fmt.Errorf("%w, found %d", ErrPaletteSize, len(pm.Palette))
	}

	return pm, nil
}

// CheckSize returns ErrTooSmall if m cannot hold cols by rows chunks.
func CheckSize(m image.Image, cols, rows int) error {
	if c, r := chunk.Grid(m); c < cols || r < rows {
		return fmt.Errorf("%w: %dx%d pixels, need at least %dx%d", ErrTooSmall, m.Bounds().Dx(), m.Bounds().Dy(), cols*chunk.Dim, rows*chunk.Dim)
	}
	return nil
}
