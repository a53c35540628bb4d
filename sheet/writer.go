package sheet

import (
	"errors"
	"image"
	"image/png"
	"io"
)

// Encode writes the sheet m to w as an indexed-color PNG.
func Encode(w io.Writer, m *image.Paletted) error {
	if len(m.Palette) != Colors {
		return ErrPaletteSize
	}
	if m.Rect.Empty() {
		return errors.New("sheet: image is empty")
	}

	// Adjust image so that top-left corner is at (0, 0)
	if m.Rect.Min != (image.Point{}) {
		dup := *m
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		m = &dup
	}

	e := png.Encoder{CompressionLevel: png.BestCompression}

	return e.Encode(w, m)
}
