/*
Package sheet implements the indexed-color PNG sheets of an exchange package.

A variation sheet is 18 chunks wide and 8 chunks high. The first six columns
hold the wall rules, the next six the secondary terrain rules and the last six
the floor rules, each laid out in the canonical rule order. Every sheet
carries the full 256 color palette of the tileset so a palette index in a
chunk maps directly to a native palette index.
*/
package sheet

import (
	"image"
	"image/color"

	"github.com/bodgit/dtef/chunk"
)

const (
	// Columns is the number of chunk columns on a sheet
	Columns = 18
	// Rows is the number of chunk rows on a variation sheet
	Rows = 8
	// Width is the width of a variation sheet in pixels
	Width = Columns * chunk.Dim
	// Height is the height of a variation sheet in pixels
	Height = Rows * chunk.Dim
	// Colors is the number of palette entries every sheet must carry
	Colors = 256
)

// New returns a blank sheet of cols by rows chunks using palette p. Every
// pixel uses palette index 0.
func New(cols, rows int, p color.Palette) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, cols*chunk.Dim, rows*chunk.Dim), p)
}

// OverflowRows returns the number of rows needed to hold n chunks on an
// overflow sheet, never less than one.
func OverflowRows(n int) int {
	if n <= Columns {
		return 1
	}
	return (n + Columns - 1) / Columns
}

// Opaque returns a copy of p with every color converted to opaque RGB.
func Opaque(p color.Palette) color.Palette {
	o := make(color.Palette, len(p))
	for i, c := range p {
		r, g, b, _ := c.RGBA()
		o[i] = color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xff}
	}
	return o
}

// SamePalette reports whether a and b have the same length and the same RGB
// value at every index. Alpha is ignored.
func SamePalette(a, b color.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		r1, g1, b1, _ := a[i].RGBA()
		r2, g2, b2, _ := b[i].RGBA()
		if r1>>8 != r2>>8 || g1>>8 != g2>>8 || b1>>8 != b2>>8 {
			return false
		}
	}
	return true
}
