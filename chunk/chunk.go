/*
Package chunk implements the fixed-size indexed-color raster unit placed by
the dungeon renderer and a content-addressed store that assigns each distinct
chunk a stable index.

A chunk is 24 by 24 pixels, built from a 3 by 3 block of 8 by 8 tiles. Each
pixel is an index into a 256 color palette.
*/
package chunk

import (
	"errors"
	"image"
)

const (
	tileDim = 8
	tiles   = 3
	// Dim is the width and height of a chunk in pixels
	Dim = tileDim * tiles
	// Pixels is the number of pixels in a chunk
	Pixels = Dim * Dim
)

var errOutOfBounds = errors.New("chunk: cell is outside the image")

// Chunk holds the palette indices of one chunk in row-major order.
type Chunk [Pixels]uint8

// IsBlank reports whether every pixel uses palette index 0.
func (c *Chunk) IsBlank() bool {
	for _, p := range c {
		if p != 0 {
			return false
		}
	}
	return true
}

// Bounds returns the pixel rectangle covered by grid cell (x, y).
func Bounds(x, y int) image.Rectangle {
	return image.Rect(x*Dim, y*Dim, (x+1)*Dim, (y+1)*Dim)
}

// Grid returns the number of complete chunk columns and rows in m.
func Grid(m image.Image) (int, int) {
	b := m.Bounds()
	return b.Dx() / Dim, b.Dy() / Dim
}

// FromImage copies grid cell (x, y) of m.
func FromImage(m *image.Paletted, x, y int) (Chunk, error) {
	var c Chunk
	r := Bounds(x, y).Add(m.Rect.Min)
	if x < 0 || y < 0 || !r.In(m.Rect) {
		return c, errOutOfBounds
	}
	for dy := 0; dy < Dim; dy++ {
		i := m.PixOffset(r.Min.X, r.Min.Y+dy)
		copy(c[dy*Dim:(dy+1)*Dim], m.Pix[i:i+Dim])
	}
	return c, nil
}

// Draw copies c into grid cell (x, y) of m.
func (c *Chunk) Draw(m *image.Paletted, x, y int) error {
	r := Bounds(x, y).Add(m.Rect.Min)
	if x < 0 || y < 0 || !r.In(m.Rect) {
		return errOutOfBounds
	}
	for dy := 0; dy < Dim; dy++ {
		i := m.PixOffset(r.Min.X, r.Min.Y+dy)
		copy(m.Pix[i:i+Dim], c[dy*Dim:(dy+1)*Dim])
	}
	return nil
}

// IsOutOfBounds reports whether err was caused by addressing a cell outside
// an image.
func IsOutOfBounds(err error) bool {
	return errors.Is(err, errOutOfBounds)
}
