/*
Package animation renders the animated palettes of an exchange package as
plain image frames for engines that cannot cycle palette colors.

Colors from either animated palette that share the same duration and number
of frames are merged into one group and step together. Every sheet gets a
base frame with the first frame of every animated color applied; each group
then gets one extra frame per step where its colors change, drawn only over
the chunks that actually use them.
*/
package animation

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/tileset"
)

// Group is a set of animated colors that change at the same time.
type Group struct {
	Duration int
	Frames   int
	// Colors holds the global palette index of every member
	Colors []int
	// Values holds the color of each member at each step
	Values [][]color.RGBA
}

func paletteIndex(slot, c int) int {
	return (tileset.FirstAnimatedPalette+slot)*tileset.ColorsPerPalette + c
}

// Groups returns the color groups of anims in order of first appearance.
// Colors of unanimated palettes and colors with no duration are skipped.
func Groups(anims [tileset.AnimatedPalettes]tileset.Animation) []Group {
	type key struct {
		duration, frames int
	}

	var groups []Group
	seen := make(map[key]int)

	for slot, a := range anims {
		if !a.Animated() {
			continue
		}
		for c, d := range a.Durations {
			if d <= 0 {
				continue
			}
			k := key{d, len(a.Frames)}
			g, ok := seen[k]
			if !ok {
				groups = append(groups, Group{
					Duration: d,
					Frames:   len(a.Frames),
					Values:   make([][]color.RGBA, len(a.Frames)),
				})
				g = len(groups) - 1
				seen[k] = g
			}
			groups[g].Colors = append(groups[g].Colors, paletteIndex(slot, c))
			for s, f := range a.Frames {
				groups[g].Values[s] = append(groups[g].Values[s], f[c])
			}
		}
	}

	return groups
}

// changed reports whether any member color differs at step s from step 0.
func (g *Group) changed(s int) bool {
	for i := range g.Colors {
		if g.Values[s][i] != g.Values[0][i] {
			return true
		}
	}
	return false
}

// Sheet is a named sheet to animate.
type Sheet struct {
	Name  string
	Image *image.Paletted
}

// Frame is one rendered image. The base frame of a sheet has Group -1 and
// keeps the sheet name.
type Frame struct {
	Name     string
	Sheet    string
	Group    int
	Step     int
	Duration int
	Image    *image.NRGBA
}

// Base reports whether f is the base frame of its sheet.
func (f *Frame) Base() bool {
	return f.Group < 0
}

// FrameName returns the name of step s of group g for the sheet called
// name.
func FrameName(name string, g, s, duration int) string {
	stem := strings.TrimSuffix(name, ".png")
	return fmt.Sprintf("%s_group%d_frame%d.%d.png", stem, g, s, duration)
}

// footprint returns every chunk cell of m that uses any of the given palette
// indices.
func footprint(m *image.Paletted, colors []int) []image.Rectangle {
	var member [256]bool
	for _, c := range colors {
		member[c] = true
	}

	var cells []image.Rectangle
	cols, rows := chunk.Grid(m)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r := chunk.Bounds(x, y).Add(m.Rect.Min)
		cell:
			for py := r.Min.Y; py < r.Max.Y; py++ {
				for px := r.Min.X; px < r.Max.X; px++ {
					if member[m.ColorIndexAt(px, py)] {
						cells = append(cells, r)
						break cell
					}
				}
			}
		}
	}
	return cells
}

// render draws the pixels of m inside r into dst using palette p. Pixels
// using the first color of a sub-palette are transparent.
func render(dst *image.NRGBA, m *image.Paletted, p color.Palette, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := m.ColorIndexAt(x, y)
			if i%tileset.ColorsPerPalette == 0 {
				continue
			}
			dst.Set(x, y, color.NRGBAModel.Convert(p[i]))
		}
	}
}

func opaque(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xff}
}

// Materialize renders the base frame and every changing step of every group
// for each sheet.
func Materialize(anims [tileset.AnimatedPalettes]tileset.Animation, sheets []Sheet) []Frame {
	groups := Groups(anims)

	var frames []Frame
	for _, s := range sheets {
		m := s.Image
		b := m.Bounds()

		base := make(color.Palette, len(m.Palette))
		for i, c := range m.Palette {
			base[i] = opaque(c)
		}
		for _, g := range groups {
			for i, c := range g.Colors {
				if c < len(base) {
					base[c] = g.Values[0][i]
				}
			}
		}

		img := image.NewNRGBA(b)
		render(img, m, base, b)
		frames = append(frames, Frame{
			Name:  s.Name,
			Sheet: s.Name,
			Group: -1,
			Image: img,
		})

		for gi, g := range groups {
			cells := footprint(m, g.Colors)
			if len(cells) == 0 {
				continue
			}
			for step := 1; step < g.Frames; step++ {
				if !g.changed(step) {
					continue
				}
				p := append(color.Palette(nil), base...)
				for i, c := range g.Colors {
					if c < len(p) {
						p[c] = g.Values[step][i]
					}
				}
				img := image.NewNRGBA(b)
				for _, r := range cells {
					render(img, m, p, r)
				}
				frames = append(frames, Frame{
					Name:     FrameName(s.Name, gi, step, g.Duration),
					Sheet:    s.Name,
					Group:    gi,
					Step:     step,
					Duration: g.Duration,
					Image:    img,
				})
			}
		}
	}

	return frames
}
