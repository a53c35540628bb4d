package animation

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ericpauley/go-quantize/quantize"
)

// Engine frames per second
const fps = 60

func delay(duration int) int {
	// GIF delays are in hundredths of a second and most viewers clamp
	// anything shorter than two
	d := duration * 100 / fps
	if d < 2 {
		d = 2
	}
	return d
}

// EncodeGIF writes a looping preview of frames to w. The first frame must be
// the base frame of a sheet; only frames of that sheet are used and each is
// drawn over the base frame.
func EncodeGIF(w io.Writer, frames []Frame) error {
	if len(frames) == 0 || !frames[0].Base() {
		return errors.New("animation: first frame must be a base frame")
	}

	base := frames[0].Image
	b := base.Bounds()
	q := quantize.MedianCutQuantizer{AddTransparent: true}

	g := &gif.GIF{}
	for _, f := range frames {
		if f.Sheet != frames[0].Sheet {
			continue
		}

		m := image.NewNRGBA(b)
		draw.Draw(m, b, base, b.Min, draw.Src)
		if !f.Base() {
			draw.Draw(m, b, f.Image, b.Min, draw.Over)
		}

		pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, 256), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)

		g.Image = append(g.Image, pm)
		g.Delay = append(g.Delay, delay(f.Duration))
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}

	return gif.EncodeAll(w, g)
}

// WriteDir writes every frame to dir as a PNG file named after the frame.
// Base frames overwrite a sheet of the same name, so dir should not be the
// package directory.
func WriteDir(dir string, frames []Frame) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	for _, f := range frames {
		b := new(bytes.Buffer)
		if err := png.Encode(b, f.Image); err != nil {
			return err
		}
		if err := ioutil.WriteFile(filepath.Join(dir, f.Name), b.Bytes(), 0666); err != nil {
			return err
		}
	}
	return nil
}
