package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/tileset"
)

var (
	errDurations    = errors.New("durations for a palette or its colors are not correctly defined")
	errFrameColors  = fmt.Errorf("animation frame must have exactly %d colors", tileset.ColorsPerPalette)
	errSpecialIdent = errors.New("unrecognized special mapping identifier")
)

var identifierPattern = regexp.MustCompile(`^EOS_EXTRA_(FLOOR1|FLOOR2|WALL_OR_VOID)_(\d+)$`)

type xmlTileset struct {
	XMLName    xml.Name       `xml:"DungeonTileset"`
	Dimensions string         `xml:"dimensions,attr"`
	Animations []xmlAnimation `xml:"Animation"`
	Additional *xmlAdditional `xml:"AdditionalTiles"`
}

type xmlAnimation struct {
	Palette  string     `xml:"palette,attr"`
	Duration string     `xml:"duration,attr,omitempty"`
	Frames   []xmlFrame `xml:",any"`
}

type xmlFrame struct {
	XMLName xml.Name
	Colors  []xmlColor `xml:",any"`
}

type xmlColor struct {
	XMLName  xml.Name
	Duration string `xml:"duration,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type xmlAdditional struct {
	Tiles []xmlTile `xml:",any"`
}

type xmlTile struct {
	XMLName  xml.Name
	File     string       `xml:"file,attr"`
	X        string       `xml:"x,attr"`
	Y        string       `xml:"y,attr"`
	Mappings []xmlMapping `xml:",any"`
}

type xmlMapping struct {
	XMLName    xml.Name
	Type       string `xml:"type,attr,omitempty"`
	NW         string `xml:"nw,attr,omitempty"`
	N          string `xml:"n,attr,omitempty"`
	NE         string `xml:"ne,attr,omitempty"`
	E          string `xml:"e,attr,omitempty"`
	SE         string `xml:"se,attr,omitempty"`
	S          string `xml:"s,attr,omitempty"`
	SW         string `xml:"sw,attr,omitempty"`
	W          string `xml:"w,attr,omitempty"`
	Variation  string `xml:"variation,attr,omitempty"`
	Identifier string `xml:"identifier,attr,omitempty"`
}

type neighborAttr struct {
	name string
	n    rules.Neighbor
	v    *string
}

func (m *xmlMapping) neighbors() [8]neighborAttr {
	return [8]neighborAttr{
		{"nw", rules.NorthWest, &m.NW},
		{"n", rules.North, &m.N},
		{"ne", rules.NorthEast, &m.NE},
		{"e", rules.East, &m.E},
		{"se", rules.SouthEast, &m.SE},
		{"s", rules.South, &m.S},
		{"sw", rules.SouthWest, &m.SW},
		{"w", rules.West, &m.W},
	}
}

func formatError(format string, a ...interface{}) error {
	return &tileset.FormatError{File: Filename, Err: fmt.Errorf(format, a...)}
}

func missingAttr(element, attr string) error {
	return formatError("<%s> is missing required attribute %q", element, attr)
}

func atoi(element, attr, value string) (int, error) {
	if value == "" {
		return 0, missingAttr(element, attr)
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, formatError("<%s> attribute %q: invalid integer %q", element, attr, value)
	}
	return i, nil
}

func parseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return color.RGBA{}, formatError("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, formatError("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func formatColor(c color.RGBA) string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

func categoryToken(c tileset.Category) (string, error) {
	switch c {
	case tileset.Wall:
		return typeWall, nil
	case tileset.Water:
		return typeSecondary, nil
	case tileset.Floor:
		return typeFloor, nil
	}
	return "", fmt.Errorf("metadata: unknown category %d", c)
}

func parseCategory(s string) (tileset.Category, error) {
	switch s {
	case typeWall:
		return tileset.Wall, nil
	case typeSecondary:
		return tileset.Water, nil
	case typeFloor:
		return tileset.Floor, nil
	}
	return 0, formatError("unknown mapping type %q", s)
}

func parseKind(s string) tileset.ExtraKind {
	for _, k := range tileset.ExtraKinds {
		if k.String() == s {
			return k
		}
	}
	panic("unreachable")
}

// Identifier returns the identifier of extra slot i of kind k.
func Identifier(k tileset.ExtraKind, i int) string {
	return fmt.Sprintf("EOS_EXTRA_%s_%d", k, i)
}

// ParseIdentifier parses a special mapping identifier.
func ParseIdentifier(s string) (tileset.ExtraKind, int, error) {
	m := identifierPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, &tileset.FormatError{File: Filename, Err: fmt.Errorf("%w: %q", errSpecialIdent, s)}
	}
	i, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, formatError("special mapping %q: %v", s, err)
	}
	return parseKind(m[1]), i, nil
}

func decodeAnimation(x xmlAnimation) (tileset.Animation, error) {
	var a tileset.Animation
	perColor := 0
	for i, f := range x.Frames {
		if f.XMLName.Local != frame {
			return a, formatError("unexpected <%s> in <%s>", f.XMLName.Local, animation)
		}
		if len(f.Colors) != tileset.ColorsPerPalette {
			return a, &tileset.FormatError{File: Filename, Err: fmt.Errorf("palette %s frame %d: %w, found %d", x.Palette, i, errFrameColors, len(f.Colors))}
		}
		var colors [tileset.ColorsPerPalette]color.RGBA
		for j, c := range f.Colors {
			if c.XMLName.Local != colorTag {
				return a, formatError("unexpected <%s> in <%s>", c.XMLName.Local, frame)
			}
			v, err := parseColor(c.Value)
			if err != nil {
				return a, err
			}
			colors[j] = v
			if i == 0 && c.Duration != "" {
				d, err := atoi(colorTag, duration, c.Duration)
				if err != nil {
					return a, err
				}
				if d < 0 {
					return a, formatError("negative duration %d", d)
				}
				a.Durations[j] = d
				perColor++
			}
		}
		a.Frames = append(a.Frames, colors)
	}

	if len(a.Frames) == 0 {
		return tileset.Animation{}, nil
	}

	switch {
	case perColor == tileset.ColorsPerPalette:
	case perColor == 0 && x.Duration != "":
		// Older documents store one duration for the whole palette
		d, err := atoi(animation, duration, x.Duration)
		if err != nil {
			return a, err
		}
		if d < 0 {
			return a, formatError("negative duration %d", d)
		}
		for j := range a.Durations {
			a.Durations[j] = d
		}
	default:
		return a, &tileset.FormatError{File: Filename, Err: fmt.Errorf("palette %s: %w", x.Palette, errDurations)}
	}

	return a, nil
}

func encodeAnimation(slot int, a tileset.Animation) xmlAnimation {
	x := xmlAnimation{
		Palette: strconv.Itoa(slot + tileset.FirstAnimatedPalette),
	}
	for i, f := range a.Frames {
		xf := xmlFrame{XMLName: xml.Name{Local: frame}}
		for j, c := range f {
			xc := xmlColor{XMLName: xml.Name{Local: colorTag}, Value: formatColor(c)}
			if i == 0 {
				xc.Duration = strconv.Itoa(a.Durations[j])
			}
			xf.Colors = append(xf.Colors, xc)
		}
		x.Frames = append(x.Frames, xf)
	}
	return x
}

func decodeRef(x xmlMapping) (Ref, error) {
	switch x.XMLName.Local {
	case mapping:
		var r Ref
		if x.Type == "" {
			return r, missingAttr(mapping, typeAttr)
		}
		c, err := parseCategory(x.Type)
		if err != nil {
			return r, err
		}
		r.Category = c
		for _, a := range x.neighbors() {
			v, err := atoi(mapping, a.name, *a.v)
			if err != nil {
				return r, err
			}
			if v != 0 {
				r.Mask |= a.n
			}
		}
		v, err := atoi(mapping, variation, x.Variation)
		if err != nil {
			return r, err
		}
		if v < 0 || v >= tileset.Variations {
			return r, &tileset.FormatError{File: Filename, Err: &tileset.RangeError{Name: variation, Value: v, Limit: tileset.Variations}}
		}
		r.Variation = v
		return r, nil
	case specialMapping:
		if x.Identifier == "" {
			return Ref{}, missingAttr(specialMapping, identifier)
		}
		k, i, err := ParseIdentifier(x.Identifier)
		if err != nil {
			return Ref{}, err
		}
		return Ref{Special: true, Kind: k, Index: i}, nil
	}
	return Ref{}, formatError("unexpected <%s> in <%s>", x.XMLName.Local, tile)
}

func encodeRef(r Ref) (xmlMapping, error) {
	if r.Special {
		return xmlMapping{
			XMLName:    xml.Name{Local: specialMapping},
			Identifier: Identifier(r.Kind, r.Index),
		}, nil
	}
	t, err := categoryToken(r.Category)
	if err != nil {
		return xmlMapping{}, err
	}
	if r.Variation < 0 || r.Variation >= tileset.Variations {
		return xmlMapping{}, &tileset.RangeError{Name: variation, Value: r.Variation, Limit: tileset.Variations}
	}
	x := xmlMapping{
		XMLName:   xml.Name{Local: mapping},
		Type:      t,
		Variation: strconv.Itoa(r.Variation),
	}
	for _, a := range x.neighbors() {
		*a.v = "0"
		if r.Mask&a.n != 0 {
			*a.v = "1"
		}
	}
	return x, nil
}

func decodeTile(x xmlTile) (Tile, error) {
	var t Tile
	if x.XMLName.Local != tile {
		return t, formatError("unexpected <%s> in <%s>", x.XMLName.Local, additionalTiles)
	}
	if x.File == "" {
		return t, missingAttr(tile, "file")
	}
	t.File = x.File
	var err error
	if t.X, err = atoi(tile, "x", x.X); err != nil {
		return t, err
	}
	if t.Y, err = atoi(tile, "y", x.Y); err != nil {
		return t, err
	}
	if t.X < 0 || t.Y < 0 {
		return t, formatError("<%s> has negative coordinates (%d, %d)", tile, t.X, t.Y)
	}
	for _, m := range x.Mappings {
		r, err := decodeRef(m)
		if err != nil {
			return t, err
		}
		t.Refs = append(t.Refs, r)
	}
	return t, nil
}

// Decode reads a document from r, accepting both the current and the older
// animation duration layout.
func Decode(r io.Reader) (*Document, error) {
	var x xmlTileset
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, &tileset.FormatError{File: Filename, Err: err}
	}

	d := New()

	var err error
	if d.Dimensions, err = atoi(dungeonTileset, dimensions, x.Dimensions); err != nil {
		return nil, err
	}
	if d.Dimensions != chunk.Dim {
		return nil, formatError("unsupported chunk dimensions %d, expected %d", d.Dimensions, chunk.Dim)
	}

	var seen [tileset.AnimatedPalettes]bool
	for _, a := range x.Animations {
		if a.Palette == "" {
			return nil, missingAttr(animation, palette)
		}
		p, err := strconv.Atoi(a.Palette)
		slot := p - tileset.FirstAnimatedPalette
		if err != nil || slot < 0 || slot >= tileset.AnimatedPalettes {
			return nil, formatError("animation is only supported for palettes %d and %d, not %q", tileset.FirstAnimatedPalette, tileset.FirstAnimatedPalette+1, a.Palette)
		}
		if seen[slot] {
			return nil, formatError("palette %d is animated more than once", p)
		}
		seen[slot] = true
		if d.Animations[slot], err = decodeAnimation(a); err != nil {
			return nil, err
		}
	}

	if x.Additional != nil {
		for _, xt := range x.Additional.Tiles {
			t, err := decodeTile(xt)
			if err != nil {
				return nil, err
			}
			d.Tiles = append(d.Tiles, t)
		}
	}

	return d, nil
}

// Encode writes d to w. Durations are always written per color on the first
// frame.
func Encode(w io.Writer, d *Document) error {
	x := xmlTileset{
		Dimensions: strconv.Itoa(d.Dimensions),
		Additional: new(xmlAdditional),
	}
	for i, a := range d.Animations {
		x.Animations = append(x.Animations, encodeAnimation(i, a))
	}
	for _, t := range d.Tiles {
		xt := xmlTile{
			XMLName: xml.Name{Local: tile},
			File:    t.File,
			X:       strconv.Itoa(t.X),
			Y:       strconv.Itoa(t.Y),
		}
		for _, r := range t.Refs {
			m, err := encodeRef(r)
			if err != nil {
				return err
			}
			xt.Mappings = append(xt.Mappings, m)
		}
		x.Additional.Tiles = append(x.Additional.Tiles, xt)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	e := xml.NewEncoder(w)
	e.Indent("", "  ")
	if err := e.Encode(&x); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// MarshalBinary encodes the document and returns the result
func (d *Document) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, d); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalBinary decodes the document from b
func (d *Document) UnmarshalBinary(b []byte) error {
	n, err := Decode(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*d = *n
	return nil
}
