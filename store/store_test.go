package store

import (
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/tileset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *tileset.Tileset {
	ts := tileset.New()
	for i := range ts.Palette {
		ts.Palette[i] = color.RGBA{uint8(i), uint8(i * 3), uint8(255 - i), 0xff}
	}

	var c chunk.Chunk
	for i := range c {
		c[i] = uint8(i % 251)
	}
	ts.Chunks = append(ts.Chunks, c)
	c[0] = 0xff
	ts.Chunks = append(ts.Chunks, c)

	for _, m := range rules.Bucket(rules.Index(rules.All)) {
		ts.Mappings[tileset.Wall][m][0] = 1
	}
	ts.Mappings[tileset.Floor][rules.North][2] = 2

	ts.SetExtra(tileset.Floor2, 1, 2)
	ts.SetExtra(tileset.Floor2, 0, 1)
	ts.SetExtra(tileset.WallOrVoid, 0, 0)

	var f [tileset.ColorsPerPalette]color.RGBA
	for i := range f {
		f[i] = color.RGBA{R: uint8(i), G: 0x40, A: 0xff}
	}
	ts.Animations[1].Frames = append(ts.Animations[1].Frames, f, f, f)
	ts.Animations[1].Frames[2][7] = color.RGBA{B: 0x99, A: 0xff}
	for i := range ts.Animations[1].Durations {
		ts.Animations[1].Durations[i] = i + 1
	}

	return ts
}

func TestStore(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dtef.db")

	s, err := Open(file)
	require.NoError(t, err)

	ts, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, tileset.New(), ts)

	want := sample()
	require.NoError(t, s.Commit(want))
	require.NoError(t, s.Close())

	s, err = Open(file)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCommitReplaces(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "dtef.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Commit(sample()))

	next := tileset.New()
	require.NoError(t, s.Commit(next))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestCommitInvalid(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "dtef.db"))
	require.NoError(t, err)
	defer s.Close()

	want := sample()
	require.NoError(t, s.Commit(want))

	bad := sample()
	bad.Mappings[tileset.Water][0][1] = 99
	assert.Error(t, s.Commit(bad))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadChecksum(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "dtef.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Commit(sample()))

	var c chunk.Chunk
	c[5] = 1
	_, err = s.db.Exec("UPDATE chunk SET pixels = ? WHERE id = ?", c[:], 2)
	require.NoError(t, err)

	_, err = s.Load()
	assert.True(t, errors.Is(err, ErrChecksum), "got %v", err)
}
