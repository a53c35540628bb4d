package dtef

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/dtef/tileset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	base := t.TempDir()

	p, err := New(nil).Export(irregular(t))
	require.NoError(t, err)

	for _, dir := range []string{"a", "b/c", "b/d", ".hidden"} {
		require.NoError(t, p.WriteDir(filepath.Join(base, dir)))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(base, "empty"), 0o755))

	n, err := New(nil).Verify(base)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, os.Remove(filepath.Join(base, "b", "d", Variation2Filename)))

	_, err = New(nil).Verify(base)
	var me *tileset.MissingFileError
	require.True(t, errors.As(err, &me))
	assert.Contains(t, err.Error(), filepath.Join("b", "d"))
}

func TestVerifyMissingDirectory(t *testing.T) {
	_, err := New(nil).Verify(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}
