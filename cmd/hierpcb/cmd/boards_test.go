package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardSetLoadsOnce(t *testing.T) {
	dir := workspace(t)
	path := filepath.Join(dir, "main.kicad_pcb")
	s := newBoardSet()

	a, err := s.load(path)
	require.NoError(t, err)
	b, err := s.load(filepath.Join(dir, ".", "main.kicad_pcb"))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestBoardSetLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.kicad_pcb")
	_, err := newBoardSet().load(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing board "+missing)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBoardSetWritesTouchedOnce(t *testing.T) {
	dir := workspace(t)
	path := filepath.Join(dir, "main.kicad_pcb")
	out := filepath.Join(dir, "out.kicad_pcb")
	s := newBoardSet()
	_, err := s.load(path)
	require.NoError(t, err)

	s.touch(path, out)
	s.touch(path, out)

	var written []string
	errs := s.writeAll(func(p string) { written = append(written, p) })
	assert.Empty(t, errs)
	assert.Equal(t, []string{out}, written)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}
