package planner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestSiblingDrawing_ExactMatch(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "Bracket.ipt")
	touch(t, model)
	touch(t, filepath.Join(dir, "Bracket.idw"))

	got, ok := SiblingDrawing{}.FindDrawing(model)

	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Bracket.idw"), got)
}

func TestSiblingDrawing_CaseInsensitiveExtension(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "Frame.iam")
	touch(t, model)
	touch(t, filepath.Join(dir, "Frame.IDW"))

	got, ok := SiblingDrawing{}.FindDrawing(model)

	require.True(t, ok)
	assert.True(t, strings.EqualFold("Frame.idw", filepath.Base(got)), "got %s", got)
}

func TestSiblingDrawing_Missing(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "Lonely.ipt")
	touch(t, model)
	touch(t, filepath.Join(dir, "Other.idw"))

	_, ok := SiblingDrawing{}.FindDrawing(model)
	assert.False(t, ok)
}

func TestSiblingDrawing_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "Odd.ipt")
	touch(t, model)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Odd.idw"), 0755))

	_, ok := SiblingDrawing{}.FindDrawing(model)
	assert.False(t, ok)
}

func TestSiblingDrawing_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "Plate.ipt")
	touch(t, model)
	touch(t, filepath.Join(dir, "Plate.dwg"))
	touch(t, filepath.Join(dir, "Plate.idw"))

	got, ok := SiblingDrawing{Extensions: []string{".dwg", ".idw"}}.FindDrawing(model)

	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Plate.dwg"), got)
}

func TestSiblingDrawing_EmptyPath(t *testing.T) {
	_, ok := SiblingDrawing{}.FindDrawing("")
	assert.False(t, ok)
}

func TestDrawingFunc(t *testing.T) {
	loc := DrawingFunc(func(p string) (string, bool) { return p + ".idw", true })

	got, ok := loc.FindDrawing("/x/A")

	assert.True(t, ok)
	assert.Equal(t, "/x/A.idw", got)
}
