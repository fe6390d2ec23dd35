package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/pathkey"
)

const sampleManifest = `
root: frame.iam
documents:
  - path: frame.iam
    kind: assembly
    revision: B
    children:
      - ref: parts/rail.ipt
      - ref: parts/spare.ipt
        suppressed: true
      - ref: Content Center Files/bolt.ipt
      - ref: parts/missing.ipt
  - path: parts/rail.ipt
    name: Side Rail
  - path: parts/spare.ipt
  - path: Content Center Files/bolt.ipt
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	dir := filepath.Dir(path)

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "frame.iam"), m.Root)
	require.Len(t, m.Documents, 4)
	assert.Equal(t, filepath.Join(dir, "parts", "rail.ipt"), m.Documents[1].Path)
	assert.Equal(t, filepath.Join(dir, "parts", "spare.ipt"), m.Documents[0].Children[1].Ref)
	assert.True(t, m.Documents[0].Children[1].Suppressed)
	assert.NotEmpty(t, m.File())
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no root", "documents:\n  - path: a.ipt\n", "no root"},
		{"missing path", "root: a.iam\ndocuments:\n  - kind: part\n", "path is required"},
		{"bad kind", "root: a.iam\ndocuments:\n  - path: a.iam\n    kind: drawing\n", "unknown kind"},
		{"duplicate", "root: a.iam\ndocuments:\n  - path: a.iam\n  - path: A.IAM\n", "listed twice"},
		{"empty ref", "root: a.iam\ndocuments:\n  - path: a.iam\n    kind: assembly\n    children:\n      - suppressed: true\n", "no ref"},
		{"bad yaml", "root: [", "failed to parse manifest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func TestParseManifest_AbsolutePathsKept(t *testing.T) {
	m, err := ParseManifest([]byte(`
root: 'C:\Work\top.iam'
documents:
  - path: 'C:\Work\top.iam'
    kind: container
`), "/base")
	require.NoError(t, err)
	assert.Equal(t, `C:\Work\top.iam`, m.Root)
}

func TestManifest_Source(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, sampleManifest))
	require.NoError(t, err)

	src, err := m.Source(nil)
	require.NoError(t, err)

	root, err := src.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "frame", root.DisplayName())
	assert.Equal(t, "B", root.Revision())
	assert.Equal(t, models.KindContainer, root.Kind())

	children := root.Children()
	require.Len(t, children, 4)
	assert.False(t, children[0].IsSuppressed())
	assert.True(t, children[1].IsSuppressed())

	rail, err := children[0].Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Side Rail", rail.DisplayName())
	assert.Equal(t, models.KindLeaf, rail.Kind())

	bolt, err := children[2].Resolve()
	require.NoError(t, err)
	assert.True(t, bolt.IsContentCenterClassified(), "default patterns apply")

	_, err = children[3].Resolve()
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestManifest_ContentCenterPatterns(t *testing.T) {
	m, err := ParseManifest([]byte(`
root: /w/top.iam
content_center_patterns: ["library/"]
documents:
  - path: /w/top.iam
    kind: assembly
  - path: /w/library/nut.ipt
  - path: /w/Content Center Files/bolt.ipt
`), "")
	require.NoError(t, err)

	g, err := m.Graph(nil)
	require.NoError(t, err)
	nut, _ := g.Lookup("/w/library/nut.ipt")
	bolt, _ := g.Lookup("/w/Content Center Files/bolt.ipt")
	assert.True(t, nut.IsContentCenterClassified())
	assert.False(t, bolt.IsContentCenterClassified(), "manifest patterns replace the defaults")

	g, err = m.Graph(pathkey.NewMatcher("content center files/"))
	require.NoError(t, err)
	nut, _ = g.Lookup("/w/library/nut.ipt")
	bolt, _ = g.Lookup("/w/Content Center Files/bolt.ipt")
	assert.False(t, nut.IsContentCenterClassified())
	assert.True(t, bolt.IsContentCenterClassified(), "caller patterns override the manifest")
}
