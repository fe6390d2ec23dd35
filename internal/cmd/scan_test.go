package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCommand_PrintsPlan(t *testing.T) {
	p := newProject(t, "printf x > {output}")

	out, _, err := executeCommand(t, "scan", p.manifest, "--config", p.config)
	require.NoError(t, err, out)

	assert.Contains(t, out, "=== Scan Summary ===")
	assert.Contains(t, out, "Files to export: 3")
	assert.Contains(t, out, "content center excluded: 1")
	assert.Contains(t, out, "unresolved: 1")
	assert.Contains(t, out, "a-A_2.step")
	assert.Contains(t, out, "Renamed a-A.step -> a-A_2.step (duplicate)")

	_, err = os.Stat(p.output)
	assert.True(t, os.IsNotExist(err), "scan must not create the output directory")
}

func TestScanCommand_ContentCenterFlag(t *testing.T) {
	p := newProject(t, "true")

	out, _, err := executeCommand(t, "scan", p.manifest, "--config", p.config, "--content-center")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Files to export: 4")
	assert.Contains(t, out, "bolt-NoRev.step")
}

func TestScanCommand_Report(t *testing.T) {
	p := newProject(t, "true")
	reportPath := filepath.Join(p.dir, "plan.html")

	out, _, err := executeCommand(t, "scan", p.manifest, "--config", p.config, "--report", reportPath)
	require.NoError(t, err, out)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h2>Plan</h2>")
	assert.Contains(t, string(data), "a-A_2.step")
	assert.Contains(t, out, "Report written to "+reportPath)
}

func TestScanCommand_ManifestClassification(t *testing.T) {
	p := newProject(t, "true")
	manifest := `root: top.iam
content_center_patterns: ["vendor/"]
documents:
  - path: top.iam
    kind: assembly
    children:
      - ref: vendor/screw.ipt
      - ref: own.ipt
      - ref: kept.ipt
  - path: vendor/screw.ipt
  - path: own.ipt
    suppressed: true
  - path: kept.ipt
`
	require.NoError(t, os.WriteFile(p.manifest, []byte(manifest), 0644))

	out, _, err := executeCommand(t, "scan", p.manifest, "--config", p.config)
	require.NoError(t, err, out)

	assert.Contains(t, out, "content center excluded: 1")
	assert.Contains(t, out, "suppressed excluded: 1")
	assert.Contains(t, out, "Files to export: 2")
	assert.Contains(t, out, "kept-NoRev.step")
	assert.NotContains(t, out, "screw-NoRev.step")
	assert.NotContains(t, out, "own-NoRev.step")
}

func TestScanCommand_MissingRoot(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "m.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("root: missing.iam\ndocuments:\n  - path: other.iam\n"), 0644))

	_, _, err := executeCommand(t, "scan", manifest, "--config", filepath.Join(dir, "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "cadbatch", root.Use)
	assert.True(t, root.SilenceUsage)

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "scan")
	assert.Contains(t, names, "run")
}
