package planner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/cadbatch/internal/models"
)

func itemsNamed(dir string, names ...string) []models.WorkItem {
	items := make([]models.WorkItem, len(names))
	for i, n := range names {
		items[i] = models.WorkItem{
			Kind:       models.OutputSTEP,
			OutputName: n,
			OutputPath: filepath.Join(dir, n),
			Include:    true,
		}
	}
	return items
}

func TestResolve_SuffixesInOrder(t *testing.T) {
	items := Resolve(itemsNamed("/out", "A.step", "A.step", "A.step"))

	assert.Equal(t, []string{"A.step", "A_2.step", "A_3.step"}, OutputNames(items))
	assert.Equal(t, filepath.Join("/out", "A_3.step"), items[2].OutputPath)
}

func TestResolve_CaseInsensitive(t *testing.T) {
	items := Resolve(itemsNamed("/out", "Bolt-A.step", "BOLT-a.STEP"))

	assert.Equal(t, []string{"Bolt-A.step", "BOLT-a_2.STEP"}, OutputNames(items))
}

func TestResolve_UniqueNamesUntouched(t *testing.T) {
	in := []string{"A.step", "B.step", "A.stl"}

	items := Resolve(itemsNamed("/out", in...))

	assert.Equal(t, in, OutputNames(items))
}

func TestResolve_Idempotent(t *testing.T) {
	items := Resolve(itemsNamed("/out", "A.step", "A.step", "B.step", "A.step"))
	first := OutputNames(items)

	again := Resolve(items)

	assert.Equal(t, first, OutputNames(again))
}

func TestResolve_SkipsNamesAlreadyTaken(t *testing.T) {
	items := Resolve(itemsNamed("/out", "A.step", "A_2.step", "A.step"))

	assert.Equal(t, []string{"A.step", "A_2.step", "A_3.step"}, OutputNames(items))
}

func TestResolve_KeepsItemDirectory(t *testing.T) {
	items := append(itemsNamed("/out/a", "P.step"), itemsNamed("/out/b", "P.step")...)

	Resolve(items)

	assert.Equal(t, filepath.Join("/out/a", "P.step"), items[0].OutputPath)
	assert.Equal(t, filepath.Join("/out/b", "P_2.step"), items[1].OutputPath)
}

func TestResolve_IncludesExcludedItems(t *testing.T) {
	items := itemsNamed("/out", "A.step", "A.step")
	items[0].Include = false

	Resolve(items)

	assert.Equal(t, []string{"A.step", "A_2.step"}, OutputNames(items))
}

func TestResolve_Empty(t *testing.T) {
	assert.Empty(t, Resolve(nil))
}

func TestRenames(t *testing.T) {
	items := itemsNamed("/out", "A.step", "B.step", "A.step")
	before := OutputNames(items)

	Resolve(items)
	renames := Renames(before, items)

	require.Len(t, renames, 1)
	assert.Equal(t, 2, renames[0].Index)
	assert.Equal(t, "Renamed A.step -> A_2.step (duplicate)", renames[0].String())
}
