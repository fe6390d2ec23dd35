package planner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/source"
)

func component(g *source.Graph, spec source.DocumentSpec, root bool, depth int) models.DiscoveredComponent {
	return models.DiscoveredComponent{Document: g.Add(spec), IsRoot: root, Depth: depth}
}

func sampleComponents() []models.DiscoveredComponent {
	g := source.NewGraph()
	return []models.DiscoveredComponent{
		component(g, source.DocumentSpec{Path: "/w/Top.iam", Kind: models.KindContainer, Revision: "C"}, true, 0),
		component(g, source.DocumentSpec{Path: "/w/Sub.iam", Kind: models.KindContainer, Revision: "A"}, false, 1),
		component(g, source.DocumentSpec{Path: "/w/Pin.ipt", Kind: models.KindLeaf}, false, 2),
	}
}

func names(items []models.WorkItem) []string {
	return OutputNames(items)
}

func TestClassify(t *testing.T) {
	comps := sampleComponents()

	assert.Equal(t, ClassRoot, Classify(comps[0]))
	assert.Equal(t, ClassContainer, Classify(comps[1]))
	assert.Equal(t, ClassLeaf, Classify(comps[2]))
	assert.Equal(t, "container", ClassContainer.String())
}

func TestClassify_LeafRootIsRoot(t *testing.T) {
	g := source.NewGraph()
	c := component(g, source.DocumentSpec{Path: "/w/Only.ipt"}, true, 0)

	assert.Equal(t, ClassRoot, Classify(c))
}

func TestPlan_OrderAndNames(t *testing.T) {
	rules := Rules{
		Kinds: map[Class][]models.OutputKind{
			ClassRoot:      {models.OutputSTEP},
			ClassContainer: {models.OutputSTEP, models.OutputSTL},
			ClassLeaf:      {models.OutputIGES},
		},
		OutputDir: "/out",
	}

	items := Plan(sampleComponents(), rules)

	assert.Equal(t, []string{
		"Top-C.step",
		"Sub-A.step",
		"Sub-A.stl",
		"Pin-NoRev.igs",
	}, names(items))
	for _, item := range items {
		assert.True(t, item.Include)
		assert.Equal(t, filepath.Join("/out", item.OutputName), item.OutputPath)
	}
	assert.Equal(t, models.OutputSTL, items[2].Kind)
	assert.Equal(t, 2, items[3].Source.Depth)
}

func TestPlan_ClassWithoutKindsProducesNothing(t *testing.T) {
	rules := Rules{
		Kinds:     map[Class][]models.OutputKind{ClassLeaf: {models.OutputSTEP}},
		OutputDir: "/out",
	}

	items := Plan(sampleComponents(), rules)

	require.Len(t, items, 1)
	assert.Equal(t, "/w/Pin.ipt", items[0].Source.SourcePath)
}

func TestPlan_Empty(t *testing.T) {
	assert.Empty(t, Plan(nil, Rules{}))
	assert.Empty(t, Plan(sampleComponents(), Rules{OutputDir: "/out"}))
}

func TestPlan_DrawingKinds(t *testing.T) {
	found := DrawingFunc(func(p string) (string, bool) {
		if p == "/w/Sub.iam" {
			return "/w/Sub.idw", true
		}
		return "", false
	})

	var dropped []DroppedKind
	rules := Rules{
		Kinds: map[Class][]models.OutputKind{
			ClassContainer: {models.OutputPDF},
			ClassLeaf:      {models.OutputSTEP, models.OutputPDF},
		},
		OutputDir: "/out",
		Drawings:  found,
		OnDrop:    func(d DroppedKind) { dropped = append(dropped, d) },
	}

	items := Plan(sampleComponents(), rules)

	assert.Equal(t, []string{"Sub-A.pdf", "Pin-NoRev.step"}, names(items))
	assert.Equal(t, "/w/Sub.idw", items[0].Source.DrawingPath)
	require.Len(t, dropped, 1)
	assert.Equal(t, models.OutputPDF, dropped[0].Kind)
	assert.Equal(t, "/w/Pin.ipt", dropped[0].Component.SourcePath)
}

func TestPlan_NilLocatorDropsDrawingKinds(t *testing.T) {
	rules := Rules{
		Kinds:     map[Class][]models.OutputKind{ClassRoot: {models.OutputDWG, models.OutputSTEP}},
		OutputDir: "/out",
	}

	items := Plan(sampleComponents(), rules)

	assert.Equal(t, []string{"Top-C.step"}, names(items))
}

func TestRulesFromSelection(t *testing.T) {
	kinds := []models.OutputKind{models.OutputSTEP}

	rules := RulesFromSelection(kinds, Selection{Root: true, Leaves: true}, "/out")

	assert.Equal(t, kinds, rules.Kinds[ClassRoot])
	assert.Equal(t, kinds, rules.Kinds[ClassLeaf])
	assert.Empty(t, rules.Kinds[ClassContainer])
	assert.Equal(t, "/out", rules.OutputDir)
	assert.NotNil(t, rules.Drawings)

	items := Plan(sampleComponents(), rules)
	assert.Equal(t, []string{"Top-C.step", "Pin-NoRev.step"}, names(items))
}

func TestRulesFromSelection_NoKinds(t *testing.T) {
	rules := RulesFromSelection(nil, Selection{Root: true, Containers: true, Leaves: true}, "/out")

	assert.Empty(t, Plan(sampleComponents(), rules))
}
