// Package planner turns discovered components into work items: which output
// files to produce for each component, what to call them, and how to keep
// their names unique.
package planner

import (
	"fmt"
	"path/filepath"

	"github.com/harrison/cadbatch/internal/models"
)

// Class groups components for the purpose of choosing output kinds.
type Class int

const (
	ClassRoot      Class = iota // The traversal root
	ClassContainer              // Any other container (sub-assembly)
	ClassLeaf                   // Any other leaf (part)
)

// String returns the class name used in logs.
func (c Class) String() string {
	switch c {
	case ClassRoot:
		return "root"
	case ClassContainer:
		return "container"
	case ClassLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Classify returns the class of a discovered component.
func Classify(c models.DiscoveredComponent) Class {
	switch {
	case c.IsRoot:
		return ClassRoot
	case c.Document.Kind() == models.KindContainer:
		return ClassContainer
	default:
		return ClassLeaf
	}
}

// DroppedKind reports an output kind that applied to a component but could
// not be planned.
type DroppedKind struct {
	Component models.ComponentInfo
	Kind      models.OutputKind
	Reason    string
}

// Rules decides which outputs each class of component produces and where
// they are written.
type Rules struct {
	// Kinds maps a class to the output kinds generated for it. A class with
	// no entry produces nothing.
	Kinds     map[Class][]models.OutputKind
	OutputDir string
	// Drawings finds the drawing used by drawing-based kinds. When nil, or
	// when no drawing is found, those kinds are dropped for the component.
	Drawings DrawingLocator
	OnDrop   func(DroppedKind)
}

// Selection is the user's choice of component classes.
type Selection struct {
	Root       bool
	Containers bool
	Leaves     bool
}

// RulesFromSelection applies the same kinds to every selected class.
func RulesFromSelection(kinds []models.OutputKind, sel Selection, outputDir string) Rules {
	rules := Rules{
		Kinds:     make(map[Class][]models.OutputKind),
		OutputDir: outputDir,
		Drawings:  SiblingDrawing{},
	}
	if len(kinds) == 0 {
		return rules
	}
	if sel.Root {
		rules.Kinds[ClassRoot] = kinds
	}
	if sel.Containers {
		rules.Kinds[ClassContainer] = kinds
	}
	if sel.Leaves {
		rules.Kinds[ClassLeaf] = kinds
	}
	return rules
}

// Plan produces the work items for components, in component order and, per
// component, in the order of the class's kinds. Every item starts included.
func Plan(components []models.DiscoveredComponent, rules Rules) []models.WorkItem {
	var items []models.WorkItem

	for _, comp := range components {
		kinds := rules.Kinds[Classify(comp)]
		if len(kinds) == 0 {
			continue
		}

		info := models.NewComponentInfo(comp)
		if needsDrawing(kinds) && rules.Drawings != nil {
			if drawing, ok := rules.Drawings.FindDrawing(info.SourcePath); ok {
				info.DrawingPath = drawing
			}
		}

		for _, kind := range kinds {
			spec := kind.Spec()
			if spec.NeedsDrawing && info.DrawingPath == "" {
				if rules.OnDrop != nil {
					rules.OnDrop(DroppedKind{Component: info, Kind: kind, Reason: "no drawing found"})
				}
				continue
			}

			name := ComposeFilename(info.DisplayName, info.Revision, spec.Extension)
			items = append(items, models.WorkItem{
				Source:     info,
				Kind:       kind,
				OutputName: name,
				OutputPath: filepath.Join(rules.OutputDir, name),
				Include:    true,
			})
		}
	}

	return items
}

func needsDrawing(kinds []models.OutputKind) bool {
	for _, k := range kinds {
		if k.Spec().NeedsDrawing {
			return true
		}
	}
	return false
}
