package models

import (
	"fmt"
	"sort"
	"strings"
)

// OutputKind identifies an export format produced for a work item.
type OutputKind string

const (
	OutputSTEP OutputKind = "step"
	OutputIGES OutputKind = "iges"
	OutputSAT  OutputKind = "sat"
	OutputSTL  OutputKind = "stl"
	OutputDWG  OutputKind = "dwg"
	OutputPDF  OutputKind = "pdf"
)

// KindSpec describes how an output kind is produced.
type KindSpec struct {
	Kind      OutputKind
	Extension string
	// NeedsDrawing is set for formats exported from the drawing file that
	// sits next to the model rather than from the model itself.
	NeedsDrawing bool
}

var kindSpecs = map[OutputKind]KindSpec{
	OutputSTEP: {Kind: OutputSTEP, Extension: "step"},
	OutputIGES: {Kind: OutputIGES, Extension: "igs"},
	OutputSAT:  {Kind: OutputSAT, Extension: "sat"},
	OutputSTL:  {Kind: OutputSTL, Extension: "stl"},
	OutputDWG:  {Kind: OutputDWG, Extension: "dwg", NeedsDrawing: true},
	OutputPDF:  {Kind: OutputPDF, Extension: "pdf", NeedsDrawing: true},
}

// LookupKind returns the spec for kind. The lookup is case-insensitive.
func LookupKind(kind string) (KindSpec, bool) {
	spec, ok := kindSpecs[OutputKind(strings.ToLower(strings.TrimSpace(kind)))]
	return spec, ok
}

// Spec returns the registered spec for k, or a spec using k as its own
// extension when k is not registered.
func (k OutputKind) Spec() KindSpec {
	if spec, ok := kindSpecs[k]; ok {
		return spec
	}
	return KindSpec{Kind: k, Extension: string(k)}
}

// Label returns the upper-case display form of the kind ("STEP", "PDF").
func (k OutputKind) Label() string {
	return strings.ToUpper(string(k))
}

// KnownKinds returns all registered output kinds in sorted order.
func KnownKinds() []OutputKind {
	kinds := make([]OutputKind, 0, len(kindSpecs))
	for k := range kindSpecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKinds converts format names into output kinds, rejecting unknown
// names and dropping duplicates while keeping the given order.
func ParseKinds(names []string) ([]OutputKind, error) {
	var kinds []OutputKind
	seen := make(map[OutputKind]bool)
	var unknown []string
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		spec, ok := LookupKind(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if seen[spec.Kind] {
			continue
		}
		seen[spec.Kind] = true
		kinds = append(kinds, spec.Kind)
	}
	if len(unknown) > 0 {
		known := make([]string, 0, len(kindSpecs))
		for _, k := range KnownKinds() {
			known = append(known, string(k))
		}
		return nil, fmt.Errorf("unknown format(s): %s (choose from: %s)",
			strings.Join(unknown, ", "), strings.Join(known, ", "))
	}
	return kinds, nil
}

// ComponentInfo is the plain-data view of a discovered component that a work
// item carries. It outlives the traversal that produced it.
type ComponentInfo struct {
	SourcePath      string
	DisplayName     string
	Revision        string
	Kind            DocumentKind
	IsRoot          bool
	IsSuppressed    bool
	IsContentCenter bool
	Depth           int
	// DrawingPath is the drawing file next to the model, empty when none
	// was found.
	DrawingPath string
}

// NewComponentInfo snapshots a discovered component.
func NewComponentInfo(c DiscoveredComponent) ComponentInfo {
	doc := c.Document
	return ComponentInfo{
		SourcePath:      doc.Path(),
		DisplayName:     doc.DisplayName(),
		Revision:        doc.Revision(),
		Kind:            doc.Kind(),
		IsRoot:          c.IsRoot,
		IsSuppressed:    c.IsSuppressed,
		IsContentCenter: doc.IsContentCenterClassified(),
		Depth:           c.Depth,
	}
}

// WorkItem is one planned output file.
type WorkItem struct {
	Source     ComponentInfo
	Kind       OutputKind
	OutputName string
	OutputPath string
	// Include is toggled by the user before execution; excluded items are
	// not run.
	Include bool
}

// Included returns the items with Include set, preserving order.
func Included(items []WorkItem) []WorkItem {
	out := make([]WorkItem, 0, len(items))
	for _, item := range items {
		if item.Include {
			out = append(out, item)
		}
	}
	return out
}
