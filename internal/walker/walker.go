// Package walker discovers the documents reachable from a root document.
//
// The walk is depth-first and pre-order. Every document is emitted at most
// once per Walk call: a visited set keyed by pathkey.Normalize is seeded with
// the root and each child is added before it is descended into, which stops
// both cycles (A -> B -> A) and repeated work on shared sub-trees.
package walker

import (
	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/pathkey"
)

// Unbounded disables the depth limit.
const Unbounded = -1

// SkipReason explains why a child reference produced no component.
type SkipReason string

const (
	SkipSuppressed    SkipReason = "suppressed"
	SkipUnresolved    SkipReason = "unresolved"
	SkipDuplicate     SkipReason = "duplicate"
	SkipContentCenter SkipReason = "content-center"
	SkipExcluded      SkipReason = "excluded"
	SkipFiltered      SkipReason = "filtered"
)

// Skip describes a child reference that was not emitted.
// Document is nil for suppressed and unresolved references.
type Skip struct {
	Reason   SkipReason
	Parent   models.DocumentNode
	Document models.DocumentNode
	Depth    int
	Err      error
}

// Options controls which documents are emitted and how deep the walk goes.
type Options struct {
	IncludeSuppressed    bool
	IncludeContentCenter bool
	// MaxDepth is the deepest level emitted; containers at this depth are not
	// explored. Unbounded (or any negative value) disables the limit.
	MaxDepth          int
	IncludeLeaves     bool
	IncludeContainers bool
	// Exclude drops matching documents and everything only reachable
	// through them.
	Exclude *pathkey.Matcher
	// OnSkip, when set, is told about every child that was not emitted.
	OnSkip func(Skip)
}

// DefaultOptions emits every non-suppressed, non-content-center document at
// any depth.
func DefaultOptions() Options {
	return Options{
		MaxDepth:          Unbounded,
		IncludeLeaves:     true,
		IncludeContainers: true,
	}
}

// Walk returns the components reachable from root in traversal order.
// The root is always the first entry with IsRoot set and Depth 0, whatever
// the kind filters say. A nil root yields nil.
func Walk(root models.DocumentNode, opts Options) []models.DiscoveredComponent {
	if root == nil {
		return nil
	}

	w := &walk{
		opts:    opts,
		visited: map[string]struct{}{pathkey.Normalize(root.Path()): {}},
	}
	w.result = append(w.result, models.DiscoveredComponent{
		Document: root,
		IsRoot:   true,
		Depth:    0,
	})

	if root.Kind() == models.KindContainer && w.canDescend(0) {
		w.descend(root, 1)
	}
	return w.result
}

type walk struct {
	opts    Options
	visited map[string]struct{}
	result  []models.DiscoveredComponent
}

// descend visits the children of parent, which sit at depth.
func (w *walk) descend(parent models.DocumentNode, depth int) {
	for _, ref := range parent.Children() {
		if ref == nil {
			continue
		}
		suppressed := ref.IsSuppressed()
		if suppressed && !w.opts.IncludeSuppressed {
			w.skip(Skip{Reason: SkipSuppressed, Parent: parent, Depth: depth})
			continue
		}

		doc, err := ref.Resolve()
		if err != nil || doc == nil {
			w.skip(Skip{Reason: SkipUnresolved, Parent: parent, Depth: depth, Err: err})
			continue
		}

		key := pathkey.Normalize(doc.Path())
		if _, seen := w.visited[key]; seen {
			w.skip(Skip{Reason: SkipDuplicate, Parent: parent, Document: doc, Depth: depth})
			continue
		}
		w.visited[key] = struct{}{}

		if w.opts.Exclude.Match(doc.Path()) {
			w.skip(Skip{Reason: SkipExcluded, Parent: parent, Document: doc, Depth: depth})
			continue
		}

		switch {
		case doc.IsContentCenterClassified() && !w.opts.IncludeContentCenter:
			w.skip(Skip{Reason: SkipContentCenter, Parent: parent, Document: doc, Depth: depth})
		case !w.kindIncluded(doc.Kind()):
			w.skip(Skip{Reason: SkipFiltered, Parent: parent, Document: doc, Depth: depth})
		default:
			w.result = append(w.result, models.DiscoveredComponent{
				Document:     doc,
				IsSuppressed: suppressed,
				Depth:        depth,
			})
		}

		// Emission filters never stop descent: a hidden container can still
		// hold visible leaves.
		if doc.Kind() == models.KindContainer && w.canDescend(depth) {
			w.descend(doc, depth+1)
		}
	}
}

func (w *walk) canDescend(depth int) bool {
	return w.opts.MaxDepth < 0 || depth < w.opts.MaxDepth
}

func (w *walk) kindIncluded(kind models.DocumentKind) bool {
	if kind == models.KindContainer {
		return w.opts.IncludeContainers
	}
	return w.opts.IncludeLeaves
}

func (w *walk) skip(s Skip) {
	if w.opts.OnSkip != nil {
		w.opts.OnSkip(s)
	}
}
