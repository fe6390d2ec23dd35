// Package source provides document sources: an in-memory document graph and
// a YAML manifest loader that builds one.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/pathkey"
)

// ErrUnresolved is returned when a child reference points at a document the
// graph does not contain.
var ErrUnresolved = errors.New("referenced document could not be resolved")

// DocumentSpec describes one document added to a Graph.
type DocumentSpec struct {
	Path          string
	Name          string // Display name; defaults to the file stem
	Kind          models.DocumentKind
	Revision      string
	Suppressed    bool
	ContentCenter bool
}

// Graph is an in-memory document graph. Documents are keyed by their
// normalized path; references are resolved lazily, so cycles and forward
// references are allowed.
type Graph struct {
	docs          map[string]*Document
	contentCenter *pathkey.Matcher
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{docs: make(map[string]*Document)}
}

// SetContentCenterPatterns classifies every document whose path matches m as
// content center, in addition to documents flagged explicitly.
func (g *Graph) SetContentCenterPatterns(m *pathkey.Matcher) {
	g.contentCenter = m
}

// Add inserts or replaces a document. Existing child references of a
// replaced document are dropped.
func (g *Graph) Add(spec DocumentSpec) *Document {
	kind := spec.Kind
	if kind == "" {
		kind = models.KindLeaf
	}
	name := spec.Name
	if name == "" {
		base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(spec.Path, `\`, "/")))
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	doc := &Document{
		graph:         g,
		path:          spec.Path,
		name:          name,
		kind:          kind,
		revision:      spec.Revision,
		suppressed:    spec.Suppressed,
		contentCenter: spec.ContentCenter,
	}
	g.docs[pathkey.Normalize(spec.Path)] = doc
	return doc
}

// Link appends a reference from parent to child. The child does not need to
// exist yet; a reference to a path never added fails to resolve.
func (g *Graph) Link(parent, child string, suppressed bool) error {
	p, ok := g.Lookup(parent)
	if !ok {
		return fmt.Errorf("link %s -> %s: parent not in graph", parent, child)
	}
	p.refs = append(p.refs, &Ref{graph: g, target: child, suppressed: suppressed})
	return nil
}

// Lookup finds a document by path.
func (g *Graph) Lookup(path string) (*Document, bool) {
	doc, ok := g.docs[pathkey.Normalize(path)]
	return doc, ok
}

// Len returns the number of documents in the graph.
func (g *Graph) Len() int {
	return len(g.docs)
}

// Source returns a DocumentSource whose Connect yields the document at
// rootPath.
func (g *Graph) Source(rootPath string) models.DocumentSource {
	return &graphSource{graph: g, root: rootPath}
}

type graphSource struct {
	graph *Graph
	root  string
}

func (s *graphSource) Connect(ctx context.Context) (models.DocumentNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.root == "" {
		return nil, errors.New("no root document configured")
	}
	doc, ok := s.graph.Lookup(s.root)
	if !ok {
		return nil, fmt.Errorf("root document %s not found", s.root)
	}
	return doc, nil
}

// Document is a node of a Graph. It implements models.DocumentNode.
type Document struct {
	graph         *Graph
	path          string
	name          string
	kind          models.DocumentKind
	revision      string
	suppressed    bool
	contentCenter bool
	refs          []*Ref
}

func (d *Document) Path() string              { return d.path }
func (d *Document) DisplayName() string       { return d.name }
func (d *Document) Revision() string          { return d.revision }
func (d *Document) Kind() models.DocumentKind { return d.kind }
func (d *Document) IsSuppressed() bool        { return d.suppressed }

// IsContentCenterClassified is true for explicitly flagged documents and for
// documents whose path matches the graph's content center patterns.
func (d *Document) IsContentCenterClassified() bool {
	return d.contentCenter || d.graph.contentCenter.Match(d.path)
}

// Children returns the references of a container; leaves have none even if
// references were linked to them.
func (d *Document) Children() []models.ChildRef {
	if d.kind != models.KindContainer {
		return nil
	}
	refs := make([]models.ChildRef, len(d.refs))
	for i, r := range d.refs {
		refs[i] = r
	}
	return refs
}

// Ref is a child reference inside a Graph. It implements models.ChildRef.
type Ref struct {
	graph      *Graph
	target     string
	suppressed bool
}

// IsSuppressed is true for a reference suppressed in its parent and for any
// reference to a document that is itself marked suppressed.
func (r *Ref) IsSuppressed() bool {
	if r.suppressed {
		return true
	}
	doc, ok := r.graph.Lookup(r.target)
	return ok && doc.suppressed
}

// Target returns the referenced path as written.
func (r *Ref) Target() string { return r.target }

func (r *Ref) Resolve() (models.DocumentNode, error) {
	doc, ok := r.graph.Lookup(r.target)
	if !ok {
		return nil, fmt.Errorf("%s: %w", r.target, ErrUnresolved)
	}
	return doc, nil
}
