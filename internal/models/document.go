// Package models holds the data types shared by the scan and execute phases:
// the document graph seen through the source interfaces, discovered
// components, planned work items and their results.
package models

import "context"

// DocumentKind classifies a document node as a leaf (part) or a container
// (assembly) that references other documents.
type DocumentKind string

const (
	KindLeaf      DocumentKind = "leaf"
	KindContainer DocumentKind = "container"
)

// IsValid reports whether k is one of the known document kinds.
func (k DocumentKind) IsValid() bool {
	return k == KindLeaf || k == KindContainer
}

// DocumentNode is one node of the external document graph.
// Implementations are owned by the document source; the walker only reads them.
type DocumentNode interface {
	Path() string
	DisplayName() string
	Revision() string
	Kind() DocumentKind
	IsSuppressed() bool
	IsContentCenterClassified() bool
	// Children returns the ordered child references of a container.
	// Leaves return nil.
	Children() []ChildRef
}

// ChildRef is a reference from a container to another document.
// The reference itself may be suppressed independently of the target.
type ChildRef interface {
	IsSuppressed() bool
	// Resolve returns the referenced document. An error means the
	// reference is broken or unreachable.
	Resolve() (DocumentNode, error)
}

// DocumentSource connects to the external application and returns the root
// of the graph to process.
type DocumentSource interface {
	Connect(ctx context.Context) (DocumentNode, error)
}

// DiscoveredComponent is a node found by the walker, annotated with its
// position in the traversal. Depth 0 is the root.
type DiscoveredComponent struct {
	Document     DocumentNode
	IsRoot       bool
	IsSuppressed bool
	Depth        int
}
