package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/pathkey"
)

// Manifest is the YAML description of a document graph:
//
//	root: assemblies/frame.iam
//	content_center_patterns: ["Content Center Files/"]
//	documents:
//	  - path: assemblies/frame.iam
//	    kind: assembly
//	    revision: B
//	    children:
//	      - ref: parts/rail.ipt
//	      - ref: parts/spare.ipt
//	        suppressed: true
//	  - path: parts/rail.ipt
//
// A document marked suppressed is treated as suppressed wherever it is
// referenced; the root is always exported.
//
// Relative paths are resolved against the manifest's directory.
type Manifest struct {
	Root                  string             `yaml:"root"`
	ContentCenterPatterns []string           `yaml:"content_center_patterns,omitempty"`
	Documents             []ManifestDocument `yaml:"documents"`

	// file is the manifest path when loaded from disk.
	file string
}

// ManifestDocument is one entry of Manifest.Documents.
type ManifestDocument struct {
	Path          string          `yaml:"path"`
	Name          string          `yaml:"name,omitempty"`
	Kind          string          `yaml:"kind,omitempty"`
	Revision      string          `yaml:"revision,omitempty"`
	Suppressed    bool            `yaml:"suppressed,omitempty"`
	ContentCenter bool            `yaml:"content_center,omitempty"`
	Children      []ManifestChild `yaml:"children,omitempty"`
}

// ManifestChild is a child reference of a container document.
type ManifestChild struct {
	Ref        string `yaml:"ref"`
	Suppressed bool   `yaml:"suppressed,omitempty"`
}

// LoadManifest reads and validates a manifest file. Relative document paths
// are made absolute against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m, err := ParseManifest(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.file = abs
	return m, nil
}

// ParseManifest parses manifest YAML. baseDir anchors relative paths; an
// empty baseDir leaves them as written.
func ParseManifest(data []byte, baseDir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if baseDir != "" {
		m.Root = resolve(baseDir, m.Root)
		for i := range m.Documents {
			d := &m.Documents[i]
			d.Path = resolve(baseDir, d.Path)
			for j := range d.Children {
				d.Children[j].Ref = resolve(baseDir, d.Children[j].Ref)
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that the root is set, every document has a path and a
// known kind, and no path is listed twice.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Root) == "" {
		return fmt.Errorf("manifest has no root document")
	}

	seen := make(map[string]int, len(m.Documents))
	for i, d := range m.Documents {
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("document %d: path is required", i+1)
		}
		if _, err := parseKind(d.Kind); err != nil {
			return fmt.Errorf("document %s: %w", d.Path, err)
		}
		key := pathkey.Normalize(d.Path)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("document %s listed twice (entries %d and %d)", d.Path, prev, i+1)
		}
		seen[key] = i + 1
		for j, c := range d.Children {
			if strings.TrimSpace(c.Ref) == "" {
				return fmt.Errorf("document %s: child %d has no ref", d.Path, j+1)
			}
		}
	}
	return nil
}

// File returns the path the manifest was loaded from, if any.
func (m *Manifest) File() string {
	return m.file
}

// Graph builds the document graph. contentCenter overrides the manifest's
// own patterns when non-nil; with neither, the default patterns apply.
func (m *Manifest) Graph(contentCenter *pathkey.Matcher) (*Graph, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	g := NewGraph()
	switch {
	case contentCenter != nil:
		g.SetContentCenterPatterns(contentCenter)
	case len(m.ContentCenterPatterns) > 0:
		g.SetContentCenterPatterns(pathkey.NewMatcher(m.ContentCenterPatterns...))
	default:
		g.SetContentCenterPatterns(pathkey.NewMatcher(pathkey.DefaultContentCenterPatterns...))
	}

	for _, d := range m.Documents {
		kind, _ := parseKind(d.Kind)
		g.Add(DocumentSpec{
			Path:          d.Path,
			Name:          d.Name,
			Kind:          kind,
			Revision:      d.Revision,
			Suppressed:    d.Suppressed,
			ContentCenter: d.ContentCenter,
		})
	}
	for _, d := range m.Documents {
		for _, c := range d.Children {
			if err := g.Link(d.Path, c.Ref, c.Suppressed); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Source builds the graph and returns a source rooted at the manifest root.
func (m *Manifest) Source(contentCenter *pathkey.Matcher) (models.DocumentSource, error) {
	g, err := m.Graph(contentCenter)
	if err != nil {
		return nil, err
	}
	return g.Source(m.Root), nil
}

func parseKind(s string) (models.DocumentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "leaf", "part":
		return models.KindLeaf, nil
	case "container", "assembly":
		return models.KindContainer, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want part/leaf or assembly/container)", s)
	}
}

func resolve(baseDir, p string) string {
	if p == "" || pathkey.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, filepath.FromSlash(p))
}
