package planner

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDrawingExtensions lists the drawing file extensions looked for next
// to a model, in order of preference.
var DefaultDrawingExtensions = []string{".idw"}

// DrawingLocator finds the drawing file that belongs to a model file.
type DrawingLocator interface {
	FindDrawing(modelPath string) (string, bool)
}

// DrawingFunc adapts a function to DrawingLocator.
type DrawingFunc func(modelPath string) (string, bool)

// FindDrawing calls f.
func (f DrawingFunc) FindDrawing(modelPath string) (string, bool) {
	return f(modelPath)
}

// SiblingDrawing finds a drawing with the same stem as the model in the
// model's directory: Bracket.ipt -> Bracket.idw. The extension comparison is
// case-insensitive, so Bracket.IDW is found too.
type SiblingDrawing struct {
	Extensions []string
}

// FindDrawing implements DrawingLocator.
func (s SiblingDrawing) FindDrawing(modelPath string) (string, bool) {
	if modelPath == "" {
		return "", false
	}
	exts := s.Extensions
	if len(exts) == 0 {
		exts = DefaultDrawingExtensions
	}

	dir := filepath.Dir(modelPath)
	stem := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))

	for _, ext := range exts {
		candidate := filepath.Join(dir, stem+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	// Fall back to a directory scan for differently-cased extensions.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, ext := range exts {
		want := stem + ext
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(entry.Name(), want) {
				return filepath.Join(dir, entry.Name()), true
			}
		}
	}
	return "", false
}
