// Package pathkey turns document paths into canonical keys used for
// deduplication and pattern matching.
//
// A key is absolute, uses forward slashes, is lexically cleaned and is
// case-folded, so "C:\Work\A.iam" and "c:/work/sub/../a.IAM" share a key.
// Windows drive and UNC paths are recognised on every platform because
// document graphs are usually authored on Windows machines.
package pathkey

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
)

// Normalize returns the canonical dedup key for p. It never fails: a path
// that cannot be made absolute is cleaned as-is. An empty path yields "".
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return fold(canonical(p))
}

// Equal reports whether two paths share a key.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// FoldName case-folds a file name for case-insensitive comparison.
func FoldName(name string) string {
	return fold(name)
}

// IsAbs reports whether p is absolute on the host or is a Windows drive or
// UNC path.
func IsAbs(p string) bool {
	return isUNC(p) || isDrivePath(p) || filepath.IsAbs(p)
}

func canonical(p string) string {
	switch {
	case isUNC(p):
		cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
		return "/" + cleaned
	case isDrivePath(p):
		return path.Clean(strings.ReplaceAll(p, `\`, "/"))
	}

	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.ToSlash(filepath.Clean(p))
}

func isDrivePath(p string) bool {
	if len(p) < 3 || p[1] != ':' {
		return false
	}
	c := p[0]
	letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	return letter && (p[2] == '\\' || p[2] == '/')
}

func isUNC(p string) bool {
	return strings.HasPrefix(p, `\\`)
}

// fold applies Unicode case folding. A Caser is stateful, so one is
// created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
