package planner

import (
	"strings"
)

// NoRevision replaces an empty or blank revision in output file names.
const NoRevision = "NoRev"

// placeholder replaces every character that cannot appear in a file name and
// stands in for a name that sanitizes to nothing.
const placeholder = "_"

// Sanitize makes name safe to use as a file name on Windows, the strictest
// filesystem the outputs end up on. Reserved characters and control
// characters become "_", trailing dots and spaces are stripped, and a name
// with nothing left becomes "_". The result is never empty.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isInvalidFileRune(r) {
			b.WriteString(placeholder)
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.TrimRight(b.String(), ". ")
	if cleaned == "" {
		return placeholder
	}
	return cleaned
}

func isInvalidFileRune(r rune) bool {
	if r < 0x20 || r == 0x7f {
		return true
	}
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	}
	return false
}

// ComposeFilename builds "{name}-{revision}.{ext}". A blank revision is
// written as NoRevision; both name and revision are sanitized.
func ComposeFilename(displayName, revision, ext string) string {
	rev := strings.TrimSpace(revision)
	if rev == "" {
		rev = NoRevision
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")

	name := Sanitize(displayName) + "-" + Sanitize(rev)
	if ext == "" {
		return name
	}
	return name + "." + ext
}
