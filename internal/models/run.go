package models

import "time"

// Setting is one effective option recorded in the run header.
type Setting struct {
	Name  string
	Value string
}

// RunInfo describes a run for log headers and reports.
type RunInfo struct {
	RunID     string
	Started   time.Time
	RootName  string
	RootPath  string
	OutputDir string
	// Settings are the effective selection and traversal options, in the
	// order they should be shown.
	Settings []Setting
	// Options holds the per-kind converter options.
	Options map[OutputKind]map[string]string
}
