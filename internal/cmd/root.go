package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for cadbatch
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cadbatch",
		Short: "Batch export of CAD assembly trees",
		Long: `cadbatch walks a CAD assembly tree described by a YAML manifest, plans
one output file per selected component and format, and runs a configured
converter command for each file.

Duplicate output names are renamed, library (content center) parts and
suppressed components are left out by default, and every run writes a
plain-text export log next to the exported files.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewRunCommand())

	return cmd
}
