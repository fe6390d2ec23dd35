package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/cadbatch/internal/config"
	"github.com/harrison/cadbatch/internal/executor"
	"github.com/harrison/cadbatch/internal/logger"
	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/operation"
	"github.com/harrison/cadbatch/internal/planner"
	"github.com/harrison/cadbatch/internal/source"
)

// addSelectionFlags registers the flags shared by scan and run.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .cadbatch/config.yaml)")
	cmd.Flags().StringP("output", "o", "", "Output directory (default: export/ next to the root document)")
	cmd.Flags().StringSliceP("formats", "f", nil, "Output formats, e.g. step,pdf")
	cmd.Flags().Bool("top-level", true, "Export the root document")
	cmd.Flags().Bool("subassemblies", true, "Export subassemblies")
	cmd.Flags().Bool("parts", true, "Export parts")
	cmd.Flags().Bool("suppressed", false, "Include suppressed components")
	cmd.Flags().Bool("content-center", false, "Include content center (library) parts")
	cmd.Flags().Int("max-depth", -1, "Maximum traversal depth (-1 = unlimited)")
	cmd.Flags().StringSlice("exclude", nil, "Gitignore-style patterns of documents to leave out")
	cmd.Flags().String("log-level", "", "Console log level (trace, debug, info, warn, error)")
	cmd.Flags().BoolP("verbose", "v", false, "Show the per-item plan (same as --log-level debug)")
}

// loadConfig reads the config file and merges the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	var f config.Flags
	if flags.Changed("output") {
		v, _ := flags.GetString("output")
		f.OutputDir = &v
	}
	if flags.Changed("formats") {
		v, _ := flags.GetStringSlice("formats")
		f.Formats = &v
	}
	f.IncludeTopLevel = changedBool(cmd, "top-level")
	f.IncludeSubassemblies = changedBool(cmd, "subassemblies")
	f.IncludeParts = changedBool(cmd, "parts")
	f.IncludeSuppressed = changedBool(cmd, "suppressed")
	f.IncludeContentCenter = changedBool(cmd, "content-center")
	if flags.Changed("max-depth") {
		v, _ := flags.GetInt("max-depth")
		f.MaxDepth = &v
	}
	if flags.Changed("exclude") {
		v, _ := flags.GetStringSlice("exclude")
		f.ExcludePatterns = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		f.LogLevel = &v
	}
	if flags.Lookup("log-dir") != nil && flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		f.LogDir = &v
	}
	f.VerifyOutputs = invertedBool(cmd, "no-verify")
	f.ReportHTML = invertedBool(cmd, "no-report")

	cfg.MergeWithFlags(f)

	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func changedBool(cmd *cobra.Command, name string) *bool {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

// invertedBool maps a --no-X flag onto the setting it turns off.
func invertedBool(cmd *cobra.Command, name string) *bool {
	v := changedBool(cmd, name)
	if v == nil {
		return nil
	}
	inverted := !*v
	return &inverted
}

// batch is everything needed to build an orchestrator for one manifest.
type batch struct {
	cfg       *config.Config
	manifest  *source.Manifest
	source    models.DocumentSource
	command   *operation.Command
	operation executor.Operation
	outputDir string
	info      models.RunInfo
}

func prepareBatch(cfg *config.Config, manifestPath string) (*batch, error) {
	manifest, err := source.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	src, err := manifest.Source(cfg.ContentCenterMatcher())
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(manifest.Root), "export")
	}
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}

	command := &operation.Command{
		Templates: cfg.CommandTemplates(),
		Options:   cfg.KindOptions(),
		Timeout:   cfg.CommandTimeout,
	}
	var op executor.Operation = command
	if cfg.VerifyOutputs {
		op = operation.Verify(command)
	}

	return &batch{
		cfg:       cfg,
		manifest:  manifest,
		source:    src,
		command:   command,
		operation: op,
		outputDir: outputDir,
		info: models.RunInfo{
			RunID:     logger.NewSessionID(),
			RootPath:  manifest.Root,
			OutputDir: outputDir,
			Settings:  cfg.Settings(),
			Options:   cfg.KindOptions(),
		},
	}, nil
}

// orchestratorConfig returns the collaborators common to every command;
// callers add the sinks.
func (b *batch) orchestratorConfig() executor.Config {
	kinds, _ := b.cfg.Kinds()
	return executor.Config{
		Source:    b.source,
		Operation: b.operation,
		Walk:      b.cfg.WalkOptions(),
		Rules:     planner.RulesFromSelection(kinds, b.cfg.Selection(), b.outputDir),
		Run:       b.info,
	}
}

// auditOpener writes the export log into the configured log directory, or
// the output directory when none is set.
func (b *batch) auditOpener() executor.AuditOpener {
	dir := b.cfg.LogDir
	if dir == "" {
		dir = b.outputDir
	}
	return func() (executor.AuditLog, error) {
		log, err := logger.NewAuditLog(dir, logger.DefaultAuditPrefix)
		if err != nil {
			return nil, err
		}
		return log, nil
	}
}
