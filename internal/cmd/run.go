package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/cadbatch/internal/executor"
	"github.com/harrison/cadbatch/internal/filelock"
	"github.com/harrison/cadbatch/internal/logger"
	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/report"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <manifest>",
		Short: "Export every planned file",
		Long: `Run scans the assembly tree described by the manifest, then runs the
configured converter command for each planned file, one at a time.

A failing file is recorded and the run continues. Ctrl+C stops the run
after the file currently being exported; files not yet started are listed
as skipped. An export log (export_log_<timestamp>.txt) and, unless
disabled, an HTML report are written next to the exported files.

Configuration is loaded from .cadbatch/config.yaml if present.
CLI flags override configuration file settings.

The command exits non-zero when any file failed.

Examples:
  cadbatch run lift.yaml
  cadbatch run lift.yaml --formats step,stl --output ./out
  cadbatch run lift.yaml --subassemblies=false --exclude 'obsolete/'
  cadbatch run lift.yaml --no-verify --no-report`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}

	addSelectionFlags(cmd)
	cmd.Flags().String("log-dir", "", "Directory for the export log (default: output directory)")
	cmd.Flags().Bool("no-verify", false, "Do not check the produced files")
	cmd.Flags().Bool("no-report", false, "Do not write the HTML report")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := prepareBatch(cfg, args[0])
	if err != nil {
		return err
	}

	console := logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)
	for _, w := range b.command.OptionWarnings() {
		console.LogWarn(w)
	}

	lock, err := filelock.LockDir(b.outputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	var telemetry executor.Telemetry
	if cfg.Telemetry.Enabled {
		t := logger.NewTelemetry(logger.TelemetryOptions{
			Dir:        cfg.Telemetry.Dir,
			MaxSizeMB:  cfg.Telemetry.MaxSizeMB,
			MaxBackups: cfg.Telemetry.MaxBackups,
			MaxAgeDays: cfg.Telemetry.MaxAgeDays,
		})
		defer t.Close()
		b.info.RunID = t.SessionID()
		telemetry = t
	}

	async := logger.NewAsyncProgress(64)
	progress := logger.NewProgressWriter(cmd.ErrOrStderr())

	orchCfg := b.orchestratorConfig()
	orchCfg.Run = b.info
	orchCfg.Progress = async
	orchCfg.Log = async
	orchCfg.Audit = b.auditOpener()
	orchCfg.Telemetry = telemetry
	orch := executor.NewOrchestrator(orchCfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var flag executor.CancelFlag
	stop := executor.NotifyOnInterrupt(ctx, &flag, func(os.Signal) {
		console.LogWarn("Interrupt received, stopping after the current file...")
	})
	defer stop()

	var scan *models.ScanSummary
	var summary *models.RunSummary

	// The worker owns the orchestrator; the presentation goroutine owns the
	// console and the progress bar.
	var g errgroup.Group
	g.Go(func() error {
		defer async.Close()

		var err error
		scan, err = orch.Scan(ctx)
		if err != nil {
			return err
		}
		for _, w := range scan.Warnings {
			async.Emit("WARNING: " + w)
		}
		summary, err = orch.Execute(ctx, scan.Items, &flag)
		return err
	})
	g.Go(func() error {
		return async.Run(ctx, progress, console)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	console.LogRunSummary(summary)

	if cfg.ReportHTML {
		path := filepath.Join(b.outputDir, report.DefaultFileName)
		if err := report.Write(path, orch.RunInfo(), scan, summary); err != nil {
			console.LogWarn(fmt.Sprintf("could not write report: %v", err))
		} else {
			console.LogInfo(fmt.Sprintf("Report written to %s", path))
		}
	}

	if summary.ExitCode() != 0 {
		return fmt.Errorf("%d file(s) failed to export", summary.Failed)
	}
	return nil
}
