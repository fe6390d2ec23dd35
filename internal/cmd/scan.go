package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/cadbatch/internal/executor"
	"github.com/harrison/cadbatch/internal/logger"
	"github.com/harrison/cadbatch/internal/report"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <manifest>",
		Short: "Plan an export without running any converter",
		Long: `Scan walks the assembly tree described by the manifest and prints the
files an export run would produce, including duplicate renames and the
components that were left out.

Examples:
  cadbatch scan lift.yaml
  cadbatch scan lift.yaml --formats step,pdf --parts=false
  cadbatch scan lift.yaml --report plan.html`,
		Args: cobra.ExactArgs(1),
		RunE: scanCommand,
	}

	addSelectionFlags(cmd)
	cmd.Flags().String("report", "", "Also write the plan as an HTML report to this path")

	return cmd
}

func scanCommand(cmd *cobra.Command, args []string) error {
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

	orchCfg := b.orchestratorConfig()
	orchCfg.Log = console
	orch := executor.NewOrchestrator(orchCfg)

	scan, err := orch.Scan(cmd.Context())
	if err != nil {
		return err
	}
	console.LogScanSummary(scan)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := report.Write(path, orch.RunInfo(), scan, nil); err != nil {
			return err
		}
		console.LogInfo(fmt.Sprintf("Report written to %s", path))
	}
	return nil
}
