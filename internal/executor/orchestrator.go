package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/planner"
	"github.com/harrison/cadbatch/internal/walker"
)

// Config wires an Orchestrator to its collaborators. Source and Operation
// are required; the sinks are optional.
type Config struct {
	Source    models.DocumentSource
	Operation Operation
	Walk      walker.Options
	Rules     planner.Rules
	// Run seeds the run header. Scan fills in the root name and path.
	Run       models.RunInfo
	Progress  ProgressSink
	Log       LogSink
	Audit     AuditOpener
	Telemetry Telemetry
}

// Orchestrator drives the two phases of a batch: Scan plans the work and
// Execute performs it. One Orchestrator holds one document session and must
// not be used from two goroutines at once.
type Orchestrator struct {
	source    models.DocumentSource
	operation Operation
	walk      walker.Options
	rules     planner.Rules
	run       models.RunInfo
	progress  ProgressSink
	log       LogSink
	audit     AuditOpener
	telemetry Telemetry

	scan        *models.ScanSummary
	lastLogPath string
}

// NewOrchestrator creates a new Orchestrator instance.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Source == nil {
		panic("document source cannot be nil")
	}
	if cfg.Operation == nil {
		panic("operation cannot be nil")
	}

	o := &Orchestrator{
		source:    cfg.Source,
		operation: cfg.Operation,
		walk:      cfg.Walk,
		rules:     cfg.Rules,
		run:       cfg.Run,
		progress:  cfg.Progress,
		log:       cfg.Log,
		audit:     cfg.Audit,
		telemetry: cfg.Telemetry,
	}
	if o.progress == nil {
		o.progress = nopProgress{}
	}
	if o.log == nil {
		o.log = nopLog{}
	}
	if o.telemetry == nil {
		o.telemetry = nopTelemetry{}
	}
	return o
}

// Scan connects to the document source, walks the tree from its root,
// plans the work items and resolves output name collisions. Only a failure
// to obtain the root is returned as an error (a *ScanError); broken
// references, dropped kinds and renames become warnings on the summary.
func (o *Orchestrator) Scan(ctx context.Context) (*models.ScanSummary, error) {
	o.emit("Connecting to document source...")
	o.telemetry.Event("info", "scan_started", map[string]any{"root": o.run.RootPath})

	root, err := o.source.Connect(ctx)
	if err == nil && root == nil {
		err = errors.New("source returned no root document")
	}
	if err != nil {
		scanErr := NewScanError(o.run.RootPath, err)
		o.telemetry.Event("error", "scan_failed", map[string]any{"error": scanErr.Error()})
		return nil, scanErr
	}

	summary := &models.ScanSummary{
		RootName: root.DisplayName(),
		RootPath: root.Path(),
	}
	o.emit("Root: %s", summary.RootName)
	o.emit("Scanning document tree...")

	opts := o.walk
	observe := opts.OnSkip
	opts.OnSkip = func(s walker.Skip) {
		switch s.Reason {
		case walker.SkipContentCenter:
			summary.ContentCenterExcluded++
		case walker.SkipSuppressed:
			summary.SuppressedExcluded++
		case walker.SkipUnresolved:
			summary.UnresolvedReferences++
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("Unresolved reference in %s: %v", nodeName(s.Parent), s.Err))
		}
		if observe != nil {
			observe(s)
		}
	}
	components := walker.Walk(root, opts)
	summary.TotalComponents = len(components)
	o.emit("Found %d components (%d content center excluded, %d suppressed excluded)",
		summary.TotalComponents, summary.ContentCenterExcluded, summary.SuppressedExcluded)

	rules := o.rules
	onDrop := rules.OnDrop
	rules.OnDrop = func(d planner.DroppedKind) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Skipped %s for %s: %s", d.Kind.Label(), d.Component.DisplayName, d.Reason))
		if onDrop != nil {
			onDrop(d)
		}
	}
	items := planner.Plan(components, rules)

	before := planner.OutputNames(items)
	items = planner.Resolve(items)
	for _, r := range planner.Renames(before, items) {
		summary.Warnings = append(summary.Warnings, r.String())
	}
	summary.Items = items

	o.emit("Export plan: %d files to export", len(items))
	for _, item := range items {
		note := ""
		if item.Kind.Spec().NeedsDrawing {
			note = " (from drawing)"
		}
		o.emit("  %s [%s]%s", item.OutputName, item.Kind.Label(), note)
	}

	o.run.RootName = summary.RootName
	o.run.RootPath = summary.RootPath
	o.scan = summary
	o.telemetry.Event("info", "scan_complete", map[string]any{
		"components": summary.TotalComponents,
		"items":      len(items),
		"warnings":   len(summary.Warnings),
	})
	return summary, nil
}

// Execute runs the operation for every included item, in order. It checks
// cancel and ctx before each item; once either is set the remaining items
// are skipped rather than failed. A failing item is recorded and the next
// one runs. Operations receive a context that is not cancelled with ctx, so
// an item that has started always finishes.
//
// Execute returns ErrNotScanned if Scan has not succeeded on this
// Orchestrator. The items need not be the exact slice Scan returned.
func (o *Orchestrator) Execute(ctx context.Context, items []models.WorkItem, cancel CancelSignal) (*models.RunSummary, error) {
	if o.scan == nil {
		return nil, ErrNotScanned
	}

	included := models.Included(items)
	total := len(included)
	summary := &models.RunSummary{Planned: total}
	states := models.NewItemStates(total)

	start := time.Now()
	o.run.Started = start
	audit := o.openAudit()
	audit.do("write", func(a AuditLog) error { return a.LogHeader(o.run) })
	audit.do("write", func(a AuditLog) error { return a.LogScan(o.scan) })

	o.emit("Starting export of %d files...", total)
	opCtx := context.WithoutCancel(ctx)

	for i, item := range included {
		if isCancelled(ctx, cancel) {
			summary.Cancelled = true
			for j := i; j < total; j++ {
				_ = states.Set(j, models.StateSkipped)
			}
			o.emit("Export cancelled by user.")
			break
		}

		o.progress.Report(i, total)
		o.emit("Exporting %s...", item.OutputName)
		_ = states.Set(i, models.StateRunning)

		result := o.runItem(opCtx, item)
		if result.Success {
			_ = states.Set(i, models.StateSucceeded)
			o.emit("  OK (%.1fs)", result.Duration.Seconds())
		} else {
			_ = states.Set(i, models.StateFailed)
			o.emit("  FAILED: %s", result.Error)
		}

		summary.Record(result)
		audit.do("write to", func(a AuditLog) error { return a.LogResult(result) })
		o.telemetry.Event(levelFor(result), "item_complete", map[string]any{
			"name":        item.OutputName,
			"kind":        string(item.Kind),
			"source":      item.Source.SourcePath,
			"success":     result.Success,
			"error":       result.Error,
			"duration_ms": result.Duration.Milliseconds(),
		})
	}

	o.progress.Report(total, total)
	summary.Skipped = states.Count(models.StateSkipped)
	summary.Duration = time.Since(start)

	o.emit("Export complete: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
	if summary.Cancelled {
		o.emit("%d items not started", summary.Skipped)
	}
	o.finishAudit(audit, summary)

	o.telemetry.Event("info", "run_complete", map[string]any{
		"total":       summary.Total,
		"succeeded":   summary.Succeeded,
		"failed":      summary.Failed,
		"skipped":     summary.Skipped,
		"cancelled":   summary.Cancelled,
		"duration_ms": summary.Duration.Milliseconds(),
	})
	return summary, nil
}

// LastScan returns the summary of the last successful Scan, or nil.
func (o *Orchestrator) LastScan() *models.ScanSummary {
	return o.scan
}

// LastLogPath returns the audit log written by the last Execute, or "" when
// none was completed.
func (o *Orchestrator) LastLogPath() string {
	return o.lastLogPath
}

// RunInfo returns the run header as it stands after the last Scan.
func (o *Orchestrator) RunInfo() models.RunInfo {
	return o.run
}

func (o *Orchestrator) runItem(ctx context.Context, item models.WorkItem) (result models.ItemResult) {
	result.Item = item
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Action = ""
			result.Error = (&PanicError{Value: r}).Error()
		}
		result.Duration = time.Since(start)
	}()

	action, err := o.operation.Execute(ctx, item)
	if err != nil {
		result.Error = err.Error()
		if result.Error == "" {
			result.Error = "unknown error"
		}
		return result
	}
	if action == "" {
		action = "exported " + item.Kind.Label()
	}
	result.Success = true
	result.Action = action
	return result
}

func (o *Orchestrator) openAudit() *safeAudit {
	if o.audit == nil {
		return newSafeAudit(nil, o.log)
	}
	log, err := o.audit()
	if err != nil {
		gracefulWarn(o.log, "could not create export log: %v", err)
		return newSafeAudit(nil, o.log)
	}
	return newSafeAudit(log, o.log)
}

// finishAudit writes the summary if the log is still healthy and closes it
// either way.
func (o *Orchestrator) finishAudit(audit *safeAudit, summary *models.RunSummary) {
	if audit.log == nil {
		return
	}
	if !audit.active() {
		_ = audit.log.Close()
		return
	}

	err := audit.log.LogSummary(summary)
	if cerr := audit.log.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		gracefulWarn(o.log, "could not finalize export log: %v", err)
		return
	}
	o.lastLogPath = audit.log.Path()
	o.emit("Log written to %s", o.lastLogPath)
}

func (o *Orchestrator) emit(format string, args ...any) {
	if len(args) == 0 {
		o.log.Emit(format)
		return
	}
	o.log.Emit(fmt.Sprintf(format, args...))
}

func isCancelled(ctx context.Context, cancel CancelSignal) bool {
	if ctx.Err() != nil {
		return true
	}
	return cancel != nil && cancel.Cancelled()
}

func levelFor(result models.ItemResult) string {
	if result.Success {
		return "info"
	}
	return "error"
}

func nodeName(n models.DocumentNode) string {
	if n == nil {
		return "(unknown)"
	}
	return n.DisplayName()
}
