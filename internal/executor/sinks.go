package executor

import (
	"context"

	"github.com/harrison/cadbatch/internal/models"
)

// ProgressSink receives progress notifications. current is the zero-based
// index of the item about to start, or total once the run is over.
type ProgressSink interface {
	Report(current, total int)
}

// LogSink receives human-readable status messages.
type LogSink interface {
	Emit(message string)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(current, total int)

// Report calls f.
func (f ProgressFunc) Report(current, total int) { f(current, total) }

// LogFunc adapts a function to LogSink.
type LogFunc func(message string)

// Emit calls f.
func (f LogFunc) Emit(message string) { f(message) }

// AuditLog is the structured, append-only record of a run. Every method may
// fail; the orchestrator stops using the log after the first failure.
type AuditLog interface {
	LogHeader(info models.RunInfo) error
	LogScan(scan *models.ScanSummary) error
	LogResult(result models.ItemResult) error
	LogSummary(summary *models.RunSummary) error
	Close() error
	Path() string
}

// AuditOpener creates the audit log for one Execute call.
type AuditOpener func() (AuditLog, error)

// Telemetry records machine-readable run events. Implementations handle
// their own write failures.
type Telemetry interface {
	Event(level, event string, data map[string]any)
}

// Operation performs the side effect for one work item, typically running
// an external converter. It returns a short description of what it did.
//
// Execute is never called concurrently, and ctx is not cancelled when the
// run is: a started item always runs to completion.
type Operation interface {
	Execute(ctx context.Context, item models.WorkItem) (action string, err error)
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(ctx context.Context, item models.WorkItem) (string, error)

// Execute calls f.
func (f OperationFunc) Execute(ctx context.Context, item models.WorkItem) (string, error) {
	return f(ctx, item)
}

type nopProgress struct{}

func (nopProgress) Report(int, int) {}

type nopLog struct{}

func (nopLog) Emit(string) {}

type nopTelemetry struct{}

func (nopTelemetry) Event(string, string, map[string]any) {}
