package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harrison/cadbatch/internal/models"
)

const (
	separator     = "============================================================"
	thinSeparator = "------------------------------------------------------------"
)

// DefaultAuditPrefix names audit log files export_log_<timestamp>.txt.
const DefaultAuditPrefix = "export_log"

// AuditLog writes the plain-text record of one run: a header with the run
// settings, the scan results, one block per item and a closing summary.
// Every write is flushed so the file is readable while the run is going.
type AuditLog struct {
	path string
	file *os.File
	now  func() time.Time
	mu   sync.Mutex
}

// NewAuditLog creates dir if needed and opens <prefix>_<YYYYMMDD_HHMMSS>.txt
// inside it. A latest.txt symlink pointing at the new file is refreshed on a
// best-effort basis; filesystems without symlinks just don't get one.
func NewAuditLog(dir, prefix string) (*AuditLog, error) {
	if prefix == "" {
		prefix = DefaultAuditPrefix
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.txt", prefix, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create export log: %w", err)
	}

	symlinkPath := filepath.Join(dir, "latest.txt")
	if _, err := os.Lstat(symlinkPath); err == nil {
		_ = os.Remove(symlinkPath)
	}
	_ = os.Symlink(name, symlinkPath)

	return &AuditLog{path: path, file: file, now: time.Now}, nil
}

// Path returns the log file path.
func (a *AuditLog) Path() string {
	return a.path
}

// LogHeader writes the run metadata and effective settings.
func (a *AuditLog) LogHeader(info models.RunInfo) error {
	var b strings.Builder
	line(&b, separator)
	line(&b, "CAD BATCH EXPORT LOG")
	line(&b, separator)
	if info.RunID != "" {
		line(&b, "Run:      %s", info.RunID)
	}
	started := info.Started
	if started.IsZero() {
		started = a.now()
	}
	line(&b, "Date:     %s", started.Format(time.RFC3339))
	line(&b, "Root:     %s", info.RootName)
	line(&b, "Path:     %s", info.RootPath)
	line(&b, "Output:   %s", info.OutputDir)
	line(&b, "")

	line(&b, "SETTINGS")
	if len(info.Settings) == 0 {
		line(&b, "  (defaults)")
	}
	for _, s := range info.Settings {
		line(&b, "  %s: %s", s.Name, s.Value)
	}
	line(&b, "")

	line(&b, "EXPORT OPTIONS")
	if len(info.Options) == 0 {
		line(&b, "  (converter defaults)")
	}
	for _, kind := range sortedKinds(info.Options) {
		line(&b, "  %-5s %s", kind.Label()+":", formatOptions(info.Options[kind]))
	}
	line(&b, "")

	return a.write(b.String())
}

// LogScan writes the scan results and opens the per-item section.
func (a *AuditLog) LogScan(scan *models.ScanSummary) error {
	var b strings.Builder
	line(&b, "SCAN RESULTS")
	line(&b, "  Components found:        %d", scan.TotalComponents)
	line(&b, "  Content center excluded: %d", scan.ContentCenterExcluded)
	line(&b, "  Suppressed excluded:     %d", scan.SuppressedExcluded)
	line(&b, "  Unresolved references:   %d", scan.UnresolvedReferences)
	line(&b, "  Files planned:           %d", len(scan.Items))
	line(&b, "  Files selected:          %d", scan.IncludedCount())
	if len(scan.Warnings) > 0 {
		line(&b, "  Warnings:")
		for _, w := range scan.Warnings {
			line(&b, "    - %s", w)
		}
	}
	line(&b, separator)
	line(&b, "")
	line(&b, "EXPORT")
	line(&b, thinSeparator)

	return a.write(b.String())
}

// LogResult writes the block for one executed item.
func (a *AuditLog) LogResult(result models.ItemResult) error {
	var b strings.Builder
	status := "OK"
	if !result.Success {
		status = "FAILED"
	}
	line(&b, "[%s] %-40s (%.1fs)", status, result.Item.OutputName, result.Duration.Seconds())
	line(&b, "         Source:  %s", result.Item.Source.SourcePath)
	if result.Item.Kind.Spec().NeedsDrawing && result.Item.Source.DrawingPath != "" {
		line(&b, "         Drawing: %s", result.Item.Source.DrawingPath)
	}
	if result.Success && result.Action != "" {
		line(&b, "         Action:  %s", result.Action)
	}
	if result.Error != "" {
		line(&b, "         Error:   %s", result.Error)
		if hint := ErrorHint(result.Error); hint != "" {
			line(&b, "         Hint:    %s", hint)
		}
	}
	line(&b, "")

	return a.write(b.String())
}

// LogSummary writes the closing summary with every failed item listed.
func (a *AuditLog) LogSummary(summary *models.RunSummary) error {
	var b strings.Builder
	line(&b, separator)
	line(&b, "SUMMARY")
	line(&b, separator)
	line(&b, "Finished:  %s", a.now().Format(time.RFC3339))
	line(&b, "Succeeded: %d, Failed: %d, Total time: %.1fs",
		summary.Succeeded, summary.Failed, summary.ItemTime().Seconds())
	if summary.Cancelled {
		line(&b, "Cancelled: %d of %d items not started", summary.Skipped, summary.Planned)
	}

	failed := summary.FailedResults()
	if len(failed) > 0 {
		line(&b, "")
		line(&b, "FAILED ITEMS")
		for i, r := range failed {
			line(&b, "  %d. %s", i+1, r.Item.OutputName)
			line(&b, "     Source:  %s", r.Item.Source.SourcePath)
			if r.Item.Source.DrawingPath != "" {
				line(&b, "     Drawing: %s", r.Item.Source.DrawingPath)
			}
			line(&b, "     Error:   %s", r.Error)
			if hint := ErrorHint(r.Error); hint != "" {
				line(&b, "     Hint:    %s", hint)
			}
		}
	}
	line(&b, "")
	line(&b, "Converter commands and options are set in .cadbatch/config.yaml.")
	line(&b, separator)

	return a.write(b.String())
}

// Close flushes and closes the log file. Closing twice is a no-op.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	if err := a.file.Sync(); err != nil {
		a.file.Close()
		a.file = nil
		return fmt.Errorf("failed to sync export log: %w", err)
	}
	if err := a.file.Close(); err != nil {
		a.file = nil
		return fmt.Errorf("failed to close export log: %w", err)
	}
	a.file = nil
	return nil
}

func (a *AuditLog) write(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("export log %s is closed", a.path)
	}
	if _, err := a.file.WriteString(text); err != nil {
		return fmt.Errorf("failed to write export log: %w", err)
	}
	return a.file.Sync()
}

func line(b *strings.Builder, format string, args ...any) {
	if len(args) == 0 {
		b.WriteString(format)
	} else {
		fmt.Fprintf(b, format, args...)
	}
	b.WriteByte('\n')
}

func formatOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return "(converter defaults)"
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + opts[k]
	}
	return strings.Join(parts, ", ")
}

func sortedKinds(m map[models.OutputKind]map[string]string) []models.OutputKind {
	kinds := make([]models.OutputKind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
