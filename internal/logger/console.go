// Package logger provides the output side of a batch run: the console
// logger and progress bar used interactively, the plain-text audit log
// written next to the exported files, and JSONL telemetry.
//
// Implementations are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/cadbatch/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if f != os.Stdout && f != os.Stderr {
		return false
	}
	// color.NoColor honours NO_COLOR and dumb terminals.
	return !color.NoColor && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info"
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// Emit logs an orchestrator status message, picking the level from its
// content: "WARNING:" lines are warnings, "FAILED" lines are errors, the
// per-item plan listing is debug output and everything else is info.
func (cl *ConsoleLogger) Emit(message string) {
	trimmed := strings.TrimSpace(message)
	switch {
	case strings.HasPrefix(trimmed, "WARNING:"):
		cl.LogWarn(strings.TrimSpace(strings.TrimPrefix(trimmed, "WARNING:")))
	case strings.HasPrefix(trimmed, "FAILED"):
		cl.LogError(message)
	case strings.HasPrefix(message, "  ") && strings.Contains(message, "["):
		cl.LogDebug(message)
	default:
		cl.LogInfo(message)
	}
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// LogScanSummary prints the scan counts, warnings and the planned items at
// INFO level.
func (cl *ConsoleLogger) LogScanSummary(scan *models.ScanSummary) {
	if cl.writer == nil || scan == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	scheme := newColorScheme(cl.colorOutput)
	ts := timestamp()
	var out strings.Builder

	fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.header("=== Scan Summary ==="))
	fmt.Fprintf(&out, "[%s] Root: %s (%s)\n", ts, scan.RootName, scan.RootPath)
	fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.metric("Components", scan.TotalComponents))
	fmt.Fprintf(&out, "[%s] %s, %s, %s\n", ts,
		scheme.metric("content center excluded", scan.ContentCenterExcluded),
		scheme.metric("suppressed excluded", scan.SuppressedExcluded),
		scheme.warnMetric("unresolved", scan.UnresolvedReferences))
	fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.metric("Files to export", scan.IncludedCount()))

	for _, item := range scan.Items {
		mark := " "
		if !item.Include {
			mark = "-"
		}
		fmt.Fprintf(&out, "[%s]  %s %-40s %s  %s\n", ts, mark, item.OutputName,
			scheme.kind(item.Kind), item.Source.SourcePath)
	}
	for _, w := range scan.Warnings {
		fmt.Fprintf(&out, "[%s] %s %s\n", ts, scheme.warn.Sprint("warning:"), w)
	}

	cl.writer.Write([]byte(out.String()))
}

// LogRunSummary prints the outcome of Execute at INFO level, listing every
// failed item with its error and hint.
func (cl *ConsoleLogger) LogRunSummary(summary *models.RunSummary) {
	if cl.writer == nil || summary == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	scheme := newColorScheme(cl.colorOutput)
	ts := timestamp()
	var out strings.Builder

	fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.header("=== Export Summary ==="))
	fmt.Fprintf(&out, "[%s] Total items: %d\n", ts, summary.Total)
	fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.successMetric("Succeeded", summary.Succeeded))
	fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.failMetric("Failed", summary.Failed))
	if summary.Cancelled {
		fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.warnMetric("Cancelled, not started", summary.Skipped))
	}
	fmt.Fprintf(&out, "[%s] Duration: %s\n", ts, formatDuration(summary.Duration))

	failed := summary.FailedResults()
	if len(failed) > 0 {
		fmt.Fprintf(&out, "[%s] %s\n", ts, scheme.fail.Sprint("Failed items:"))
		for _, r := range failed {
			fmt.Fprintf(&out, "[%s]   %s %s: %s\n", ts, scheme.status(false), r.Item.OutputName, r.Error)
			if hint := ErrorHint(r.Error); hint != "" {
				fmt.Fprintf(&out, "[%s]     hint: %s\n", ts, hint)
			}
		}
	}

	cl.writer.Write([]byte(out.String()))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m". Sub-second durations keep one decimal.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d < time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}
