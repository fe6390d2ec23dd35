package executor

import "fmt"

// graceful.go holds the warn-and-continue helpers used wherever a side
// collaborator fails without failing the run.

// gracefulWarn emits a warning through log.
func gracefulWarn(log LogSink, format string, args ...any) {
	log.Emit("WARNING: " + fmt.Sprintf(format, args...))
}

// safeAudit wraps an AuditLog so that the first failing call disables it.
// A nil log starts out disabled.
type safeAudit struct {
	log      AuditLog
	warnings LogSink
	failed   bool
}

func newSafeAudit(log AuditLog, warnings LogSink) *safeAudit {
	return &safeAudit{log: log, warnings: warnings, failed: log == nil}
}

// do runs fn against the log unless it is disabled. A failure is reported
// once and disables the log for the rest of the run.
func (s *safeAudit) do(what string, fn func(AuditLog) error) {
	if s.failed {
		return
	}
	if err := fn(s.log); err != nil {
		gracefulWarn(s.warnings, "could not %s export log: %v", what, err)
		s.failed = true
	}
}

func (s *safeAudit) active() bool {
	return !s.failed
}
