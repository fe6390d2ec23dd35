package executor

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotScanned is returned by Execute when no successful Scan preceded it.
var ErrNotScanned = errors.New("execute called before a successful scan")

// ScanError is returned by Scan when the root document cannot be obtained.
// It is the only error that aborts a run.
type ScanError struct {
	Root      string    // Root document the source was asked for, if known
	Err       error     // Underlying error from the document source
	Timestamp time.Time // When the scan failed
}

// NewScanError creates a ScanError with the current timestamp.
func NewScanError(root string, err error) *ScanError {
	return &ScanError{Root: root, Err: err, Timestamp: time.Now()}
}

// Error implements the error interface for ScanError.
func (e *ScanError) Error() string {
	if e.Root != "" {
		return fmt.Sprintf("scan %s: cannot open root document: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("scan: cannot open root document: %v", e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsScanError checks if the error is or wraps a ScanError.
func IsScanError(err error) bool {
	if err == nil {
		return false
	}
	var se *ScanError
	return errors.As(err, &se)
}

// PanicError wraps a panic raised by an operation so it can be recorded as
// an ordinary item failure.
type PanicError struct {
	Value any
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("operation panicked: %v", e.Value)
}
