package logger

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TelemetryOptions configures the rotating telemetry file.
type TelemetryOptions struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Telemetry writes one JSON object per event to a rotating log file:
//
//	{"ts":"...","level":"info","event":"item_complete","session_id":"3f2a...","data":{...}}
//
// Write failures are swallowed; telemetry never affects a run.
type Telemetry struct {
	sessionID string
	writer    io.WriteCloser
	now       func() time.Time
	mu        sync.Mutex
}

type telemetryRecord struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	Event     string         `json:"event"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewTelemetry opens <dir>/telemetry.jsonl with size-based rotation.
func NewTelemetry(opts TelemetryOptions) *Telemetry {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 5
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	w := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "telemetry.jsonl"),
		MaxSize:    opts.MaxSizeMB, // megabytes
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays, // days, 0 keeps everything
		Compress:   false,
	}
	return newTelemetry(w)
}

func newTelemetry(w io.WriteCloser) *Telemetry {
	return &Telemetry{
		sessionID: NewSessionID(),
		writer:    w,
		now:       time.Now,
	}
}

// NewSessionID returns a short random identifier for one run.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// SessionID returns the identifier stamped on every event.
func (t *Telemetry) SessionID() string {
	return t.sessionID
}

// Event records one event.
func (t *Telemetry) Event(level, event string, data map[string]any) {
	rec := telemetryRecord{
		TS:        t.now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		SessionID: t.sessionID,
		Data:      data,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return
	}
	line = append(line, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer == nil {
		return
	}
	_, _ = t.writer.Write(line)
}

// Close closes the underlying file.
func (t *Telemetry) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer == nil {
		return nil
	}
	err := t.writer.Close()
	t.writer = nil
	return err
}
