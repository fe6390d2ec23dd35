package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestTelemetry_EventRecord(t *testing.T) {
	buf := &bufferCloser{}
	tel := newTelemetry(buf)
	tel.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	tel.Event("error", "item_complete", map[string]any{"name": "A.step", "success": false})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "2026-01-02T03:04:05Z", rec["ts"])
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "item_complete", rec["event"])
	assert.Equal(t, tel.SessionID(), rec["session_id"])
	data := rec["data"].(map[string]any)
	assert.Equal(t, "A.step", data["name"])
	assert.Equal(t, false, data["success"])
}

func TestTelemetry_OneLinePerEvent(t *testing.T) {
	buf := &bufferCloser{}
	tel := newTelemetry(buf)

	tel.Event("info", "scan_started", nil)
	tel.Event("info", "run_complete", map[string]any{"total": 3})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], `"data"`)
}

func TestTelemetry_CloseStopsWrites(t *testing.T) {
	buf := &bufferCloser{}
	tel := newTelemetry(buf)

	require.NoError(t, tel.Close())
	tel.Event("info", "late", nil)

	assert.True(t, buf.closed)
	assert.Zero(t, buf.Len())
	assert.NoError(t, tel.Close())
}

func TestNewTelemetry_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	tel := NewTelemetry(TelemetryOptions{Dir: dir, MaxSizeMB: 1})

	tel.Event("info", "scan_started", map[string]any{"root": "/p/Lift.iam"})
	require.NoError(t, tel.Close())

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event":"scan_started"`)
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()

	assert.Len(t, a, 12)
	assert.Regexp(t, "^[0-9a-f]{12}$", a)
	assert.NotEqual(t, a, b)
}
