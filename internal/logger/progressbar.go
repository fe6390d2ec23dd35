package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ProgressBar represents an ASCII progress bar with color support
type ProgressBar struct {
	current     int
	total       int
	width       int
	enableColor bool
	prefix      string
	mu          sync.RWMutex
}

// NewProgressBar creates a new progress bar
func NewProgressBar(total, width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{
		total:       total,
		width:       width,
		enableColor: enableColor,
	}
}

// Update sets the current progress value
func (pb *ProgressBar) Update(current int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
}

// SetTotal changes the total, for bars created before the item count is known.
func (pb *ProgressBar) SetTotal(total int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.total = total
}

// Current returns the current progress value
func (pb *ProgressBar) Current() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.current
}

// Total returns the total progress value
func (pb *ProgressBar) Total() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.total
}

// Percentage returns the progress percentage (0-100)
func (pb *ProgressBar) Percentage() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return percentage(pb.current, pb.total)
}

// SetPrefix sets a custom prefix for the progress bar
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.prefix = prefix
}

// Render generates the ASCII progress bar string
func (pb *ProgressBar) Render() string {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	perc := percentage(pb.current, pb.total)

	filled := (perc * pb.width) / 100
	if filled > pb.width {
		filled = pb.width
	}

	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", pb.width-filled) + "]"
	result := fmt.Sprintf("%s%s %d/%d (%d%%)", pb.prefix, bar, pb.current, pb.total, perc)

	if pb.enableColor && perc < 100 {
		result = fmt.Sprintf("\033[36m%s\033[0m", result) // Cyan for in-progress
	} else if pb.enableColor && perc == 100 {
		result = fmt.Sprintf("\033[32m%s\033[0m", result) // Green for complete
	}

	return result
}

func percentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	perc := (current * 100) / total
	if perc > 100 {
		perc = 100
	}
	if perc < 0 {
		perc = 0
	}
	return perc
}

// ProgressWriter renders progress reports to a writer. On a terminal the
// bar is redrawn in place and sized to the terminal width; elsewhere each
// report is written on its own line.
type ProgressWriter struct {
	writer      io.Writer
	bar         *ProgressBar
	interactive bool
	mu          sync.Mutex
}

// NewProgressWriter creates a ProgressWriter. A nil writer discards reports.
func NewProgressWriter(w io.Writer) *ProgressWriter {
	interactive := false
	width := 30
	if f, ok := w.(*os.File); ok && f != nil && isatty.IsTerminal(f.Fd()) {
		interactive = true
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = barWidth(cols)
		}
	}
	return &ProgressWriter{
		writer:      w,
		bar:         NewProgressBar(0, width, interactive && isTerminal(w)),
		interactive: interactive,
	}
}

// barWidth leaves room for the counters after the bar.
func barWidth(columns int) int {
	w := columns - 30
	if w > 50 {
		w = 50
	}
	if w < 10 {
		w = 10
	}
	return w
}

// Report implements the orchestrator's progress sink.
func (p *ProgressWriter) Report(current, total int) {
	if p.writer == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.bar.SetTotal(total)
	p.bar.Update(current)
	if p.interactive {
		fmt.Fprintf(p.writer, "\r%s", p.bar.Render())
		if current >= total {
			fmt.Fprintln(p.writer)
		}
		return
	}
	fmt.Fprintln(p.writer, p.bar.Render())
}
