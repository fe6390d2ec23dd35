package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/cadbatch/internal/models"
)

// colorScheme defines consistent colors for console output.
// Green: success counts
// Red: failures
// Yellow: warnings and cancellations
// Cyan: labels and output kinds
type colorScheme struct {
	enabled bool
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	bold    *color.Color
}

// newColorScheme creates the standard color scheme. When enabled is false
// every helper returns plain text.
func newColorScheme(enabled bool) *colorScheme {
	s := &colorScheme{
		enabled: enabled,
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		bold:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{s.success, s.fail, s.warn, s.label, s.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func colorLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

func (s *colorScheme) header(text string) string {
	return s.bold.Sprint(text)
}

// metric formats "label: value" with a cyan label.
func (s *colorScheme) metric(label string, value interface{}) string {
	return fmt.Sprintf("%s: %v", s.label.Sprint(label), value)
}

// successMetric is green when value is positive.
func (s *colorScheme) successMetric(label string, value int) string {
	if value > 0 {
		return s.success.Sprintf("%s: %d", label, value)
	}
	return fmt.Sprintf("%s: %d", label, value)
}

// failMetric is red when value is positive.
func (s *colorScheme) failMetric(label string, value int) string {
	if value > 0 {
		return s.fail.Sprintf("%s: %d", label, value)
	}
	return fmt.Sprintf("%s: %d", label, value)
}

// warnMetric is yellow when value is positive.
func (s *colorScheme) warnMetric(label string, value int) string {
	if value > 0 {
		return s.warn.Sprintf("%s: %d", label, value)
	}
	return fmt.Sprintf("%s: %d", label, value)
}

// kind renders an output kind tag such as "[STEP]".
func (s *colorScheme) kind(k models.OutputKind) string {
	return s.label.Sprintf("[%s]", k.Label())
}

// status renders the [OK] / [FAILED] tag of an item result.
func (s *colorScheme) status(success bool) string {
	if success {
		return s.success.Sprint("[OK]")
	}
	return s.fail.Sprint("[FAILED]")
}
