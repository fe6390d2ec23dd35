// Package operation implements the per-item export step: an external
// converter command configured per output kind, and a wrapper that checks
// the file it produced.
package operation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/harrison/cadbatch/internal/models"
)

// DefaultTimeout bounds a single converter invocation.
const DefaultTimeout = 10 * time.Minute

// Command runs a shell command template per output kind. Templates may use
// the placeholders {source}, {drawing}, {output}, {kind}, {name},
// {revision} and {options}; values are shell-quoted on substitution.
//
// Example:
//
//	step: "cadconv --format step {options} {source} {output}"
type Command struct {
	Templates map[models.OutputKind]string
	Options   map[models.OutputKind]map[string]string
	// Shell is the interpreter and flag used to run a rendered template.
	// Defaults to sh -c.
	Shell   []string
	Timeout time.Duration
	Env     []string
}

// Execute renders and runs the template for item.Kind. The output directory
// is created first. A non-zero exit fails the item with the tail of the
// command's output.
func (c *Command) Execute(ctx context.Context, item models.WorkItem) (string, error) {
	tmpl, ok := c.Templates[item.Kind]
	if !ok || strings.TrimSpace(tmpl) == "" {
		return "", fmt.Errorf("no converter command configured for %s", item.Kind.Label())
	}
	if item.Kind.Spec().NeedsDrawing && item.Source.DrawingPath == "" {
		return "", fmt.Errorf("no drawing found for %s", item.Source.DisplayName)
	}

	if dir := filepath.Dir(item.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	args, failed := ApplyOptions(c.Options[item.Kind])
	script := Render(tmpl, item, args)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shell := c.Shell
	if len(shell) == 0 {
		shell = []string{"sh", "-c"}
	}
	cmd := exec.CommandContext(execCtx, shell[0], append(shell[1:], script)...)
	cmd.WaitDelay = time.Second
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	output, err := cmd.CombinedOutput()

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("converter timed out after %s", timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("converter exited with code %d%s", exitErr.ExitCode(), tail(output))
		}
		return "", fmt.Errorf("failed to start converter: %w", err)
	}

	action := fmt.Sprintf("exported %s with %s", item.Kind.Label(), program(tmpl))
	if len(failed) > 0 {
		action += fmt.Sprintf(" (options not applied: %s)", strings.Join(failed, ", "))
	}
	return action, nil
}

// OptionWarnings lists the configured options that ApplyOptions cannot
// render, one message per key.
func (c *Command) OptionWarnings() []string {
	kinds := make([]models.OutputKind, 0, len(c.Options))
	for k := range c.Options {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var warnings []string
	for _, kind := range kinds {
		_, failed := ApplyOptions(c.Options[kind])
		for _, key := range failed {
			warnings = append(warnings, fmt.Sprintf("Option %q for %s was not applied", key, kind.Label()))
		}
	}
	return warnings
}

// ApplyOptions renders options as sorted key=value arguments. Options are
// best-effort: keys that are empty, contain whitespace or '=', or whose
// values span lines are left out and returned in failed.
func ApplyOptions(opts map[string]string) (args []string, failed []string) {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := opts[k]
		if !validKey(k) || strings.ContainsAny(v, "\r\n") {
			failed = append(failed, k)
			continue
		}
		args = append(args, k+"="+v)
	}
	return args, failed
}

// Render substitutes the item's values into tmpl.
func Render(tmpl string, item models.WorkItem, options []string) string {
	quoted := make([]string, len(options))
	for i, o := range options {
		quoted[i] = quote(o)
	}
	r := strings.NewReplacer(
		"{source}", quote(item.Source.SourcePath),
		"{drawing}", quote(item.Source.DrawingPath),
		"{output}", quote(item.OutputPath),
		"{kind}", string(item.Kind),
		"{name}", quote(item.Source.DisplayName),
		"{revision}", quote(item.Source.Revision),
		"{options}", strings.Join(quoted, " "),
	)
	return r.Replace(tmpl)
}

func validKey(k string) bool {
	return k != "" && !strings.ContainsAny(k, " \t\r\n=")
}

// quote wraps s in single quotes for sh.
func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func program(tmpl string) string {
	fields := strings.Fields(tmpl)
	if len(fields) == 0 {
		return "converter"
	}
	return filepath.Base(fields[0])
}

const maxTail = 200

// tail returns the last non-empty output line, prefixed for an error message.
// Long lines are cut on a rune boundary.
func tail(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return ""
	}
	if len(last) > maxTail {
		n := maxTail
		for n > 0 && !utf8.RuneStart(last[n]) {
			n--
		}
		last = last[:n] + "..."
	}
	return ": " + last
}
