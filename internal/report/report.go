// Package report renders a run as Markdown and converts it to a standalone
// HTML page stored next to the exported files.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/cadbatch/internal/filelock"
	"github.com/harrison/cadbatch/internal/logger"
	"github.com/harrison/cadbatch/internal/models"
)

// DefaultFileName is the report file written into the output directory.
const DefaultFileName = "export_report.html"

// Markdown renders the run. summary may be nil for a scan-only report.
func Markdown(info models.RunInfo, scan *models.ScanSummary, summary *models.RunSummary) string {
	var b strings.Builder

	title := info.RootName
	if title == "" && scan != nil {
		title = scan.RootName
	}
	fmt.Fprintf(&b, "# Export report: %s\n\n", escape(title))

	if info.RunID != "" {
		fmt.Fprintf(&b, "- **Run:** `%s`\n", info.RunID)
	}
	if !info.Started.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", info.Started.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- **Root:** `%s`\n", info.RootPath)
	fmt.Fprintf(&b, "- **Output:** `%s`\n\n", info.OutputDir)

	if scan != nil {
		b.WriteString("## Scan\n\n")
		b.WriteString("| Components | Content center excluded | Suppressed excluded | Unresolved | Planned | Selected |\n")
		b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
			scan.TotalComponents, scan.ContentCenterExcluded, scan.SuppressedExcluded,
			scan.UnresolvedReferences, len(scan.Items), scan.IncludedCount())

		if len(scan.Warnings) > 0 {
			b.WriteString("### Warnings\n\n")
			for _, w := range scan.Warnings {
				fmt.Fprintf(&b, "- %s\n", escape(w))
			}
			b.WriteString("\n")
		}
	}

	if summary == nil {
		if scan != nil && len(scan.Items) > 0 {
			b.WriteString("## Plan\n\n")
			b.WriteString("| Output | Kind | Source | Selected |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, item := range scan.Items {
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
					cell(item.OutputName), item.Kind.Label(), cell(item.Source.SourcePath), yesNo(item.Include))
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString("## Results\n\n")
	fmt.Fprintf(&b, "**%d succeeded, %d failed** in %.1fs", summary.Succeeded, summary.Failed, summary.Duration.Seconds())
	if summary.Cancelled {
		fmt.Fprintf(&b, " (cancelled, %d of %d items not started)", summary.Skipped, summary.Planned)
	}
	b.WriteString("\n\n")

	if len(summary.Results) > 0 {
		b.WriteString("| Status | Output | Kind | Time | Detail |\n")
		b.WriteString("|---|---|---|---:|---|\n")
		for _, r := range summary.Results {
			status, detail := "OK", r.Action
			if !r.Success {
				status, detail = "FAILED", r.Error
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %.1fs | %s |\n",
				status, cell(r.Item.OutputName), r.Item.Kind.Label(), r.Duration.Seconds(), cell(detail))
		}
		b.WriteString("\n")
	}

	failed := summary.FailedResults()
	if len(failed) > 0 {
		b.WriteString("## Failed items\n\n")
		for _, r := range failed {
			fmt.Fprintf(&b, "### %s\n\n", escape(r.Item.OutputName))
			fmt.Fprintf(&b, "- Source: `%s`\n", r.Item.Source.SourcePath)
			if r.Item.Source.DrawingPath != "" {
				fmt.Fprintf(&b, "- Drawing: `%s`\n", r.Item.Source.DrawingPath)
			}
			fmt.Fprintf(&b, "- Error: %s\n", escape(r.Error))
			if hint := logger.ErrorHint(r.Error); hint != "" {
				fmt.Fprintf(&b, "- Hint: %s\n", escape(hint))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// HTML converts report Markdown into a complete HTML document.
func HTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}" +
		"td,th{border:1px solid #ccc;padding:4px 8px}</style>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// Write renders the run to HTML and stores it at path atomically.
func Write(path string, info models.RunInfo, scan *models.ScanSummary, summary *models.RunSummary) error {
	title := "Export report"
	if info.RootName != "" {
		title += ": " + info.RootName
	}
	page, err := HTML(title, Markdown(info, scan, summary))
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(path, page); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}

// cell escapes s for use inside a table cell.
func cell(s string) string {
	return strings.ReplaceAll(escape(strings.ReplaceAll(s, "\n", " ")), "|", `\|`)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
