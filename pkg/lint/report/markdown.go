package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
)

// ReportDir is where WriteMarkdownFile stores reports, relative to the
// project root.
const ReportDir = "tests/lint"

// Markdown renders a report suitable for committing or attaching to a review.
type Markdown struct {
	Title string
	// Checklist appends the self-review checklist of each file's layer.
	// Only files with a known CSS layer in Layers get one.
	Checklist bool
	// Layers maps a file path to its layer.
	Layers map[string]string
	// Now is used for the generated-at line; nil means time.Now.
	Now func() time.Time
}

// Report implements Reporter.
func (m *Markdown) Report(w io.Writer, res lint.Result) error {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	title := m.Title
	if title == "" {
		title = "Lint results"
	}
	s := res.Summary()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated: %s\n\n", now().Format(time.RFC3339))

	b.WriteString("## Summary\n\n")
	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Files checked", "Errors", "Warnings", "Info", "Total"})
	t.AppendRow(table.Row{s.FilesChecked, s.Errors, s.Warnings, s.Info, s.Total})
	b.WriteString(t.RenderMarkdown())
	b.WriteString("\n\n")

	if s.Total == 0 {
		b.WriteString("No violations found.\n")
	}

	order, groups := lint.GroupByFile(res.Violations)
	for _, file := range order {
		fmt.Fprintf(&b, "## `%s`\n\n", file)
		for _, v := range groups[file] {
			fmt.Fprintf(&b, "- **%s** `%s`: %s", v.Severity, v.Rule, v.Message)
			if loc := location(v); loc != "" {
				fmt.Fprintf(&b, " (%s)", loc)
			}
			b.WriteString("\n")
			if v.Suggestion != "" {
				fmt.Fprintf(&b, "  - → %s\n", v.Suggestion)
			}
		}
		b.WriteString("\n")
	}

	if m.Checklist {
		files := res.Files
		if len(files) == 0 {
			files = order
		}
		for _, file := range files {
			m.writeChecklist(&b, file)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (m *Markdown) writeChecklist(b *strings.Builder, file string) {
	layer, ok := m.Layers[file]
	if !ok {
		return
	}
	items := cssarch.Checklist(layer)
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### Checklist: %s (`%s`)\n\n", cssarch.LayerTitle(layer), file)
	for _, item := range items {
		fmt.Fprintf(b, "- [ ] %s\n", item)
	}
	b.WriteString("\n")
}

// WriteMarkdownFile stores content as
// <dir>/tests/lint/lint-results-<prefix>-<timestamp>.md and returns the
// path written.
func WriteMarkdownFile(dir, prefix, content string) (string, error) {
	return writeMarkdownFile(dir, prefix, content, time.Now())
}

func writeMarkdownFile(dir, prefix, content string, now time.Time) (string, error) {
	outDir := filepath.Join(dir, filepath.FromSlash(ReportDir))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	name := fmt.Sprintf("lint-results-%s-%s.md", sanitizePrefix(prefix), now.Format("20060102-150405"))
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func sanitizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "all"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '*', '?':
			return '-'
		}
		return r
	}, prefix)
}
