package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/width"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// maxContextWidth bounds the source snippet printed under a violation, in
// terminal cells.
const maxContextWidth = 100

// Styles holds the console palette.
type Styles struct {
	File       lipgloss.Style
	Rule       lipgloss.Style
	Muted      lipgloss.Style
	Error      lipgloss.Style
	Warning    lipgloss.Style
	Info       lipgloss.Style
	Suggestion lipgloss.Style
	Success    lipgloss.Style
}

// NewStyles builds styles bound to r, so colour output follows the
// renderer's terminal detection.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		File:       r.NewStyle().Bold(true).Underline(true),
		Rule:       r.NewStyle().Bold(true),
		Muted:      r.NewStyle().Foreground(lipgloss.Color("245")),
		Error:      r.NewStyle().Foreground(lipgloss.Color("9")),
		Warning:    r.NewStyle().Foreground(lipgloss.Color("11")),
		Info:       r.NewStyle().Foreground(lipgloss.Color("12")),
		Suggestion: r.NewStyle().Foreground(lipgloss.Color("14")),
		Success:    r.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// StylesFor detects whether w is a colour terminal and builds styles for it.
func StylesFor(w io.Writer) Styles {
	return NewStyles(lipgloss.NewRenderer(w))
}

// PlainStyles never emit escape sequences.
func PlainStyles() Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return NewStyles(r)
}

func (s Styles) severity(sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityError:
		return s.Error
	case core.SeverityWarning:
		return s.Warning
	case core.SeverityInfo:
		return s.Info
	default:
		return s.Muted
	}
}

// DefaultSymbols returns the symbol printed before each violation.
func DefaultSymbols() map[core.Severity]string {
	return map[core.Severity]string{
		core.SeverityError:   "✖",
		core.SeverityWarning: "⚠",
		core.SeverityInfo:    "ℹ",
	}
}

// ParseSymbols converts a severity-name keyed map (as found in config files)
// into symbols, filling gaps from DefaultSymbols.
func ParseSymbols(m map[string]string) (map[core.Severity]string, error) {
	out := DefaultSymbols()
	for name, sym := range m {
		sev, ok := core.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("severity symbols: invalid severity %q", name)
		}
		if sym != "" {
			out[sev] = sym
		}
	}
	return out, nil
}

// Console prints violations grouped by file, one line each:
//
//	✖ layer2-no-layout: "display: flex" is a layout property (line 3:6)
//	  → move the declaration to a layer3 file
type Console struct {
	Symbols map[core.Severity]string
	Styles  Styles
	// ShowContext prints the offending source line under each violation.
	ShowContext bool
}

// NewConsole returns a console reporter with default symbols and styles
// detected for w.
func NewConsole(w io.Writer) *Console {
	return &Console{Symbols: DefaultSymbols(), Styles: StylesFor(w)}
}

func (c *Console) symbol(sev core.Severity) string {
	if s, ok := c.Symbols[sev]; ok {
		return s
	}
	if s, ok := DefaultSymbols()[sev]; ok {
		return s
	}
	return "•"
}

// Report implements Reporter.
func (c *Console) Report(w io.Writer, res lint.Result) error {
	var b strings.Builder
	st := c.Styles

	order, groups := lint.GroupByFile(res.Violations)
	for i, file := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(st.File.Render(file) + "\n")
		for _, v := range groups[file] {
			sevStyle := st.severity(v.Severity)
			line := fmt.Sprintf("  %s %s: %s",
				sevStyle.Render(c.symbol(v.Severity)),
				st.Rule.Render(v.Rule),
				v.Message)
			if loc := location(v); loc != "" {
				line += " " + st.Muted.Render("("+loc+")")
			}
			b.WriteString(line + "\n")
			if c.ShowContext && v.Context != "" {
				b.WriteString("    " + st.Muted.Render(truncateCells(v.Context, maxContextWidth)) + "\n")
			}
			if v.Suggestion != "" {
				b.WriteString("    " + st.Suggestion.Render("→ "+v.Suggestion) + "\n")
			}
		}
	}

	if len(order) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(c.summary(res) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (c *Console) summary(res lint.Result) string {
	s := res.Summary()
	st := c.Styles
	files := fmt.Sprintf("%d %s checked", s.FilesChecked, pluralize("file", s.FilesChecked))
	if s.Total == 0 {
		return st.Success.Render("✓ No violations") + st.Muted.Render(" ("+files+")")
	}

	parts := []string{
		st.Error.Render(fmt.Sprintf("%d %s", s.Errors, pluralize("error", s.Errors))),
		st.Warning.Render(fmt.Sprintf("%d %s", s.Warnings, pluralize("warning", s.Warnings))),
	}
	if s.Info > 0 {
		parts = append(parts, st.Info.Render(fmt.Sprintf("%d info", s.Info)))
	}
	return fmt.Sprintf("%d %s (%s) in %d of %s",
		s.Total, pluralize("problem", s.Total), strings.Join(parts, ", "), len(s.Files), files)
}

// truncateCells shortens s to at most limit terminal cells. East Asian wide
// runes count as two cells.
func truncateCells(s string, limit int) string {
	s = strings.ReplaceAll(s, "\t", " ")
	cells := 0
	for i, r := range s {
		w := 1
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w = 2
		}
		if cells+w > limit-1 {
			return s[:i] + "…"
		}
		cells += w
	}
	return s
}
