// Package output renders command output for terminals, pipes and tools.
//
// A Renderer picks one of three concrete modes. In auto mode a terminal gets
// styled text and anything else gets markdown, so piped output stays
// readable in review tools and agents.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects the output format.
//
//nolint:revive // the name reads better at call sites than output.Mode
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode converts a flag value into an OutputMode. Unknown and empty values
// mean auto; "md" is accepted for markdown.
func Mode(s string) OutputMode {
	m, _ := ParseMode(s)
	return m
}

// ParseMode is Mode that also reports whether s was recognised. The empty
// string is recognised as auto.
func ParseMode(s string) (OutputMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, true
	case "text":
		return ModeText, true
	case "markdown", "md":
		return ModeMarkdown, true
	case "json":
		return ModeJSON, true
	default:
		return ModeAuto, false
	}
}

// Modes lists the accepted flag values.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}
}

// Renderer writes command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	lg     *lipgloss.Renderer
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, IsTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with explicit terminal state.
// Colour is used only for a terminal in text mode and never when NO_COLOR is
// set.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	lg := lipgloss.NewRenderer(out)
	r := &Renderer{out: out, errOut: errOut, mode: mode, isTTY: isTTY, lg: lg}
	if r.colorEnabled() {
		if lg.ColorProfile() == termenv.Ascii {
			lg.SetColorProfile(termenv.ANSI256)
		}
	} else {
		lg.SetColorProfile(termenv.Ascii)
	}
	r.styles = NewStyles(lg)
	return r
}

// DisableColor switches the renderer to plain output.
func (r *Renderer) DisableColor() {
	r.lg.SetColorProfile(termenv.Ascii)
	r.styles = NewStyles(r.lg)
}

func (r *Renderer) colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return r.isTTY && r.EffectiveMode() == ModeText
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves auto to text for terminals and markdown otherwise.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode == ModeAuto || r.mode == "" {
		if r.isTTY {
			return ModeText
		}
		return ModeMarkdown
	}
	return r.mode
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the styles for the current color profile.
func (r *Renderer) Styles() *Styles { return r.styles }

// LipglossRenderer exposes the underlying lipgloss renderer so other
// packages can build styles with the same color profile.
func (r *Renderer) LipglossRenderer() *lipgloss.Renderer { return r.lg }

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Header writes a level 1 or 2 heading in the current mode.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		r.Println("")
		return
	}
	style := r.styles.Header1
	if level > 1 {
		style = r.styles.Header2
	}
	r.Println(style.Render(text))
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("**" + msg + "**")
		return
	}
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Muted writes secondary information.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("_" + msg + "_")
		return
	}
	r.Println(r.styles.Muted.Render(msg))
}

// Warning writes a warning to the error output.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: "+msg))
}

// StatusLine writes "<icon> name [detail]" where status is success, error,
// warning or skipped.
func (r *Renderer) StatusLine(name, status, detail string) {
	icon, style := "•", r.styles.Muted
	switch status {
	case "success":
		icon, style = "✓", r.styles.Success
	case "error":
		icon, style = "✗", r.styles.Error
	case "warning":
		icon, style = "!", r.styles.Warning
	}
	line := style.Render(icon) + " " + name
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	if r.EffectiveMode() == ModeMarkdown {
		line = "- " + icon + " " + name
		if detail != "" {
			line += " " + detail
		}
	}
	r.Println(line)
}
