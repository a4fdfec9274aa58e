package lint

import (
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
)

// =============================================================================
// Rule Definitions
// =============================================================================

// RuleDef is a data-driven rule definition.
// Rules are stateless - all context comes via the Check function parameters,
// so the same definition can be evaluated concurrently against many files.
type RuleDef struct {
	Name        string        // Unique identifier, e.g., "layer2-no-layout"
	Family      Family        // Rule category, used for dispatch and docs
	Description string        // Human-readable description
	Severity    core.Severity // Default severity; unset falls back to the engine default
	Check       CheckFunc     // The check function
	ConfigKeys  []string      // Configuration keys this rule accepts

	// Documentation fields for richer rule documentation
	Rationale   string // Why this rule exists, what problems it prevents
	BadExample  string // Code showing the anti-pattern
	GoodExample string // Code showing the correct pattern
	Fix         string // How to fix violations (when not obvious)
}

// CheckFunc analyzes one file and returns violations.
// The engine fills in Rule, File and Severity on returned violations when
// they are left empty. A returned error is reported as a violation of the
// rule and does not stop other rules.
type CheckFunc func(f *File, opts Options) ([]Violation, error)

// Info returns the documentation view of the rule.
func (d RuleDef) Info(linter string) core.RuleInfo {
	return core.RuleInfo{
		Name:            d.Name,
		Linter:          linter,
		Family:          d.Family.String(),
		Description:     d.Description,
		DefaultSeverity: d.Severity,
		ConfigKeys:      d.ConfigKeys,
		Rationale:       d.Rationale,
		BadExample:      d.BadExample,
		GoodExample:     d.GoodExample,
		Fix:             d.Fix,
	}
}

// =============================================================================
// Files and targets
// =============================================================================

// Target is a resolved file together with its classification context
// (a layer id, a template kind, ...). An empty Context means no
// context-specific rules apply.
type Target struct {
	Path    string `json:"path"`
	Context string `json:"context,omitempty"`
}

// File is the content handed to rule checks. It is read once per target.
type File struct {
	Path    string
	Context string
	Content string

	lines []string
}

// NewFile builds a File from raw content.
func NewFile(path, context, content string) *File {
	return &File{Path: path, Context: context, Content: content}
}

// Lines returns the content split on newlines. Line n lives at index n-1.
func (f *File) Lines() []string {
	if f.lines == nil {
		normalized := strings.ReplaceAll(f.Content, "\r\n", "\n")
		f.lines = strings.Split(normalized, "\n")
	}
	return f.lines
}

// Ext returns the lower-cased file extension including the dot.
func (f *File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Path))
}

// =============================================================================
// Violations
// =============================================================================

// Violation represents a lint finding.
type Violation struct {
	Rule       string        `json:"rule"`
	Severity   core.Severity `json:"severity"`
	Message    string        `json:"message"`
	File       string        `json:"file"`
	Line       int           `json:"line,omitempty"`   // 1-based; 0 means file-level
	Column     int           `json:"column,omitempty"` // 1-based; 0 means unknown
	Suggestion string        `json:"suggestion,omitempty"`
	Context    string        `json:"context,omitempty"` // offending source line or snippet
}

// At is a convenience constructor for a line-scoped violation.
func At(line, column int, message string) Violation {
	return Violation{Line: line, Column: column, Message: message}
}

// WithSuggestion returns a copy of v carrying a remediation hint.
func (v Violation) WithSuggestion(s string) Violation {
	v.Suggestion = s
	return v
}

// WithContext returns a copy of v carrying the offending source text.
func (v Violation) WithContext(c string) Violation {
	v.Context = strings.TrimSpace(c)
	return v
}
