package template

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
)

// DefaultMaxLines is the max-lines limit when none is configured.
const DefaultMaxLines = 300

var maxLines = lint.RuleDef{
	Name:        "max-lines",
	Family:      lint.FamilySize,
	Description: "Files must not exceed a maximum number of non-empty lines",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"max"},
	Rationale:   "Long files mix responsibilities and are hard to review.",
	Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		limit := opts.Int("max", DefaultMaxLines)
		count := 0
		for _, line := range f.Lines() {
			if strings.TrimSpace(line) != "" {
				count++
			}
		}
		if count <= limit {
			return nil, nil
		}
		return []lint.Violation{{
			Message:    fmt.Sprintf("file has %d non-empty lines (max %d)", count, limit),
			Suggestion: sizeSuggestion(f.Ext()),
		}}, nil
	},
}

func sizeSuggestion(ext string) string {
	switch ext {
	case ".md", ".mdx":
		return "split the document into linked documents per topic"
	case ".tsx", ".jsx":
		return "extract sub-components into their own files"
	case ".ts", ".js":
		return "move helpers into separate modules"
	case ".css":
		return "split the stylesheet by layer or feature"
	default:
		return "split the file into smaller files"
	}
}

// NoImportantRule is the name of the stylesheet !important rule. The
// layered css linter has its own per-layer variant.
const NoImportantRule = "no-important"

var noImportant = lint.RuleDef{
	Name:        NoImportantRule,
	Family:      lint.FamilyPattern,
	Description: "Disallow !important in stylesheets",
	Severity:    core.SeverityError,
	Rationale:   "!important defeats the cascade and makes later overrides impossible.",
	BadExample:  ".a { color: red !important; }",
	GoodExample: ".a { color: red; }",
	Check: func(f *lint.File, _ lint.Options) ([]lint.Violation, error) {
		if f.Ext() != ".css" {
			return nil, nil
		}
		// Scanned lines have comments blanked, including multi-line blocks.
		source := f.Lines()
		var vs []lint.Violation
		for _, m := range lint.FindMatches(cssarch.Scan(f.Content).Lines, lint.ImportantPattern) {
			text := m.LineText
			if m.Line <= len(source) {
				text = source[m.Line-1]
			}
			vs = append(vs, lint.At(m.Line, m.Column, "!important is not allowed").
				WithContext(text).
				WithSuggestion("increase selector specificity or restructure the cascade"))
		}
		return vs, nil
	},
}
