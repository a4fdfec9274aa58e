package template

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// defaultSections is the canonical section list of each template.
var defaultSections = map[Kind][]string{
	KindRequirements: {"概要", "機能要件", "非機能要件"},
	KindWorkflow:     {"概要", "前提条件", "ワークフロー", "確認事項"},
	KindDesign:       {"概要", "設計", "関連ファイル"},
	KindFileList:     {"ファイル一覧"},
}

// sectionsFor returns the configured sections, falling back to the
// defaults of the file's template kind.
func sectionsFor(f *lint.File, opts lint.Options) []string {
	if s := opts.Strings("sections", nil); len(s) > 0 {
		return s
	}
	return defaultSections[Kind(f.Context)]
}

var requiredSections = lint.RuleDef{
	Name:        "required-sections",
	Family:      lint.FamilyStructure,
	Description: "Documents must contain every section of their template",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"sections"},
	Rationale:   "Reviewers and tooling rely on a fixed document skeleton; a missing section is usually missing information.",
	BadExample:  "## 概要\n## 非機能要件",
	GoodExample: "## 概要\n## 機能要件\n## 非機能要件",
	Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		present := headingTexts(f.Lines())
		var vs []lint.Violation
		for _, s := range sectionsFor(f, opts) {
			if present[sectionName(s)] {
				continue
			}
			vs = append(vs, lint.Violation{
				Message:    fmt.Sprintf("missing required section %q", strings.TrimSpace(strings.TrimLeft(s, "# "))),
				Suggestion: "add a \"## " + strings.TrimSpace(strings.TrimLeft(s, "# ")) + "\" heading",
			})
		}
		return vs, nil
	},
}

var sectionOrder = lint.RuleDef{
	Name:        "section-order",
	Family:      lint.FamilyStructure,
	Description: "Template sections must appear once and in canonical order",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"sections"},
	Rationale:   "A stable order lets readers find sections by position and keeps diffs between documents small.",
	BadExample:  "## 機能要件\n## 概要",
	GoodExample: "## 概要\n## 機能要件",
	Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		sections := sectionsFor(f, opts)
		index := make(map[string]int, len(sections))
		for i, s := range sections {
			index[sectionName(s)] = i
		}

		var (
			vs      []lint.Violation
			seen    = make(map[string]int)
			last    = -1
			lastTxt string
		)
		lines := f.Lines()
		for _, h := range headings(lines) {
			key := strings.ToLower(h.Text)
			pos, ok := index[key]
			if !ok {
				continue
			}
			if first, dup := seen[key]; dup {
				vs = append(vs, lint.At(h.Line, 1, fmt.Sprintf("duplicate section %q (first at line %d)", h.Text, first)).
					WithContext(lines[h.Line-1]).
					WithSuggestion("merge the duplicate sections"))
				continue
			}
			seen[key] = h.Line
			if pos < last {
				vs = append(vs, lint.At(h.Line, 1, fmt.Sprintf("section %q should come before %q", h.Text, lastTxt)).
					WithContext(lines[h.Line-1]).
					WithSuggestion("reorder sections to: "+strings.Join(sections, ", ")))
				continue
			}
			last, lastTxt = pos, h.Text
		}
		return vs, nil
	},
}
