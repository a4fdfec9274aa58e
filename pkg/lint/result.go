package lint

import (
	"sort"

	"github.com/leapstack-labs/archlint/pkg/core"
)

// Result is the outcome of one lint run.
type Result struct {
	Violations []Violation `json:"violations"`
	Files      []string    `json:"files"` // every file checked, in target order
}

// Summary aggregates a run's violations.
type Summary struct {
	Total        int      `json:"total"`
	Errors       int      `json:"errors"`
	Warnings     int      `json:"warnings"`
	Info         int      `json:"info"`
	FilesChecked int      `json:"files_checked"`
	Files        []string `json:"files"` // files with at least one violation, sorted
	Rules        []string `json:"rules"` // rules with at least one violation, sorted
}

// Summarize computes summary counts over a set of violations.
func Summarize(vs []Violation) Summary {
	s := Summary{Total: len(vs), Files: []string{}, Rules: []string{}}
	files := make(map[string]bool)
	rules := make(map[string]bool)
	for _, v := range vs {
		switch v.Severity {
		case core.SeverityError:
			s.Errors++
		case core.SeverityWarning:
			s.Warnings++
		case core.SeverityInfo:
			s.Info++
		case core.SeverityUnset:
		}
		if !files[v.File] {
			files[v.File] = true
			s.Files = append(s.Files, v.File)
		}
		if !rules[v.Rule] {
			rules[v.Rule] = true
			s.Rules = append(s.Rules, v.Rule)
		}
	}
	sort.Strings(s.Files)
	sort.Strings(s.Rules)
	return s
}

// Summary recomputes the summary of the result.
func (r Result) Summary() Summary {
	s := Summarize(r.Violations)
	s.FilesChecked = len(r.Files)
	return s
}

// HasErrors reports whether any violation is an error.
func HasErrors(vs []Violation) bool {
	for _, v := range vs {
		if v.Severity == core.SeverityError {
			return true
		}
	}
	return false
}

// ExitCode is 1 if any violation is an error and 0 otherwise.
func ExitCode(vs []Violation) int {
	if HasErrors(vs) {
		return 1
	}
	return 0
}

// FilterBySeverity keeps violations at least as severe as threshold.
func FilterBySeverity(vs []Violation, threshold core.Severity) []Violation {
	if !threshold.IsSet() {
		return vs
	}
	filtered := make([]Violation, 0, len(vs))
	for _, v := range vs {
		if v.Severity.AtLeast(threshold) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GroupByFile groups violations by file, keeping first-seen file order and
// the original order inside each file.
func GroupByFile(vs []Violation) ([]string, map[string][]Violation) {
	var order []string
	groups := make(map[string][]Violation)
	for _, v := range vs {
		if _, ok := groups[v.File]; !ok {
			order = append(order, v.File)
		}
		groups[v.File] = append(groups[v.File], v)
	}
	return order, groups
}
