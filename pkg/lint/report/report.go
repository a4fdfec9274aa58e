// Package report renders lint results for humans and machines.
//
// Three reporters are provided: Console for terminals, Markdown for saved
// reports and JSON for tooling. All of them take the violations in the order
// the engine produced them and never re-sort within a file.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Reporter writes a lint result to w.
type Reporter interface {
	Report(w io.Writer, res lint.Result) error
}

var (
	_ Reporter = (*Console)(nil)
	_ Reporter = (*Markdown)(nil)
	_ Reporter = JSON{}
)

// Document is the JSON shape of a report.
type Document struct {
	Summary    lint.Summary     `json:"summary"`
	Violations []lint.Violation `json:"violations"`
}

// NewDocument builds the serialisable form of res.
func NewDocument(res lint.Result) Document {
	vs := res.Violations
	if vs == nil {
		vs = []lint.Violation{}
	}
	return Document{Summary: res.Summary(), Violations: vs}
}

// JSON writes {summary, violations} as indented JSON.
type JSON struct{}

// Report implements Reporter.
func (JSON) Report(w io.Writer, res lint.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func pluralize(singular string, count int) string {
	if count == 1 {
		return singular
	}
	return singular + "s"
}

// location formats "line L" or "line L:C"; file-level violations return "".
func location(v lint.Violation) string {
	switch {
	case v.Line <= 0:
		return ""
	case v.Column > 0:
		return fmt.Sprintf("line %d:%d", v.Line, v.Column)
	default:
		return fmt.Sprintf("line %d", v.Line)
	}
}
