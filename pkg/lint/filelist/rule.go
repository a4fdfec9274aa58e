package filelist

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// RuleName is the name of the file-list rule.
const RuleName = "file-list-sync"

// Rules holds the file-list rule.
var Rules = lint.NewRegistry("filelist")

func init() {
	Rules.MustRegister(fileListSync)
}

var fileListSync = lint.RuleDef{
	Name:        RuleName,
	Family:      lint.FamilyFileList,
	Description: "The service file list must match the files on disk",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"root", "service", "prefixes"},
	Rationale:   "The file list is the contract reviewed before implementation. Files outside it were never reviewed.",
	Fix:         "Add undeclared files to the file list, or delete them. Missing files are reported for information only.",
	Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		root := opts.String("root", ".")
		service := opts.String("service", ServiceFromPath(f.Path))
		if service == "" {
			return nil, fmt.Errorf("cannot determine service for %s; set the service option", f.Path)
		}
		prefixes := opts.Strings("prefixes", DefaultPrefixes)

		defined := ParseFileListWithPrefixes(f.Content, prefixes)
		actual, err := ScanActualWithPrefixes(root, service, prefixes)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", service, err)
		}
		return DiffViolations(CalculateFileDiff(defined, actual), f.Lines()), nil
	},
}

// DiffViolations converts a diff to violations. Missing files point at the
// document line that declares them.
func DiffViolations(d Diff, lines []string) []lint.Violation {
	vs := make([]lint.Violation, 0, len(d.UndefinedFiles)+len(d.MissingFiles))
	for _, p := range d.UndefinedFiles {
		vs = append(vs, lint.Violation{
			Severity:   core.SeverityError,
			Message:    "file is not declared in the file list: " + p,
			Suggestion: "add " + p + " to the file list or remove the file",
		})
	}
	for _, p := range d.MissingFiles {
		v := lint.Violation{
			Severity: core.SeverityInfo,
			Message:  "declared file does not exist yet: " + p,
		}
		for i, line := range lines {
			if strings.Contains(NormalizePath(line), p) {
				v = v.WithContext(line)
				v.Line = i + 1
				break
			}
		}
		vs = append(vs, v)
	}
	return vs
}

// ServiceFromPath derives the service name from a file-list location:
// docs/<service>/file-list.md names <service>.
func ServiceFromPath(p string) string {
	dir := filepath.Base(filepath.Dir(p))
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}
