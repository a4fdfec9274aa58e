// Package template lints project documents and source files against
// document templates.
//
// Every resolved file gets the configured common rules (banned words, size).
// Markdown documents that can be classified as one of the known templates
// additionally get that template's structural rules (required sections,
// section order, command blocks, file path references).
//
// Classification is deliberately conservative: a file matching no template,
// or matching more than one by content, gets no template rules at all.
package template

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a document template.
type Kind string

// Known template kinds.
const (
	KindRequirements Kind = "requirements"
	KindWorkflow     Kind = "workflow"
	KindDesign       Kind = "design"
	KindFileList     Kind = "file-list"
)

// Kinds returns every known template kind in display order.
func Kinds() []Kind {
	return []Kind{KindRequirements, KindWorkflow, KindDesign, KindFileList}
}

// ParseKind validates a template kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown template kind %q (want one of %s)", s, joinKinds(Kinds()))
}

func joinKinds(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// contentMarkers are headings whose presence identifies a template.
var contentMarkers = map[Kind][]string{
	KindRequirements: {"機能要件", "Functional Requirements"},
	KindWorkflow:     {"ワークフロー", "Workflow"},
	KindDesign:       {"設計", "Design"},
}

// Classify detects the template of a document from its file name and,
// failing that, its content. Filename evidence wins. Content evidence must
// point at exactly one template; otherwise the file is unclassified.
func Classify(path, content string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".mdx" {
		return "", false
	}
	if k, ok := classifyName(path); ok {
		return k, true
	}

	var found []Kind
	heads := headingTexts(splitLines(content))
	for _, k := range Kinds() {
		if k == KindFileList {
			if hasFileListTable(content) {
				found = append(found, k)
			}
			continue
		}
		for _, marker := range contentMarkers[k] {
			if heads[strings.ToLower(marker)] {
				found = append(found, k)
				break
			}
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return found[0], true
}

func classifyName(path string) (Kind, bool) {
	base := strings.ToLower(filepath.Base(path))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	switch {
	case stem == "requirements":
		return KindRequirements, true
	case stem == "design":
		return KindDesign, true
	case stem == "file-list":
		return KindFileList, true
	case strings.Contains(stem, "workflow"):
		return KindWorkflow, true
	}
	return "", false
}

// hasFileListTable reports whether content holds a table header naming both
// the file-name and path columns.
func hasFileListTable(content string) bool {
	for _, line := range splitLines(content) {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "|") && strings.Contains(t, "ファイル名") && strings.Contains(t, "パス") {
			return true
		}
	}
	return false
}

// maxClassifyBytes bounds how much of a file ClassifyFile reads.
const maxClassifyBytes = 256 << 10

// ClassifyFile reads path and classifies it. It matches the resolver's
// classification hook; unreadable files are unclassified.
func ClassifyFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".mdx" {
		return "", false
	}
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxClassifyBytes))
	if err != nil {
		return "", false
	}
	k, ok := Classify(path, string(data))
	return string(k), ok
}
