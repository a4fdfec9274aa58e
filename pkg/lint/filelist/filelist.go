// Package filelist checks that a service's file-list document and the files
// on disk agree.
//
// The document declares implementation files in Markdown tables whose header
// names a file-name column (ファイル名) and a path column (パス). Files on disk
// that the document does not declare are errors; declared files that do not
// exist yet are informational.
package filelist

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultPrefixes are the implementation layers a file list covers.
var DefaultPrefixes = []string{"app/components/", "app/lib/", "app/data-io/"}

const (
	fileNameHeader = "ファイル名"
	pathHeader     = "パス"
)

var separatorCell = regexp.MustCompile(`^:?-+:?$`)

// Diff is the result of comparing declared and actual files.
type Diff struct {
	// UndefinedFiles exist on disk but are not declared.
	UndefinedFiles []string `json:"undefinedFiles"`
	// MissingFiles are declared but do not exist.
	MissingFiles []string `json:"missingFiles"`
}

// NormalizePath converts separators to slashes, trims whitespace and
// applies Unicode NFC so names from macOS file systems compare equal.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, "/")
	return norm.NFC.String(p)
}

// ParseFileList extracts declared paths from every file-list table in a
// Markdown document, keeping only paths under DefaultPrefixes.
func ParseFileList(markdown string) []string {
	return ParseFileListWithPrefixes(markdown, DefaultPrefixes)
}

// ParseFileListWithPrefixes is ParseFileList with explicit prefixes.
// The result is sorted and free of duplicates.
func ParseFileListWithPrefixes(markdown string, prefixes []string) []string {
	set := make(map[string]bool)
	pathCol := -1

	for _, line := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		t := strings.TrimSpace(line)
		if !strings.HasPrefix(t, "|") {
			pathCol = -1
			continue
		}
		cells := splitRow(t)

		if isHeaderRow(cells) {
			pathCol = columnIndex(cells, pathHeader)
			continue
		}
		if pathCol < 0 || isSeparatorRow(cells) || pathCol >= len(cells) {
			continue
		}

		p := NormalizePath(strings.Trim(cells[pathCol], "` "))
		if p == "" || !hasAnyPrefix(p, prefixes) {
			continue
		}
		set[p] = true
	}
	return sortedKeys(set)
}

func splitRow(row string) []string {
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	cells := strings.Split(row, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func isHeaderRow(cells []string) bool {
	return columnIndex(cells, fileNameHeader) >= 0 && columnIndex(cells, pathHeader) >= 0
}

func columnIndex(cells []string, header string) int {
	for i, c := range cells {
		if strings.Contains(c, header) {
			return i
		}
	}
	return -1
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c != "" && !separatorCell.MatchString(c) {
			return false
		}
	}
	return true
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// ScanActual lists the files of a service under every default prefix,
// relative to root with forward slashes.
func ScanActual(root, service string) ([]string, error) {
	return ScanActualWithPrefixes(root, service, DefaultPrefixes)
}

// ScanActualWithPrefixes scans <root>/<prefix>/<service> for each prefix.
// Missing directories are skipped.
func ScanActualWithPrefixes(root, service string, prefixes []string) ([]string, error) {
	set := make(map[string]bool)
	for _, prefix := range prefixes {
		dir := filepath.Join(root, filepath.FromSlash(prefix), service)
		info, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			set[NormalizePath(filepath.ToSlash(rel))] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return sortedKeys(set), nil
}

// CalculateFileDiff compares declared against actual files after path
// normalisation. Both result lists are sorted and free of duplicates.
func CalculateFileDiff(defined, actual []string) Diff {
	def := toSet(defined)
	act := toSet(actual)

	diff := Diff{UndefinedFiles: []string{}, MissingFiles: []string{}}
	for p := range act {
		if !def[p] {
			diff.UndefinedFiles = append(diff.UndefinedFiles, p)
		}
	}
	for p := range def {
		if !act[p] {
			diff.MissingFiles = append(diff.MissingFiles, p)
		}
	}
	sort.Strings(diff.UndefinedFiles)
	sort.Strings(diff.MissingFiles)
	return diff
}

func toSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		if n := NormalizePath(p); n != "" {
			set[path.Clean(n)] = true
		}
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
