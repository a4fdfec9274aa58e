// Package resolve expands CLI targets (files, directories, globs) into a
// deduplicated, classified list of files to lint.
package resolve

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/leapstack-labs/archlint/pkg/lint"
)

// ClassifyFunc assigns a context (layer, template kind) to a file.
// Returning false means the file has no context; that is never an error.
type ClassifyFunc func(path string) (string, bool)

// MissingTargetError is returned when an explicit CLI target does not exist.
type MissingTargetError struct {
	Path string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("target does not exist: %s", e.Path)
}

// Resolver turns targets into files.
type Resolver struct {
	// Ignore holds substring or wildcard patterns; matching paths are skipped
	// while walking directories and globs.
	Ignore []string
	// Extensions restricts directory walks to these extensions (e.g. ".css").
	// Empty means every file.
	Extensions []string
	// Classify assigns the context of each file. Nil leaves contexts empty.
	Classify ClassifyFunc
	// Filter keeps only files whose context equals it, when non-empty.
	Filter string
	// RespectGitignore honours a .gitignore at the root of each walk.
	RespectGitignore bool
	// Logger receives debug output about skipped paths.
	Logger *slog.Logger

	matchers []ignoreMatcher
}

type ignoreMatcher struct {
	pattern string
	glob    glob.Glob // nil for plain substring patterns
}

// Resolve expands targets into a sorted, deduplicated list of files.
func (r *Resolver) Resolve(targets []string) ([]lint.Target, error) {
	if err := r.compile(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		key := normalize(p)
		if seen[key] {
			return
		}
		seen[key] = true
		paths = append(paths, key)
	}

	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if isGlob(target) {
			matches, err := r.expandGlob(target)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(target)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &MissingTargetError{Path: target}
			}
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			// Explicit files are always linted, even when an ignore pattern matches.
			add(target)
			continue
		}

		files, err := r.walk(target, nil)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}

	sort.Strings(paths)
	out := make([]lint.Target, 0, len(paths))
	for _, p := range paths {
		t := lint.Target{Path: p}
		if r.Classify != nil {
			if ctx, ok := r.Classify(p); ok {
				t.Context = ctx
			}
		}
		if r.Filter != "" && t.Context != r.Filter {
			logger.Debug("skipping file outside filter", "path", p, "context", t.Context, "filter", r.Filter)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// IsIgnored reports whether a path matches one of the ignore patterns.
func (r *Resolver) IsIgnored(p string) bool {
	if r.matchers == nil && len(r.Ignore) > 0 {
		if err := r.compile(); err != nil {
			return false
		}
	}
	p = normalize(p)
	for _, m := range r.matchers {
		if m.glob == nil {
			if strings.Contains(p, m.pattern) {
				return true
			}
			continue
		}
		if m.glob.Match(p) || m.glob.Match(path.Base(p)) {
			return true
		}
	}
	return false
}

func (r *Resolver) compile() error {
	if r.matchers != nil {
		return nil
	}
	r.matchers = make([]ignoreMatcher, 0, len(r.Ignore))
	for _, pattern := range r.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		m := ignoreMatcher{pattern: pattern}
		if strings.ContainsAny(pattern, "*?[{") {
			g, err := glob.Compile(wildcardPattern(pattern), '/')
			if err != nil {
				return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
			}
			m.glob = g
		}
		r.matchers = append(r.matchers, m)
	}
	return nil
}

// wildcardPattern lets a pattern without a directory part match at any depth.
func wildcardPattern(p string) string {
	if strings.Contains(p, "/") || strings.HasPrefix(p, "**") {
		return p
	}
	return "{" + p + ",**/" + p + "}"
}

func (r *Resolver) walk(root string, match glob.Glob) ([]string, error) {
	var ignorer *gitignore.GitIgnore
	if r.RespectGitignore {
		if gi, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			ignorer = gi
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p == root {
				return nil
			}
			if r.IsIgnored(p) || (ignorer != nil && ignorer.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if r.IsIgnored(p) || (ignorer != nil && ignorer.MatchesPath(rel)) {
			return nil
		}
		if match != nil {
			if !match.Match(normalize(p)) {
				return nil
			}
		} else if !r.hasExtension(p) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

func (r *Resolver) hasExtension(p string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range r.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func (r *Resolver) expandGlob(pattern string) ([]string, error) {
	norm := normalize(pattern)
	g, err := glob.Compile(norm, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	root := staticPrefix(norm)
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	return r.walk(root, g)
}

// staticPrefix returns the directory part of a glob before its first meta character.
func staticPrefix(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return path.Dir(pattern)
	}
	dir := path.Dir(pattern[:idx+1])
	if dir == "" {
		return "."
	}
	return dir
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// normalize returns a cleaned, slash-separated path.
func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean(p)
}
