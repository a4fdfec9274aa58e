package template

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

func check(t *testing.T, rule lint.RuleDef, path, kind, content string, opts lint.Options) []lint.Violation {
	t.Helper()
	vs, err := rule.Check(lint.NewFile(path, kind, content), opts)
	require.NoError(t, err)
	return vs
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    Kind
		wantOK  bool
	}{
		{"filename requirements", "docs/requirements.md", "", KindRequirements, true},
		{"filename workflow", "docs/release-workflow.md", "", KindWorkflow, true},
		{"filename wins over content", "docs/design.md", "## 機能要件\n", KindDesign, true},
		{"content marker", "docs/blog.md", "# Blog\n\n## 機能要件\n- a\n", KindRequirements, true},
		{"file list table", "docs/blog.md", "| ファイル名 | パス |\n|---|---|\n", KindFileList, true},
		{"ambiguous content", "docs/blog.md", "## 機能要件\n## ワークフロー\n", "", false},
		{"marker inside code fence", "docs/blog.md", "```\n## 設計\n```\n", "", false},
		{"no evidence", "docs/notes.md", "# Notes\n", "", false},
		{"not markdown", "app/requirements.ts", "## 機能要件", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.path, tt.content)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("## ワークフロー\n"), 0o644))

	kind, ok := ClassifyFile(path)
	assert.True(t, ok)
	assert.Equal(t, string(KindWorkflow), kind)

	_, ok = ClassifyFile(filepath.Join(dir, "missing.md"))
	assert.False(t, ok)
}

func TestBannedWords(t *testing.T) {
	content := "const a = 1 // TODO fix\n" +
		"console.log(a); console.log(\"TODO\")\n" +
		"import { TODO } from './todo'\n" +
		"see https://example.com/TODO and TODOS\n"
	vs := check(t, bannedWords, "app/a.ts", "", content, nil)

	require.Len(t, vs, 3)
	assert.Equal(t, 1, vs[0].Line)
	assert.Equal(t, 16, vs[0].Column)
	// The quoted TODO on line 2 is a string literal; both console.log calls count.
	assert.Equal(t, 2, vs[1].Line)
	assert.Equal(t, 2, vs[2].Line)
	assert.Equal(t, 1, vs[1].Column)
	assert.Equal(t, 17, vs[2].Column)
}

func TestBannedWords_Markdown(t *testing.T) {
	content := "Run `console.log` sparingly.\n\n```js\nconsole.log(x)\n```\nFIXME later\n"
	vs := check(t, bannedWords, "docs/a.md", "", content, nil)
	require.Len(t, vs, 1)
	assert.Equal(t, 6, vs[0].Line)
	assert.Contains(t, vs[0].Message, "FIXME")

	vs = check(t, bannedWords, "docs/a.md", "", content, lint.Options{"exceptions": []any{}})
	assert.Len(t, vs, 3)
}

func TestBannedWords_Apostrophes(t *testing.T) {
	vs := check(t, bannedWords, "docs/a.md", "", "We don't ship TODO items.\n", nil)
	require.Len(t, vs, 1, "a contraction is not a string literal")
	assert.Equal(t, 15, vs[0].Column)

	assert.Len(t, check(t, bannedWords, "docs/a.md", "", "We do not ship TODO items.\n", nil), 1)
	assert.Empty(t, check(t, bannedWords, "app/a.ts", "", "const s = 'TODO'\n", nil))
	assert.Empty(t, check(t, bannedWords, "app/a.ts", "", "t('it\\'s TODO')\n", nil))
}

func TestBannedWords_CommentsException(t *testing.T) {
	content := "x() // TODO\n// FIXME\nTODO()\n"
	vs := check(t, bannedWords, "a.ts", "", content, lint.Options{"exceptions": []string{ExceptComments}})
	require.Len(t, vs, 1)
	assert.Equal(t, 3, vs[0].Line)
}

func TestMaxLines(t *testing.T) {
	content := "a\n\n\nb\nc\n"
	assert.Empty(t, check(t, maxLines, "a.md", "", content, lint.Options{"max": 3}))

	vs := check(t, maxLines, "a.tsx", "", content, lint.Options{"max": float64(2)})
	require.Len(t, vs, 1)
	assert.Equal(t, 0, vs[0].Line)
	assert.Contains(t, vs[0].Message, "3 non-empty lines (max 2)")
	assert.Equal(t, "extract sub-components into their own files", vs[0].Suggestion)
}

func TestRequiredSectionsAndOrder(t *testing.T) {
	doc := "# Spec\n## 機能要件\n## 概要\n## 機能要件\n"

	vs := check(t, requiredSections, "r.md", string(KindRequirements), doc, nil)
	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "非機能要件")

	vs = check(t, sectionOrder, "r.md", string(KindRequirements), doc, nil)
	require.Len(t, vs, 2)
	assert.Equal(t, 3, vs[0].Line)
	assert.Contains(t, vs[0].Message, "should come before")
	assert.Equal(t, 4, vs[1].Line)
	assert.Contains(t, vs[1].Message, "duplicate")

	ok := "## 概要\n## 機能要件\n## 非機能要件\n"
	assert.Empty(t, check(t, requiredSections, "r.md", string(KindRequirements), ok, nil))
	assert.Empty(t, check(t, sectionOrder, "r.md", string(KindRequirements), ok, nil))
}

func TestRequiredSections_ConfiguredList(t *testing.T) {
	vs := check(t, requiredSections, "x.md", "", "## Intro\n", lint.Options{"sections": []any{"## Intro", "Usage"}})
	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "Usage")
}

func TestRequiredCommands(t *testing.T) {
	doc := "## ワークフロー\nnpm run test\n\n```bash\n$ npm run lint -- --fix\nnpm run\n```\n"
	vs := check(t, requiredCommands, "w.md", string(KindWorkflow), doc, nil)
	require.Len(t, vs, 2)

	assert.Equal(t, 6, vs[0].Line)
	assert.Contains(t, vs[0].Message, "missing script name")
	assert.Contains(t, vs[1].Message, `"npm run test"`)
}

func TestFilePathFormat(t *testing.T) {
	doc := "Edit `app/lib/user.ts` and `./app/lib/x.ts`.\n" +
		"Folder `app/components/blog/`, bad `app/lib/user`.\n" +
		"Run `cd app/lib` or `npm test`, see `app/my file.ts`.\n" +
		"```\n`../ignored`\n```\n"
	vs := check(t, filePathFormat, "w.md", string(KindWorkflow), doc, nil)

	require.Len(t, vs, 3)
	assert.Equal(t, 1, vs[0].Line)
	assert.Contains(t, vs[0].Message, "project root")
	assert.Equal(t, 2, vs[1].Line)
	assert.Contains(t, vs[1].Message, "extension")
	assert.Equal(t, 3, vs[2].Line)
	assert.Contains(t, vs[2].Message, "spaces")
}

func TestNoImportant(t *testing.T) {
	css := "/* !important */\n.a { color: red !important; }\n"
	vs := check(t, noImportant, "a.css", "", css, nil)
	require.Len(t, vs, 1)
	assert.Equal(t, 2, vs[0].Line)

	assert.Empty(t, check(t, noImportant, "a.md", "", css, nil))

	block := "/*\n  old: color: red !important;\n*/\n.b { margin: 0 !important; }\n"
	vs = check(t, noImportant, "b.css", "", block, nil)
	require.Len(t, vs, 1, "continuation lines of a block comment are skipped")
	assert.Equal(t, 4, vs[0].Line)
	assert.Equal(t, ".b { margin: 0 !important; }", vs[0].Context)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate(Rules))

	cfg.CommonRules = append(cfg.CommonRules, "no-such-rule")
	cfg.TemplateRules["memo"] = []string{"section-order"}
	cfg.Rules["max-lines"] = RuleConfig{Severity: "fatal"}

	err := cfg.Validate(Rules)
	require.Error(t, err)

	var unknown *lint.UnknownRuleError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"no-such-rule"}, unknown.Names)
	assert.Contains(t, err.Error(), `unknown template kind "memo"`)
	assert.Contains(t, err.Error(), "rules.max-lines.severity")
}

func TestSelector(t *testing.T) {
	cfg := DefaultConfig()
	off := false
	cfg.Rules["section-order"] = RuleConfig{Enabled: &off}
	cfg.Rules["required-sections"] = RuleConfig{ExcludeTemplates: []string{string(KindDesign)}, Severity: "info"}
	sel := Selector{Config: &cfg}

	names := func(target lint.Target) []string {
		var out []string
		for _, a := range sel.Select(Rules, target) {
			out = append(out, a.Rule.Name)
		}
		return out
	}

	assert.Equal(t, []string{"banned-words", "max-lines"}, names(lint.Target{Path: "docs/notes.md"}))
	assert.Equal(t, []string{"max-lines", "no-important"}, names(lint.Target{Path: "a.css"}))
	assert.Equal(t, []string{"banned-words", "max-lines", "required-sections"},
		names(lint.Target{Path: "docs/requirements.md", Context: string(KindRequirements)}))
	assert.Equal(t, []string{"banned-words", "max-lines", "file-path-format"},
		names(lint.Target{Path: "docs/design.md", Context: string(KindDesign)}))
	assert.Empty(t, names(lint.Target{Path: "image.png"}))

	applied := sel.Select(Rules, lint.Target{Path: "r.md", Context: string(KindRequirements)})
	assert.Equal(t, core.SeverityInfo, applied[2].Severity)
}

func TestRuleConfig_FileExceptions(t *testing.T) {
	rc := RuleConfig{ExcludeFiles: []string{"legacy/", "*.generated.ts"}}
	assert.False(t, rc.AppliesTo("app/legacy/a.ts", ""))
	assert.False(t, rc.AppliesTo("app/lib/api.generated.ts", ""))
	assert.True(t, rc.AppliesTo("app/lib/api.ts", ""))

	cfg := DefaultConfig()
	cfg.Rules["max-lines"] = RuleConfig{ExcludeFiles: []string{"[bad"}}
	err := cfg.Validate(Rules)
	require.NoError(t, err, "patterns without wildcards are substrings")

	cfg.Rules["max-lines"] = RuleConfig{ExcludeFiles: []string{"[bad*"}}
	require.Error(t, cfg.Validate(Rules))
}

func TestEngine_TemplateRun(t *testing.T) {
	dir := t.TempDir()
	req := filepath.Join(dir, "requirements.md")
	require.NoError(t, os.WriteFile(req, []byte("## 概要\nTODO\n## 機能要件\n"), 0o644))

	cfg := DefaultConfig()
	eng := lint.NewEngine(Rules, Selector{Config: &cfg}, lint.WithConfig(cfg.LintConfig()))
	kind, _ := ClassifyFile(req)
	res := eng.CheckFiles(context.Background(), []lint.Target{{Path: req, Context: kind}})

	require.Len(t, res.Violations, 2)
	assert.Equal(t, "banned-words", res.Violations[0].Rule)
	assert.Equal(t, core.SeverityWarning, res.Violations[0].Severity)
	assert.Equal(t, "required-sections", res.Violations[1].Rule)
	assert.Equal(t, core.SeverityError, res.Violations[1].Severity)
	assert.Equal(t, 1, lint.ExitCode(res.Violations))

	cfg.SeverityPolicy = string(lint.PolicyStrict)
	eng = lint.NewEngine(Rules, Selector{Config: &cfg}, lint.WithConfig(cfg.LintConfig()))
	res = eng.CheckFiles(context.Background(), []lint.Target{{Path: req, Context: kind}})
	for _, v := range res.Violations {
		assert.Equal(t, core.SeverityError, v.Severity)
	}
}
