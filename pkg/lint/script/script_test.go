package script

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

const redRule = `
NAME = "layer2-no-red"
DESCRIPTION = "Skins must not hard-code red"
SEVERITY = "warning"

def check(content, path, options):
    word = options.get("word", "red")
    out = []
    for i, line in enumerate(content.split("\n")):
        col = line.find(word)
        if col >= 0:
            out.append({"line": i + 1, "column": col + 1, "message": word + " is hard-coded", "suggestion": "use a token"})
    return out
`

func TestCompile_Check(t *testing.T) {
	def, err := Compile("red.star", []byte(redRule))
	require.NoError(t, err)
	assert.Equal(t, "layer2-no-red", def.Name)
	assert.Equal(t, lint.FamilyScript, def.Family)
	assert.Equal(t, core.SeverityWarning, def.Severity)
	assert.Equal(t, "Skins must not hard-code red", def.Description)

	vs, err := def.Check(lint.NewFile("a.css", "layer2", ".a {}\n.b { color: red; }\n"), nil)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, 2, vs[0].Line)
	assert.Equal(t, 13, vs[0].Column)
	assert.Equal(t, "red is hard-coded", vs[0].Message)
	assert.Equal(t, "use a token", vs[0].Suggestion)

	vs, err = def.Check(lint.NewFile("a.css", "layer2", "color: blue"), lint.Options{"word": "blue"})
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, 8, vs[0].Column)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("bad.star", []byte("def check(:\n"))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "bad.star")

	_, err = Compile("nocheck.star", []byte("x = 1\n"))
	assert.ErrorContains(t, err, "must define a check")

	_, err = Compile("sev.star", []byte("SEVERITY = \"loud\"\ndef check(c, p, o):\n    return []\n"))
	assert.ErrorContains(t, err, "invalid SEVERITY")
}

func TestCheck_BadResults(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not a list", `return "x"`, "must return a list"},
		{"missing message", `return [{"line": 1}]`, "message is required"},
		{"bad severity", `return [{"line": 1, "message": "m", "severity": "loud"}]`, "invalid severity"},
		{"runtime error", `return 1 // 0`, "division by zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Compile("r.star", []byte("def check(content, path, options):\n    "+tt.body+"\n"))
			require.NoError(t, err)
			_, err = def.Check(lint.NewFile("a.css", "", ""), nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCheck_StepLimit(t *testing.T) {
	src := "def check(content, path, options):\n    n = 0\n    for i in range(100000000):\n        n += i\n    return []\n"
	def, err := Compile("slow.star", []byte(src))
	require.NoError(t, err)
	_, err = def.Check(lint.NewFile("a.css", "", ""), nil)
	assert.Error(t, err)
}

func TestLoadDir_EngineIsolation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-red.star"), []byte(redRule), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b-boom.star"),
		[]byte("def check(content, path, options):\n    fail(\"boom\")\n"), 0o644))

	defs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "layer2-no-red", defs[0].Name)
	assert.Equal(t, "b-boom", defs[1].Name)

	reg := lint.NewRegistry("script")
	reg.MustRegister(defs...)

	css := filepath.Join(dir, "skin.css")
	require.NoError(t, os.WriteFile(css, []byte(".a { color: red; }\n"), 0o644))
	eng := lint.NewEngine(reg, lint.AllSelector{})
	vs := eng.CheckFile(context.Background(), lint.Target{Path: css})

	require.Len(t, vs, 2)
	assert.Equal(t, "b-boom", vs[0].Rule)
	assert.Equal(t, core.SeverityError, vs[0].Severity)
	assert.Contains(t, vs[0].Message, "boom")
	assert.Equal(t, "layer2-no-red", vs[1].Rule)
	assert.Equal(t, core.SeverityWarning, vs[1].Severity)
}
