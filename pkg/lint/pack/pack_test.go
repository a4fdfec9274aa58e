package pack

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

const hexPack = `
rules:
  - name: layer2-no-hex-colors
    severity: warning
    pattern: '#[0-9a-fA-F]{3,8}\b'
    message: 'hard-coded color {match}'
    suggestion: use a color token
    fileTypes: [css]
    contexts: [layer2]
`

func TestParse_Compile(t *testing.T) {
	p, err := Parse([]byte(hexPack))
	require.NoError(t, err)
	defs, err := p.Compile()
	require.NoError(t, err)
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "layer2-no-hex-colors", def.Name)
	assert.Equal(t, lint.FamilyPattern, def.Family)
	assert.Equal(t, core.SeverityWarning, def.Severity)

	vs, err := def.Check(lint.NewFile("a.css", "layer2", ".a { color: #fff; border-color: #00ff00; }"), nil)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "hard-coded color #fff", vs[0].Message)
	assert.Equal(t, 13, vs[0].Column)
	assert.Equal(t, "use a color token", vs[0].Suggestion)

	vs, err = def.Check(lint.NewFile("a.css", "layer3", "#fff"), nil)
	require.NoError(t, err)
	assert.Empty(t, vs, "context filter")

	vs, err = def.Check(lint.NewFile("a.ts", "layer2", "#fff"), nil)
	require.NoError(t, err)
	assert.Empty(t, vs, "file type filter")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("rules:\n  - name: x\n    patern: y\n"))
	assert.Error(t, err, "unknown field")

	p, err := Parse([]byte(`
rules:
  - name: bad-regex
    pattern: '('
  - name: bad-severity
    pattern: x
    severity: fatal
  - pattern: x
`))
	require.NoError(t, err)
	_, err = p.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-regex")
	assert.Contains(t, err.Error(), `invalid severity "fatal"`)
	assert.Contains(t, err.Error(), "name and pattern are required")

	p, err = Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, p.Rules)
}

func TestRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(hexPack), 0o644))
	p, err := Load(path)
	require.NoError(t, err)

	reg := lint.NewRegistry("test")
	got, err := p.Register(reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"layer2-no-hex-colors"}, got.Added)
	assert.Empty(t, got.Replaced)

	_, err = p.Register(reg)
	var dup *lint.DuplicateRuleError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "layer2-no-hex-colors", dup.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	css := filepath.Join(t.TempDir(), "layer2.css")
	require.NoError(t, os.WriteFile(css, []byte(".a { color: #abc; }\n"), 0o644))
	eng := lint.NewEngine(reg, lint.PrefixSelector{})
	vs := eng.CheckFile(context.Background(), lint.Target{Path: css, Context: "layer2"})
	require.Len(t, vs, 1)
	assert.Equal(t, "layer2-no-hex-colors", vs[0].Rule)
	assert.Equal(t, core.SeverityWarning, vs[0].Severity)
}

func TestRegister_Override(t *testing.T) {
	builtin := lint.RuleDef{
		Name: "layer2-no-important", Family: lint.FamilyPattern, Severity: core.SeverityError,
		Check: func(*lint.File, lint.Options) ([]lint.Violation, error) { return nil, nil },
	}
	reg := lint.NewRegistry("css")
	reg.MustRegister(builtin)

	p, err := Parse([]byte(`
rules:
  - name: layer2-no-important
    severity: warning
    pattern: '!important'
    override: true
  - name: layer9-unknown
    pattern: x
    override: true
`))
	require.NoError(t, err)

	got, err := p.Register(reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"layer2-no-important"}, got.Replaced)
	assert.Empty(t, got.Added, "an override without a rule to replace is skipped")
	assert.Equal(t, 1, reg.Count())

	def, ok := reg.Get("layer2-no-important")
	require.True(t, ok)
	assert.Equal(t, core.SeverityWarning, def.Severity)
}
