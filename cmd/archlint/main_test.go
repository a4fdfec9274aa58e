// Package main provides tests for the archlint CLI.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/archlint/internal/cli"
	"github.com/leapstack-labs/archlint/internal/cli/commands"
	clitestutil "github.com/leapstack-labs/archlint/internal/cli/testutil"
)

// run executes the root command in dir and returns stdout and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)

	cmd := cli.NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(out, "archlint v") {
		t.Errorf("version output should contain 'archlint v', got: %s", out)
	}
}

func TestHelpCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}
	for _, want := range []string{"css", "template", "filelist", "lint", "rules", "history"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output should list %q, got: %s", want, out)
		}
	}
}

func TestLintCommand_OutputFlag(t *testing.T) {
	root := clitestutil.SetupTestProject(t)

	out, _, err := run(t, root, "lint", "-o", "json")
	if !errors.Is(err, commands.ErrLintFailed) {
		t.Fatalf("lint error = %v, want ErrLintFailed", err)
	}

	var doc struct {
		Summary struct {
			Errors int      `json:"errors"`
			Rules  []string `json:"rules"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if doc.Summary.Errors == 0 {
		t.Error("expected errors in the sample project")
	}
}

func TestCSSCommand_PathArgument(t *testing.T) {
	root := clitestutil.SetupTestProject(t)

	out, _, err := run(t, root, "css", "app/styles/blog/layer1.css", "--format", "json", "--no-color")
	if err != nil {
		t.Fatalf("css error = %v\n%s", err, out)
	}
	if !strings.Contains(out, `"files_checked": 1`) {
		t.Errorf("expected one file checked, got: %s", out)
	}
}

func TestSaveFlag(t *testing.T) {
	root := clitestutil.SetupTestProject(t)

	out, _, err := run(t, root, "filelist", "--save", "-o", "text")
	if err != nil {
		t.Fatalf("filelist error = %v", err)
	}
	if !strings.Contains(out, "Saved run") {
		t.Errorf("expected a saved-run notice, got: %s", out)
	}
	if _, err := os.Stat(filepath.Join(root, ".archlint", "history.db")); err != nil {
		t.Errorf("history database not created: %v", err)
	}

	out, _, err = run(t, root, "history", "-o", "json")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, `"linter": "filelist"`) {
		t.Errorf("saved run not listed: %s", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	root := t.TempDir()
	clitestutil.WriteFiles(t, root, map[string]string{
		"archlint.yaml": "css:\n  rules:\n    no-such-rule:\n      severity: error\n",
	})

	_, _, err := run(t, root, "css")
	if err == nil || !strings.Contains(err.Error(), "no-such-rule") {
		t.Errorf("expected unknown rule error, got %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			out, _, err := run(t, t.TempDir(), "completion", shell)
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
			if !strings.Contains(out, "archlint") {
				t.Errorf("completion %s should mention archlint", shell)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "unknown-command")
	if err == nil {
		t.Error("unknown command should return an error")
	}
}
