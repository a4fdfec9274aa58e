package commands

import (
	"github.com/spf13/cobra"
)

// NewLintCommand creates the lint command, which runs every linter.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [PATH...]",
		Short: "Run every linter",
		Long: `Run the css, template and filelist linters in one pass.

Each linter picks the files it understands from PATH (default: the
project root). Results are merged into one report; a custom rule that
two linters both run is reported once, and an !important in a layered
stylesheet is reported by the css linter only.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Lint the whole project
  archlint lint

  # Lint a directory, errors only
  archlint lint app --severity error

  # Disable rules
  archlint lint --disable max-lines,layer5-single-purpose

  # Record the run for later inspection
  archlint lint --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinters(cmd, opts, linterRun{
				name:   "lint",
				title:  "Lint Results",
				prefix: "all",
				args:   args,
				build: func(e *linterEnv) ([]*job, error) {
					css, err := e.cssJob(args, "", "")
					if err != nil {
						return nil, err
					}
					tmpl, err := e.templateJob(args, "", css.layers)
					if err != nil {
						return nil, err
					}
					fl, err := e.fileListJob(args, fileListOptions{OnlyLists: len(args) > 0})
					if err != nil {
						return nil, err
					}
					return []*job{css, tmpl, fl}, nil
				},
			})
		},
	}

	addLintFlags(cmd, opts)
	return cmd
}
