package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/archlint/pkg/lint/template"
)

// NewTemplateCommand creates the template command.
func NewTemplateCommand() *cobra.Command {
	opts := &LintOptions{}
	var kind string
	cmd := &cobra.Command{
		Use:   "template [PATH...]",
		Short: "Check documents against their template and common rules",
		Long: `Check markdown documents and source files.

Markdown files are classified by template kind (requirements, workflow,
design, file-list) from their file name or headings, and the template
rules configured for that kind run on them. Common rules (banned words,
max lines) run on every file type they are configured for.`,
		Example: `  # Check every document in the project
  archlint template

  # Check only design docs under docs/
  archlint template docs --template design

  # Machine-readable output
  archlint template --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinters(cmd, opts, linterRun{
				name:   "template",
				title:  "Template Lint Results",
				prefix: "template",
				args:   args,
				build: func(e *linterEnv) ([]*job, error) {
					j, err := e.templateJob(args, kind, nil)
					if err != nil {
						return nil, err
					}
					return []*job{j}, nil
				},
			})
		},
	}

	addLintFlags(cmd, opts)
	cmd.Flags().StringVar(&kind, "template", "", "Only check documents of this template kind")
	_ = cmd.RegisterFlagCompletionFunc("template", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		kinds := template.Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
