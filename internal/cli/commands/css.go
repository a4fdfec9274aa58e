package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
)

// NewCSSCommand creates the css command.
func NewCSSCommand() *cobra.Command {
	opts := &LintOptions{}
	var service, layer string
	cmd := &cobra.Command{
		Use:   "css [PATH...]",
		Short: "Check stylesheets and components against the layer architecture",
		Long: `Check CSS files and components against the five-layer architecture.

Each file is assigned a layer from its name (layer1.css ... layer5.css,
components for .ts/.tsx/.jsx) or from the css.layers globs in
archlint.yaml, and only the rules of that layer run on it.

With no PATH, the configured service (css.service) or the whole project
is checked.`,
		Example: `  # Check the whole project
  archlint css

  # Check one service's layer files and components
  archlint css --service blog

  # Only the utility layer, with a markdown report in tests/lint
  archlint css app/styles --layer layer5 --report

  # Re-run whenever a stylesheet changes
  archlint css --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinters(cmd, opts, linterRun{
				name:   "css",
				title:  "CSS Architecture Lint Results",
				prefix: "css",
				args:   args,
				build: func(e *linterEnv) ([]*job, error) {
					j, err := e.cssJob(args, service, layer)
					if err != nil {
						return nil, err
					}
					return []*job{j}, nil
				},
			})
		},
	}

	addLintFlags(cmd, opts)
	cmd.Flags().StringVar(&service, "service", "", "Check app/styles/<service> and app/components/<service>")
	cmd.Flags().StringVar(&layer, "layer", "", "Only check files of this layer")
	_ = cmd.RegisterFlagCompletionFunc("layer", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return cssarch.Layers(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
