package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/archlint/internal/cli/config"
	"github.com/leapstack-labs/archlint/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an archlint.yaml with the default configuration",
		Long: `Write archlint.yaml with every default spelled out, ready to edit.

Use --example to also create a small "blog" service: five CSS layer
files, a component and its file list, to start from.`,
		Example: `  # Initialize in current directory
  archlint init

  # Initialize with an example service
  archlint init --example

  # Initialize in a new directory
  archlint init my-site

  # Force overwrite existing config
  archlint init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// The config being replaced may not even parse, so it is
			// never loaded here.
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
			if cfg, ok := config.FromContext(cmd.Context()); ok {
				r = newRenderer(cmd, cfg, "")
			}
			return runInit(r, dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Also create an example service")

	return cmd
}

func runInit(r *output.Renderer, dir string, force, example bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileNames[0])
	}

	content, err := config.DefaultYAML()
	if err != nil {
		return fmt.Errorf("failed to render default configuration: %w", err)
	}
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	r.StatusLine(config.ConfigFileNames[0], "success", "")

	if example {
		files, err := copyTemplate("example", dir, force)
		if err != nil {
			return fmt.Errorf("failed to create example service: %w", err)
		}
		for _, f := range files {
			r.StatusLine(f, "success", "")
		}
	}

	r.Println("")
	r.Success("archlint initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  archlint rules    Browse the available rules")
	r.Println("  archlint lint     Run every linter")
	r.Println("  archlint css      Check stylesheets against the layer architecture")
	return nil
}
