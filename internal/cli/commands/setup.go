package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/archlint/internal/cli/config"
	"github.com/leapstack-labs/archlint/internal/cli/output"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Loaded
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the configuration, logger and renderer set up
// by the root command. Commands run without the root (tests, embedding)
// load the configuration from the working directory.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		loaded, err := config.Load("", nil)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: newRenderer(cmd, cfg, ""),
	}, nil
}

// WithFormat returns the renderer for a command-local --format override.
// An empty format keeps the configured renderer.
func (c *CommandContext) WithFormat(cmd *cobra.Command, format string) *output.Renderer {
	if format == "" {
		return c.Renderer
	}
	return newRenderer(cmd, c.Cfg, format)
}

func newRenderer(cmd *cobra.Command, cfg *config.Loaded, format string) *output.Renderer {
	if format == "" {
		format = cfg.OutputFormat
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format))
	if cfg.NoColor {
		r.DisableColor()
	}
	return r
}

// flagBool reads a boolean flag that may be inherited from the root command.
// A command used without the root reports false.
func flagBool(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		return false
	}
	v, err := cmd.Flags().GetBool(name)
	return err == nil && v
}
