package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/archlint/internal/cli/output"
	"github.com/leapstack-labs/archlint/internal/history"
	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/report"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Format string
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List lint runs saved with --save",
		Long: `List lint runs recorded with the --save flag, newest first.

Runs are stored in a SQLite database (history_path in archlint.yaml,
.archlint/history.db by default).`,
		Example: `  # Last 10 runs
  archlint history --limit 10

  # Violations of one run (an unambiguous ID prefix is enough)
  archlint history show 3f2a

  # Remove a run
  archlint history delete 3f2a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Show the violations of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, opts, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryDelete(cmd, opts, args[0])
		},
	})

	return cmd
}

// openHistory opens the history database. It reports false, without
// creating anything, when no run was ever saved.
func openHistory(cc *CommandContext) (*history.Store, bool, error) {
	if _, err := os.Stat(cc.Cfg.HistoryPath); errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	store, err := history.Open(cc.Cfg.HistoryPath)
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.WithFormat(cmd, opts.Format)

	var runs []history.Run
	store, ok, err := openHistory(cc)
	if err != nil {
		return err
	}
	if ok {
		defer func() { _ = store.Close() }()
		runs, err = store.List(cmd.Context(), opts.Limit)
		if err != nil {
			return err
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []history.Run{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Muted("No saved runs. Use --save to record one.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Linter,
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond).String(),
			strconv.Itoa(run.FilesChecked),
			fmt.Sprintf("%d/%d/%d", run.Errors, run.Warnings, run.Info),
		})
	}
	r.Table([]string{"ID", "Linter", "Started", "Duration", "Files", "E/W/I"}, rows)
	return nil
}

func runHistoryShow(cmd *cobra.Command, opts *HistoryOptions, id string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.WithFormat(cmd, opts.Format)

	store, ok, err := openHistory(cc)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s: %w", id, history.ErrRunNotFound)
	}
	defer func() { _ = store.Close() }()

	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	violations, err := store.Violations(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if violations == nil {
		violations = []lint.Violation{}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(struct {
			Run        history.Run      `json:"run"`
			Violations []lint.Violation `json:"violations"`
		}{run, violations})
	case output.ModeMarkdown:
		md := &report.Markdown{
			Title: fmt.Sprintf("Run %s (%s)", shortID(run.ID), run.Linter),
			Now:   func() time.Time { return run.StartedAt },
		}
		return md.Report(r.Writer(), lint.Result{Violations: violations})
	}

	symbols, err := report.ParseSymbols(cc.Cfg.Template.Severity)
	if err != nil {
		symbols = report.DefaultSymbols()
	}
	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Run %s", run.ID)))
	r.Printf("  %s: %s\n", styles.Bold.Render("Linter"), run.Linter)
	r.Printf("  %s: %s (%s)\n", styles.Bold.Render("Started"), run.StartedAt.Local().Format(time.DateTime), run.Duration().Round(time.Millisecond))
	r.Printf("  %s: %d\n", styles.Bold.Render("Files"), run.FilesChecked)
	r.Println("")
	console := &report.Console{Symbols: symbols, Styles: report.NewStyles(r.LipglossRenderer())}
	return console.Report(r.Writer(), lint.Result{Violations: violations})
}

func runHistoryDelete(cmd *cobra.Command, opts *HistoryOptions, id string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.WithFormat(cmd, opts.Format)

	store, ok, err := openHistory(cc)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s: %w", id, history.ErrRunNotFound)
	}
	defer func() { _ = store.Close() }()

	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if err := store.Delete(cmd.Context(), run.ID); err != nil {
		return err
	}
	r.Success("Deleted run " + run.ID)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
