package commands

import (
	"github.com/spf13/cobra"
)

// NewFileListCommand creates the filelist command.
func NewFileListCommand() *cobra.Command {
	opts := &LintOptions{}
	fo := fileListOptions{}
	cmd := &cobra.Command{
		Use:   "filelist [PATH...]",
		Short: "Compare documented file lists with the files on disk",
		Long: `Compare a service's documented file list with the files that exist.

A file list is a markdown document (docs/{service}/file-list.md by
default) naming the files that make up a service. Files on disk that the
list does not mention, and listed files that no longer exist, are
reported.

With no PATH, every file list matching filelist.path is checked.`,
		Example: `  # Check every service's file list
  archlint filelist

  # Check one service
  archlint filelist --service blog

  # Check a list kept elsewhere against another checkout
  archlint filelist --file-list notes/files.md --root ../site`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinters(cmd, opts, linterRun{
				name:   "filelist",
				title:  "File List Lint Results",
				prefix: "filelist",
				args:   args,
				build: func(e *linterEnv) ([]*job, error) {
					j, err := e.fileListJob(args, fo)
					if err != nil {
						return nil, err
					}
					return []*job{j}, nil
				},
			})
		},
	}

	addLintFlags(cmd, opts)
	cmd.Flags().StringVar(&fo.Service, "service", "", "Service whose file list is checked")
	cmd.Flags().StringVar(&fo.FileList, "file-list", "", "Path of the file list document")
	cmd.Flags().StringVar(&fo.Root, "root", "", "Directory the listed paths are relative to (default: project root)")

	return cmd
}
