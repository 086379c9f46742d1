package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Check record files without correcting them",
		Long: `Load record files, close the relation graph and evaluate every invariant.

Each path is a record file or a directory searched with the configured
include globs. No correction is attempted.

Exit codes:
  0 - Serializable, no invariant failures
  1 - Grave errors or invariant failures
  2 - Command error (invalid paths, unreadable files, archive errors)

Examples:
  clavcheck validate ./records
  clavcheck validate 100.cue 200.json --format json
  clavcheck validate ./records --db runs.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	c, err := newChecker(opts, cmd.ErrOrStderr(), false)
	if err != nil {
		return reportCommandError(formatter, err)
	}
	_, summary, err := c.check(cmd.Context(), paths)
	if err != nil {
		return reportCommandError(formatter, err)
	}

	if err := outputSummary(formatter, summary); err != nil {
		return err
	}
	return summaryExit(summary)
}

// reportCommandError prints err through the formatter and returns it.
func reportCommandError(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code = loadErr.Code
	}
	if outErr := f.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	return err
}
