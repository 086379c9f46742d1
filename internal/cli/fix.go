package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// FixOptions holds flags for the fix command.
type FixOptions struct {
	*RootOptions
	Output string
}

// NewFixCommand creates the fix command.
func NewFixCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FixOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fix <path>...",
		Short: "Check record files and apply safe corrections",
		Long: `Validate record files, then try to repair every fixable failure.

A correction is planned against a copy of the records it touches and only
committed when no dependent invariant fails afterwards. Once corrections are
done the whole catalogue is evaluated again; failures that were not there
before are reported as regressions.

With --output, the corrected record set is written as JSON. Nothing is
written when the input has grave errors.

Exit codes:
  0 - Serializable, every failure fixed, no regressions
  1 - Grave errors, failures left open, or regressions
  2 - Command error

Examples:
  clavcheck fix ./records -o fixed.json
  clavcheck fix ./records --config clavcheck.yaml --db runs.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the corrected record set to this JSON file")

	return cmd
}

func runFix(opts *FixOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	c, err := newChecker(opts.RootOptions, cmd.ErrOrStderr(), true)
	if err != nil {
		return reportCommandError(formatter, err)
	}
	res, summary, err := c.check(cmd.Context(), paths)
	if err != nil {
		return reportCommandError(formatter, err)
	}

	if opts.Output != "" && res.Output != nil {
		if err := writeRecordSet(opts.Output, res.Output); err != nil {
			return reportCommandError(formatter, WrapExitError(ExitCommandError, "failed to write output", err))
		}
		summary.Output = opts.Output
		formatter.VerboseLog("Wrote corrected record set to %s", opts.Output)
	}

	if err := outputSummary(formatter, summary); err != nil {
		return err
	}
	return summaryExit(summary)
}

// writeRecordSet writes set as indented JSON.
func writeRecordSet(path string, set *ir.RecordSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("encode record set: %v", err), Path: path}
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Path: path}
	}
	return nil
}
