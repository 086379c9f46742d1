package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Pattern string // scenario glob, relative to the scenarios dir
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run every scenario file under a directory against the pipeline.

Each scenario names record files (or declares records inline), the pipeline
settings and assertions over the report, corrections, output and archive.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  clavcheck test ./scenarios
  clavcheck test ./scenarios --pattern "rel_*.yaml"
  clavcheck test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Pattern, "pattern", harness.DefaultPattern, "scenario file glob")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return reportCommandError(formatter, NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir)))
	}

	result, err := harness.RunSuite(cmd.Context(), scenariosDir, opts.Pattern)
	if err != nil {
		return reportCommandError(formatter, WrapExitError(ExitCommandError, "failed to run scenarios", err))
	}

	if opts.Format == "json" {
		status := "ok"
		if !result.OK() {
			status = "failed"
		}
		if err := formatter.JSON(status, "", result); err != nil {
			return err
		}
	} else {
		outputTestText(formatter, result)
	}

	if !result.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

func outputTestText(f *OutputFormatter, result *harness.SuiteResult) {
	w := f.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	st := newStyles(w)
	for _, fail := range result.Failures {
		name := fail.Scenario
		if name == "" {
			name = fail.Path
		}
		fmt.Fprintf(w, "%s %s\n", st.Error.Render(iconError), name)
		fmt.Fprintf(w, "  %s\n", fail.Error)
	}

	summary := fmt.Sprintf("%d passed, %d failed, %d total", result.Passed, result.Failed, result.Total)
	if result.OK() {
		fmt.Fprintf(w, "%s %s\n", st.Success.Render(iconOK), summary)
		return
	}
	fmt.Fprintf(w, "%s %s\n", st.Error.Render(iconError), summary)
}
