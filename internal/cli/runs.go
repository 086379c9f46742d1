package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Limit       int
	RunID       string
	Invariant   string
	Status      string
	Code        string
	Regressions bool
	SQL         string
}

func (o *RunsOptions) filtering() bool {
	return o.RunID != "" || o.Invariant != "" || o.Status != "" || o.Code != "" || o.Regressions
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Query the run archive",
		Long: `List archived runs, or the failures they recorded.

Without filters, the most recent runs are listed. Any of --run, --invariant,
--status, --code or --regressions switches to listing archived failures.
--code matches the code and every code below it. --sql runs a read-only
SELECT against the archive tables (runs, failures, structural_errors, fixes,
snapshots).

Examples:
  clavcheck runs --db runs.db
  clavcheck runs --db runs.db --invariant leg_inv_1 --status failed
  clavcheck runs --db runs.db --code 200.10 --format json
  clavcheck runs --db runs.db --sql "SELECT invariant_id, COUNT(*) FROM failures GROUP BY 1"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "only failures of this run")
	cmd.Flags().StringVar(&opts.Invariant, "invariant", "", "only failures of this invariant")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only failures with this fix status (none|fixed|failed)")
	cmd.Flags().StringVar(&opts.Code, "code", "", "only failures on this code or below it")
	cmd.Flags().BoolVar(&opts.Regressions, "regressions", false, "only failures found by final revalidation")
	cmd.Flags().StringVar(&opts.SQL, "sql", "", "run a SELECT against the archive")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := opts.Config()
	if err != nil {
		return reportCommandError(formatter, WrapExitError(ExitCommandError, "failed to load config",
			&LoadError{Code: ErrCodeConfig, Message: err.Error(), Path: opts.ConfigPath}))
	}
	if cfg.Database == "" {
		return reportCommandError(formatter, NewExitError(ExitCommandError, "no archive: set --db or database in the config"))
	}
	switch report.FixStatus(opts.Status) {
	case "", report.FixNone, report.FixFixed, report.FixFailed:
	default:
		return reportCommandError(formatter, WrapExitError(ExitCommandError, "invalid --status",
			&LoadError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("status %q: must be none, fixed or failed", opts.Status)}))
	}

	if opts.SQL != "" {
		return runSQL(formatter, cfg.Database, opts.SQL, cmd)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return reportCommandError(formatter, WrapExitError(ExitCommandError, "failed to open archive",
			&LoadError{Code: ErrCodeArchive, Message: err.Error(), Path: cfg.Database}))
	}
	defer st.Close()

	ctx := cmd.Context()
	if !opts.filtering() {
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return reportCommandError(formatter, WrapExitError(ExitCommandError, "failed to list runs", err))
		}
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		renderRuns(formatter, runs)
		return nil
	}

	if opts.RunID != "" {
		if _, err := st.ReadRun(ctx, opts.RunID); errors.Is(err, sql.ErrNoRows) {
			return reportCommandError(formatter, WrapExitError(ExitCommandError, "unknown run",
				&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("run %s not in archive", opts.RunID), Path: cfg.Database}))
		} else if err != nil {
			return reportCommandError(formatter, WrapExitError(ExitCommandError, "failed to read run", err))
		}
	}

	rows, err := st.ReadFailures(ctx, store.FailureFilter{
		RunID:           opts.RunID,
		InvariantID:     opts.Invariant,
		Code:            ir.Code(opts.Code),
		Status:          report.FixStatus(opts.Status),
		OnlyRegressions: opts.Regressions,
	})
	if err != nil {
		return reportCommandError(formatter, WrapExitError(ExitCommandError, "failed to read failures", err))
	}
	if opts.Format == "json" {
		return formatter.Success(rows)
	}
	renderFailureRows(formatter, rows)
	return nil
}

func renderRuns(f *OutputFormatter, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs archived.")
		return
	}
	st := newStyles(f.Writer)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Muted).
		Headers("SEQ", "RUN", "CREATED", "SERIALIZABLE", "GRAVE", "FAILURES", "FIXED", "REGRESSIONS")
	for _, r := range runs {
		t.Row(
			fmt.Sprint(r.Seq), r.ID, r.CreatedAt, fmt.Sprint(r.Serializable),
			fmt.Sprint(r.Counts.Grave), fmt.Sprint(r.Counts.Failures),
			fmt.Sprint(r.Counts.Fixed), fmt.Sprint(r.Counts.Regressions),
		)
	}
	fmt.Fprintln(f.Writer, t.Render())
}

func renderFailureRows(f *OutputFormatter, rows []store.FailureRow) {
	if len(rows) == 0 {
		fmt.Fprintln(f.Writer, "No matching failures.")
		return
	}
	st := newStyles(f.Writer)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Muted).
		Headers("RUN", "INVARIANT", "CODE", "STATUS", "MESSAGE")
	for _, r := range rows {
		status := string(r.FixStatus)
		if r.Regression {
			status += " (regression)"
		}
		t.Row(r.RunID, r.InvariantID, string(r.Code), status, r.Message)
	}
	fmt.Fprintln(f.Writer, t.Render())
	fmt.Fprintf(f.Writer, "%s\n", st.Muted.Render(fmt.Sprintf("%d failure(s)", len(rows))))
}

// runSQL prints the result of an ad hoc SELECT run on a read-only
// connection to the archive.
func runSQL(f *OutputFormatter, path, query string, cmd *cobra.Command) error {
	head := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(head, "SELECT") && !strings.HasPrefix(head, "WITH") {
		return reportCommandError(f, WrapExitError(ExitCommandError, "invalid --sql",
			&LoadError{Code: ErrCodeInvalidInput, Message: "only SELECT queries are allowed"}))
	}

	st, err := store.OpenReadOnly(path)
	if err != nil {
		return reportCommandError(f, WrapExitError(ExitCommandError, "failed to open archive",
			&LoadError{Code: ErrCodeArchive, Message: err.Error(), Path: path}))
	}
	defer st.Close()

	rows, err := st.Query(cmd.Context(), query)
	if err != nil {
		return reportCommandError(f, WrapExitError(ExitCommandError, "query failed",
			&LoadError{Code: ErrCodeInvalidInput, Message: err.Error()}))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return reportCommandError(f, WrapExitError(ExitCommandError, "query failed", err))
	}
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return reportCommandError(f, WrapExitError(ExitCommandError, "query failed", err))
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = v.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return reportCommandError(f, WrapExitError(ExitCommandError, "query failed", err))
	}

	if f.Format == "json" {
		records := make([]map[string]string, 0, len(out))
		for _, row := range out {
			rec := make(map[string]string, len(cols))
			for i, c := range cols {
				rec[c] = row[i]
			}
			records = append(records, rec)
		}
		return f.Success(records)
	}

	sty := newStyles(f.Writer)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(sty.Muted).
		Headers(cols...).
		Rows(out...)
	fmt.Fprintln(f.Writer, t.Render())
	fmt.Fprintf(f.Writer, "%s\n", sty.Muted.Render(fmt.Sprintf("%d row(s)", len(out))))
	return nil
}
