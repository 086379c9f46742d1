package cli

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/correction"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/invariant"
)

// RuleInfo describes one invariant of the catalogue.
type RuleInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Fixable     bool     `json:"fixable"`
	Disturbs    []string `json:"disturbs,omitempty"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the invariant catalogue",
		Long: `List every invariant with its description and whether a correction exists.

Fixability honours the fixable whitelist of the config file. For fixable
invariants, the invariants a correction is checked against are listed too.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, cmd)
		},
	}
	return cmd
}

// ListRules returns the catalogue in id order. fixable restricts
// corrections as the fixable config key does.
func ListRules(fixable []string) []RuleInfo {
	var fopts []correction.Option
	if len(fixable) > 0 {
		fopts = append(fopts, correction.WithFixable(fixable...))
	}
	fixer := correction.New(invariant.Default(), fopts...)
	canFix := fixer.Fixable()
	deps := correction.DefaultDependencies()

	rules := invariant.Catalogue()
	out := make([]RuleInfo, 0, len(rules))
	for _, r := range rules {
		info := RuleInfo{ID: r.ID, Description: r.Description}
		if slices.Contains(canFix, r.ID) {
			info.Fixable = true
			info.Disturbs = deps[r.ID]
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b RuleInfo) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func runRules(opts *RootOptions, cmd *cobra.Command) error {
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
	rules := ListRules(cfg.Fixable)

	if opts.Format == "json" {
		return formatter.Success(rules)
	}

	st := newStyles(formatter.Writer)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Muted).
		Headers("ID", "FIX", "DESCRIPTION")
	fixable := 0
	for _, r := range rules {
		fix := "-"
		if r.Fixable {
			fix = "yes"
			fixable++
		}
		t.Row(r.ID, fix, r.Description)
	}
	fmt.Fprintln(formatter.Writer, t.Render())
	fmt.Fprintf(formatter.Writer, "\n%s\n", st.Muted.Render(fmt.Sprintf("%d invariants, %d fixable", len(rules), fixable)))
	return nil
}
