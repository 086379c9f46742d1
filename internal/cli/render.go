package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

const (
	iconOK    = "✓"
	iconError = "✗"
	iconWarn  = "⚠"
)

// renderSummary writes the text form of a run summary.
func renderSummary(w io.Writer, s *RunSummary, verbose bool) {
	st := newStyles(w)

	fmt.Fprintf(w, "%s %s\n", st.Title.Render("Run"), s.RunID)
	fmt.Fprintf(w, "  %s\n", st.Muted.Render(fmt.Sprintf("%d records, input %s", s.Records, shortDigest(s.InputDigest))))
	if s.ArchiveSeq > 0 {
		fmt.Fprintf(w, "  %s\n", st.Muted.Render(fmt.Sprintf("archived as #%d", s.ArchiveSeq)))
	}

	rep := s.Report
	if grave := graveErrors(rep); len(grave) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", st.Error.Render(iconError), st.Title.Render(fmt.Sprintf("Grave errors (%d)", len(grave))))
		for _, e := range grave {
			fmt.Fprintf(w, "  %s %s %s\n", st.Code.Render(e.Code), e.Subject, e.Message)
		}
	}
	if len(rep.Normal) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", st.Warning.Render(iconWarn), st.Title.Render(fmt.Sprintf("Normal errors (%d)", len(rep.Normal))))
		for _, e := range rep.Normal {
			fmt.Fprintf(w, "  %s %s %s\n", st.Code.Render(e.Code), e.Subject, e.Message)
		}
	}

	all := rep.All()
	if len(all) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.Title.Render(fmt.Sprintf("Invariant failures (%d, fixed %d, failed %d)",
			len(all), s.Counts.Fixed, s.Counts.FixFailed)))
		for _, f := range all {
			renderFailure(w, st, f)
		}
	}
	if len(rep.Regressions) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", st.Error.Render(iconError), st.Title.Render(fmt.Sprintf("Regressions (%d)", len(rep.Regressions))))
		for _, f := range rep.Regressions {
			renderFailure(w, st, f)
		}
	}

	if len(s.Commits) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.Title.Render(fmt.Sprintf("Corrections (%d)", len(s.Commits))))
		for _, c := range s.Commits {
			fmt.Fprintf(w, "  #%d %s %s %s\n", c.Seq, c.InvariantID, c.Code, c.Description)
		}
	}

	if n := rep.Warnings.Count(); n > 0 {
		fmt.Fprintf(w, "\n%s\n", st.Muted.Render(fmt.Sprintf("%d warning(s)", n)))
		if verbose {
			renderWarnings(w, st, &rep.Warnings)
		}
	}

	if s.Output != "" {
		fmt.Fprintf(w, "\nCorrected record set written to %s\n", s.Output)
	}

	fmt.Fprintln(w)
	if s.Passed() {
		fmt.Fprintf(w, "%s %s\n", st.Success.Render(iconOK), "No open problems")
		return
	}
	if !s.Serializable {
		fmt.Fprintf(w, "%s %s\n", st.Error.Render(iconError), "Not serializable")
		return
	}
	fmt.Fprintf(w, "%s %s\n", st.Error.Render(iconError), fmt.Sprintf("%d open failure(s), %d regression(s)", s.Open, s.Counts.Regressions))
}

func renderFailure(w io.Writer, st styles, f *report.Failure) {
	status := ""
	switch f.FixStatus {
	case report.FixFixed:
		status = " " + st.Success.Render("[fixed]")
	case report.FixFailed:
		status = " " + st.Warning.Render("[fix failed: "+f.FixNote+"]")
	}
	fmt.Fprintf(w, "  %s %s %s%s\n", st.Code.Render(f.InvariantID), f.Code, f.Message(), status)
}

func renderWarnings(w io.Writer, st styles, ws *report.Warnings) {
	for _, e := range ws.InferredEdges {
		fmt.Fprintf(w, "  %s %s -> %s (%s)\n", st.Muted.Render("inferred"), e.From, e.To, e.Kind)
	}
	for _, n := range ws.HarmonizationNotices {
		fmt.Fprintf(w, "  %s %s %s\n", st.Muted.Render("harmonization"), n.Code, n.Message)
	}
	for _, n := range ws.RelationsTouchingHarmonized {
		fmt.Fprintf(w, "  %s %s %s\n", st.Muted.Render("harmonized"), n.Code, n.Message)
	}
	for _, g := range ws.Generic {
		fmt.Fprintf(w, "  %s\n", g)
	}
}

// graveErrors flattens the grave buckets: duplicates, invalid relations by
// target, then the rest.
func graveErrors(rep *report.Report) []report.StructuralError {
	out := append([]report.StructuralError(nil), rep.Grave.DuplicateDeclarations...)
	targets := make([]string, 0, len(rep.Grave.InvalidRelations))
	for t := range rep.Grave.InvalidRelations {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, t := range targets {
		out = append(out, rep.Grave.InvalidRelations[t]...)
	}
	return append(out, rep.Grave.Other...)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
