package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/engine"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/store"
)

// Assertion type constants.
const (
	AssertFailure      = "failure"
	AssertNoFailure    = "no_failure"
	AssertStructural   = "structural"
	AssertSerializable = "serializable"
	AssertRegressions  = "regressions"
	AssertCommit       = "commit"
	AssertRecord       = "record"
	AssertArchived     = "archived"
)

// Assertion is a check over a scenario run. Which fields apply depends on
// Type; empty fields match anything.
type Assertion struct {
	Type string `yaml:"type"`

	Invariant string `yaml:"invariant,omitempty"`
	Code      string `yaml:"code,omitempty"`
	Status    string `yaml:"status,omitempty"`
	Contains  string `yaml:"contains,omitempty"`

	// Count asks for an exact number of matches instead of at least one.
	Count *int `yaml:"count,omitempty"`

	// structural
	Severity string `yaml:"severity,omitempty"`
	Error    string `yaml:"error,omitempty"`

	// serializable
	Expect *bool `yaml:"expect,omitempty"`

	// record
	Legislation []string       `yaml:"legislation,omitempty"`
	Relation    *RelationMatch `yaml:"relation,omitempty"`
	Criterion   string         `yaml:"criterion,omitempty"`
	Schedule    string         `yaml:"schedule,omitempty"`
}

// RelationMatch selects an edge of a record.
type RelationMatch struct {
	Target string `yaml:"target"`
	Kind   string `yaml:"kind"`
}

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertFailure, AssertNoFailure, AssertCommit:
	case AssertStructural:
		if a.Severity != "" && a.Severity != "grave" && a.Severity != "normal" {
			return fmt.Errorf("severity must be grave or normal, got %q", a.Severity)
		}
	case AssertSerializable:
		if a.Expect == nil {
			return fmt.Errorf("serializable requires expect")
		}
	case AssertRegressions, AssertArchived:
		if a.Count == nil {
			return fmt.Errorf("%s requires count", a.Type)
		}
	case AssertRecord:
		if a.Code == "" {
			return fmt.Errorf("record requires code")
		}
		if a.Criterion != "" && a.Schedule != string(ir.ScheduleRetention) && a.Schedule != string(ir.ScheduleDisposition) {
			return fmt.Errorf("criterion requires schedule %s or %s", ir.ScheduleRetention, ir.ScheduleDisposition)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Count != nil && *a.Count < 0 {
		return fmt.Errorf("count must not be negative")
	}
	return nil
}

// AssertionContext carries what archive assertions need. The archive is
// opened lazily in memory and the run written to it once.
type AssertionContext struct {
	Ctx context.Context

	store   *store.Store
	written bool
}

// Archive returns a store holding run.
func (a *AssertionContext) Archive(run *engine.Result) (*store.Store, error) {
	if a.store == nil {
		s, err := store.Open(":memory:")
		if err != nil {
			return nil, err
		}
		a.store = s
	}
	if !a.written {
		if _, err := a.store.WriteRun(a.ctx(), run.Archive()); err != nil {
			return nil, err
		}
		a.written = true
	}
	return a.store, nil
}

// Close releases the archive, if one was opened.
func (a *AssertionContext) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *AssertionContext) ctx() context.Context {
	if a.Ctx == nil {
		return context.Background()
	}
	return a.Ctx
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	run := result.Run

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFailure:
			err = expectMatches(assertion, matchFailures(run.Report.All(), assertion))
		case AssertNoFailure:
			if n := matchFailures(run.Report.All(), assertion); n > 0 {
				err = &AssertionError{Type: assertion.Type, Expected: "no matching failure", Actual: fmt.Sprintf("%d", n)}
			}
		case AssertStructural:
			err = expectMatches(assertion, matchStructural(run.Report, assertion))
		case AssertSerializable:
			err = assertSerializable(run, assertion)
		case AssertRegressions:
			err = expectMatches(assertion, matchFailures(run.Report.Regressions, assertion))
		case AssertCommit:
			err = expectMatches(assertion, matchCommits(run, assertion))
		case AssertRecord:
			err = assertRecord(run, assertion)
		case AssertArchived:
			if actx == nil {
				err = fmt.Errorf("archived requires an assertion context")
			} else {
				err = assertArchived(actx, run, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}

	return errors
}

// expectMatches checks n against Count, or against at least one.
func expectMatches(a Assertion, n int) error {
	if a.Count != nil {
		if n != *a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d %s", *a.Count, describe(a)), Actual: fmt.Sprintf("%d", n)}
		}
		return nil
	}
	if n == 0 {
		return &AssertionError{Type: a.Type, Expected: "a match for " + describe(a), Actual: "none"}
	}
	return nil
}

func describe(a Assertion) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("invariant", a.Invariant)
	add("code", a.Code)
	add("status", a.Status)
	add("severity", a.Severity)
	add("error", a.Error)
	add("contains", a.Contains)
	if len(parts) == 0 {
		return "any"
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func matchFailures(fs []*report.Failure, a Assertion) int {
	n := 0
	for _, f := range fs {
		if a.Invariant != "" && f.InvariantID != a.Invariant {
			continue
		}
		if a.Code != "" && string(f.Code) != a.Code {
			continue
		}
		if a.Status != "" && string(f.FixStatus) != a.Status {
			continue
		}
		if a.Contains != "" && !strings.Contains(f.Message(), a.Contains) {
			continue
		}
		n++
	}
	return n
}

func matchStructural(rep *report.Report, a Assertion) int {
	var errs []report.StructuralError
	if a.Severity != "normal" {
		errs = append(errs, rep.Grave.DuplicateDeclarations...)
		for _, es := range rep.Grave.InvalidRelations {
			errs = append(errs, es...)
		}
		errs = append(errs, rep.Grave.Other...)
	}
	if a.Severity != "grave" {
		errs = append(errs, rep.Normal...)
	}

	n := 0
	for _, e := range errs {
		if a.Error != "" && e.Code != a.Error {
			continue
		}
		if a.Code != "" && string(e.Subject) != a.Code {
			continue
		}
		if a.Contains != "" && !strings.Contains(e.Message, a.Contains) {
			continue
		}
		n++
	}
	return n
}

func matchCommits(run *engine.Result, a Assertion) int {
	n := 0
	for _, c := range run.Commits {
		if a.Invariant != "" && c.InvariantID != a.Invariant {
			continue
		}
		if a.Code != "" && string(c.Code) != a.Code {
			continue
		}
		if a.Contains != "" && !strings.Contains(c.Description, a.Contains) {
			continue
		}
		n++
	}
	return n
}

func assertSerializable(run *engine.Result, a Assertion) error {
	got := run.Report.Serializable()
	if got != *a.Expect {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%t", *a.Expect), Actual: fmt.Sprintf("%t", got)}
	}
	if got != (run.Output != nil) {
		return fmt.Errorf("serializable is %t but output present is %t", got, run.Output != nil)
	}
	return nil
}

func assertRecord(run *engine.Result, a Assertion) error {
	if run.Output == nil {
		return &AssertionError{Type: a.Type, Expected: "an output record set", Actual: "none (grave errors)"}
	}
	r := findRecord(run.Output, ir.Code(a.Code))
	if r == nil {
		return &AssertionError{Type: a.Type, Expected: "record " + a.Code, Actual: "not in output"}
	}

	for _, leg := range a.Legislation {
		if !slices.Contains(r.LegislationRefs, leg) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s to declare legislation %s", a.Code, leg),
				Actual:   fmt.Sprintf("%v", r.LegislationRefs),
			}
		}
	}

	if m := a.Relation; m != nil {
		kind, ok := ir.ParseRelationKind(m.Kind)
		if !ok {
			return fmt.Errorf("unknown relation kind %q", m.Kind)
		}
		if !slices.Contains(r.Relations, ir.Relation{Target: ir.Code(m.Target), Kind: kind}) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s %s", a.Code, kind, m.Target),
				Actual:   fmt.Sprintf("%v", r.Relations),
			}
		}
	}

	if a.Criterion != "" {
		kind, ok := ir.ParseCriterionKind(a.Criterion)
		if !ok {
			return fmt.Errorf("unknown criterion kind %q", a.Criterion)
		}
		var kinds []ir.CriterionKind
		for _, c := range r.Justification(ir.ScheduleKind(a.Schedule)) {
			kinds = append(kinds, c.Kind)
		}
		if !slices.Contains(kinds, kind) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s criterion on %s", a.Schedule, kind, a.Code),
				Actual:   fmt.Sprintf("%v", kinds),
			}
		}
	}
	return nil
}

func findRecord(set *ir.RecordSet, code ir.Code) *ir.Record {
	for _, sh := range set.Sheets {
		for _, r := range sh.Records {
			if r.Code == code {
				return r
			}
		}
	}
	return nil
}

func assertArchived(actx *AssertionContext, run *engine.Result, a Assertion) error {
	s, err := actx.Archive(run)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	rows, err := s.ReadFailures(actx.ctx(), store.FailureFilter{
		RunID:       run.RunID,
		InvariantID: a.Invariant,
		Code:        ir.Code(a.Code),
		Status:      report.FixStatus(a.Status),
	})
	if err != nil {
		return fmt.Errorf("read archived failures: %w", err)
	}
	return expectMatches(a, len(rows))
}
