package invariant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// CheckFunc evaluates one rule.
type CheckFunc func(v graph.View, s Scope) []*report.Failure

// Rule is one invariant of the catalogue.
type Rule struct {
	ID          string
	Description string
	Check       CheckFunc
}

// Scope restricts evaluation to a set of codes. A nil Scope means all.
type Scope map[ir.Code]bool

// ScopeOf returns a scope holding the given codes.
func ScopeOf(codes ...ir.Code) Scope {
	s := make(Scope, len(codes))
	for _, c := range codes {
		s[c] = true
	}
	return s
}

// Has reports whether code is in scope.
func (s Scope) Has(code ir.Code) bool {
	return s == nil || s[code]
}

// Set is an ordered, id-unique collection of rules.
type Set struct {
	rules []Rule
	byID  map[string]int
}

// NewSet builds a set. Rule ids must be unique and non-empty.
func NewSet(rules ...Rule) (*Set, error) {
	s := &Set{byID: make(map[string]int, len(rules))}
	for _, r := range rules {
		if r.ID == "" || r.Check == nil {
			return nil, fmt.Errorf("invalid rule %q: id and check are required", r.ID)
		}
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		s.byID[r.ID] = len(s.rules)
		s.rules = append(s.rules, r)
	}
	return s, nil
}

// MustNewSet is like NewSet but panics on error.
func MustNewSet(rules ...Rule) *Set {
	s, err := NewSet(rules...)
	if err != nil {
		panic(err)
	}
	return s
}

// Rules returns the rules in registration order.
func (s *Set) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// IDs returns the rule ids in registration order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.rules))
	for i, r := range s.rules {
		ids[i] = r.ID
	}
	return ids
}

// Lookup returns the rule with the given id.
func (s *Set) Lookup(id string) (Rule, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Len returns the number of rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Evaluate runs every rule over the whole view, at most workers at a time,
// and returns the failures sorted. workers < 1 means 1.
//
// Each rule writes its own result slot, so merging is deterministic whatever
// the interleaving.
func (s *Set) Evaluate(ctx context.Context, v graph.View, workers int) ([]*report.Failure, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([][]*report.Failure, len(s.rules))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, r := range s.rules {
		i, r := i, r
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = run(r, v, nil)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}

	var all []*report.Failure
	for _, fs := range results {
		all = append(all, fs...)
	}
	report.SortFailures(all)
	return all, nil
}

// Check runs the rules named by ids over scope, sequentially. Unknown ids
// are skipped. Results are sorted.
func (s *Set) Check(v graph.View, scope Scope, ids []string) []*report.Failure {
	var out []*report.Failure
	for _, id := range ids {
		r, ok := s.Lookup(id)
		if !ok {
			continue
		}
		out = append(out, run(r, v, scope)...)
	}
	report.SortFailures(out)
	return out
}

// run evaluates one rule, turning a panic into a failure.
func run(r Rule, v graph.View, scope Scope) (out []*report.Failure) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("rule panicked", "rule", r.ID, "panic", p)
			out = []*report.Failure{report.NewFailure(r.ID, "", report.Text{
				Text: fmt.Sprintf("rule evaluation aborted: %v", p),
			})}
		}
	}()
	return r.Check(v, scope)
}

// records returns the checked records in scope, sorted by code.
func records(v graph.View, s Scope) []*ir.Record {
	if s == nil {
		return v.Checked()
	}
	codes := make([]ir.Code, 0, len(s))
	for c := range s {
		if v.IsChecked(c) {
			codes = append(codes, c)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	out := make([]*ir.Record, 0, len(codes))
	for _, c := range codes {
		if r, ok := v.Record(c); ok {
			out = append(out, r)
		}
	}
	return out
}

// withFamily widens a non-nil scope with the children of scoped level-3
// records and the parents of scoped level-4 records.
func withFamily(v graph.View, s Scope) Scope {
	if s == nil {
		return nil
	}
	out := make(Scope, len(s))
	for c := range s {
		out[c] = true
		if c.Level() == 4 {
			out[c.Parent()] = true
		}
		if r, ok := v.Record(c); ok {
			for _, child := range r.Children {
				out[child] = true
			}
		}
	}
	return out
}

// leaves filters rs to level-3 records without children.
func leaves(rs []*ir.Record) []*ir.Record {
	var out []*ir.Record
	for _, r := range rs {
		if r.IsLeaf() {
			out = append(out, r)
		}
	}
	return out
}

// atLevel filters rs to one level.
func atLevel(rs []*ir.Record, level int) []*ir.Record {
	var out []*ir.Record
	for _, r := range rs {
		if r.Level() == level {
			out = append(out, r)
		}
	}
	return out
}
