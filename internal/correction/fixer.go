package correction

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/invariant"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// Sequencer numbers commits. engine.Clock satisfies it.
type Sequencer interface {
	Next() int64
}

// Observer is told the outcome of every attempted fix.
type Observer interface {
	ObserveFix(invariantID string, status report.FixStatus)
}

// Commit is one entry of the commit log.
type Commit struct {
	Seq         int64     `json:"seq"`
	InvariantID string    `json:"invariant_id"`
	Code        ir.Code   `json:"code"`
	Touched     []ir.Code `json:"touched"`
	Description string    `json:"description"`
}

// Fixer runs the speculative correction protocol against a closed graph.
type Fixer struct {
	rules    *invariant.Set
	planners map[string]Planner
	deps     map[string][]string
	fixable  map[string]bool
	workers  int
	logger   *slog.Logger
	seq      Sequencer
	observer Observer

	mu  sync.Mutex
	log []Commit
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithDependencies overrides the dependency set of the given invariants.
// Used with synthetic rules in tests.
func WithDependencies(deps map[string][]string) Option {
	return func(f *Fixer) {
		for id, d := range deps {
			f.deps[id] = append([]string(nil), d...)
		}
	}
}

// WithPlanner registers or replaces the planner of an invariant.
func WithPlanner(id string, p Planner) Option {
	return func(f *Fixer) { f.planners[id] = p }
}

// WithFixable restricts correction to the given invariant ids. Ids without
// a planner are ignored.
func WithFixable(ids ...string) Option {
	return func(f *Fixer) {
		f.fixable = make(map[string]bool, len(ids))
		for _, id := range ids {
			f.fixable[id] = true
		}
	}
}

// WithWorkers sets how many partitions run at once. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(f *Fixer) { f.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fixer) { f.logger = l }
}

// WithSequencer sets the source of commit sequence numbers.
func WithSequencer(s Sequencer) Option {
	return func(f *Fixer) { f.seq = s }
}

// WithObserver registers an observer for fix outcomes.
func WithObserver(o Observer) Option {
	return func(f *Fixer) { f.observer = o }
}

// New returns a fixer evaluating rules from the given set.
func New(rules *invariant.Set, opts ...Option) *Fixer {
	f := &Fixer{
		rules:    rules,
		planners: DefaultPlanners(),
		deps:     DefaultDependencies(),
		workers:  1,
		logger:   slog.Default(),
		seq:      &counter{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.workers < 1 {
		f.workers = 1
	}
	return f
}

// Fixable returns the ids of invariants this fixer will try to repair,
// sorted.
func (f *Fixer) Fixable() []string {
	ids := make([]string, 0, len(f.planners))
	for id := range f.planners {
		if f.canFix(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (f *Fixer) canFix(id string) bool {
	if _, ok := f.planners[id]; !ok {
		return false
	}
	return f.fixable == nil || f.fixable[id]
}

// Dependencies returns the dependency set used for id.
func (f *Fixer) Dependencies(id string) []string {
	if d, ok := f.deps[id]; ok {
		return d
	}
	return []string{id}
}

// Log returns the commits made so far in sequence order.
func (f *Fixer) Log() []Commit {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]Commit(nil), f.log...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Attempt tries to fix one failure and records the outcome on it. It
// reports whether the fix was committed.
func (f *Fixer) Attempt(cg *graph.ClosedGraph, fl *report.Failure) bool {
	plan, err := f.plan(cg, fl)
	if err != nil {
		f.reject(fl, err.Error())
		return false
	}
	return f.apply(cg, fl, plan)
}

func (f *Fixer) plan(v graph.View, fl *report.Failure) (*Plan, error) {
	p, ok := f.planners[fl.InvariantID]
	if !ok {
		return nil, fmt.Errorf("no fixer for %s", fl.InvariantID)
	}
	return p(v, fl)
}

func (f *Fixer) apply(cg *graph.ClosedGraph, fl *report.Failure, plan *Plan) bool {
	clones := make(map[ir.Code]*ir.Record, len(plan.Touched))
	list := make([]*ir.Record, 0, len(plan.Touched))
	for _, code := range plan.Touched {
		if _, dup := clones[code]; dup {
			continue
		}
		r, ok := cg.Record(code)
		if !ok {
			f.reject(fl, errNotFound.Error())
			return false
		}
		c := r.Clone()
		clones[code] = c
		list = append(list, c)
	}

	scope := invariant.ScopeOf(append([]ir.Code{fl.Code}, plan.Touched...)...)
	deps := f.Dependencies(fl.InvariantID)
	before := f.rules.Check(cg, scope, deps)
	if !holds(before, fl) {
		note := "already resolved"
		if seq, ok := f.lastTouching(plan.Touched); ok {
			note = fmt.Sprintf("resolved by commit %d", seq)
		}
		fl.MarkFixed(note)
		f.observe(fl)
		f.logger.Debug("fix skipped", "invariant", fl.InvariantID, "code", fl.Code, "note", note)
		return false
	}

	if err := plan.Patch(clones); err != nil {
		f.reject(fl, err.Error())
		return false
	}

	after := f.rules.Check(cg.With(list...), scope, deps)
	if added := report.NewKeys(before, after); len(added) > 0 {
		ids := report.InvariantIDs(added)
		f.logger.Debug("fix rejected",
			"invariant", fl.InvariantID,
			"code", fl.Code,
			"introduced", ids,
		)
		f.reject(fl, "fix would break "+strings.Join(ids, ", "))
		return false
	}

	cg.Commit(list...)
	entry := Commit{
		Seq:         f.seq.Next(),
		InvariantID: fl.InvariantID,
		Code:        fl.Code,
		Touched:     append([]ir.Code(nil), plan.Touched...),
		Description: plan.Description,
	}
	f.mu.Lock()
	f.log = append(f.log, entry)
	f.mu.Unlock()

	fl.MarkFixed(plan.Description)
	f.observe(fl)
	f.logger.Debug("fix committed",
		"invariant", fl.InvariantID,
		"code", fl.Code,
		"seq", entry.Seq,
	)
	return true
}

// holds reports whether fl is still among fs.
func holds(fs []*report.Failure, fl *report.Failure) bool {
	key := fl.Key()
	for _, x := range fs {
		if x.Key() == key {
			return true
		}
	}
	return false
}

// lastTouching returns the seq of the latest commit that rewrote any of
// codes.
func (f *Fixer) lastTouching(codes []ir.Code) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var seq int64
	for _, c := range f.log {
		if c.Seq > seq && slices.ContainsFunc(c.Touched, func(code ir.Code) bool {
			return slices.Contains(codes, code)
		}) {
			seq = c.Seq
		}
	}
	return seq, seq > 0
}

func (f *Fixer) reject(fl *report.Failure, note string) {
	fl.MarkFailed(note)
	f.observe(fl)
}

func (f *Fixer) observe(fl *report.Failure) {
	if f.observer != nil {
		f.observer.ObserveFix(fl.InvariantID, fl.FixStatus)
	}
}

// Run attempts every fixable failure in fs that has not been attempted
// yet. Failures are partitioned by the records their fixes touch; each
// partition runs in failure order, partitions run concurrently. It returns
// the number of committed fixes.
func (f *Fixer) Run(ctx context.Context, cg *graph.ClosedGraph, fs []*report.Failure) (int, error) {
	type job struct {
		failure *report.Failure
		plan    *Plan
	}

	uf := newUnionFind()
	var jobs []job
	for _, fl := range fs {
		if fl.FixStatus != report.FixNone || !f.canFix(fl.InvariantID) {
			continue
		}
		plan, err := f.plan(cg, fl)
		if err != nil {
			f.reject(fl, err.Error())
			continue
		}
		uf.add(fl.Code)
		for _, code := range plan.Touched {
			uf.union(fl.Code, code)
		}
		jobs = append(jobs, job{failure: fl, plan: plan})
	}

	var roots []ir.Code
	partitions := make(map[ir.Code][]job)
	for _, j := range jobs {
		root := uf.find(j.failure.Code)
		if _, ok := partitions[root]; !ok {
			roots = append(roots, root)
		}
		partitions[root] = append(partitions[root], j)
	}

	f.logger.Info("correcting failures",
		"attempts", len(jobs),
		"partitions", len(roots),
		"workers", f.workers,
	)

	var fixed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, root := range roots {
		part := partitions[root]
		g.Go(func() error {
			for _, j := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				if f.apply(cg, j.failure, j.plan) {
					fixed.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(fixed.Load()), fmt.Errorf("correction cancelled: %w", err)
	}
	return int(fixed.Load()), nil
}

type counter struct {
	n atomic.Int64
}

func (c *counter) Next() int64 {
	return c.n.Add(1)
}
