package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/compiler"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/correction"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/invariant"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/metrics"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/store"
)

// File is one record file handed to a run.
type File struct {
	Name string
	Data []byte
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	CreatedAt   time.Time
	InputDigest string
	Records     int

	Report  *report.Report
	Commits []correction.Commit

	// Output is the closed, corrected record set. Nil when the report has
	// grave errors.
	Output *ir.RecordSet
}

// Archive converts the result to an archive row.
func (r *Result) Archive() store.RunWrite {
	return store.RunWrite{
		ID:          r.RunID,
		CreatedAt:   r.CreatedAt,
		InputDigest: r.InputDigest,
		Report:      r.Report,
		Fixes:       r.Commits,
		Snapshot:    r.Output,
	}
}

// Pipeline runs validations. A Pipeline may be reused; runs are serialized
// because the schema compiler is not safe for concurrent use.
type Pipeline struct {
	mu sync.Mutex

	compiler   *compiler.Compiler
	rules      *invariant.Set
	runIDs     RunIDGenerator
	logger     *slog.Logger
	metrics    *metrics.Recorder
	now        func() time.Time
	workers    int
	autofix    bool
	revalidate bool
	fixable    []string
	fixerOpts  []correction.Option
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRules replaces the default invariant set.
func WithRules(s *invariant.Set) Option {
	return func(p *Pipeline) {
		p.rules = s
	}
}

// WithRunIDs sets the run id generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(p *Pipeline) {
		p.runIDs = g
	}
}

// WithLogger sets the logger passed down to every phase.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics records phase timings, fix outcomes and report totals.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithClock sets the wall clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithWorkers bounds rule evaluation and correction partitions.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithAutofix enables the correction phase.
func WithAutofix(on bool) Option {
	return func(p *Pipeline) {
		p.autofix = on
	}
}

// WithRevalidation toggles the final revalidation. Default: on.
func WithRevalidation(on bool) Option {
	return func(p *Pipeline) {
		p.revalidate = on
	}
}

// WithFixable restricts corrections to the given invariant ids.
func WithFixable(ids ...string) Option {
	return func(p *Pipeline) {
		p.fixable = ids
	}
}

// WithFixerOptions passes extra options to the correction engine.
func WithFixerOptions(opts ...correction.Option) Option {
	return func(p *Pipeline) {
		p.fixerOpts = append(p.fixerOpts, opts...)
	}
}

// New creates a Pipeline with the default invariant set.
func New(opts ...Option) (*Pipeline, error) {
	c, err := compiler.New()
	if err != nil {
		return nil, fmt.Errorf("load record schema: %w", err)
	}
	p := &Pipeline{
		compiler:   c,
		rules:      invariant.Default(),
		runIDs:     UUIDv7Generator{},
		logger:     slog.Default(),
		now:        time.Now,
		workers:    1,
		revalidate: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Rules returns the invariant set the pipeline evaluates.
func (p *Pipeline) Rules() *invariant.Set {
	return p.rules
}

// Run compiles files and validates the merged record set.
func (p *Pipeline) Run(ctx context.Context, files []File) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runID := p.runIDs.Generate()
	if len(files) == 0 {
		return nil, &RuntimeError{Code: ErrCodeNoInput, Message: "no record files", RunID: runID}
	}

	start := time.Now()
	units := make([]*compiler.Unit, 0, len(files))
	for _, f := range files {
		u, err := p.compiler.CompileFile(f.Name, f.Data)
		if err != nil {
			return nil, newCompileError(runID, f.Name, err)
		}
		units = append(units, u)
	}
	unit := compiler.Merge(units...)
	p.observePhase("compile", start)

	rep := report.New()
	for _, e := range unit.Structural {
		rep.AddGrave(e)
	}
	for _, v := range compiler.Validate(unit.Set) {
		rep.AddNormal(report.StructuralError{
			Code:    v.Code,
			Subject: v.Subject,
			Message: v.Field + ": " + v.Message,
		})
	}

	p.logger.Info("record files compiled",
		"run", runID,
		"files", len(files),
		"records", unit.Set.Len(),
		"structural", len(unit.Structural),
	)
	return p.run(ctx, runID, unit.Set, rep)
}

// RunSet validates an already decoded record set.
func (p *Pipeline) RunSet(ctx context.Context, set ir.RecordSet) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runID := p.runIDs.Generate()
	rep := report.New()
	for _, v := range compiler.Validate(set) {
		rep.AddNormal(report.StructuralError{
			Code:    v.Code,
			Subject: v.Subject,
			Message: v.Field + ": " + v.Message,
		})
	}
	return p.run(ctx, runID, set, rep)
}

func (p *Pipeline) run(ctx context.Context, runID string, set ir.RecordSet, rep *report.Report) (*Result, error) {
	res := &Result{RunID: runID, CreatedAt: p.now(), Report: rep}

	digest, err := ir.SetDigest(set)
	if err != nil {
		return nil, &RuntimeError{Code: ErrCodeDigest, Message: "hash input", RunID: runID, Err: err}
	}
	res.InputDigest = digest

	start := time.Now()
	g, _ := graph.Build(set, graph.WithReport(rep), graph.WithLogger(p.logger))
	cg := g.Close()
	res.Records = cg.Len()
	p.observePhase("build", start)
	if p.metrics != nil {
		p.metrics.ObserveRecords(res.Records)
	}

	start = time.Now()
	failures, err := p.rules.Evaluate(ctx, cg, p.workers)
	if err != nil {
		return nil, newCancelledError(runID, "evaluate", err)
	}
	rep.AddFailures(failures)
	p.observePhase("evaluate", start)

	p.logger.Info("invariants evaluated",
		"run", runID,
		"rules", p.rules.Len(),
		"failures", len(failures),
		"serializable", rep.Serializable(),
	)

	if p.autofix {
		start = time.Now()
		fixer := correction.New(p.rules, p.fixerOptions()...)
		fixed, err := fixer.Run(ctx, cg, failures)
		if err != nil {
			return nil, newCancelledError(runID, "correct", err)
		}
		res.Commits = fixer.Log()
		p.observePhase("correct", start)

		p.logger.Info("corrections applied", "run", runID, "fixed", fixed)

		if p.revalidate {
			start = time.Now()
			after, err := p.rules.Evaluate(ctx, cg, p.workers)
			if err != nil {
				return nil, newCancelledError(runID, "revalidate", err)
			}
			regressions := report.NewKeys(failures, after)
			rep.SetRegressions(regressions)
			p.observePhase("revalidate", start)

			if len(regressions) > 0 {
				p.logger.Warn("corrections introduced new failures",
					"run", runID,
					"regressions", len(regressions))
			}
		}
	}

	rep.Sort()
	if rep.Serializable() {
		out := cg.Export()
		res.Output = &out
	}
	if p.metrics != nil {
		p.metrics.ObserveReport(rep)
	}
	return res, nil
}

func (p *Pipeline) fixerOptions() []correction.Option {
	opts := []correction.Option{
		correction.WithWorkers(p.workers),
		correction.WithLogger(p.logger),
		correction.WithSequencer(NewClock()),
	}
	if len(p.fixable) > 0 {
		opts = append(opts, correction.WithFixable(p.fixable...))
	}
	if p.metrics != nil {
		opts = append(opts, correction.WithObserver(p.metrics))
	}
	return append(opts, p.fixerOpts...)
}

func (p *Pipeline) observePhase(phase string, start time.Time) {
	d := time.Since(start)
	p.logger.Debug("phase complete", "phase", phase, "duration", d)
	if p.metrics != nil {
		p.metrics.ObservePhase(phase, d)
	}
}
