package graph

import (
	"fmt"
	"log/slog"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// Graph is a loaded but not yet closed record graph.
type Graph struct {
	store       *Store
	harmonizing map[ir.Code]bool
	indexTerms  []ir.IndexTerm
	catalogs    ir.Catalogs
	report      *report.Report
	logger      *slog.Logger

	pending []report.InferredEdge
	closed  *ClosedGraph
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	report *report.Report
	logger *slog.Logger
}

// WithReport makes Build append to an existing report instead of a new one.
func WithReport(r *report.Report) BuildOption {
	return func(c *buildConfig) {
		c.report = r
	}
}

// WithLogger sets the logger used during loading and closure.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = l
	}
}

// Build loads set into a fresh record store. The input is cloned, so the
// caller's records are never mutated.
//
// Build never fails: every problem is recorded in the returned report, and
// every record is still loaded so a complete report can be produced.
func Build(set ir.RecordSet, opts ...BuildOption) (*Graph, *report.Report) {
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.report == nil {
		cfg.report = report.New()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	set = set.Clone()
	g := &Graph{
		store:       newStore(set.Len()),
		harmonizing: make(map[ir.Code]bool),
		indexTerms:  set.IndexTerms,
		catalogs:    set.Catalogs,
		report:      cfg.report,
		logger:      cfg.logger,
	}

	for _, sheet := range set.Sheets {
		for _, r := range sheet.Records {
			if r == nil {
				continue
			}
			if !g.store.insert(r) {
				g.report.AddDuplicate(report.StructuralError{
					Code:    report.ErrDuplicateDeclaration,
					Subject: r.Code,
					Message: fmt.Sprintf("code declared more than once (again in sheet %s)", sheet.Name),
					Sheet:   sheet.Name,
				})
			}
		}
	}

	codes := g.store.Codes()
	g.classify(codes)
	g.deriveChildren(codes)

	var legislation map[string]bool
	if set.Catalogs.Legislation != nil {
		legislation = make(map[string]bool, len(set.Catalogs.Legislation))
		for _, id := range set.Catalogs.Legislation {
			legislation[id] = true
		}
	} else {
		g.report.AddWarning("legislation catalog not provided: legislation references not checked")
	}

	for _, code := range codes {
		r, _ := g.store.Get(code)
		if !r.Checked() {
			continue
		}
		g.checkReferences(r, legislation)
	}
	g.checkIndexTerms()
	g.pending = g.missingMirrors(codes)

	g.logger.Debug("record set loaded",
		"records", len(codes),
		"harmonizing", len(g.harmonizing),
		"pending_mirrors", len(g.pending))

	return g, g.report
}

// classify sorts records by state and checks code shape and parent linkage.
func (g *Graph) classify(codes []ir.Code) {
	for _, code := range codes {
		r, _ := g.store.Get(code)

		if r.State == ir.StateHarmonizing {
			g.harmonizing[code] = true
			g.report.AddHarmonizationNotice(report.Notice{
				Code:    code,
				Message: "record is in harmonization and was not checked",
			})
			continue
		}
		if !code.Valid() {
			g.report.AddGrave(report.StructuralError{
				Code:    report.ErrMalformedCode,
				Subject: code,
				Message: "code does not match any level shape",
			})
			continue
		}
		if r.Level() != 4 || !r.State.Checked() {
			continue
		}

		parent := code.Parent()
		p, ok := g.store.Get(parent)
		switch {
		case !ok:
			g.report.AddNormal(report.StructuralError{
				Code:    report.ErrMissingParent,
				Subject: code,
				Message: fmt.Sprintf("parent %s not declared", parent),
			})
		case p.State == ir.StateHarmonizing:
			g.report.AddNormal(report.StructuralError{
				Code:    report.ErrHarmonizingParent,
				Subject: code,
				Message: fmt.Sprintf("parent %s is harmonizing", parent),
			})
		}
	}
}

// deriveChildren fills Children on level-3 records from the level-4 codes
// one segment below them. Harmonizing level-4 records are not children.
func (g *Graph) deriveChildren(codes []ir.Code) {
	byParent := make(map[ir.Code][]ir.Code)
	for _, code := range codes {
		if code.Level() != 4 || g.harmonizing[code] {
			continue
		}
		byParent[code.Parent()] = append(byParent[code.Parent()], code)
	}
	for parent, children := range byParent {
		r, ok := g.store.Get(parent)
		if !ok || r.Level() != 3 {
			continue
		}
		r.Children = children
	}
}

// checkReferences resolves relation targets, criterion process refs and
// legislation refs of one checked record. legislation is nil when no
// catalog was provided.
func (g *Graph) checkReferences(r *ir.Record, legislation map[string]bool) {
	for _, rel := range r.Relations {
		g.resolveCode(r.Code, rel.Target, report.ErrInvalidRelation,
			fmt.Sprintf("relation %s to undeclared %s", rel.Kind, rel.Target))
	}

	for _, s := range []ir.ScheduleKind{ir.ScheduleRetention, ir.ScheduleDisposition} {
		for _, c := range r.Justification(s) {
			for _, ref := range c.ProcessRefs {
				g.resolveCode(r.Code, ref, report.ErrInvalidProcessRef,
					fmt.Sprintf("criterion %s references undeclared process %s", c.ID, ref))
			}
			if legislation == nil {
				continue
			}
			for _, leg := range c.LegislationRefs {
				if !legislation[leg] {
					g.report.AddInvalidRelation(leg, report.StructuralError{
						Code:    report.ErrUnknownLegislation,
						Subject: r.Code,
						Message: fmt.Sprintf("criterion %s references unknown legislation %s", c.ID, leg),
					})
				}
			}
		}
	}

	if legislation == nil {
		return
	}
	for _, leg := range r.LegislationRefs {
		if !legislation[leg] {
			g.report.AddInvalidRelation(leg, report.StructuralError{
				Code:    report.ErrUnknownLegislation,
				Subject: r.Code,
				Message: fmt.Sprintf("unknown legislation %s in context", leg),
			})
		}
	}
}

func (g *Graph) resolveCode(from, target ir.Code, errCode, msg string) {
	t, ok := g.store.Get(target)
	switch {
	case !ok:
		g.report.AddInvalidRelation(string(target), report.StructuralError{
			Code:    errCode,
			Subject: from,
			Message: msg,
		})
	case t.State == ir.StateHarmonizing:
		g.report.AddTouchingHarmonized(report.Notice{
			Code:    from,
			Related: target,
			Message: fmt.Sprintf("references %s, which is in harmonization", target),
		})
	}
}

func (g *Graph) checkIndexTerms() {
	for _, t := range g.indexTerms {
		if _, ok := g.store.Get(t.Code); !ok {
			g.report.AddGrave(report.StructuralError{
				Code:    report.ErrUnknownIndexCode,
				Subject: t.Code,
				Message: fmt.Sprintf("index term %q references undeclared code", t.Term),
			})
		}
	}
}

// missingMirrors returns the closing edges absent from checked targets,
// deduplicated, in code order.
func (g *Graph) missingMirrors(codes []ir.Code) []report.InferredEdge {
	type key struct {
		from, to ir.Code
		kind     ir.RelationKind
	}
	seen := make(map[key]bool)
	var out []report.InferredEdge

	for _, code := range codes {
		r, _ := g.store.Get(code)
		if !r.Checked() {
			continue
		}
		for _, rel := range r.Relations {
			mirror, ok := rel.Kind.Mirror()
			if !ok || rel.Target == code {
				continue
			}
			t, ok := g.store.Get(rel.Target)
			if !ok || !t.Checked() || t.HasRelation(code, mirror) {
				continue
			}
			k := key{from: rel.Target, to: code, kind: mirror}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, report.InferredEdge{From: rel.Target, To: code, Kind: mirror})
		}
	}
	return out
}

// insertEdges appends the queued edges to their source records.
func (g *Graph) insertEdges(edges []report.InferredEdge) {
	for _, e := range edges {
		r, ok := g.store.Get(e.From)
		if !ok {
			continue
		}
		r.Relations = append(r.Relations, ir.Relation{Target: e.To, Kind: e.Kind})
		g.report.AddInferredEdge(e)
	}
}

// Close applies the queued mirror insertions once and returns the closed
// graph. Calling Close again returns the same closed graph.
func (g *Graph) Close() *ClosedGraph {
	if g.closed != nil {
		return g.closed
	}
	g.insertEdges(g.pending)
	g.logger.Debug("closure applied", "inferred_edges", len(g.pending))
	g.pending = nil

	var checked []ir.Code
	for _, code := range g.store.Codes() {
		if r, _ := g.store.Get(code); r.Checked() {
			checked = append(checked, code)
		}
	}

	g.closed = &ClosedGraph{g: g, checked: checked}
	return g.closed
}

// Pending returns the mirror edges that Close will insert.
func (g *Graph) Pending() []report.InferredEdge {
	return append([]report.InferredEdge(nil), g.pending...)
}

// Report returns the report Build wrote to.
func (g *Graph) Report() *report.Report {
	return g.report
}
