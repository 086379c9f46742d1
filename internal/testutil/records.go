package testutil

import (
	"sort"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

// RecordOption customizes a record built by Rec.
type RecordOption func(*ir.Record)

// Rec builds an Active record with a title derived from its code.
//
// Example:
//
//	r := testutil.Rec("200.10.001",
//		testutil.Rel("200.10.005", ir.SupplementOf),
//		testutil.PCA(),
//		testutil.DF("C"),
//	)
func Rec(code string, opts ...RecordOption) *ir.Record {
	r := &ir.Record{
		Code:  ir.Code(code),
		State: ir.StateActive,
		Title: "Processo " + code,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Leaf builds a level-3 record that satisfies every presence rule:
// retention schedule, disposition C and one owner.
func Leaf(code string, opts ...RecordOption) *ir.Record {
	base := []RecordOption{PCA(), DF(ir.DispositionConservation), Owners("ent_A")}
	return Rec(code, append(base, opts...)...)
}

// State sets the lifecycle state.
func State(s ir.State) RecordOption {
	return func(r *ir.Record) { r.State = s }
}

// Rel appends a relation edge.
func Rel(target string, kind ir.RelationKind) RecordOption {
	return func(r *ir.Record) {
		r.Relations = append(r.Relations, ir.Relation{Target: ir.Code(target), Kind: kind})
	}
}

// PCA sets a retention schedule with the given criteria.
func PCA(criteria ...ir.Criterion) RecordOption {
	return func(r *ir.Record) {
		r.Retention = &ir.RetentionSchedule{Values: []string{"5"}, Justification: criteria}
	}
}

// DF sets a final disposition with the given value and criteria.
func DF(value string, criteria ...ir.Criterion) RecordOption {
	return func(r *ir.Record) {
		r.Disposition = &ir.FinalDisposition{Value: value, Justification: criteria}
	}
}

// NoPCA removes the retention schedule.
func NoPCA() RecordOption {
	return func(r *ir.Record) { r.Retention = nil }
}

// NoDF removes the final disposition.
func NoDF() RecordOption {
	return func(r *ir.Record) { r.Disposition = nil }
}

// Legislation appends ids to the record's legislation refs.
func Legislation(ids ...string) RecordOption {
	return func(r *ir.Record) { r.LegislationRefs = append(r.LegislationRefs, ids...) }
}

// Owners replaces the owner list.
func Owners(ids ...string) RecordOption {
	return func(r *ir.Record) { r.Owners = ids }
}

// Transversal marks the record transversal with the given participants.
func Transversal(entities ...string) RecordOption {
	return func(r *ir.Record) {
		r.Transversal = true
		for _, e := range entities {
			r.Participants = append(r.Participants, ir.Participant{Entity: e, Role: "iniciador"})
		}
	}
}

// Participants adds participants without touching the transversal flag.
func Participants(entities ...string) RecordOption {
	return func(r *ir.Record) {
		for _, e := range entities {
			r.Participants = append(r.Participants, ir.Participant{Entity: e, Role: "executor"})
		}
	}
}

// Notes appends notes with the given ids.
func Notes(ids ...string) RecordOption {
	return func(r *ir.Record) {
		for _, id := range ids {
			r.Notes = append(r.Notes, ir.Note{ID: id, Text: "nota " + id})
		}
	}
}

// Crit builds a criterion.
func Crit(id string, kind ir.CriterionKind, refs ...string) ir.Criterion {
	c := ir.Criterion{ID: id, Kind: kind, Content: string(kind)}
	for _, ref := range refs {
		c.ProcessRefs = append(c.ProcessRefs, ir.Code(ref))
	}
	return c
}

// LegalCrit builds a legal criterion citing the given legislation.
func LegalCrit(id string, legislation ...string) ir.Criterion {
	return ir.Criterion{ID: id, Kind: ir.CriterionLegal, Content: "legal", LegislationRefs: legislation}
}

// Set groups records into sheets by top-level code. The legislation catalog
// is left nil, so legislation references are not checked.
func Set(recs ...*ir.Record) ir.RecordSet {
	bySheet := make(map[ir.Code][]*ir.Record)
	var roots []ir.Code
	for _, r := range recs {
		root := r.Code.Root()
		if _, ok := bySheet[root]; !ok {
			roots = append(roots, root)
		}
		bySheet[root] = append(bySheet[root], r)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	var set ir.RecordSet
	for _, root := range roots {
		set.Sheets = append(set.Sheets, ir.Sheet{Name: string(root), Records: bySheet[root]})
	}
	return set
}

// SetWithLegislation is Set with a legislation catalog.
func SetWithLegislation(legislation []string, recs ...*ir.Record) ir.RecordSet {
	set := Set(recs...)
	set.Catalogs.Legislation = legislation
	if set.Catalogs.Legislation == nil {
		set.Catalogs.Legislation = []string{}
	}
	return set
}
