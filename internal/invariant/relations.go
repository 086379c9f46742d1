package invariant

import (
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

func checkSelfRelation(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range records(v, scope) {
		for _, rel := range r.Relations {
			if rel.Target == r.Code {
				out = append(out, report.NewFailure("rel_1_inv_1", r.Code, report.SelfRelation{Kind: rel.Kind}))
			}
		}
	}
	return out
}

func checkDuplicateRelation(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range records(v, scope) {
		byTarget := make(map[ir.Code][]ir.RelationKind)
		var order []ir.Code
		for _, rel := range r.Relations {
			if _, ok := byTarget[rel.Target]; !ok {
				order = append(order, rel.Target)
			}
			byTarget[rel.Target] = append(byTarget[rel.Target], rel.Kind)
		}
		for _, target := range order {
			if kinds := byTarget[target]; len(kinds) > 1 {
				out = append(out, report.NewFailure("rel_1_inv_2", r.Code, report.DuplicateRelation{
					Target: target,
					Kinds:  kinds,
				}))
			}
		}
	}
	return out
}

func checkSynthesisExclusion(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range records(v, scope) {
		if r.HasKind(ir.SynthesisOf) && r.HasKind(ir.SynthesizedBy) {
			out = append(out, report.NewFailure("rel_2_inv_1", r.Code, report.ConflictingKinds{
				Kinds: []ir.RelationKind{ir.SynthesisOf, ir.SynthesizedBy},
			}))
		}
	}
	return out
}

// antisymmetric reports a pair holding kind in both directions once, on the
// smaller code, whichever end is in scope.
func antisymmetric(id string, kind ir.RelationKind) CheckFunc {
	return func(v graph.View, scope Scope) []*report.Failure {
		type pair struct{ lo, hi ir.Code }
		seen := make(map[pair]bool)
		var out []*report.Failure

		for _, r := range records(v, scope) {
			for _, rel := range r.Relations {
				if rel.Kind != kind || rel.Target == r.Code || !v.IsChecked(rel.Target) {
					continue
				}
				t, ok := v.Record(rel.Target)
				if !ok || !t.HasRelation(r.Code, kind) {
					continue
				}
				p := pair{lo: r.Code, hi: rel.Target}
				if p.hi < p.lo {
					p.lo, p.hi = p.hi, p.lo
				}
				if seen[p] {
					continue
				}
				seen[p] = true
				out = append(out, report.NewFailure(id, p.lo, report.PairRelation{Other: p.hi, Kind: kind}))
			}
		}
		return out
	}
}

func checkSuccessionCycles(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, members := range graph.SuccessionCycles(v) {
		inScope := scope == nil
		for _, m := range members {
			if scope.Has(m) {
				inScope = true
				break
			}
		}
		if inScope {
			out = append(out, report.NewFailure("rel_3_inv_6", members[0], report.Cycle{Members: members}))
		}
	}
	return out
}

// presentKinds returns the kinds from candidates that r has outgoing.
func presentKinds(r *ir.Record, candidates ...ir.RelationKind) []ir.RelationKind {
	var out []ir.RelationKind
	for _, k := range candidates {
		if r.HasKind(k) {
			out = append(out, k)
		}
	}
	return out
}

func dispositionValue(r *ir.Record) string {
	if r.Disposition == nil {
		return ""
	}
	v, _ := ir.NormalizeDisposition(r.Disposition.Value)
	return v
}

func checkConservation(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range leaves(records(v, scope)) {
		kinds := presentKinds(r, ir.SynthesisOf, ir.ComplementOf)
		if len(kinds) == 0 {
			continue
		}
		if got := dispositionValue(r); got != ir.DispositionConservation {
			out = append(out, report.NewFailure("rel_4_inv_1", r.Code, report.DispositionMismatch{
				Expected: ir.DispositionConservation,
				Actual:   got,
				Kinds:    kinds,
			}))
		}
	}
	return out
}

func checkElimination(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range leaves(records(v, scope)) {
		if !r.HasKind(ir.SynthesizedBy) || len(presentKinds(r, ir.SynthesisOf, ir.ComplementOf)) > 0 {
			continue
		}
		if got := dispositionValue(r); got != ir.DispositionElimination {
			out = append(out, report.NewFailure("rel_4_inv_2", r.Code, report.DispositionMismatch{
				Expected: ir.DispositionElimination,
				Actual:   got,
				Kinds:    []ir.RelationKind{ir.SynthesizedBy},
			}))
		}
	}
	return out
}

func relationRules() []Rule {
	return []Rule{
		{
			ID:          "rel_1_inv_1",
			Description: "a record has no relation to itself",
			Check:       checkSelfRelation,
		},
		{
			ID:          "rel_1_inv_2",
			Description: "a record has at most one relation to the same target",
			Check:       checkDuplicateRelation,
		},
		{
			ID:          "rel_2_inv_1",
			Description: "SynthesisOf and SynthesizedBy are not both outgoing on one record",
			Check:       checkSynthesisExclusion,
		},
		{
			ID:          "rel_3_inv_1",
			Description: "SynthesisOf does not hold in both directions",
			Check:       antisymmetric("rel_3_inv_1", ir.SynthesisOf),
		},
		{
			ID:          "rel_3_inv_2",
			Description: "SynthesizedBy does not hold in both directions",
			Check:       antisymmetric("rel_3_inv_2", ir.SynthesizedBy),
		},
		{
			ID:          "rel_3_inv_3",
			Description: "SuccessorOf does not hold in both directions",
			Check:       antisymmetric("rel_3_inv_3", ir.SuccessorOf),
		},
		{
			ID:          "rel_3_inv_4",
			Description: "SupplementOf does not hold in both directions",
			Check:       antisymmetric("rel_3_inv_4", ir.SupplementOf),
		},
		{
			ID:          "rel_3_inv_5",
			Description: "SupplementFor does not hold in both directions",
			Check:       antisymmetric("rel_3_inv_5", ir.SupplementFor),
		},
		{
			ID:          "rel_3_inv_6",
			Description: "succession has no cycle through more than two records",
			Check:       checkSuccessionCycles,
		},
		{
			ID:          "rel_4_inv_1",
			Description: "a leaf with SynthesisOf or ComplementOf has disposition C",
			Check:       checkConservation,
		},
		{
			ID:          "rel_4_inv_2",
			Description: "a leaf synthesized by another, with no SynthesisOf or ComplementOf, has disposition E",
			Check:       checkElimination,
		},
	}
}
