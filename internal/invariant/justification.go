package invariant

import (
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// crossRef ties relation kinds to the criterion that must justify them.
type crossRef struct {
	forwardID string
	inverseID string
	kinds     []ir.RelationKind
	schedule  ir.ScheduleKind
	criterion ir.CriterionKind
}

var (
	supplementRef = crossRef{
		forwardID: "rel_8_inv_1",
		inverseID: "rel_8_inv_4",
		kinds:     []ir.RelationKind{ir.SupplementOf},
		schedule:  ir.ScheduleRetention,
		criterion: ir.CriterionUtility,
	}
	complementRef = crossRef{
		forwardID: "rel_8_inv_2",
		inverseID: "rel_8_inv_6",
		kinds:     []ir.RelationKind{ir.ComplementOf},
		schedule:  ir.ScheduleDisposition,
		criterion: ir.CriterionComplementarity,
	}
	synthesisRef = crossRef{
		forwardID: "rel_8_inv_3",
		inverseID: "rel_8_inv_5",
		kinds:     []ir.RelationKind{ir.SynthesisOf, ir.SynthesizedBy},
		schedule:  ir.ScheduleDisposition,
		criterion: ir.CriterionDensity,
	}
)

func (x crossRef) matches(k ir.RelationKind) bool {
	for _, kind := range x.kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// absence classifies why target is not justified on r, or "" when it is.
func (x crossRef) absence(r *ir.Record, target ir.Code) report.Absence {
	if !r.HasSchedule(x.schedule) {
		return report.AbsentSchedule
	}
	idx := r.CriteriaOfKind(x.schedule, x.criterion)
	if len(idx) == 0 {
		return report.AbsentCriterion
	}
	crit := r.Justification(x.schedule)
	for _, i := range idx {
		if crit[i].HasProcessRef(target) {
			return ""
		}
	}
	return report.AbsentReference
}

// forward checks that every related code on a leaf is justified.
func (x crossRef) forward(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range leaves(records(v, scope)) {
		type edge struct {
			target ir.Code
			kind   ir.RelationKind
		}
		seen := make(map[edge]bool)
		for _, rel := range r.Relations {
			if !x.matches(rel.Kind) || rel.Target == r.Code {
				continue
			}
			if _, ok := v.Record(rel.Target); !ok {
				continue
			}
			e := edge{rel.Target, rel.Kind}
			if seen[e] {
				continue
			}
			seen[e] = true
			if a := x.absence(r, rel.Target); a != "" {
				out = append(out, report.NewFailure(x.forwardID, r.Code, report.MissingJustification{
					Target:    rel.Target,
					Relation:  rel.Kind,
					Schedule:  x.schedule,
					Criterion: x.criterion,
					Absent:    a,
				}))
			}
		}
	}
	return out
}

// inverse checks that every code justified on a leaf is related.
func (x crossRef) inverse(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range leaves(records(v, scope)) {
		seen := make(map[ir.Code]bool)
		crit := r.Justification(x.schedule)
		for _, i := range r.CriteriaOfKind(x.schedule, x.criterion) {
			for _, ref := range crit[i].ProcessRefs {
				if ref == r.Code || seen[ref] {
					continue
				}
				seen[ref] = true
				if _, ok := v.Record(ref); !ok {
					continue
				}
				related := false
				for _, k := range x.kinds {
					if r.HasRelation(ref, k) {
						related = true
						break
					}
				}
				if !related {
					out = append(out, report.NewFailure(x.inverseID, r.Code, report.MissingRelation{
						Target:    ref,
						Schedule:  x.schedule,
						Criterion: x.criterion,
						Expected:  x.kinds,
					}))
				}
			}
		}
	}
	return out
}

func justificationRules() []Rule {
	return []Rule{
		{
			ID:          "rel_8_inv_1",
			Description: "a SupplementOf target is listed in a utility criterion of the retention schedule",
			Check:       supplementRef.forward,
		},
		{
			ID:          "rel_8_inv_2",
			Description: "a ComplementOf target is listed in a complementarity criterion of the final disposition",
			Check:       complementRef.forward,
		},
		{
			ID:          "rel_8_inv_3",
			Description: "a SynthesisOf or SynthesizedBy target is listed in a density criterion of the final disposition",
			Check:       synthesisRef.forward,
		},
		{
			ID:          "rel_8_inv_4",
			Description: "a code in a utility criterion is a SupplementOf target",
			Check:       supplementRef.inverse,
		},
		{
			ID:          "rel_8_inv_5",
			Description: "a code in a density criterion is a SynthesisOf or SynthesizedBy target",
			Check:       synthesisRef.inverse,
		},
		{
			ID:          "rel_8_inv_6",
			Description: "a code in a complementarity criterion is a ComplementOf target",
			Check:       complementRef.inverse,
		},
	}
}
