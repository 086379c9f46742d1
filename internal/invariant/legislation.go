package invariant

import (
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// legalCitations returns the distinct legislation ids cited by legal
// criteria of both schedules, in first-seen order.
func legalCitations(r *ir.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range []ir.ScheduleKind{ir.ScheduleRetention, ir.ScheduleDisposition} {
		for _, c := range r.Justification(s) {
			if c.Kind != ir.CriterionLegal {
				continue
			}
			for _, leg := range c.LegislationRefs {
				if !seen[leg] {
					seen[leg] = true
					out = append(out, leg)
				}
			}
		}
	}
	return out
}

func checkLeafLegislation(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range leaves(records(v, scope)) {
		for _, leg := range legalCitations(r) {
			if !r.HasLegislation(leg) {
				out = append(out, report.NewFailure("leg_inv_1", r.Code, report.MissingLegislation{
					Legislation: leg,
					Holder:      r.Code,
				}))
			}
		}
	}
	return out
}

// checkChildLegislation checks level-4 citations against the parent. A
// scoped parent brings its children into scope. A harmonizing parent is
// reported by hm_inv_1 and not checked here.
func checkChildLegislation(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range atLevel(records(v, withFamily(v, scope)), 4) {
		parentCode := r.Code.Parent()
		parent, ok := v.Record(parentCode)
		if ok && !v.IsChecked(parentCode) {
			continue
		}
		for _, leg := range legalCitations(r) {
			if ok && parent.HasLegislation(leg) {
				continue
			}
			out = append(out, report.NewFailure("leg_inv_2", r.Code, report.MissingLegislation{
				Legislation:   leg,
				Holder:        parentCode,
				ParentMissing: !ok,
			}))
		}
	}
	return out
}

func legislationRules() []Rule {
	return []Rule{
		{
			ID:          "leg_inv_1",
			Description: "legislation cited by a legal criterion of a leaf is in its legislation refs",
			Check:       checkLeafLegislation,
		},
		{
			ID:          "leg_inv_2",
			Description: "legislation cited by a legal criterion of a level-4 record is in its parent's legislation refs",
			Check:       checkChildLegislation,
		},
	}
}
