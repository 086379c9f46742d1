package invariant

import (
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// requireSchedule fails every selected record lacking schedule s.
func requireSchedule(id string, s ir.ScheduleKind, selectFn func([]*ir.Record) []*ir.Record) CheckFunc {
	return func(v graph.View, scope Scope) []*report.Failure {
		var out []*report.Failure
		for _, r := range selectFn(records(v, scope)) {
			if !r.HasSchedule(s) {
				out = append(out, report.NewFailure(id, r.Code, report.MissingObject{Schedule: s}))
			}
		}
		return out
	}
}

// forbidSchedule fails level-3 records with children that carry schedule s.
func forbidSchedule(id string, s ir.ScheduleKind) CheckFunc {
	return func(v graph.View, scope Scope) []*report.Failure {
		var out []*report.Failure
		for _, r := range atLevel(records(v, scope), 3) {
			if len(r.Children) > 0 && r.HasSchedule(s) {
				out = append(out, report.NewFailure(id, r.Code, report.UnexpectedObject{
					Schedule: s,
					Children: r.Children,
				}))
			}
		}
		return out
	}
}

func levelFour(rs []*ir.Record) []*ir.Record {
	return atLevel(rs, 4)
}

func checkDispositionValue(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range records(v, scope) {
		if r.Disposition == nil {
			continue
		}
		if _, ok := ir.NormalizeDisposition(r.Disposition.Value); !ok {
			out = append(out, report.NewFailure("df_inv_4", r.Code, report.InvalidDisposition{
				Value: r.Disposition.Value,
			}))
		}
	}
	return out
}

func checkOwners(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range leaves(records(v, scope)) {
		if len(r.Owners) == 0 {
			out = append(out, report.NewFailure("own_inv_1", r.Code, report.MissingOwner{}))
		}
	}
	return out
}

func presenceRules() []Rule {
	return []Rule{
		{
			ID:          "pca_inv_1",
			Description: "a leaf level-3 record has a retention schedule",
			Check:       requireSchedule("pca_inv_1", ir.ScheduleRetention, leaves),
		},
		{
			ID:          "df_inv_1",
			Description: "a leaf level-3 record has a final disposition",
			Check:       requireSchedule("df_inv_1", ir.ScheduleDisposition, leaves),
		},
		{
			ID:          "pca_inv_2",
			Description: "a level-3 record with children has no retention schedule",
			Check:       forbidSchedule("pca_inv_2", ir.ScheduleRetention),
		},
		{
			ID:          "df_inv_2",
			Description: "a level-3 record with children has no final disposition",
			Check:       forbidSchedule("df_inv_2", ir.ScheduleDisposition),
		},
		{
			ID:          "pca_inv_3",
			Description: "a level-4 record has a retention schedule",
			Check:       requireSchedule("pca_inv_3", ir.ScheduleRetention, levelFour),
		},
		{
			ID:          "df_inv_3",
			Description: "a level-4 record has a final disposition",
			Check:       requireSchedule("df_inv_3", ir.ScheduleDisposition, levelFour),
		},
		{
			ID:          "df_inv_4",
			Description: "a final disposition value is C, E or CP",
			Check:       checkDispositionValue,
		},
		{
			ID:          "own_inv_1",
			Description: "a leaf level-3 record declares at least one owner",
			Check:       checkOwners,
		},
	}
}
