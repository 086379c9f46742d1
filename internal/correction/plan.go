package correction

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

var (
	errNotFound    = errors.New("record not found")
	errUnsupported = errors.New("unsupported failure detail")
)

// editable checks that every code names a checked record. Harmonizing
// records are never rewritten.
func editable(v graph.View, codes ...ir.Code) error {
	for _, c := range codes {
		if _, ok := v.Record(c); !ok {
			return errNotFound
		}
		if !v.IsChecked(c) {
			return fmt.Errorf("record %s is not checked", c)
		}
	}
	return nil
}

// Plan is a proposed fix for one failure.
type Plan struct {
	// Touched lists the records the patch rewrites. They are cloned before
	// Patch runs and swapped in together on commit.
	Touched []ir.Code

	// Description becomes the failure's fix note on commit.
	Description string

	// Patch edits the clones, keyed by code. It must not touch anything
	// outside the map.
	Patch func(clones map[ir.Code]*ir.Record) error
}

// Planner proposes a fix for a failure of one invariant.
type Planner func(v graph.View, f *report.Failure) (*Plan, error)

// DefaultPlanners returns the planners of every fixable invariant.
func DefaultPlanners() map[string]Planner {
	return map[string]Planner{
		"leg_inv_1":   planLegislation,
		"leg_inv_2":   planLegislation,
		"rel_8_inv_1": planJustification,
		"rel_8_inv_2": planJustification,
		"rel_8_inv_3": planJustification,
		"rel_8_inv_4": planRelationPair(ir.SupplementOf),
		"rel_8_inv_6": planRelationPair(ir.ComplementOf),
	}
}

// DefaultDependencies returns, per fixable invariant, the invariants a fix
// may disturb. The fixed invariant is always a member of its own set.
func DefaultDependencies() map[string][]string {
	return map[string][]string{
		"leg_inv_1":   {"leg_inv_1"},
		"leg_inv_2":   {"leg_inv_1", "leg_inv_2"},
		"rel_8_inv_1": {"rel_8_inv_1", "rel_8_inv_4"},
		"rel_8_inv_2": {"rel_8_inv_2", "rel_8_inv_6"},
		"rel_8_inv_3": {"rel_8_inv_3", "rel_8_inv_5"},
		"rel_8_inv_4": {
			"rel_1_inv_1", "rel_1_inv_2", "rel_3_inv_4", "rel_3_inv_5",
			"rel_8_inv_1", "rel_8_inv_4",
		},
		"rel_8_inv_6": {
			"rel_1_inv_1", "rel_1_inv_2",
			"rel_3_inv_1", "rel_3_inv_2", "rel_3_inv_3", "rel_3_inv_4", "rel_3_inv_5",
			"rel_8_inv_2", "rel_8_inv_6", "rel_4_inv_1", "rel_4_inv_2",
		},
	}
}

// planLegislation adds the missing legislation id to the holder named in
// the failure: the record itself for leaves, the parent for level 4.
func planLegislation(v graph.View, f *report.Failure) (*Plan, error) {
	d, ok := f.Detail.(report.MissingLegislation)
	if !ok {
		return nil, errUnsupported
	}
	if d.ParentMissing {
		return nil, errNotFound
	}
	holder := d.Holder
	if err := editable(v, f.Code, holder); err != nil {
		return nil, err
	}
	return &Plan{
		Touched:     []ir.Code{holder},
		Description: fmt.Sprintf("added legislation %s to %s", d.Legislation, holder),
		Patch: func(clones map[ir.Code]*ir.Record) error {
			r := clones[holder]
			if !r.HasLegislation(d.Legislation) {
				r.LegislationRefs = append(r.LegislationRefs, d.Legislation)
			}
			return nil
		},
	}, nil
}

// criterionContent is the text of a synthesized criterion, by kind.
var criterionContent = map[ir.CriterionKind]string{
	ir.CriterionUtility:         "Utilidade administrativa dos dados para o processo %s.",
	ir.CriterionComplementarity: "Complementaridade de informação com o processo %s.",
	ir.CriterionDensity:         "Densidade informacional: informação sintetizada em relação ao processo %s.",
}

// criterionKinds lists the relation kinds a criterion kind justifies.
var criterionKinds = map[ir.CriterionKind][]ir.RelationKind{
	ir.CriterionUtility:         {ir.SupplementOf},
	ir.CriterionComplementarity: {ir.ComplementOf},
	ir.CriterionDensity:         {ir.SynthesisOf, ir.SynthesizedBy},
}

// relatedOfKind returns the distinct declared targets of r's edges of the
// given kinds, in edge order.
func relatedOfKind(v graph.View, r *ir.Record, kinds []ir.RelationKind) []ir.Code {
	seen := make(map[ir.Code]bool)
	var out []ir.Code
	for _, rel := range r.Relations {
		if seen[rel.Target] || rel.Target == r.Code {
			continue
		}
		for _, k := range kinds {
			if rel.Kind != k {
				continue
			}
			if _, ok := v.Record(rel.Target); ok {
				seen[rel.Target] = true
				out = append(out, rel.Target)
			}
			break
		}
	}
	return out
}

func joinCodes(codes []ir.Code) string {
	ss := make([]string, len(codes))
	for i, c := range codes {
		ss[i] = string(c)
	}
	return strings.Join(ss, ", ")
}

// planJustification lists the related code in the criterion of the kind
// the relation calls for. A synthesized criterion lists every related code
// the criterion kind covers, so sibling failures on the same record do not
// change shape under the fix.
func planJustification(v graph.View, f *report.Failure) (*Plan, error) {
	d, ok := f.Detail.(report.MissingJustification)
	if !ok {
		return nil, errUnsupported
	}
	code := f.Code
	if err := editable(v, code, d.Target); err != nil {
		return nil, err
	}

	return &Plan{
		Touched:     []ir.Code{code},
		Description: fmt.Sprintf("listed %s in %s criterion of %s", d.Target, d.Criterion, scheduleLabel(d.Schedule)),
		Patch: func(clones map[ir.Code]*ir.Record) error {
			r := clones[code]
			if !r.HasSchedule(d.Schedule) {
				return fmt.Errorf("no %s to extend", scheduleLabel(d.Schedule))
			}
			idx := r.CriteriaOfKind(d.Schedule, d.Criterion)
			switch len(idx) {
			case 0:
				refs := relatedOfKind(v, r, criterionKinds[d.Criterion])
				if !slices.Contains(refs, d.Target) {
					refs = append([]ir.Code{d.Target}, refs...)
				}
				c := ir.Criterion{
					ID:          r.NextCriterionID(d.Schedule),
					Kind:        d.Criterion,
					Content:     fmt.Sprintf(criterionContent[d.Criterion], joinCodes(refs)),
					ProcessRefs: refs,
				}
				return r.AppendCriterion(d.Schedule, c)
			case 1:
				crit := r.Justification(d.Schedule)
				if !crit[idx[0]].HasProcessRef(d.Target) {
					crit[idx[0]].ProcessRefs = append(crit[idx[0]].ProcessRefs, d.Target)
				}
				return nil
			default:
				return fmt.Errorf("ambiguous: %d %s criteria in %s", len(idx), d.Criterion, scheduleLabel(d.Schedule))
			}
		},
	}, nil
}

// planRelationPair adds kind from the failing record to the code listed in
// its criterion, together with the mirror edge on the other end.
func planRelationPair(kind ir.RelationKind) Planner {
	return func(v graph.View, f *report.Failure) (*Plan, error) {
		d, ok := f.Detail.(report.MissingRelation)
		if !ok {
			return nil, errUnsupported
		}
		from, to := f.Code, d.Target
		if err := editable(v, from, to); err != nil {
			return nil, err
		}
		return &Plan{
			Touched:     []ir.Code{from, to},
			Description: fmt.Sprintf("added relation %s %s %s and its mirror", from, kind, to),
			Patch: func(clones map[ir.Code]*ir.Record) error {
				mirror, _ := kind.Mirror()
				addEdge(clones[from], to, kind)
				addEdge(clones[to], from, mirror)
				return nil
			},
		}, nil
	}
}

func addEdge(r *ir.Record, target ir.Code, kind ir.RelationKind) {
	if !r.HasRelation(target, kind) {
		r.Relations = append(r.Relations, ir.Relation{Target: target, Kind: kind})
	}
}

func scheduleLabel(s ir.ScheduleKind) string {
	if s == ir.ScheduleRetention {
		return "retention schedule"
	}
	return "final disposition"
}
