package invariant

import (
	"sort"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/graph"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// checkNoteIDs requires note ids to be unique across checked records of
// level 3 or less. Every holder of a shared id gets a failure.
func checkNoteIDs(v graph.View, scope Scope) []*report.Failure {
	holders := make(map[string][]ir.Code)
	for _, r := range v.Checked() {
		if r.Level() > 3 {
			continue
		}
		seen := make(map[string]bool)
		for _, n := range r.AllNotes() {
			id := ir.NormalizeText(n.ID)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			holders[id] = append(holders[id], r.Code)
		}
	}

	var out []*report.Failure
	for id, codes := range holders {
		if len(codes) < 2 {
			continue
		}
		for _, c := range codes {
			if !scope.Has(c) {
				continue
			}
			others := make([]ir.Code, 0, len(codes)-1)
			for _, o := range codes {
				if o != c {
					others = append(others, o)
				}
			}
			out = append(out, report.NewFailure("na_inv_1", c, report.DuplicateNote{NoteID: id, Others: others}))
		}
	}
	return out
}

// termIndex maps codes to their normalized index terms, sorted and distinct.
func termIndex(v graph.View) map[ir.Code][]string {
	sets := make(map[ir.Code]map[string]bool)
	for _, t := range v.IndexTerms() {
		term := ir.NormalizeText(t.Term)
		if term == "" {
			continue
		}
		if sets[t.Code] == nil {
			sets[t.Code] = make(map[string]bool)
		}
		sets[t.Code][term] = true
	}
	out := make(map[ir.Code][]string, len(sets))
	for code, set := range sets {
		terms := make([]string, 0, len(set))
		for term := range set {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		out[code] = terms
	}
	return out
}

func contains(ss []string, s string) bool {
	i := sort.SearchStrings(ss, s)
	return i < len(ss) && ss[i] == s
}

// checkTermPropagation requires terms of a level-3 record with children to
// appear on every child. The failure sits on the parent.
func checkTermPropagation(v graph.View, scope Scope) []*report.Failure {
	terms := termIndex(v)
	var out []*report.Failure
	for _, r := range atLevel(records(v, withFamily(v, scope)), 3) {
		if len(r.Children) == 0 {
			continue
		}
		for _, term := range terms[r.Code] {
			for _, child := range r.Children {
				if !v.IsChecked(child) || contains(terms[child], term) {
					continue
				}
				out = append(out, report.NewFailure("ti_inv_1", r.Code, report.IndexTermIssue{
					Term:  term,
					Other: child,
				}))
			}
		}
	}
	return out
}

func related(a, b *ir.Record) bool {
	for _, rel := range a.Relations {
		if rel.Target == b.Code {
			return true
		}
	}
	for _, rel := range b.Relations {
		if rel.Target == a.Code {
			return true
		}
	}
	return false
}

// checkTermUniqueness forbids a leaf's term on another, unrelated level-3
// record. One failure per unordered pair and term, on the smaller code.
func checkTermUniqueness(v graph.View, scope Scope) []*report.Failure {
	terms := termIndex(v)
	byTerm := make(map[string][]*ir.Record)
	for _, r := range atLevel(v.Checked(), 3) {
		for _, term := range terms[r.Code] {
			byTerm[term] = append(byTerm[term], r)
		}
	}

	var out []*report.Failure
	for term, holders := range byTerm {
		for i, a := range holders {
			for _, b := range holders[i+1:] {
				if !a.IsLeaf() && !b.IsLeaf() {
					continue
				}
				if !scope.Has(a.Code) && !scope.Has(b.Code) {
					continue
				}
				if related(a, b) {
					continue
				}
				lo, hi := a.Code, b.Code
				if hi < lo {
					lo, hi = hi, lo
				}
				out = append(out, report.NewFailure("ti_inv_2", lo, report.IndexTermIssue{
					Term:     term,
					Other:    hi,
					Repeated: true,
				}))
			}
		}
	}
	return out
}

func checkNotTransversal(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range atLevel(records(v, scope), 3) {
		if !r.Transversal && len(r.Participants) > 0 {
			out = append(out, report.NewFailure("tr_inv_1", r.Code, report.Participants{
				Transversal: false,
				Count:       len(r.Participants),
			}))
		}
	}
	return out
}

func checkTransversal(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range atLevel(records(v, scope), 3) {
		if r.Transversal && len(r.Participants) == 0 {
			out = append(out, report.NewFailure("tr_inv_2", r.Code, report.Participants{Transversal: true}))
		}
	}
	return out
}

func checkHarmonizingParent(v graph.View, scope Scope) []*report.Failure {
	var out []*report.Failure
	for _, r := range atLevel(records(v, withFamily(v, scope)), 4) {
		p, ok := v.Record(r.Code.Parent())
		if ok && p.State == ir.StateHarmonizing {
			out = append(out, report.NewFailure("hm_inv_1", r.Code, report.HarmonizingParent{Parent: p.Code}))
		}
	}
	return out
}

func structureRules() []Rule {
	return []Rule{
		{
			ID:          "na_inv_1",
			Description: "note ids are unique across records of level 3 or less",
			Check:       checkNoteIDs,
		},
		{
			ID:          "ti_inv_1",
			Description: "index terms of a level-3 record with children appear on every child",
			Check:       checkTermPropagation,
		},
		{
			ID:          "ti_inv_2",
			Description: "an index term of a leaf does not appear on an unrelated level-3 record",
			Check:       checkTermUniqueness,
		},
		{
			ID:          "tr_inv_1",
			Description: "a non-transversal process has no participants",
			Check:       checkNotTransversal,
		},
		{
			ID:          "tr_inv_2",
			Description: "a transversal process has at least one participant",
			Check:       checkTransversal,
		},
		{
			ID:          "hm_inv_1",
			Description: "the parent of a level-4 record is not harmonizing",
			Check:       checkHarmonizingParent,
		},
	}
}
