package invariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	tu "github.com/DBarbosa15987/clav-migrador-sub000/internal/testutil"
)

func TestForwardJustification(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		rec    *ir.Record
		absent report.Absence
	}{
		{
			name:   "supplement without retention schedule",
			rule:   "rel_8_inv_1",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SupplementOf), tu.NoPCA()),
			absent: report.AbsentSchedule,
		},
		{
			name:   "supplement without utility criterion",
			rule:   "rel_8_inv_1",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SupplementOf), tu.PCA(tu.Crit("c0", ir.CriterionDensity, "200.10.005"))),
			absent: report.AbsentCriterion,
		},
		{
			name:   "supplement not referenced",
			rule:   "rel_8_inv_1",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SupplementOf), tu.PCA(tu.Crit("c0", ir.CriterionUtility))),
			absent: report.AbsentReference,
		},
		{
			name:   "supplement justified",
			rule:   "rel_8_inv_1",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SupplementOf), tu.PCA(tu.Crit("c0", ir.CriterionUtility, "200.10.005"))),
			absent: "",
		},
		{
			name:   "complement without disposition",
			rule:   "rel_8_inv_2",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.ComplementOf), tu.NoDF()),
			absent: report.AbsentSchedule,
		},
		{
			name:   "complement not referenced",
			rule:   "rel_8_inv_2",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.ComplementOf), tu.DF("C", tu.Crit("c0", ir.CriterionComplementarity, "200.10.009"))),
			absent: report.AbsentReference,
		},
		{
			name:   "synthesis without density criterion",
			rule:   "rel_8_inv_3",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SynthesisOf)),
			absent: report.AbsentCriterion,
		},
		{
			name:   "synthesized justified",
			rule:   "rel_8_inv_3",
			rec:    tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SynthesizedBy), tu.DF("E", tu.Crit("c0", ir.CriterionDensity, "200.10.005"))),
			absent: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cg := closed(tt.rec, tu.Leaf("200.10.005"), tu.Leaf("200.10.009"))
			fs := Default().Check(cg, ScopeOf("200.10.001"), []string{tt.rule})
			if tt.absent == "" {
				assert.Empty(t, fs)
				return
			}
			require.Len(t, fs, 1)
			d, ok := fs[0].Detail.(report.MissingJustification)
			require.True(t, ok)
			assert.Equal(t, tt.absent, d.Absent)
			assert.Equal(t, ir.Code("200.10.005"), d.Target)
		})
	}
}

func TestForwardJustificationSkipsUndeclaredTargets(t *testing.T) {
	cg := closed(tu.Leaf("200.10.001", tu.Rel("200.10.404", ir.SupplementOf)))
	assert.Empty(t, check(cg, "rel_8_inv_1"))
}

func TestForwardJustificationOnlyOnLeaves(t *testing.T) {
	cg := closed(
		tu.Rec("200.10.001", tu.Rel("200.10.005", ir.SupplementOf)),
		tu.Leaf("200.10.001.1"),
		tu.Leaf("200.10.005"),
	)
	assert.Empty(t, Default().Check(cg, ScopeOf("200.10.001"), []string{"rel_8_inv_1"}))
}

func TestInverseJustification(t *testing.T) {
	tests := []struct {
		name string
		rule string
		rec  *ir.Record
		fail bool
	}{
		{"utility without supplement", "rel_8_inv_4",
			tu.Leaf("200.10.001", tu.PCA(tu.Crit("c0", ir.CriterionUtility, "200.10.005"))), true},
		{"utility with supplement", "rel_8_inv_4",
			tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SupplementOf), tu.PCA(tu.Crit("c0", ir.CriterionUtility, "200.10.005"))), false},
		{"utility with supplement for", "rel_8_inv_4",
			tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SupplementFor), tu.PCA(tu.Crit("c0", ir.CriterionUtility, "200.10.005"))), true},
		{"density without synthesis", "rel_8_inv_5",
			tu.Leaf("200.10.001", tu.DF("C", tu.Crit("c0", ir.CriterionDensity, "200.10.005"))), true},
		{"density with synthesized", "rel_8_inv_5",
			tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.SynthesizedBy), tu.DF("E", tu.Crit("c0", ir.CriterionDensity, "200.10.005"))), false},
		{"complementarity without complement", "rel_8_inv_6",
			tu.Leaf("200.10.001", tu.DF("C", tu.Crit("c0", ir.CriterionComplementarity, "200.10.005"))), true},
		{"complementarity with complement", "rel_8_inv_6",
			tu.Leaf("200.10.001", tu.Rel("200.10.005", ir.ComplementOf), tu.DF("C", tu.Crit("c0", ir.CriterionComplementarity, "200.10.005"))), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cg := closed(tt.rec, tu.Leaf("200.10.005"))
			fs := Default().Check(cg, ScopeOf("200.10.001"), []string{tt.rule})
			if !tt.fail {
				assert.Empty(t, fs)
				return
			}
			require.Len(t, fs, 1)
			d, ok := fs[0].Detail.(report.MissingRelation)
			require.True(t, ok)
			assert.Equal(t, ir.Code("200.10.005"), d.Target)
		})
	}
}

func TestInverseJustificationListsEachCodeOnce(t *testing.T) {
	cg := closed(
		tu.Leaf("200.10.001", tu.PCA(
			tu.Crit("c0", ir.CriterionUtility, "200.10.005", "200.10.006"),
			tu.Crit("c1", ir.CriterionUtility, "200.10.005"),
		)),
		tu.Leaf("200.10.005"),
		tu.Leaf("200.10.006"),
	)

	fs := check(cg, "rel_8_inv_4")
	require.Len(t, fs, 2)
	assert.Equal(t, ir.Code("200.10.005"), fs[0].Detail.(report.MissingRelation).Target)
	assert.Equal(t, ir.Code("200.10.006"), fs[1].Detail.(report.MissingRelation).Target)
}
