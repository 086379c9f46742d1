package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

func TestSerializable(t *testing.T) {
	r := New()
	assert.True(t, r.Serializable())

	r.AddNormal(StructuralError{Code: ErrMissingParent, Subject: "200.10.001.1", Message: "parent missing"})
	r.AddFailures([]*Failure{NewFailure("pca_inv_1", "200.10.001", MissingObject{Schedule: ir.ScheduleRetention})})
	r.AddWarning("legislation catalog not provided")
	assert.True(t, r.Serializable(), "normal errors, failures and warnings do not block")

	r.AddInvalidRelation("200.99.999", StructuralError{Code: ErrInvalidRelation, Subject: "200.10.001"})
	assert.False(t, r.Serializable())
}

func TestAllIsSorted(t *testing.T) {
	r := New()
	r.AddFailures([]*Failure{
		NewFailure("rel_1_inv_1", "200.10.002", SelfRelation{Kind: ir.CrossedWith}),
		NewFailure("df_inv_1", "200.10.003", MissingObject{Schedule: ir.ScheduleDisposition}),
		NewFailure("df_inv_1", "200.10.001", MissingObject{Schedule: ir.ScheduleDisposition}),
	})

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "df_inv_1", all[0].InvariantID)
	assert.Equal(t, ir.Code("200.10.001"), all[0].Code)
	assert.Equal(t, ir.Code("200.10.003"), all[1].Code)
	assert.Equal(t, "rel_1_inv_1", all[2].InvariantID)
}

func TestNewKeys(t *testing.T) {
	before := []*Failure{
		NewFailure("rel_1_inv_2", "200.10.001", DuplicateRelation{Target: "200.10.002", Kinds: []ir.RelationKind{ir.CrossedWith, ir.CrossedWith}}),
	}
	after := []*Failure{
		NewFailure("rel_1_inv_2", "200.10.001", DuplicateRelation{Target: "200.10.002", Kinds: []ir.RelationKind{ir.CrossedWith, ir.CrossedWith}}),
		NewFailure("rel_1_inv_2", "200.10.001", DuplicateRelation{Target: "200.10.005", Kinds: []ir.RelationKind{ir.SupplementOf, ir.CrossedWith}}),
	}

	added := NewKeys(before, after)
	require.Len(t, added, 1)
	assert.Contains(t, added[0].Message(), "200.10.005")
	assert.Equal(t, []string{"rel_1_inv_2"}, InvariantIDs(added))
	assert.Empty(t, NewKeys(after, before))
}

func TestMissingJustificationMessages(t *testing.T) {
	base := MissingJustification{
		Target:    "200.10.005",
		Relation:  ir.SupplementOf,
		Schedule:  ir.ScheduleRetention,
		Criterion: ir.CriterionUtility,
	}

	tests := []struct {
		absent Absence
		want   string
	}{
		{AbsentSchedule, "no justification at all"},
		{AbsentCriterion, "no justification at all"},
		{AbsentReference, "criterion present but reference missing"},
	}
	for _, tt := range tests {
		t.Run(string(tt.absent), func(t *testing.T) {
			d := base
			d.Absent = tt.absent
			assert.Contains(t, d.Message(), tt.want)
		})
	}
}

func TestFailureJSON(t *testing.T) {
	f := NewFailure("leg_inv_1", "200.10.001", MissingLegislation{Legislation: "leg_7", Holder: "200.10.001"})
	f.MarkFixed("added leg_7 to legislation refs of 200.10.001")

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "leg_inv_1", got["invariant_id"])
	assert.Equal(t, "missing_legislation", got["detail_type"])
	assert.Equal(t, "fixed", got["fix_status"])
	assert.Equal(t, "legislation leg_7 missing from context of 200.10.001", got["context_info"])
	assert.Equal(t, "leg_7", got["detail"].(map[string]any)["legislation"])
}

func TestCounts(t *testing.T) {
	r := New()
	a := NewFailure("leg_inv_1", "200.10.001", MissingLegislation{Legislation: "l1", Holder: "200.10.001"})
	b := NewFailure("leg_inv_1", "200.10.002", MissingLegislation{Legislation: "l1", Holder: "200.10.002"})
	c := NewFailure("own_inv_1", "200.10.002", MissingOwner{})
	a.MarkFixed("ok")
	b.MarkFailed("would break rel_1_inv_1")
	r.AddFailures([]*Failure{a, b, c})
	r.AddDuplicate(StructuralError{Code: ErrDuplicateDeclaration, Subject: "200.10.003"})
	r.AddInferredEdge(InferredEdge{From: "200.10.002", To: "200.10.001", Kind: ir.CrossedWith})

	got := r.Counts()
	assert.Equal(t, Counts{Grave: 1, Failures: 3, Fixed: 1, FixFailed: 1, Warnings: 1}, got)
	assert.Equal(t, 2, got.Unfixed())
}
