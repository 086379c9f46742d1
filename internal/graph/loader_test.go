package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	tu "github.com/DBarbosa15987/clav-migrador-sub000/internal/testutil"
)

func TestBuildDuplicateKeepsFirst(t *testing.T) {
	first := tu.Rec("200.10.001")
	first.Title = "first"
	second := tu.Rec("200.10.001")
	second.Title = "second"

	g, rep := Build(tu.Set(first, second))
	cg := g.Close()

	require.Len(t, rep.Grave.DuplicateDeclarations, 1)
	assert.Equal(t, report.ErrDuplicateDeclaration, rep.Grave.DuplicateDeclarations[0].Code)
	r, ok := cg.Record("200.10.001")
	require.True(t, ok)
	assert.Equal(t, "first", r.Title)
	assert.False(t, rep.Serializable())
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	a := tu.Rec("200.10.001", tu.Rel("200.10.002", ir.CrossedWith))
	b := tu.Rec("200.10.002")
	set := tu.Set(a, b)

	g, _ := Build(set)
	g.Close()

	assert.Empty(t, b.Relations, "closure must work on clones")
}

func TestBuildClassification(t *testing.T) {
	set := tu.Set(
		tu.Rec("200.10.001"),
		tu.Rec("200.10.001.1"),
		tu.Rec("200.10.001.2"),
		tu.Rec("200.10.001.3", tu.State(ir.StateHarmonizing)),
		tu.Rec("200.10.002", tu.State(ir.StateHarmonizing)),
		tu.Rec("200.10.002.1"),
		tu.Rec("200.10.009.1"),
		tu.Rec("200.1x"),
	)

	g, rep := Build(set)
	cg := g.Close()

	r, _ := cg.Record("200.10.001")
	assert.Equal(t, []ir.Code{"200.10.001.1", "200.10.001.2"}, r.Children)

	assert.Equal(t, []ir.Code{"200.10.001.3", "200.10.002"}, cg.Harmonizing())
	assert.Len(t, rep.Warnings.HarmonizationNotices, 2)

	require.Len(t, rep.Normal, 2)
	rep.Sort()
	assert.Equal(t, report.ErrHarmonizingParent, rep.Normal[0].Code)
	assert.Equal(t, ir.Code("200.10.002.1"), rep.Normal[0].Subject)
	assert.Equal(t, report.ErrMissingParent, rep.Normal[1].Code)
	assert.Equal(t, ir.Code("200.10.009.1"), rep.Normal[1].Subject)

	require.Len(t, rep.Grave.Other, 1)
	assert.Equal(t, report.ErrMalformedCode, rep.Grave.Other[0].Code)

	assert.False(t, cg.IsChecked("200.10.002"), "harmonizing records are not checked")
	assert.False(t, cg.IsChecked("200.1x"), "malformed codes are not checked")
	assert.True(t, cg.IsChecked("200.10.002.1"))
	_, ok := cg.Record("200.10.002")
	assert.True(t, ok, "harmonizing records stay resolvable")
}

func TestBuildReferenceResolution(t *testing.T) {
	set := tu.Set(
		tu.Rec("200.10.001",
			tu.Rel("200.10.404", ir.CrossedWith),
			tu.Rel("200.10.002", ir.CrossedWith),
			tu.PCA(tu.Crit("c0", ir.CriterionUtility, "200.10.405")),
		),
		tu.Rec("200.10.002", tu.State(ir.StateHarmonizing)),
	)

	g, rep := Build(set)
	cg := g.Close()

	require.Contains(t, rep.Grave.InvalidRelations, "200.10.404")
	assert.Equal(t, report.ErrInvalidRelation, rep.Grave.InvalidRelations["200.10.404"][0].Code)
	require.Contains(t, rep.Grave.InvalidRelations, "200.10.405")
	assert.Equal(t, report.ErrInvalidProcessRef, rep.Grave.InvalidRelations["200.10.405"][0].Code)

	require.Len(t, rep.Warnings.RelationsTouchingHarmonized, 1)
	assert.Equal(t, ir.Code("200.10.002"), rep.Warnings.RelationsTouchingHarmonized[0].Related)

	h, _ := cg.Record("200.10.002")
	assert.Empty(t, h.Relations, "no mirror inserted on harmonizing targets")
}

func TestBuildLegislationCatalog(t *testing.T) {
	rec := tu.Rec("200.10.001",
		tu.Legislation("leg_1", "leg_9"),
		tu.PCA(tu.LegalCrit("c0", "leg_8")),
	)

	t.Run("no catalog", func(t *testing.T) {
		_, rep := Build(tu.Set(rec))
		assert.Empty(t, rep.Grave.InvalidRelations)
		require.Len(t, rep.Warnings.Generic, 1)
		assert.Contains(t, rep.Warnings.Generic[0], "legislation catalog not provided")
	})

	t.Run("catalog", func(t *testing.T) {
		_, rep := Build(tu.SetWithLegislation([]string{"leg_1"}, rec))
		assert.Contains(t, rep.Grave.InvalidRelations, "leg_8")
		assert.Contains(t, rep.Grave.InvalidRelations, "leg_9")
		assert.NotContains(t, rep.Grave.InvalidRelations, "leg_1")
		assert.Empty(t, rep.Warnings.Generic)
	})
}

func TestBuildIndexTermUnknownCode(t *testing.T) {
	set := tu.Set(tu.Rec("200.10.001"))
	set.IndexTerms = []ir.IndexTerm{{Code: "200.10.001", Term: "licença"}, {Code: "200.10.404", Term: "obra"}}

	_, rep := Build(set)
	require.Len(t, rep.Grave.Other, 1)
	assert.Equal(t, report.ErrUnknownIndexCode, rep.Grave.Other[0].Code)
}

func TestBuildWithReportAppends(t *testing.T) {
	existing := report.New()
	existing.AddGrave(report.StructuralError{Code: report.ErrUnknownState, Subject: "200.10.003"})

	_, rep := Build(tu.Set(tu.Rec("200.10.001")), WithReport(existing))
	assert.Same(t, existing, rep)
	assert.Len(t, rep.Grave.Other, 1)
}
