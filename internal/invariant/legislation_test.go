package invariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	tu "github.com/DBarbosa15987/clav-migrador-sub000/internal/testutil"
)

func TestLeafLegislation(t *testing.T) {
	cg := closed(
		tu.Leaf("200.10.001", tu.PCA(tu.LegalCrit("crit_1", "leg_1", "leg_2")), tu.Legislation("leg_1")),
		tu.Leaf("200.10.002", tu.PCA(tu.LegalCrit("crit_2", "leg_1")), tu.Legislation("leg_1")),
	)

	fs := check(cg, "leg_inv_1")
	require.Len(t, fs, 1)
	assert.Equal(t, ir.Code("200.10.001"), fs[0].Code)
	assert.Equal(t, report.MissingLegislation{Legislation: "leg_2", Holder: "200.10.001"}, fs[0].Detail)
}

func TestChildLegislation(t *testing.T) {
	cg := closed(
		tu.Rec("200.10.001", tu.Legislation("leg_1")),
		tu.Leaf("200.10.001.01", tu.PCA(tu.LegalCrit("crit_1", "leg_1", "leg_2")), tu.Legislation("leg_1", "leg_2")),
	)

	fs := check(cg, "leg_inv_2")
	require.Len(t, fs, 1)
	assert.Equal(t, ir.Code("200.10.001.01"), fs[0].Code)
	assert.Equal(t, report.MissingLegislation{Legislation: "leg_2", Holder: "200.10.001"}, fs[0].Detail)
}

func TestChildLegislationSkipsHarmonizingParent(t *testing.T) {
	cg := closed(
		tu.Rec("200.10.001", tu.State(ir.StateHarmonizing)),
		tu.Leaf("200.10.001.01", tu.PCA(tu.LegalCrit("crit_1", "leg_1")), tu.Legislation("leg_1")),
	)

	assert.Empty(t, check(cg, "leg_inv_2"))
	assert.Equal(t, []ir.Code{"200.10.001.01"}, codes(check(cg, "hm_inv_1")))
}
