package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
)

func TestLeafSatisfiesPresence(t *testing.T) {
	r := Leaf("200.10.001", Rel("200.10.002", ir.CrossedWith))

	assert.Equal(t, ir.StateActive, r.State)
	require.NotNil(t, r.Retention)
	require.NotNil(t, r.Disposition)
	assert.Equal(t, ir.DispositionConservation, r.Disposition.Value)
	assert.Equal(t, []string{"ent_A"}, r.Owners)
	assert.True(t, r.HasRelation("200.10.002", ir.CrossedWith))
}

func TestSetGroupsBySheet(t *testing.T) {
	set := Set(Rec("200.10.001"), Rec("100.10.001"), Rec("200.10.002"))

	require.Len(t, set.Sheets, 2)
	assert.Equal(t, "100", set.Sheets[0].Name)
	assert.Equal(t, "200", set.Sheets[1].Name)
	assert.Len(t, set.Sheets[1].Records, 2)
	assert.Nil(t, set.Catalogs.Legislation)

	set = SetWithLegislation(nil, Rec("100.10.001"))
	assert.NotNil(t, set.Catalogs.Legislation)
}
