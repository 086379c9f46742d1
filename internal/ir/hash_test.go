package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	return &Record{
		Code:            "200.10.001",
		State:           StateActive,
		Title:           "Licenciamento",
		LegislationRefs: []string{"leg_1"},
		Relations:       []Relation{{Target: "200.10.005", Kind: SupplementOf}},
		Retention: &RetentionSchedule{
			Values: []string{"5"},
			Justification: []Criterion{
				{ID: "crit_pca_200.10.001_0", Kind: CriterionLegal, LegislationRefs: []string{"leg_1"}},
			},
		},
		Owners: []string{"ent_A"},
	}
}

func TestRecordDigestDeterminism(t *testing.T) {
	d1, err := RecordDigest(sampleRecord())
	require.NoError(t, err)
	d2, err := RecordDigest(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "RecordDigest must be deterministic")
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestRecordDigestChangesWithContent(t *testing.T) {
	base := MustRecordDigest(sampleRecord())

	r := sampleRecord()
	r.LegislationRefs = append(r.LegislationRefs, "leg_2")
	assert.NotEqual(t, base, MustRecordDigest(r))

	r = sampleRecord()
	r.Retention.Justification[0].ProcessRefs = []Code{"200.10.005"}
	assert.NotEqual(t, base, MustRecordDigest(r))
}

func TestRecordDigestIgnoresCounter(t *testing.T) {
	r := sampleRecord()
	base := MustRecordDigest(r)

	_ = r.NextCriterionID(ScheduleRetention)
	assert.Equal(t, base, MustRecordDigest(r))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{"code":"100"}`)
	assert.NotEqual(t,
		hashWithDomain(DomainRecord, data),
		hashWithDomain(DomainRecordSet, data))
}

func TestSetDigestOrderIndependent(t *testing.T) {
	a := &Record{Code: "100.10.001", State: StateActive}
	b := &Record{Code: "200.10.001", State: StateActive}

	s1 := RecordSet{
		Sheets:     []Sheet{{Name: "100", Records: []*Record{a}}, {Name: "200", Records: []*Record{b}}},
		IndexTerms: []IndexTerm{{Code: "100.10.001", Term: "x"}, {Code: "200.10.001", Term: "y"}},
	}
	s2 := RecordSet{
		Sheets:     []Sheet{{Name: "all", Records: []*Record{b, a}}},
		IndexTerms: []IndexTerm{{Code: "200.10.001", Term: "y"}, {Code: "100.10.001", Term: "x"}},
	}

	d1, err := SetDigest(s1)
	require.NoError(t, err)
	d2, err := SetDigest(s2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}
