package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

func sampleReport() *report.Report {
	rep := report.New()
	fixed := report.NewFailure("leg_inv_1", "100.10.001", report.MissingLegislation{Legislation: "L1", Holder: "100.10.001"})
	fixed.MarkFixed("added L1")
	rep.AddFailures([]*report.Failure{
		fixed,
		report.NewFailure("rel_1_inv_1", "100.10.002", report.SelfRelation{Kind: ir.CrossedWith}),
		report.NewFailure("rel_1_inv_1", "100.10.003", report.SelfRelation{Kind: ir.CrossedWith}),
	})
	rep.AddGrave(report.StructuralError{Code: report.ErrUnknownState, Subject: "100.10.004", Message: "unknown state"})
	rep.AddNormal(report.StructuralError{Code: "E101", Subject: "100.10.005", Message: "title is required"})
	rep.AddNormal(report.StructuralError{Code: "E101", Subject: "100.10.006", Message: "title is required"})
	rep.AddWarning("legislation catalog not provided")
	return rep
}

func TestObserveReport(t *testing.T) {
	r := New()
	r.ObserveReport(sampleReport())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("leg_inv_1", "fixed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.failures.WithLabelValues("rel_1_inv_1", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.structural.WithLabelValues("grave")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.structural.WithLabelValues("normal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.warnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs))
}

func TestObserveReport_ResetsPerRunGauges(t *testing.T) {
	r := New()
	r.ObserveReport(sampleReport())
	r.ObserveReport(report.New())

	assert.Equal(t, 0, testutil.CollectAndCount(r.failures))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.structural.WithLabelValues("grave")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs))
}

func TestObserveFix(t *testing.T) {
	r := New()
	r.ObserveFix("leg_inv_1", report.FixFixed)
	r.ObserveFix("leg_inv_1", report.FixFixed)
	r.ObserveFix("rel_8_inv_1", report.FixFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fixes.WithLabelValues("leg_inv_1", "fixed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fixes.WithLabelValues("rel_8_inv_1", "failed")))
}

func TestObservePhase(t *testing.T) {
	r := New()
	r.ObservePhase("evaluate", 20*time.Millisecond)
	r.ObservePhase("correct", time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(r.phase))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveRecords(42)
	r.ObserveReport(sampleReport())

	path := filepath.Join(t.TempDir(), "clavcheck.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "clavcheck_records 42")
	assert.Contains(t, text, `clavcheck_invariant_failures{invariant="rel_1_inv_1",status="none"} 2`)
	assert.True(t, strings.Contains(text, "# TYPE clavcheck_runs_total counter"))
}

func TestWriteTextfile_BadPath(t *testing.T) {
	r := New()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
