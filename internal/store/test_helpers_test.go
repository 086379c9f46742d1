package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/correction"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// createTestStore opens a fresh archive in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReport returns a report with two failures, one fixed, one
// regression and one normal structural error.
func createTestReport() *report.Report {
	rep := report.New()
	fixed := report.NewFailure("leg_inv_1", "100.10.001", report.MissingLegislation{Legislation: "Lei 1/2000", Holder: "100.10.001"})
	fixed.MarkFixed("added Lei 1/2000")
	rep.AddFailures([]*report.Failure{
		report.NewFailure("rel_1_inv_1", "100.10.002", report.SelfRelation{Kind: ir.SupplementOf}),
		fixed,
	})
	rep.SetRegressions([]*report.Failure{
		report.NewFailure("rel_1_inv_1", "200.10.001", report.SelfRelation{Kind: ir.CrossedWith}),
	})
	rep.AddNormal(report.StructuralError{Code: "E101", Subject: "100.10.003", Message: "title is required", Sheet: "100"})
	return rep
}

func createTestSnapshot() *ir.RecordSet {
	return &ir.RecordSet{
		Sheets: []ir.Sheet{{
			Name: "100",
			Records: []*ir.Record{
				{Code: "100", State: ir.StateActive, Title: "Gestão"},
				{Code: "100.10", State: ir.StateActive, Title: "Planeamento"},
			},
		}},
		Catalogs: ir.Catalogs{Legislation: []string{"Lei 1/2000"}},
	}
}

func createTestRun(id string) RunWrite {
	return RunWrite{
		ID:          id,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		InputDigest: "sha256:" + id,
		Report:      createTestReport(),
		Fixes: []correction.Commit{{
			Seq:         1,
			InvariantID: "leg_inv_1",
			Code:        "100.10.001",
			Touched:     []ir.Code{"100.10.001"},
			Description: "added Lei 1/2000",
		}},
		Snapshot: createTestSnapshot(),
	}
}
