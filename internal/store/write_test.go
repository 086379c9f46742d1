package store

import (
	"context"
	"testing"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

func TestWriteRun_AssignsIncreasingSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		seq, err := s.WriteRun(ctx, createTestRun(id))
		if err != nil {
			t.Fatalf("WriteRun(%s) failed: %v", id, err)
		}
		if seq != int64(i+1) {
			t.Errorf("WriteRun(%s) seq = %d, want %d", id, seq, i+1)
		}
	}
}

func TestWriteRun_DuplicateIDFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteRun(ctx, createTestRun("run-a")); err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}
	if _, err := s.WriteRun(ctx, createTestRun("run-a")); err == nil {
		t.Fatal("expected error on duplicate run id")
	}

	// The failed transaction must leave nothing behind.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM failures`).Scan(&n); err != nil {
		t.Fatalf("count failures: %v", err)
	}
	if n != 3 {
		t.Errorf("failures rows = %d, want 3", n)
	}
}

func TestWriteRun_NilReport(t *testing.T) {
	s := createTestStore(t)
	w := createTestRun("run-a")
	w.Report = nil
	if _, err := s.WriteRun(context.Background(), w); err == nil {
		t.Fatal("expected error for nil report")
	}
}

func TestWriteRun_StoresCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteRun(ctx, createTestRun("run-a")); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	run, err := s.ReadRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}

	want := report.Counts{Normal: 1, Failures: 2, Fixed: 1, Regressions: 1}
	if run.Counts != want {
		t.Errorf("Counts = %+v, want %+v", run.Counts, want)
	}
	if !run.Serializable {
		t.Error("Serializable = false, want true")
	}
	if run.ModelVersion != ir.ModelVersion || run.CheckerVersion != ir.CheckerVersion {
		t.Errorf("versions = %s/%s", run.ModelVersion, run.CheckerVersion)
	}
	if run.CreatedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("CreatedAt = %q", run.CreatedAt)
	}
	if run.OutputDigest == "" {
		t.Error("OutputDigest is empty with a snapshot")
	}
}

func TestWriteRun_GraveRunHasNoSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	w := createTestRun("run-a")
	w.Report.AddGrave(report.StructuralError{Code: report.ErrUnknownState, Subject: "100.10.001", Message: "unknown state \"x\""})
	w.Snapshot = nil
	w.Fixes = nil
	if _, err := s.WriteRun(ctx, w); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	run, err := s.ReadRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if run.Serializable {
		t.Error("Serializable = true with a grave error")
	}
	if run.OutputDigest != "" {
		t.Errorf("OutputDigest = %q, want empty", run.OutputDigest)
	}

	rows, err := s.ReadStructural(ctx, "run-a")
	if err != nil {
		t.Fatalf("ReadStructural() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ReadStructural() returned %d rows, want 2", len(rows))
	}
	if rows[0].Severity != "grave" || rows[0].Code != report.ErrUnknownState {
		t.Errorf("rows[0] = %+v, want the grave error first", rows[0])
	}
	if rows[1].Severity != "normal" || rows[1].Code != "E101" {
		t.Errorf("rows[1] = %+v, want the normal error", rows[1])
	}
}
