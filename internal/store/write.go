package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/correction"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// RunWrite is everything archived for one run.
type RunWrite struct {
	ID          string
	CreatedAt   time.Time
	InputDigest string
	Report      *report.Report
	Fixes       []correction.Commit

	// Snapshot is the final record set. Nil when the run stopped before
	// closure (grave errors).
	Snapshot *ir.RecordSet
}

// WriteRun archives a run in one transaction and returns the seq it was
// given. Writing the same run id twice is an error.
func (s *Store) WriteRun(ctx context.Context, w RunWrite) (int64, error) {
	if w.Report == nil {
		return 0, fmt.Errorf("write run %s: nil report", w.ID)
	}
	reportJSON, err := json.Marshal(w.Report)
	if err != nil {
		return 0, fmt.Errorf("write run %s: marshal report: %w", w.ID, err)
	}

	var snapshotJSON []byte
	var outputDigest string
	if w.Snapshot != nil {
		snapshotJSON, err = ir.MarshalCanonical(w.Snapshot)
		if err != nil {
			return 0, fmt.Errorf("write run %s: marshal snapshot: %w", w.ID, err)
		}
		outputDigest, err = ir.SetDigest(*w.Snapshot)
		if err != nil {
			return 0, fmt.Errorf("write run %s: %w", w.ID, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run %s: begin tx: %w", w.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run %s: next seq: %w", w.ID, err)
	}

	counts := w.Report.Counts()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, created_at, input_digest, output_digest, model_version, checker_version,
		 serializable, grave, normal, failures, fixed, fix_failed, warnings, regressions, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.ID, seq, w.CreatedAt.UTC().Format(time.RFC3339), w.InputDigest, outputDigest,
		ir.ModelVersion, ir.CheckerVersion, boolInt(w.Report.Serializable()),
		counts.Grave, counts.Normal, counts.Failures, counts.Fixed, counts.FixFailed,
		counts.Warnings, counts.Regressions, string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("write run %s: %w", w.ID, err)
	}

	if err := writeFailures(ctx, tx, w.ID, w.Report); err != nil {
		return 0, err
	}
	if err := writeStructural(ctx, tx, w.ID, w.Report); err != nil {
		return 0, err
	}
	if err := writeFixes(ctx, tx, w.ID, w.Fixes); err != nil {
		return 0, err
	}

	if w.Snapshot != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots (run_id, set_digest, records) VALUES (?, ?, ?)
		`, w.ID, outputDigest, string(snapshotJSON))
		if err != nil {
			return 0, fmt.Errorf("write snapshot %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run %s: commit: %w", w.ID, err)
	}
	return seq, nil
}

func writeFailures(ctx context.Context, tx *sql.Tx, runID string, rep *report.Report) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO failures
		(run_id, idx, invariant_id, code, message, detail_type, detail, fix_status, fix_note, regression)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write failures: %w", err)
	}
	defer stmt.Close()

	idx := 0
	insert := func(f *report.Failure, regression bool) error {
		detailType, detail := "", []byte("{}")
		if f.Detail != nil {
			detailType = f.Detail.Type()
			if detail, err = ir.MarshalCanonical(f.Detail); err != nil {
				return fmt.Errorf("write failure %s/%s: %w", f.InvariantID, f.Code, err)
			}
		}
		_, err := stmt.ExecContext(ctx,
			runID, idx, f.InvariantID, string(f.Code), f.Message(), detailType, string(detail),
			string(f.FixStatus), f.FixNote, boolInt(regression),
		)
		if err != nil {
			return fmt.Errorf("write failure %s/%s: %w", f.InvariantID, f.Code, err)
		}
		idx++
		return nil
	}

	for _, f := range rep.All() {
		if err := insert(f, false); err != nil {
			return err
		}
	}
	for _, f := range rep.Regressions {
		if err := insert(f, true); err != nil {
			return err
		}
	}
	return nil
}

func writeStructural(ctx context.Context, tx *sql.Tx, runID string, rep *report.Report) error {
	type row struct {
		severity string
		err      report.StructuralError
	}
	var rows []row
	for _, e := range rep.Grave.DuplicateDeclarations {
		rows = append(rows, row{"grave", e})
	}
	targets := make([]string, 0, len(rep.Grave.InvalidRelations))
	for t := range rep.Grave.InvalidRelations {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, t := range targets {
		for _, e := range rep.Grave.InvalidRelations[t] {
			rows = append(rows, row{"grave", e})
		}
	}
	for _, e := range rep.Grave.Other {
		rows = append(rows, row{"grave", e})
	}
	for _, e := range rep.Normal {
		rows = append(rows, row{"normal", e})
	}

	for i, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO structural_errors (run_id, idx, severity, err_code, subject, message, sheet)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, i, r.severity, r.err.Code, string(r.err.Subject), r.err.Message, r.err.Sheet)
		if err != nil {
			return fmt.Errorf("write structural error: %w", err)
		}
	}
	return nil
}

func writeFixes(ctx context.Context, tx *sql.Tx, runID string, fixes []correction.Commit) error {
	for _, c := range fixes {
		touched, err := json.Marshal(c.Touched)
		if err != nil {
			return fmt.Errorf("write fix %d: %w", c.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fixes (run_id, seq, invariant_id, code, touched, description)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, c.Seq, c.InvariantID, string(c.Code), string(touched), c.Description)
		if err != nil {
			return fmt.Errorf("write fix %d: %w", c.Seq, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
