package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/correction"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// Run is an archived run summary.
type Run struct {
	ID             string        `json:"id"`
	Seq            int64         `json:"seq"`
	CreatedAt      string        `json:"created_at"`
	InputDigest    string        `json:"input_digest"`
	OutputDigest   string        `json:"output_digest,omitempty"`
	ModelVersion   string        `json:"model_version"`
	CheckerVersion string        `json:"checker_version"`
	Serializable   bool          `json:"serializable"`
	Counts         report.Counts `json:"counts"`
}

const runColumns = `id, seq, created_at, input_digest, output_digest, model_version, checker_version,
	serializable, grave, normal, failures, fixed, fix_failed, warnings, regressions`

func scanRun(sc interface{ Scan(...any) error }) (Run, error) {
	var r Run
	var serializable int
	err := sc.Scan(&r.ID, &r.Seq, &r.CreatedAt, &r.InputDigest, &r.OutputDigest,
		&r.ModelVersion, &r.CheckerVersion, &serializable,
		&r.Counts.Grave, &r.Counts.Normal, &r.Counts.Failures, &r.Counts.Fixed,
		&r.Counts.FixFailed, &r.Counts.Warnings, &r.Counts.Regressions)
	r.Serializable = serializable == 1
	return r, err
}

// ListRuns returns the last limit runs in seq order, oldest first. A limit
// of zero or less returns every run.
//
// Returns an empty slice (not nil) when the archive is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq ASC`
	var args []any
	if limit > 0 {
		query = `SELECT * FROM (SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun returns the run with the highest seq.
// Returns sql.ErrNoRows if the archive is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	return scanRun(row)
}

// FailureFilter selects archived failures. Zero fields match everything.
type FailureFilter struct {
	RunID       string
	InvariantID string

	// Code matches the code itself and every code below it.
	Code ir.Code

	Status report.FixStatus

	// OnlyRegressions keeps the failures found by final revalidation.
	OnlyRegressions bool
}

// FailureRow is an archived failure.
type FailureRow struct {
	RunID       string           `json:"run_id"`
	Index       int              `json:"index"`
	InvariantID string           `json:"invariant_id"`
	Code        ir.Code          `json:"code"`
	Message     string           `json:"message"`
	DetailType  string           `json:"detail_type,omitempty"`
	Detail      json.RawMessage  `json:"detail,omitempty"`
	FixStatus   report.FixStatus `json:"fix_status"`
	FixNote     string           `json:"fix_note,omitempty"`
	Regression  bool             `json:"regression,omitempty"`
}

// ReadFailures returns archived failures matching f, ordered by run seq
// then by position in the run.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadFailures(ctx context.Context, f FailureFilter) ([]FailureRow, error) {
	var where []string
	var args []any
	if f.RunID != "" {
		where = append(where, "f.run_id = ?")
		args = append(args, f.RunID)
	}
	if f.InvariantID != "" {
		where = append(where, "f.invariant_id = ?")
		args = append(args, f.InvariantID)
	}
	if f.Code != "" {
		where = append(where, "(f.code = ? OR f.code LIKE ? ESCAPE '\\')")
		args = append(args, string(f.Code), escapeLike(string(f.Code))+".%")
	}
	if f.Status != "" {
		where = append(where, "f.fix_status = ?")
		args = append(args, string(f.Status))
	}
	if f.OnlyRegressions {
		where = append(where, "f.regression = 1")
	}

	query := `
		SELECT f.run_id, f.idx, f.invariant_id, f.code, f.message, f.detail_type, f.detail,
		       f.fix_status, f.fix_note, f.regression
		FROM failures f
		JOIN runs r ON r.id = f.run_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY r.seq ASC, f.idx ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	out := []FailureRow{}
	for rows.Next() {
		var fr FailureRow
		var code, status, detail string
		var regression int
		if err := rows.Scan(&fr.RunID, &fr.Index, &fr.InvariantID, &code, &fr.Message,
			&fr.DetailType, &detail, &status, &fr.FixNote, &regression); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		fr.Code = ir.Code(code)
		fr.FixStatus = report.FixStatus(status)
		fr.Detail = json.RawMessage(detail)
		fr.Regression = regression == 1
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return out, nil
}

// StructuralRow is an archived load error.
type StructuralRow struct {
	Severity string `json:"severity"`
	report.StructuralError
}

// ReadStructural returns the load errors of a run, grave first.
func (s *Store) ReadStructural(ctx context.Context, runID string) ([]StructuralRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, err_code, subject, message, sheet
		FROM structural_errors
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query structural errors: %w", err)
	}
	defer rows.Close()

	out := []StructuralRow{}
	for rows.Next() {
		var r StructuralRow
		var subject string
		if err := rows.Scan(&r.Severity, &r.Code, &subject, &r.Message, &r.Sheet); err != nil {
			return nil, fmt.Errorf("scan structural error: %w", err)
		}
		r.Subject = ir.Code(subject)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReadFixes returns the commit log of a run in seq order.
func (s *Store) ReadFixes(ctx context.Context, runID string) ([]correction.Commit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, invariant_id, code, touched, description
		FROM fixes
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fixes: %w", err)
	}
	defer rows.Close()

	out := []correction.Commit{}
	for rows.Next() {
		var c correction.Commit
		var code, touched string
		if err := rows.Scan(&c.Seq, &c.InvariantID, &code, &touched, &c.Description); err != nil {
			return nil, fmt.Errorf("scan fix: %w", err)
		}
		c.Code = ir.Code(code)
		if err := json.Unmarshal([]byte(touched), &c.Touched); err != nil {
			return nil, fmt.Errorf("decode fix %d touched: %w", c.Seq, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReadSnapshot returns the final record set of a run and its digest.
// Returns sql.ErrNoRows if the run archived no snapshot.
func (s *Store) ReadSnapshot(ctx context.Context, runID string) (ir.RecordSet, string, error) {
	var digest, records string
	err := s.db.QueryRowContext(ctx, `
		SELECT set_digest, records FROM snapshots WHERE run_id = ?
	`, runID).Scan(&digest, &records)
	if err != nil {
		return ir.RecordSet{}, "", err
	}

	var set ir.RecordSet
	if err := json.Unmarshal([]byte(records), &set); err != nil {
		return ir.RecordSet{}, "", fmt.Errorf("decode snapshot %s: %w", runID, err)
	}
	return set, digest, nil
}

// ReadReportJSON returns the report of a run as archived.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadReportJSON(ctx context.Context, runID string) (json.RawMessage, error) {
	var raw string
	if err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, runID).Scan(&raw); err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
