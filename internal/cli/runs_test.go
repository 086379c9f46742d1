package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/store"
)

// archivedDB validates the missing-legislation records twice, once with
// corrections, into a fresh archive.
func archivedDB(t *testing.T) string {
	t.Helper()
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)
	db := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := executeCommand(t, "validate", dir, "--db", db)
	require.Equal(t, ExitFailure, GetExitCode(err))
	_, _, err = executeCommand(t, "fix", dir, "--db", db)
	require.NotEqual(t, ExitCommandError, GetExitCode(err))
	return db
}

func runsJSON[T any](t *testing.T, args ...string) T {
	t.Helper()
	out, _, err := executeCommand(t, append([]string{"runs", "--format", "json"}, args...)...)
	require.NoError(t, err, out)
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestRunsRequiresArchive(t *testing.T) {
	out, _, err := executeCommand(t, "runs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no archive")
}

func TestRunsList(t *testing.T) {
	db := archivedDB(t)

	runs := runsJSON[[]store.Run](t, "--db", db)
	require.Len(t, runs, 2)
	seqs := []int64{runs[0].Seq, runs[1].Seq}
	assert.ElementsMatch(t, []int64{1, 2}, seqs)
	for _, r := range runs {
		assert.True(t, r.Serializable)
		assert.NotEmpty(t, r.ID)
	}

	limited := runsJSON[[]store.Run](t, "--db", db, "--limit", "1")
	assert.Len(t, limited, 1)
}

func TestRunsListText(t *testing.T) {
	db := archivedDB(t)

	out, _, err := executeCommand(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SERIALIZABLE")
	assert.Contains(t, out, "REGRESSIONS")
}

func TestRunsEmptyArchive(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	out, _, err := executeCommand(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs archived.")
}

func TestRunsFailures(t *testing.T) {
	db := archivedDB(t)

	all := runsJSON[[]store.FailureRow](t, "--db", db, "--invariant", "leg_inv_1")
	require.Len(t, all, 2)

	fixed := runsJSON[[]store.FailureRow](t, "--db", db, "--invariant", "leg_inv_1", "--status", "fixed")
	require.Len(t, fixed, 1)
	assert.Equal(t, report.FixFixed, fixed[0].FixStatus)
	assert.Equal(t, "200.10.001", string(fixed[0].Code))

	byRun := runsJSON[[]store.FailureRow](t, "--db", db, "--run", fixed[0].RunID, "--invariant", "leg_inv_1")
	require.Len(t, byRun, 1)
	assert.Equal(t, fixed[0].RunID, byRun[0].RunID)

	subtree := runsJSON[[]store.FailureRow](t, "--db", db, "--code", "200", "--invariant", "leg_inv_1")
	assert.Len(t, subtree, 2)

	none := runsJSON[[]store.FailureRow](t, "--db", db, "--code", "300", "--invariant", "leg_inv_1")
	assert.Empty(t, none)
}

func TestRunsFailuresText(t *testing.T) {
	db := archivedDB(t)

	out, _, err := executeCommand(t, "runs", "--db", db, "--invariant", "leg_inv_1")
	require.NoError(t, err)
	assert.Contains(t, out, "INVARIANT")
	assert.Contains(t, out, "2 failure(s)")

	out, _, err = executeCommand(t, "runs", "--db", db, "--regressions")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching failures.")
}

func TestRunsBadFilters(t *testing.T) {
	db := archivedDB(t)

	out, _, err := executeCommand(t, "runs", "--db", db, "--status", "open")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeInvalidInput+"]")

	out, _, err = executeCommand(t, "runs", "--db", db, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestRunsSQL(t *testing.T) {
	db := archivedDB(t)

	rows := runsJSON[[]map[string]string](t, "--db", db, "--sql",
		"SELECT fix_status, COUNT(*) AS n FROM failures WHERE invariant_id = 'leg_inv_1' GROUP BY fix_status ORDER BY fix_status")
	assert.Equal(t, []map[string]string{
		{"fix_status": "fixed", "n": "1"},
		{"fix_status": "none", "n": "1"},
	}, rows)

	out, _, err := executeCommand(t, "runs", "--db", db, "--sql", "SELECT COUNT(*) AS runs FROM runs")
	require.NoError(t, err)
	assert.Contains(t, out, "1 row(s)")

	out, _, err = executeCommand(t, "runs", "--db", db, "--sql", "DELETE FROM runs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "only SELECT")

	_, _, err = executeCommand(t, "runs", "--db", db, "--sql", "SELECT nope FROM nowhere")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunsSQLCannotWrite(t *testing.T) {
	db := archivedDB(t)

	for _, q := range []string{
		"WITH x AS (SELECT 1) DELETE FROM fixes",
		"SELECT 1; DELETE FROM runs",
	} {
		_, _, err := executeCommand(t, "runs", "--db", db, "--sql", q)
		require.Error(t, err, q)
		assert.Equal(t, ExitCommandError, GetExitCode(err), q)
	}

	counts := runsJSON[[]map[string]string](t, "--db", db, "--sql",
		"SELECT (SELECT COUNT(*) FROM runs) AS runs, (SELECT COUNT(*) FROM fixes) > 0 AS has_fixes")
	assert.Equal(t, []map[string]string{{"runs": "2", "has_fixes": "1"}}, counts)
}

func TestRunsSQLMissingArchive(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")
	out, _, err := executeCommand(t, "runs", "--db", db, "--sql", "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeArchive+"]")
}
