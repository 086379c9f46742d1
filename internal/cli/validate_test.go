package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOpenFailures(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)

	out, _, err := executeCommand(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "open invariant failure")

	assert.Contains(t, out, "1 records")
	assert.Contains(t, out, "leg_inv_1")
	assert.Contains(t, out, "200.10.001")
	assert.NotContains(t, out, "[fixed]")
	assert.Contains(t, out, "open failure(s)")
}

func TestValidateOpenFailuresJSON(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)

	out, _, err := executeCommand(t, "validate", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decodeResponse(t, out)
	assert.Equal(t, "failed", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, resp.RunID, data["run_id"])
	assert.Equal(t, true, data["serializable"])
	assert.Equal(t, float64(1), data["records"])
	assert.GreaterOrEqual(t, data["open"], float64(1))
	assert.Nil(t, data["commits"], "validate does not correct")
}

func TestValidateGraveErrors(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.json", graveJSON)

	out, _, err := executeCommand(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "grave error")
	assert.Contains(t, out, "Grave errors")
	assert.Contains(t, out, "S107")
	assert.Contains(t, out, "Not serializable")
}

func TestValidateSingleFile(t *testing.T) {
	// A file path is taken as is, whatever the include globs say.
	dir := writeRecords(t, t.TempDir(), "200.rec", missingLegislationCUE)
	path := filepath.Join(dir, "200.rec")
	out, _, err := executeCommand(t, "validate", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, data := decodeResponse(t, out)
	assert.Equal(t, float64(1), data["records"])
}

func TestValidateCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		code  string
	}{
		{
			name:  "path not found",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing") },
			code:  ErrCodeNotFound,
		},
		{
			name:  "no record files",
			setup: func(t *testing.T) string { return writeRecords(t, t.TempDir(), "README.md", "# records") },
			code:  ErrCodeNoFiles,
		},
		{
			name:  "schema mismatch",
			setup: func(t *testing.T) string { return writeRecords(t, t.TempDir(), "200.cue", badSchemaCUE) },
			code:  ErrCodeBuildFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCommand(t, "validate", tt.setup(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestValidateCommandErrorJSON(t *testing.T) {
	out, _, err := executeCommand(t, "validate", filepath.Join(t.TempDir(), "missing"), "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp, _ := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestValidateMissingArgs(t *testing.T) {
	_, _, err := executeCommand(t, "validate")
	require.Error(t, err)
}

func TestValidateArchivesAndWritesMetrics(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)
	db := filepath.Join(t.TempDir(), "runs.db")
	prom := filepath.Join(t.TempDir(), "clav.prom")

	out, _, err := executeCommand(t, "validate", dir, "--db", db, "--metrics-file", prom, "--format", "json")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, data := decodeResponse(t, out)
	assert.Equal(t, float64(1), data["archive_seq"])

	metrics, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "clav")
}

func TestValidateConfigAutofix(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)
	cfgPath := filepath.Join(t.TempDir(), "clavcheck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("autofix: true\n"), 0644))

	out, _, _ := executeCommand(t, "validate", dir, "--config", cfgPath)
	assert.Contains(t, out, "[fixed]")
	assert.Contains(t, out, "Corrections (")
}
