package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuite_Testdata(t *testing.T) {
	result, err := RunSuite(context.Background(), filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 5, result.Passed)
	assert.True(t, result.OK(), "failures: %v", result.Failures)
}

func TestRunSuite_CountsFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	broken := "name: broken\nfiles: [a.cue]\n"
	failing := `
name: failing
records:
  sheets:
    "200":
      - code: "200.10.001"
        title: "Gestão de obras"
        pca: {values: ["5"]}
        df: {value: "C"}
        owners: [ent_A]
assertions:
  - type: failure
    invariant: rel_1_inv_1
`
	passing := `
name: passing
records:
  sheets:
    "200":
      - code: "200.10.001"
        title: "Gestão de obras"
        pca: {values: ["5"]}
        df: {value: "C"}
        owners: [ent_A]
assertions:
  - type: serializable
    expect: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_broken.yaml"), []byte(broken), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_failing.yml"), []byte(failing), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c_passing.yaml"), []byte(passing), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	result, err := RunSuite(context.Background(), dir, "")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 2, result.Failed)
	assert.False(t, result.OK())

	require.Len(t, result.Failures, 2)
	assert.Equal(t, filepath.Join(dir, "a_broken.yaml"), result.Failures[0].Path)
	assert.Empty(t, result.Failures[0].Scenario)
	assert.Contains(t, result.Failures[0].Error, "at least one assertion")
	assert.Equal(t, "failing", result.Failures[1].Scenario)
	assert.Contains(t, result.Failures[1].Error, "scenario assertions failed")
}

func TestRunSuite_Pattern(t *testing.T) {
	result, err := RunSuite(context.Background(), filepath.Join("testdata", "scenarios"), "self_*.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
}

func TestRunSuite_BadPattern(t *testing.T) {
	_, err := RunSuite(context.Background(), t.TempDir(), "[")
	require.Error(t, err)
}

func TestRunSuite_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := RunSuite(ctx, filepath.Join("testdata", "scenarios"), "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Total)
}
