package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// missingLegislationCUE declares a leaf whose legal criterion cites leg_1
// while the record itself does not.
const missingLegislationCUE = `
sheets: "200": [{
	code:  "200.10.001"
	title: "Gestão de obras"
	pca: {
		values: ["5"]
		justification: [{id: "c0", kind: "legal", content: "Lei", legislation: ["leg_1"]}]
	}
	df: value: "C"
	owners: ["ent_A"]
}]
`

// graveJSON has a record in a state that does not exist.
const graveJSON = `{"sheets": {"200": [
	{"code": "200.10.001", "state": "Desconhecido", "title": "Gestão de obras"}
]}}`

// badSchemaCUE has a numeric code.
const badSchemaCUE = `sheets: "200": [{code: 200}]`

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeRecords creates dir/name with content and returns dir.
func writeRecords(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return dir
}

// decodeResponse decodes a JSON CLI response with a generic payload.
func decodeResponse(t *testing.T, out string) (CLIResponse, map[string]any) {
	t.Helper()
	var raw struct {
		Status string         `json:"status"`
		RunID  string         `json:"run_id"`
		Data   map[string]any `json:"data"`
		Error  *CLIError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	return CLIResponse{Status: raw.Status, RunID: raw.RunID, Error: raw.Error}, raw.Data
}
