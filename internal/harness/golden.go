package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/correction"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/engine"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/ir"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

// RunSnapshot captures everything a scenario run decided.
type RunSnapshot struct {
	Scenario     string              `json:"scenario"`
	RunID        string              `json:"run_id"`
	InputDigest  string              `json:"input_digest"`
	OutputDigest string              `json:"output_digest,omitempty"`
	Report       *report.Report      `json:"report"`
	Commits      []correction.Commit `json:"commits"`
}

// Snapshot renders a run as canonical JSON.
func Snapshot(name string, run *engine.Result) ([]byte, error) {
	snap := RunSnapshot{
		Scenario:    name,
		RunID:       run.RunID,
		InputDigest: run.InputDigest,
		Report:      run.Report,
		Commits:     run.Commits,
	}
	if run.Output != nil {
		d, err := ir.SetDigest(*run.Output)
		if err != nil {
			return nil, err
		}
		snap.OutputDigest = d
	}
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run or its assertions fail.
// A snapshot mismatch fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s: %v", scenario.Name, result.Errors)
	}
	if result.Run == nil {
		return fmt.Errorf("scenario %s: no run to snapshot", scenario.Name)
	}

	data, err := Snapshot(scenario.Name, result.Run)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", scenario.Name, err)
	}

	base := []goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}
	g := goldie.New(t, append(base, opts...)...)
	g.Assert(t, scenario.Name, data)
	return nil
}
