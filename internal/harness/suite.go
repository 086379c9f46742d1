package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern selects scenario files under a suite directory.
const DefaultPattern = "**/*.{yaml,yml}"

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure records one scenario that did not pass.
type ScenarioFailure struct {
	Path     string `json:"path"`
	Scenario string `json:"scenario,omitempty"`
	Error    string `json:"error"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

// RunSuite loads and runs every scenario under dir matching pattern, in
// path order. An empty pattern means DefaultPattern.
//
// A scenario that fails to load, run, or assert counts as failed; only a
// bad pattern or unreadable dir is returned as an error.
func RunSuite(ctx context.Context, dir, pattern string) (*SuiteResult, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", pattern, dir, err)
	}
	sort.Strings(matches)

	result := &SuiteResult{}
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Total++
		path := filepath.Join(dir, filepath.FromSlash(m))

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail(path, "", err.Error())
			continue
		}

		run, err := RunContext(ctx, scenario)
		if err != nil {
			result.fail(path, scenario.Name, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		if !run.Pass {
			result.fail(path, scenario.Name, fmt.Sprintf("scenario assertions failed: %v", run.Errors))
			continue
		}
		result.Passed++
	}
	return result, nil
}

func (r *SuiteResult) fail(path, name, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{Path: path, Scenario: name, Error: msg})
}
