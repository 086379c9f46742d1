package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/engine"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/testutil"
)

// scenarioTime is the CreatedAt of every scenario run.
var scenarioTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes a scenario with a background context.
func Run(s *Scenario) (*Result, error) {
	return RunContext(context.Background(), s)
}

// RunContext executes a scenario against a fresh pipeline and evaluates its
// assertions.
//
// Returns an error when the scenario cannot be executed at all: unreadable
// inputs, or a run error the scenario did not expect. Assertion failures are
// reported in Result.Errors.
func RunContext(ctx context.Context, s *Scenario) (*Result, error) {
	files, err := s.Inputs()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	p, err := engine.New(pipelineOptions(s)...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	run, err := p.Run(ctx, files)
	if s.ExpectError != "" {
		result := NewResult(nil)
		switch {
		case err == nil:
			result.AddError(fmt.Sprintf("expected run error containing %q, run succeeded", s.ExpectError))
		case !strings.Contains(err.Error(), s.ExpectError):
			result.AddError(fmt.Sprintf("expected run error containing %q, got %q", s.ExpectError, err.Error()))
		}
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	result := NewResult(run)
	actx := &AssertionContext{Ctx: ctx}
	defer actx.Close()
	for _, msg := range EvaluateAssertions(result, s.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func pipelineOptions(s *Scenario) []engine.Option {
	opts := []engine.Option{
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunIDs(testutil.NewFixedRunIDGenerator(s.Name)),
		engine.WithClock(func() time.Time { return scenarioTime }),
		engine.WithAutofix(s.Autofix),
		engine.WithWorkers(s.Workers),
	}
	if s.Revalidate != nil {
		opts = append(opts, engine.WithRevalidation(*s.Revalidate))
	}
	if len(s.Fixable) > 0 {
		opts = append(opts, engine.WithFixable(s.Fixable...))
	}
	return opts
}
