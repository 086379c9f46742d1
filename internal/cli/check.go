package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/config"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/correction"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/engine"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/metrics"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/store"
)

// RunSummary is the outcome of one check as printed by validate, fix and
// watch.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	InputDigest  string        `json:"input_digest"`
	Records      int           `json:"records"`
	Serializable bool          `json:"serializable"`
	Counts       report.Counts `json:"counts"`

	// Open counts failures left unfixed.
	Open int `json:"open"`

	Report  *report.Report      `json:"report"`
	Commits []correction.Commit `json:"commits,omitempty"`

	// ArchiveSeq is the archive seq of the run, 0 when not archived.
	ArchiveSeq int64 `json:"archive_seq,omitempty"`

	// Output is the path the corrected record set was written to.
	Output string `json:"output,omitempty"`
}

// Passed reports whether the run leaves nothing to act on: no grave errors,
// no open failures, no regressions.
func (s *RunSummary) Passed() bool {
	return s.Serializable && s.Open == 0 && s.Counts.Regressions == 0
}

func summarize(res *engine.Result) *RunSummary {
	s := &RunSummary{
		RunID:        res.RunID,
		InputDigest:  res.InputDigest,
		Records:      res.Records,
		Serializable: res.Report.Serializable(),
		Counts:       res.Report.Counts(),
		Report:       res.Report,
		Commits:      res.Commits,
	}
	for _, f := range res.Report.All() {
		if f.FixStatus != report.FixFixed {
			s.Open++
		}
	}
	return s
}

// checker runs the pipeline the way the config describes. One checker
// serves every run of a watch session.
type checker struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *engine.Pipeline
	metrics  *metrics.Recorder
}

// newChecker builds a checker. Corrections run when autofix is set or the
// config enables them.
func newChecker(opts *RootOptions, logW io.Writer, autofix bool) (*checker, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	c := &checker{cfg: cfg, logger: opts.Logger(logW, cfg)}

	popts := []engine.Option{
		engine.WithLogger(c.logger),
		engine.WithWorkers(cfg.Workers),
		engine.WithAutofix(autofix || cfg.Autofix),
		engine.WithRevalidation(cfg.Revalidate),
	}
	if len(cfg.Fixable) > 0 {
		popts = append(popts, engine.WithFixable(cfg.Fixable...))
	}
	if cfg.MetricsFile != "" {
		c.metrics = metrics.New()
		popts = append(popts, engine.WithMetrics(c.metrics))
	}

	c.pipeline, err = engine.New(popts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to start pipeline", err)
	}
	return c, nil
}

// check loads paths, runs the pipeline, then archives the run and writes
// metrics when configured. Errors are ExitErrors.
func (c *checker) check(ctx context.Context, paths []string) (*engine.Result, *RunSummary, error) {
	files, err := LoadRecordFiles(paths, c.cfg.Include)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load record files", err)
	}
	c.logger.Debug("record files found", "files", len(files))

	res, err := c.pipeline.Run(ctx, files)
	if err != nil {
		if engine.IsCompileError(err) {
			var re *engine.RuntimeError
			errors.As(err, &re)
			return nil, nil, WrapExitError(ExitCommandError, "failed to compile record files",
				&LoadError{Code: ErrCodeBuildFailed, Message: err.Error(), Path: re.File})
		}
		return nil, nil, WrapExitError(ExitCommandError, "run failed", err)
	}
	summary := summarize(res)

	if c.cfg.Database != "" {
		seq, err := c.archive(ctx, res)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to archive run",
				&LoadError{Code: ErrCodeArchive, Message: err.Error(), Path: c.cfg.Database})
		}
		summary.ArchiveSeq = seq
	}

	if c.metrics != nil {
		if err := c.metrics.WriteTextfile(c.cfg.MetricsFile); err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to write metrics",
				&LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Path: c.cfg.MetricsFile})
		}
	}
	return res, summary, nil
}

func (c *checker) archive(ctx context.Context, res *engine.Result) (int64, error) {
	st, err := store.Open(c.cfg.Database)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			c.logger.Error("error closing archive", "error", closeErr)
		}
	}()

	seq, err := st.WriteRun(ctx, res.Archive())
	if err != nil {
		return 0, err
	}
	c.logger.Info("run archived", "run", res.RunID, "seq", seq, "db", c.cfg.Database)
	return seq, nil
}

// outputSummary prints s in the configured format.
func outputSummary(f *OutputFormatter, s *RunSummary) error {
	if f.Format == "json" {
		status := "ok"
		if !s.Passed() {
			status = "failed"
		}
		return f.JSON(status, s.RunID, s)
	}
	renderSummary(f.Writer, s, f.Verbose)
	return nil
}

// summaryExit maps a summary to the command's exit status.
func summaryExit(s *RunSummary) error {
	if s.Passed() {
		return nil
	}
	switch {
	case !s.Serializable:
		return NewExitError(ExitFailure, fmt.Sprintf("%d grave error(s)", s.Counts.Grave))
	case s.Counts.Regressions > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d regression(s) after correction", s.Counts.Regressions))
	default:
		return NewExitError(ExitFailure, fmt.Sprintf("%d open invariant failure(s)", s.Open))
	}
}
