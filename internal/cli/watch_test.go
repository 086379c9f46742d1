package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesInclude(t *testing.T) {
	include := []string{"**/*.cue", "**/*.json"}
	tests := []struct {
		path string
		want bool
	}{
		{"200.cue", true},
		{"sheets/300.json", true},
		{"a/b/c/400.cue", true},
		{"notes.txt", false},
		{"200.cue.swp", false},
	}

	dir := "records"
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesInclude(dir, filepath.Join(dir, filepath.FromSlash(tt.path)), include))
		})
	}

	assert.False(t, matchesInclude(dir, "elsewhere/200.cue", []string{"*.cue"}))
}

// startWatch runs Watch in the background and reports every run on the
// returned channel.
func startWatch(t *testing.T, dir string) (runs <-chan struct{}, stop func() error) {
	t.Helper()
	ch := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, WatchConfig{
			Dir:      dir,
			Include:  []string{"**/*.cue"},
			Debounce: 50 * time.Millisecond,
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		}, func(context.Context) error {
			ch <- struct{}{}
			return errors.New("runs may fail without stopping the watch")
		})
	}()

	return ch, func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatalf("watch did not stop")
			return nil
		}
	}
}

func waitRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected a run")
	}
}

func TestWatch_RunsOnChange(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)
	runs, stop := startWatch(t, dir)

	waitRun(t, runs) // initial run

	// A burst of writes is one run.
	path := filepath.Join(dir, "200.cue")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(missingLegislationCUE), 0644))
	}
	waitRun(t, runs)

	select {
	case <-runs:
		t.Fatalf("burst triggered more than one run")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, stop())
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)
	runs, stop := startWatch(t, dir)
	waitRun(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	select {
	case <-runs:
		t.Fatalf("non-record file triggered a run")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, stop())
}

func TestWatch_NewDirectories(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)
	runs, stop := startWatch(t, dir)
	waitRun(t, runs)

	sub := filepath.Join(dir, "sheets")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Let the watcher pick up the new directory before writing into it.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "300.cue"), []byte(missingLegislationCUE), 0644))
	waitRun(t, runs)

	require.NoError(t, stop())
}

func TestWatch_MissingDir(t *testing.T) {
	err := Watch(context.Background(), WatchConfig{
		Dir:     filepath.Join(t.TempDir(), "missing"),
		Include: []string{"**/*.cue"},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestWatchCommand_NotADirectory(t *testing.T) {
	dir := writeRecords(t, t.TempDir(), "200.cue", missingLegislationCUE)
	out, _, err := executeCommand(t, "watch", filepath.Join(dir, "200.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}
