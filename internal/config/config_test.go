package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "clavcheck.yaml", `
workers: 4
autofix: true
fixable: [leg_inv_1, rel_8_inv_1]
include: ["sheets/*.cue"]
database: runs.db
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Autofix)
	assert.True(t, cfg.Revalidate, "absent key keeps its default")
	assert.Equal(t, []string{"leg_inv_1", "rel_8_inv_1"}, cfg.Fixable)
	assert.Equal(t, []string{"sheets/*.cue"}, cfg.Include)
	assert.Equal(t, "runs.db", cfg.Database)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "clavcheck.toml", `
workers = 2
revalidate = false
metrics_file = "clav.prom"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers)
	assert.False(t, cfg.Revalidate)
	assert.Equal(t, "clav.prom", cfg.MetricsFile)
	assert.Equal(t, Default().Include, cfg.Include)
}

func TestLoad_EmptyYAML(t *testing.T) {
	path := writeFile(t, "clavcheck.yml", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown yaml key", "c.yaml", "wrokers: 2\n", "parse yaml"},
		{"unknown toml key", "c.toml", "wrokers = 2\n", "parse toml"},
		{"unsupported extension", "c.ini", "workers=2\n", "unsupported config format"},
		{"zero workers", "c.yaml", "workers: 0\n", "Workers"},
		{"unknown invariant", "c.yaml", "fixable: [nope_inv_9]\n", "invariant"},
		{"bad glob", "c.yaml", "include: [\"[\"]\n", "glob"},
		{"empty include", "c.yaml", "include: []\n", "Include"},
		{"bad log level", "c.toml", "log_level = \"loud\"\n", "oneof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, Config{LogLevel: name}.Level(), name)
	}
}
