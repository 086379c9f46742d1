package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/config"
)

func fileNames(t *testing.T, paths, include []string) []string {
	t.Helper()
	files, err := LoadRecordFiles(paths, include)
	require.NoError(t, err)
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
		assert.NotEmpty(t, f.Data, f.Name)
	}
	return names
}

func TestLoadRecordFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, "200.cue", missingLegislationCUE)
	writeRecords(t, dir, "sub/300.json", graveJSON)
	writeRecords(t, dir, "README.md", "# records")

	names := fileNames(t, []string{dir}, config.Default().Include)
	assert.Equal(t, []string{
		filepath.Join(dir, "200.cue"),
		filepath.Join(dir, "sub", "300.json"),
	}, names)
}

func TestLoadRecordFiles_IncludeFilters(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, "200.cue", missingLegislationCUE)
	writeRecords(t, dir, "300.json", graveJSON)

	names := fileNames(t, []string{dir}, []string{"*.json"})
	assert.Equal(t, []string{filepath.Join(dir, "300.json")}, names)
}

func TestLoadRecordFiles_Deduplicates(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, "200.cue", missingLegislationCUE)
	file := filepath.Join(dir, "200.cue")

	names := fileNames(t, []string{dir, file, dir}, []string{"**/*.cue", "*.cue"})
	assert.Equal(t, []string{file}, names)
}

func TestLoadRecordFiles_Errors(t *testing.T) {
	empty := t.TempDir()
	withNotes := writeRecords(t, t.TempDir(), "notes.txt", "x")

	tests := []struct {
		name    string
		paths   []string
		include []string
		code    string
	}{
		{"not found", []string{filepath.Join(empty, "nope")}, []string{"*.cue"}, ErrCodeNotFound},
		{"empty dir", []string{empty}, []string{"*.cue"}, ErrCodeNoFiles},
		{"nothing matches", []string{withNotes}, []string{"**/*.cue"}, ErrCodeNoFiles},
		{"bad glob", []string{withNotes}, []string{"["}, ErrCodeScanError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRecordFiles(tt.paths, tt.include)
			require.Error(t, err)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadError_Error(t *testing.T) {
	assert.Equal(t, "E003: nothing", (&LoadError{Code: ErrCodeNoFiles, Message: "nothing"}).Error())
	assert.Equal(t, "a.cue: E004: denied", (&LoadError{Code: ErrCodeReadFailed, Message: "denied", Path: "a.cue"}).Error())
}
