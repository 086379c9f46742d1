package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/engine"
)

// LoadError represents an error that occurred while collecting record files.
type LoadError struct {
	Code    string
	Message string
	Path    string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No record files found
	ErrCodeReadFailed   = "E004" // Record file read failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // Record file failed to compile
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeArchive      = "E008" // Run archive error
	ErrCodeConfig       = "E009" // Config error
	ErrCodeInvalidInput = "E010" // Bad flag value
)

// LoadRecordFiles collects record files from paths. A file path is taken
// as is; a directory contributes every file under it matching one of the
// include globs. Results are deduplicated and sorted by path.
func LoadRecordFiles(paths, include []string) ([]engine.File, error) {
	seen := make(map[string]bool)
	var found []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "path not found", Path: p}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err), Path: p}
		}

		if !info.IsDir() {
			if !seen[p] {
				seen[p] = true
				found = append(found, p)
			}
			continue
		}

		fsys := os.DirFS(p)
		for _, pattern := range include {
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("glob %q: %v", pattern, err), Path: p}
			}
			for _, m := range matches {
				full := filepath.Join(p, filepath.FromSlash(m))
				if !seen[full] {
					seen[full] = true
					found = append(found, full)
				}
			}
		}
	}

	if len(found) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no record files found (include %v)", include)}
	}
	sort.Strings(found)

	files := make([]engine.File, 0, len(found))
	for _, path := range found {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Path: path}
		}
		files = append(files, engine.File{Name: path, Data: data})
	}
	return files, nil
}
