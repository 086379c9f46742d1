package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/engine"
	"github.com/DBarbosa15987/clav-migrador-sub000/internal/invariant"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the run id.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Files lists record files to compile, relative to the scenario file.
	Files []string `yaml:"files,omitempty"`

	// Records is an inline record file. Compiled after Files.
	Records map[string]any `yaml:"records,omitempty"`

	Autofix bool `yaml:"autofix,omitempty"`

	// Revalidate defaults to true.
	Revalidate *bool `yaml:"revalidate,omitempty"`

	// Fixable restricts corrections to these invariant ids.
	Fixable []string `yaml:"fixable,omitempty"`

	Workers int `yaml:"workers,omitempty"`

	// ExpectError makes the run itself the subject: it must fail with an
	// error containing this text.
	ExpectError string `yaml:"expect_error,omitempty"`

	Assertions []Assertion `yaml:"assertions"`

	// baseDir resolves Files. Set by LoadScenario.
	baseDir string
}

// LoadScenario loads and validates a scenario from a YAML file.
//
// Returns an error if the file cannot be read, parsed, or fails validation.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	s.baseDir = filepath.Dir(path)

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Files) == 0 && len(s.Records) == 0 {
		return fmt.Errorf("files or records is required")
	}
	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one assertion is required")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}

	rules := invariant.Default()
	for _, id := range s.Fixable {
		if _, ok := rules.Lookup(id); !ok {
			return fmt.Errorf("fixable: unknown invariant %q", id)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion[%d]: %w", i, err)
		}
	}
	return nil
}

// Inputs reads the scenario's record files. Inline records come last,
// named after the scenario.
func (s *Scenario) Inputs() ([]engine.File, error) {
	files := make([]engine.File, 0, len(s.Files)+1)
	for _, f := range s.Files {
		path := f
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read record file: %w", err)
		}
		files = append(files, engine.File{Name: filepath.Base(path), Data: data})
	}

	if len(s.Records) > 0 {
		data, err := json.Marshal(normalizeYAML(s.Records))
		if err != nil {
			return nil, fmt.Errorf("encode inline records: %w", err)
		}
		files = append(files, engine.File{Name: s.Name + ".json", Data: data})
	}
	return files, nil
}

// normalizeYAML turns the map[any]any nodes yaml.v3 produces for
// non-string keys into map[string]any so the tree encodes as JSON.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}
