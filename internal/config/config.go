package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/invariant"
)

// Config holds every clavcheck setting.
type Config struct {
	// Workers bounds rule evaluation and correction partitions.
	Workers int `yaml:"workers" toml:"workers" validate:"min=1,max=64"`

	// Revalidate re-runs the rule set after corrections and reports
	// regressions.
	Revalidate bool `yaml:"revalidate" toml:"revalidate"`

	// Autofix enables the correction engine on validate.
	Autofix bool `yaml:"autofix" toml:"autofix"`

	// Fixable restricts corrections to these invariant ids. Empty means
	// every invariant with a planner.
	Fixable []string `yaml:"fixable" toml:"fixable" validate:"dive,invariant"`

	// Include lists doublestar patterns of record files, relative to each
	// input directory.
	Include []string `yaml:"include" toml:"include" validate:"min=1,dive,glob"`

	// Database is the run archive path. Empty disables archiving.
	Database string `yaml:"database" toml:"database"`

	// MetricsFile receives a Prometheus textfile after each run. Empty
	// disables it.
	MetricsFile string `yaml:"metrics_file" toml:"metrics_file"`

	LogLevel string `yaml:"log_level" toml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Workers:    1,
		Revalidate: true,
		Include:    []string{"**/*.cue", "**/*.json"},
		LogLevel:   "info",
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
	_ = v.RegisterValidation("invariant", func(fl validator.FieldLevel) bool {
		_, ok := invariant.Default().Lookup(fl.Field().String())
		return ok
	})
	return v
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(filepath.Ext(path), data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data into cfg. Keys missing from data leave cfg untouched.
func Parse(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// Validate checks the struct tags of c.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
