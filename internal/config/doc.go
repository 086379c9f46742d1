// Package config loads clavcheck settings from a YAML or TOML file.
//
// The format is chosen by extension (.yaml, .yml or .toml). Keys absent from
// the file keep their defaults. The loaded value is checked with struct tags
// before it is returned.
package config
