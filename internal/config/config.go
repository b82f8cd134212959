// Package config loads the optional project configuration file consumed
// by the atlas CLI. All fields map to Engine options; the zero value is a
// valid configuration meaning "analyze everything with defaults".
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration surface.
type Config struct {
	// Include and Exclude are doublestar glob patterns over root-relative
	// slash paths. Excludes win.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// Languages restricts analysis to the named languages. Empty means
	// all supported languages.
	Languages []string `yaml:"languages"`

	// SourceRoots are root-relative directories package-style absolute
	// imports resolve against, in priority order.
	SourceRoots []string `yaml:"source_roots"`

	// PathAliases maps import-specifier prefixes to root-relative path
	// prefixes for path-style imports.
	PathAliases map[string]string `yaml:"path_aliases"`

	// Workers sizes the parse and resolve worker pools. Zero means one
	// worker per CPU.
	Workers int `yaml:"workers"`

	// SnapshotDB is the path of the snapshot cache database. Empty
	// disables snapshotting.
	SnapshotDB string `yaml:"snapshot_db"`
}

// Load reads and strictly decodes a configuration file: unknown keys are
// an error, since a typoed key silently changing the analyzed file set is
// worse than a failed run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration bytes. See Load.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
