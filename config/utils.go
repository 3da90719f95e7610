package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
)

// ToYaml formats the configuration into YAML and returns the bytes.
func ToYaml(c Config) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return b, nil
}

// ToYamlFile writes the configuration to a YAML file.
func ToYamlFile(c Config, path string) error {
	b, err := ToYaml(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// Parse parses a YAML doc into the given Config instance. Fields missing
// from the document keep their current values.
func Parse(raw []byte, conf *Config) error {
	if err := yaml.Unmarshal(raw, conf); err != nil {
		return err
	}
	return nil
}

// ParseFile parses a crabgen config file, which is formatted in YAML,
// into "conf".
func ParseFile(relpath string, conf *Config) error {
	if relpath == "" {
		return nil
	}

	// Try to get absolute path. If it fails, fall back to relative path.
	path, abserr := filepath.Abs(relpath)
	if abserr != nil {
		path = relpath
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config at path %s: %w", path, err)
	}

	if err := Parse(source, conf); err != nil {
		return fmt.Errorf("parsing config at path %s: %w", path, err)
	}
	return nil
}
