package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadAll reads squads.yaml and rules.yaml from dir. A missing rules.yaml is
// not an error: defaults apply.
func LoadAll(dir string) (*SquadsConfig, *RulesConfig, error) {
	var sc SquadsConfig
	var rc RulesConfig
	if err := loadYAML(filepath.Join(dir, "squads.yaml"), &sc); err != nil {
		return nil, nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}
	if err := loadYAML(filepath.Join(dir, "rules.yaml"), &rc); err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}
	rc.ApplyDefaults()
	return &sc, &rc, nil
}
