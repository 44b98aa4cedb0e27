package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"contextwindow/pkg/contextmgr"
)

// TuningFile is the YAML shape of a Manager's tuning knobs plus optional
// model registry overrides, e.g.:
//
//	reservedResponseTokens: 4096
//	tokenBuffer: 500
//	truncationFraction: 0.5
//	modelOverrides:
//	  my-custom-model: { contextWindow: 32000 }
type TuningFile struct {
	ReservedResponseTokens int                  `yaml:"reservedResponseTokens"`
	TokenBuffer            int                  `yaml:"tokenBuffer"`
	TruncationFraction     float64              `yaml:"truncationFraction"`
	ModelOverrides         map[string]ModelInfo `yaml:"modelOverrides"`
}

// modelOverrideYAML gives ModelInfo, which carries no yaml tags, the
// camelCase "contextWindow" key used in tuning files; yaml.v3's default key
// for the untagged field would be "contextwindow".
type modelOverrideYAML struct {
	ContextWindow int `yaml:"contextWindow"`
}

// UnmarshalYAML implements yaml.v3's Unmarshaler so ModelInfo (defined for
// the Go-source registry in models.go) also has a natural YAML shape without
// polluting its field names with yaml tags meant for a different producer.
func (m *ModelInfo) UnmarshalYAML(value *yaml.Node) error {
	var raw modelOverrideYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	m.ContextWindow = raw.ContextWindow
	return nil
}

// LoadTuningFile reads and parses a YAML tuning file at path.
func LoadTuningFile(path string) (*TuningFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var tf TuningFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &tf, nil
}

// ManagerConfig converts the loaded tuning knobs into a contextmgr.Config.
func (tf *TuningFile) ManagerConfig() contextmgr.Config {
	return contextmgr.Config{
		ReservedResponseTokens: tf.ReservedResponseTokens,
		TokenBuffer:            tf.TokenBuffer,
		TruncationFraction:     tf.TruncationFraction,
	}
}

// Registry builds a model Registry seeded from KnownModels and this file's
// modelOverrides section.
func (tf *TuningFile) Registry() *Registry {
	return NewRegistry(tf.ModelOverrides)
}
