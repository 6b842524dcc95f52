package training

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yml
var defaultConfigYAML []byte

type configFile struct {
	Language string `yaml:"language"`
	Pipeline any    `yaml:"pipeline"`
	Policies any    `yaml:"policies"`
}

// ReadConfigYAML parses a pipeline config file. Pipeline and policies are
// converted to JSON documents as-is.
func ReadConfigYAML(data []byte) (Config, error) {
	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c := Config{Language: f.Language}
	var err error
	if c.Pipeline, err = toJSON(f.Pipeline); err != nil {
		return Config{}, fmt.Errorf("config pipeline: %w", err)
	}
	if c.Policies, err = toJSON(f.Policies); err != nil {
		return Config{}, fmt.Errorf("config policies: %w", err)
	}
	return c, nil
}

// DefaultConfig returns the built-in pipeline config, or the file at path
// when path is non-empty.
func DefaultConfig(path string) (Config, error) {
	data := defaultConfigYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		data = b
	}
	return ReadConfigYAML(data)
}

func toJSON(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("[]"), nil
	}
	return json.Marshal(v)
}
