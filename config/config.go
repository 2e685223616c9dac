package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineConfig is the root structure for a pipeline definition (e.g. from YAML).
type PipelineConfig struct {
	Name      string       `yaml:"name"`
	Handlers  []HandlerRef `yaml:"handlers"`
	Observers []string     `yaml:"observers"` // names registered in BuildOptions.ObserverRegistry
}

// HandlerRef is a single handler entry: either a plain name or name + options.
// In YAML, a handler can be written as:
//   - parse
//   - name: lookup
//     terminal: true
type HandlerRef struct {
	Name string `yaml:"name"`

	// Terminal ends the run after this handler, skipping the rest.
	Terminal bool `yaml:"terminal"`
}

// UnmarshalYAML allows a handler to be a string (name only) or a struct.
func (h *HandlerRef) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		h.Name = nameOnly
		return nil
	}
	type raw HandlerRef
	return value.Decode((*raw)(h))
}

// ParsePipelineConfig parses YAML bytes into a single PipelineConfig.
func ParsePipelineConfig(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MultiPipelineConfig is the root structure for a file that defines multiple pipelines.
// Top-level keys are "log" (optional) and "pipelines", a map from name to pipeline.
type MultiPipelineConfig struct {
	Log       LogConfig                 `yaml:"log"`
	Pipelines map[string]PipelineConfig `yaml:"pipelines"`
}

// ParseMultiPipelineConfig parses YAML bytes that contain a "pipelines" map.
// Example YAML:
//
//	log:
//	  level: debug
//	pipelines:
//	  ingest:
//	    handlers: [fetch, parse]
//	  notify:
//	    handlers: [validate, send]
func ParseMultiPipelineConfig(data []byte) (*MultiPipelineConfig, error) {
	var cfg MultiPipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Log.ApplyDefaults()
	if err := cfg.Log.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses a multi-pipeline YAML file.
func LoadFile(path string) (*MultiPipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := ParseMultiPipelineConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
