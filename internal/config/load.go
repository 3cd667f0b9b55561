package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Load reads and decodes a job file. The format is chosen by extension:
// .yaml/.yml decode as YAML, everything else as JSON.
func Load(path string) (Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(raw)
	default:
		return FromJSON(raw)
	}
}

// FromJSON decodes a job from JSON bytes.
func FromJSON(raw []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return Job{}, fmt.Errorf("decode job json: %w", err)
	}
	return j, nil
}

// FromYAML decodes a job from YAML bytes.
func FromYAML(raw []byte) (Job, error) {
	var j Job
	if err := yaml.Unmarshal(raw, &j); err != nil {
		return Job{}, fmt.Errorf("decode job yaml: %w", err)
	}
	return j, nil
}
