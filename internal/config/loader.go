package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads a run configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// Returns the parsed Config or an error if parsing fails. Defaults are not
// applied; call ApplyDefaults on the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data.
//
// The format is determined by the file extension in path, or defaults to
// YAML if the path is empty or has an unknown extension.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return &cfg, nil
}

// LoadNodePool loads a standalone node pool file: a YAML or JSON list of
// pool nodes.
func LoadNodePool(path string) ([]PoolNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node pool file: %w", err)
	}

	var pool []PoolNode
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &pool); err != nil {
			return nil, fmt.Errorf("failed to parse JSON node pool: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &pool); err != nil {
			return nil, fmt.Errorf("failed to parse YAML node pool: %w", err)
		}
	}

	return pool, nil
}
