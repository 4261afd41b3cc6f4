package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RewriterConfig describes an external command that rewrites documents.
type RewriterConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of rewriters.yaml
type ConfigFile struct {
	Rewriters []RewriterConfig `yaml:"rewriters" json:"rewriters"`
}

// LoadRewriters reads a configuration file (YAML or JSON) and returns the
// rewriters by name. A missing file means no rewriters are configured.
func LoadRewriters(path string) (map[string]RewriterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]RewriterConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read rewriters config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	out := make(map[string]RewriterConfig)
	for _, rw := range cfg.Rewriters {
		if rw.Name == "" || rw.Command == "" {
			continue
		}
		out[rw.Name] = rw
	}
	return out, nil
}
