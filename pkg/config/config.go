// Package config loads the tunable structural constants for this
// module's three index structures from a YAML file, following the same
// existence-check-then-unmarshal shape the teacher repo uses for its own
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the structural constants each component's constructor
// takes: the B+Tree's fanout, each hash map's bucket capacity, and each
// hash map's initial directory/home-bucket count.
type Config struct {
	BPlusTree BPlusTreeConfig `yaml:"bplustree"`
	ExtHash   ExtHashConfig   `yaml:"exthash"`
	LinHash   LinHashConfig   `yaml:"linhash"`
}

// BPlusTreeConfig configures a bptreemap.BPlusTreeMap.
type BPlusTreeConfig struct {
	Order int `yaml:"order"`
}

// ExtHashConfig configures an exthash.ExtHashMap.
type ExtHashConfig struct {
	InitSize int `yaml:"init_size"`
	Slots    int `yaml:"slots"`
}

// LinHashConfig configures a linhash.LinHashMap.
type LinHashConfig struct {
	InitSize int `yaml:"init_size"`
	Slots    int `yaml:"slots"`
}

// DefaultConfig returns the reference constants from the source
// specification: B+Tree order 5, hash bucket capacity 4, and an initial
// directory/home-bucket count of 11 for both hash maps.
func DefaultConfig() *Config {
	return &Config{
		BPlusTree: BPlusTreeConfig{Order: 5},
		ExtHash:   ExtHashConfig{InitSize: 11, Slots: 4},
		LinHash:   LinHashConfig{InitSize: 11, Slots: 4},
	}
}

// absolutePath resolves configPath relative to the working directory,
// leaving an already-absolute path untouched.
func absolutePath(configPath string) (string, error) {
	if filepath.IsAbs(configPath) {
		return configPath, nil
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("invalid config path: %w", err)
	}
	return abs, nil
}

// LoadConfig reads and unmarshals configPath onto a fresh DefaultConfig,
// so fields the file omits keep their defaults rather than zeroing out.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	abs, err := absolutePath(configPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveConfig marshals cfg to configPath, creating its parent directory if
// needed. No secrets live in this Config, but the teacher's conservative
// 0750/0600 permissions are kept rather than relaxed without cause.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
