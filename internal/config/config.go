// Package config holds kimera configuration: server binding, database path,
// and the tunable lattice decay parameters.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all kimera configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Lattice  LatticeConfig  `yaml:"lattice"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LatticeConfig tunes the decay law and resolve semantics. The entropy
// coefficient is deliberately configuration rather than a constant: the
// tau-scaling formula is a tunable, not a law.
type LatticeConfig struct {
	BaseTauDays        float64 `yaml:"base_tau_days"`        // base decay time constant
	TauEntropyCoeff    float64 `yaml:"tau_entropy_coeff"`    // tau = base * (1 + coeff*entropy)
	ResolveIncrement   float64 `yaml:"resolve_increment"`    // intensity added per resolve event
	DecayIntervalHours int     `yaml:"decay_interval_hours"` // background decay cadence
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Lattice: LatticeConfig{
			BaseTauDays:        14,
			TauEntropyCoeff:    1.0,
			ResolveIncrement:   0.1,
			DecayIntervalHours: 24,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error; it just yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// BaseTauSeconds converts the configured base tau to seconds.
func (c *LatticeConfig) BaseTauSeconds() float64 {
	return c.BaseTauDays * 24 * 60 * 60
}
