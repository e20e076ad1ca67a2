// Package config holds all strata configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all strata configuration. Policy knobs map onto the engine's
// Options; zero values mean "use the engine default".
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Memory   MemoryConfig   `yaml:"memory"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MemoryConfig tunes the tier policy. Durations use Go syntax ("90m", "36h").
type MemoryConfig struct {
	ShortCap  int `yaml:"short_cap"`
	MediumCap int `yaml:"medium_cap"`

	ShortHalfLife  Duration `yaml:"short_half_life"`
	MediumHalfLife Duration `yaml:"medium_half_life"`
	LongHalfLife   Duration `yaml:"long_half_life"`

	ShortMaxAge  Duration `yaml:"short_max_age"`
	MediumMaxAge Duration `yaml:"medium_max_age"`

	ShortIdleEvict  Duration `yaml:"short_idle_evict"`
	MediumIdleEvict Duration `yaml:"medium_idle_evict"`

	ConsolidationInterval Duration `yaml:"consolidation_interval"`
}

// Duration is a time.Duration that unmarshals from YAML duration strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38111,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is
// not an error; it just yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
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
