// Package config loads run settings from a YAML file, with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jsphweid/perfgrade/constants"
	"github.com/jsphweid/perfgrade/logger"
)

type Config struct {
	Score      string   `yaml:"score"`
	Takes      []string `yaml:"takes"`
	Model      string   `yaml:"model"`
	OutDir     string   `yaml:"out_dir"`
	TargetBPM  *float64 `yaml:"target_bpm"`
	Workers    int      `yaml:"workers"`
	DBPath     string   `yaml:"db_path"`
	ListenAddr string   `yaml:"listen_addr"`
	LogLevel   string   `yaml:"log_level"`
	HeaderRows int      `yaml:"header_rows"`

	WatchInterval time.Duration `yaml:"watch_interval"`
	Debounce      time.Duration `yaml:"debounce"`
}

func Default() *Config {
	return &Config{
		OutDir:        constants.GetOutDir(),
		Workers:       constants.DefaultWorkers,
		DBPath:        constants.GetDBPath(),
		ListenAddr:    constants.GetListenAddr(),
		LogLevel:      "info",
		HeaderRows:    constants.TakeHeaderRows,
		WatchInterval: time.Second,
		Debounce:      500 * time.Millisecond,
	}
}

// Load reads path over the defaults. An empty path returns the defaults
// with the environment applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %v: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv lets the environment win over file values.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(constants.OutDirEnv); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv(constants.DBPathEnv); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(constants.ListenAddrEnv); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(constants.LogLevelEnv); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.TargetBPM != nil && *c.TargetBPM <= 0 {
		errs = append(errs, fmt.Errorf("target_bpm: please only provide a positive decimal number, got %v", *c.TargetBPM))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers: must be at least 1, got %d", c.Workers))
	}
	if c.HeaderRows < 0 {
		errs = append(errs, fmt.Errorf("header_rows: must not be negative, got %d", c.HeaderRows))
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	if c.WatchInterval <= 0 {
		errs = append(errs, errors.New("watch_interval: must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Level() logger.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}
