// Package config loads wa2019 settings from a YAML file, a .env file and
// WA2019_* environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dlwalsh/wa2019/pkg/apportion"
)

// Config holds every setting the CLI and server read.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Apportion ApportionConfig `yaml:"apportion"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

type DataConfig struct {
	Units    string `yaml:"units"`
	Proposal string `yaml:"proposal"`
	Output   string `yaml:"output"`
}

// ApportionConfig selects the phantom policy. Policy has no default.
// A zero Threshold or Rate keeps the policy's own constant.
type ApportionConfig struct {
	Policy    string  `yaml:"policy"`
	Threshold float64 `yaml:"threshold"`
	Rate      float64 `yaml:"rate"`
	Workers   int     `yaml:"workers"`
	Geometry  bool    `yaml:"geometry"`
}

// StoreConfig locates the run history database. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the settings used before any file or variable is read.
func Default() Config {
	return Config{
		Data: DataConfig{
			Units:    "data/sa1.geojson",
			Proposal: "data/proposal.json",
			Output:   "proposal.geojson",
		},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Port: 3000},
	}
}

// Load reads configuration from the YAML file at path (or the file named by
// WA2019_CONFIG_PATH when path is empty), then a .env file in the working
// directory, then the environment. Missing files are not an error unless a
// path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("WA2019_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"WA2019_UNITS":     &cfg.Data.Units,
		"WA2019_PROPOSAL":  &cfg.Data.Proposal,
		"WA2019_OUTPUT":    &cfg.Data.Output,
		"WA2019_POLICY":    &cfg.Apportion.Policy,
		"WA2019_DB_PATH":   &cfg.Store.Path,
		"WA2019_LOG_LEVEL": &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"WA2019_THRESHOLD": &cfg.Apportion.Threshold,
		"WA2019_RATE":      &cfg.Apportion.Rate,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"WA2019_WORKERS":     &cfg.Apportion.Workers,
		"WA2019_SERVER_PORT": &cfg.Server.Port,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"WA2019_GEOMETRY":        &cfg.Apportion.Geometry,
		"WA2019_LOG_DEVELOPMENT": &cfg.Log.Development,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.Data.Units == "" {
		return errors.New("data.units is required")
	}
	if c.Apportion.Workers < 0 {
		return fmt.Errorf("apportion.workers must be non-negative, got %d", c.Apportion.Workers)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Policy builds the configured phantom policy.
func (c Config) Policy() (apportion.PhantomPolicy, error) {
	return apportion.NewPolicy(c.Apportion.Policy, c.Apportion.Threshold, c.Apportion.Rate)
}
