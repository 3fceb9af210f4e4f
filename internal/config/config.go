// Package config loads the settings shared by the API server and the worker.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tsanders-rh/dockctl/internal/ai"
	"github.com/tsanders-rh/dockctl/internal/api"
	"github.com/tsanders-rh/dockctl/internal/auth"
	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/internal/export"
	"github.com/tsanders-rh/dockctl/internal/janitor"
	"github.com/tsanders-rh/dockctl/internal/logging"
	"github.com/tsanders-rh/dockctl/internal/store"
	"github.com/tsanders-rh/dockctl/internal/worker"
)

// DefaultPath is read when --config is not given. A missing default file is
// not an error.
const DefaultPath = "./config.yml"

// Config is the complete service configuration. Server and auth settings keep
// their historical unprefixed variable names (PORT, FRONTEND_URL, API_KEY).
type Config struct {
	Server   api.ServerConfig `yaml:"server"`
	Auth     auth.Config      `yaml:"auth"`
	Docker   engine.Config    `yaml:"docker" envPrefix:"DOCKER_"`
	AI       ai.Config        `yaml:"ai" envPrefix:"OPENAI_"`
	Cost     cost.Config      `yaml:"cost" envPrefix:"COST_"`
	Bulk     bulk.Config      `yaml:"bulk" envPrefix:"BULK_"`
	Database store.Config     `yaml:"database" envPrefix:"DATABASE_"`
	Worker   worker.Config    `yaml:"worker" envPrefix:"WORKER_"`
	Janitor  janitor.Config   `yaml:"janitor" envPrefix:"JANITOR_"`
	Export   export.Config    `yaml:"export" envPrefix:"EXPORT_"`
	Log      logging.Config   `yaml:"log" envPrefix:"LOG_"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server:   *api.DefaultServerConfig(),
		Auth:     *auth.DefaultConfig(),
		Docker:   *engine.DefaultConfig(),
		AI:       *ai.DefaultConfig(),
		Cost:     *cost.DefaultConfig(),
		Bulk:     *bulk.DefaultConfig(),
		Database: *store.DefaultConfig(""),
		Worker:   *worker.DefaultConfig(),
		Janitor:  *janitor.DefaultConfig(),
		Export:   *export.DefaultConfig(),
		Log:      *logging.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, then the YAML file at path,
// then environment variables, and validates the result. An empty path means
// DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	return load(path, os.Environ())
}

func load(path string, environ []string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks constraints in the configuration and returns an error if
// they are violated
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Auth.Enabled() && c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return errors.New("invalid configuration: auth.jwt_secret must be at least 32 characters")
	}

	return nil
}
