package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/stupside/cloak/internal/profile"
	"github.com/stupside/cloak/internal/stealth"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig  `koanf:"browser" validate:"required"`
	Profile profile.Config `koanf:"profile" validate:"required"`
	Stealth stealth.Config `koanf:"stealth"`
	Probe   ProbeConfig    `koanf:"probe" validate:"required"`
}

// BrowserConfig holds settings for the Chrome sessions the script is
// installed into.
type BrowserConfig struct {
	Timeout    time.Duration `koanf:"timeout" validate:"required"`
	Headless   bool          `koanf:"headless"`
	NoSandbox  bool          `koanf:"no_sandbox"`
	ChromePath string        `koanf:"chrome_path" validate:"required"`
}

// ProbeConfig controls how pages are checked once the script is installed.
type ProbeConfig struct {
	MaxConcurrency int           `koanf:"max_concurrency" validate:"required,min=1"`
	Settle         time.Duration `koanf:"settle"`
	MaxExceptions  int           `koanf:"max_exceptions" validate:"required,min=1"`
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, errors.New("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}
