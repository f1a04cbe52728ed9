// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// APIKeyEnv names the environment variable consulted for the Gemini key.
const APIKeyEnv = "GEMINI_API_KEY"

// Defaults applied when neither flags nor the config file set a value.
const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 10 * time.Second
	DefaultTick    = time.Second
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Storage StorageConfig `toml:"storage"`
	Coach   CoachConfig   `toml:"coach"`
	Focus   FocusConfig   `toml:"focus"`
}

// StorageConfig maps storage settings.
type StorageConfig struct {
	DB *string `toml:"db"`
}

// CoachConfig maps text-generation settings.
type CoachConfig struct {
	Model   *string   `toml:"model"`
	APIKey  *string   `toml:"api-key"`
	Timeout *Duration `toml:"timeout"`
}

// FocusConfig maps timer settings.
type FocusConfig struct {
	Tick *Duration `toml:"tick"`
}

// Duration decodes TOML strings such as "10s" or "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Config is the resolved runtime configuration.
type Config struct {
	DBPath  string
	Model   string
	APIKey  string
	Timeout time.Duration
	Tick    time.Duration
}

// Resolve fills a Config from file values, falling back to the environment
// for the API key and to built-in defaults for everything else.
func Resolve(file FileConfig, getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Config{
		DBPath:  DefaultDBPath(),
		Model:   DefaultModel,
		APIKey:  getenv(APIKeyEnv),
		Timeout: DefaultTimeout,
		Tick:    DefaultTick,
	}
	if file.Storage.DB != nil && *file.Storage.DB != "" {
		cfg.DBPath = *file.Storage.DB
	}
	if file.Coach.Model != nil && *file.Coach.Model != "" {
		cfg.Model = *file.Coach.Model
	}
	if file.Coach.APIKey != nil && *file.Coach.APIKey != "" {
		cfg.APIKey = *file.Coach.APIKey
	}
	if file.Coach.Timeout != nil {
		cfg.Timeout = file.Coach.Timeout.Duration
	}
	if file.Focus.Tick != nil {
		cfg.Tick = file.Focus.Tick.Duration
	}
	return cfg
}

// Validate rejects values the application cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("coach timeout must be positive")
	}
	if c.Tick <= 0 {
		return fmt.Errorf("focus tick must be positive")
	}
	return nil
}
