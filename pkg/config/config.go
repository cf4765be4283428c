// Package config loads openingrush settings from defaults, an optional YAML
// file, an optional .env file and OPENINGRUSH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const EnvPrefix = "OPENINGRUSH"

type Config struct {
	LogPath  string `mapstructure:"log_path"`
	LogLevel string `mapstructure:"log_level"`

	RevertDelay  time.Duration `mapstructure:"revert_delay"`
	RestartDelay time.Duration `mapstructure:"restart_delay"`
	Seed         int64         `mapstructure:"seed"`
	Strict       bool          `mapstructure:"strict"`

	Theme       string `mapstructure:"theme"`
	PresetsFile string `mapstructure:"presets_file"`

	SSHAddr     string        `mapstructure:"ssh_addr"`
	SSHHostKey  string        `mapstructure:"ssh_host_key"`
	SSHCommand  string        `mapstructure:"ssh_command"`
	WebAddr     string        `mapstructure:"web_addr"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

var defaults = map[string]interface{}{
	"log_path":      "",
	"log_level":     "info",
	"revert_delay":  200 * time.Millisecond,
	"restart_delay": 500 * time.Millisecond,
	"seed":          0,
	"strict":        true,
	"theme":         "basic",
	"presets_file":  "",
	"ssh_addr":      ":2222",
	"ssh_host_key":  "openingrush_host_key",
	"ssh_command":   "",
	"web_addr":      ":1998",
	"idle_timeout":  5 * time.Minute,
}

// New returns a viper instance carrying the defaults and reading the
// environment.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadEnv reads KEY=value pairs from path into the process environment. A
// missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Setup reads the config file at path, if any, and decodes the result.
func Setup(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.RevertDelay < 0 || c.RestartDelay < 0 {
		return errors.New("delays must not be negative")
	}
	return nil
}

func (c *Config) Level() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
