// Package config loads cube settings from defaults, an optional YAML file and
// CUBE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cubetrade/cube/pkg/cube/client"
)

// EnvPrefix prefixes every environment override, e.g. CUBE_API_BASE_URL.
const EnvPrefix = "CUBE"

// Config is the resolved configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Logs   LogsConfig   `mapstructure:"logs"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogsConfig drives the activity log view.
type LogsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Limit    int           `mapstructure:"limit"`
	Level    string        `mapstructure:"level"`
}

// LogConfig drives the diagnostic logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OutputConfig struct {
	Color       bool `mapstructure:"color"`
	MaxColWidth int  `mapstructure:"max_col_width"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", client.DefaultBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("logs.interval", 5*time.Second)
	v.SetDefault("logs.limit", 100)
	v.SetDefault("logs.level", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("output.color", true)
	v.SetDefault("output.max_col_width", 0)
}

// New returns a viper instance with defaults and environment binding in
// place. path, when set, names a config file that must exist.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	c.Logs.Level = strings.ToLower(strings.TrimSpace(c.Logs.Level))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is empty"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.Logs.Interval <= 0 {
		errs = append(errs, errors.New("logs.interval must be positive"))
	}
	if c.Logs.Limit < 1 || c.Logs.Limit > 200 {
		errs = append(errs, fmt.Errorf("logs.limit %d out of range 1..200", c.Logs.Limit))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q: want console or json", c.Log.Format))
	}
	return errors.Join(errs...)
}
