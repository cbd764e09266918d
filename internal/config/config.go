// Package config provides Viper-based configuration management for lapse
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/alt-project/lapse/internal/copier"
	"github.com/alt-project/lapse/internal/sampler"
)

// EnvPrefix is the prefix of environment variables overriding config keys
const EnvPrefix = "LAPSE"

// Config represents the complete lapse configuration
type Config struct {
	Input    InputConfig    `mapstructure:"input" json:"input"`
	Output   OutputConfig   `mapstructure:"output" json:"output"`
	Sampling SamplingConfig `mapstructure:"sampling" json:"sampling"`
	Copy     CopyConfig     `mapstructure:"copy" json:"copy"`
	Logging  LoggingConfig  `mapstructure:"logging" json:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics" json:"metrics"`
}

// InputConfig describes where captures are read from and how they are named
type InputConfig struct {
	Dir       string `mapstructure:"dir" json:"dir" validate:"required"`
	Prefix    string `mapstructure:"prefix" json:"prefix" validate:"required,excludes=_"`
	Extension string `mapstructure:"extension" json:"extension" validate:"required,startswith=."`
}

// OutputConfig contains the samples directory and terminal output settings
type OutputConfig struct {
	Dir      string `mapstructure:"dir" json:"dir" validate:"required"`
	Manifest bool   `mapstructure:"manifest" json:"manifest"`
	Colors   bool   `mapstructure:"colors" json:"colors"`
}

// SamplingConfig contains sampler parameters
type SamplingConfig struct {
	Interval time.Duration `mapstructure:"interval" json:"interval"`
	TieBreak string        `mapstructure:"tie_break" json:"tie_break" validate:"oneof=first last"`
}

// MarshalJSON writes the interval in duration notation ("15m0s"), as config files spell it
func (s SamplingConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Interval string `json:"interval"`
		TieBreak string `json:"tie_break"`
	}{
		Interval: s.Interval.String(),
		TieBreak: s.TieBreak,
	})
}

// CopyConfig contains copy phase settings
type CopyConfig struct {
	Policy  string `mapstructure:"policy" json:"policy" validate:"oneof=fail-fast best-effort"`
	Workers int    `mapstructure:"workers" json:"workers" validate:"min=1,max=64"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format" validate:"oneof=text json"`
}

// MetricsConfig contains the optional Prometheus textfile destination
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" json:"textfile"`
}

// Load reads configuration from file, environment variables and the given viper
// instance's bound flags. A nil v creates a fresh instance.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	// Set config file if specified
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".lapse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lapse")
	}

	// Environment variables: LAPSE_SAMPLING_INTERVAL overrides sampling.interval
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	// Capture naming of the timelapse tool
	v.SetDefault("input.dir", "images")
	v.SetDefault("input.prefix", "WIN")
	v.SetDefault("input.extension", ".jpg")

	v.SetDefault("output.dir", "samples")
	v.SetDefault("output.manifest", false)
	v.SetDefault("output.colors", true)

	v.SetDefault("sampling.interval", 15*time.Minute)
	v.SetDefault("sampling.tie_break", "last")

	v.SetDefault("copy.policy", "fail-fast")
	v.SetDefault("copy.workers", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.textfile", "")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalize trims and lower-cases enum values before validation
func (c *Config) normalize() {
	for _, v := range []*string{&c.Sampling.TieBreak, &c.Copy.Policy, &c.Logging.Level, &c.Logging.Format} {
		*v = strings.ToLower(strings.TrimSpace(*v))
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return newValidationError(verrs)
		}
		return err
	}

	if c.Sampling.Interval < sampler.BucketSize {
		return fmt.Errorf("invalid sampling interval %s: %w", c.Sampling.Interval, sampler.ErrInvalidInterval)
	}

	return nil
}

// TieBreak returns the parsed sampling tie-break
func (c *Config) TieBreak() sampler.TieBreak {
	tb, _ := sampler.ParseTieBreak(c.Sampling.TieBreak)
	return tb
}

// Policy returns the parsed copy failure policy
func (c *Config) Policy() copier.Policy {
	p, _ := copier.ParsePolicy(c.Copy.Policy)
	return p
}
