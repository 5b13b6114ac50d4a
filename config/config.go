// Package config loads courier settings from a file and COURIER_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"

	"github.com/goliatone/go-courier/msgtemplate"
)

const EnvPrefix = "COURIER"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

const TextCodeInvalidConfig = "CONFIG_INVALID"

// ErrInvalidConfig wraps every validation failure of a loaded Config.
var ErrInvalidConfig = goerrors.New("invalid configuration", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfig).
	WithCode(goerrors.CodeBadRequest)

// StorageConfig selects and configures the session store.
type StorageConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisPrefix  string `mapstructure:"redis_prefix"`
	IdentityFile string `mapstructure:"identity_file"`
}

// TemplateConfig holds message template rendering settings.
type TemplateConfig struct {
	MaxLength      int      `mapstructure:"max_length"`
	AllowedColumns []string `mapstructure:"allowed_columns"`
}

type Config struct {
	LogLevel    string         `mapstructure:"log_level"`
	PhoneRegion string         `mapstructure:"phone_region"`
	APIBaseURL  string         `mapstructure:"api_base_url"`
	Storage     StorageConfig  `mapstructure:"storage"`
	Template    TemplateConfig `mapstructure:"template"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("phone_region", "KR")
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.dsn", "file:courier.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_prefix", "courier:session")
	v.SetDefault("storage.identity_file", "")
	v.SetDefault("template.max_length", msgtemplate.DefaultMaxLength)
	v.SetDefault("template.allowed_columns", []string{})
}

// Load reads path when it is not empty, then applies environment overrides
// such as COURIER_STORAGE_DRIVER.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validLogLevel(value interface{}) error {
	s, _ := value.(string)
	if hclog.LevelFromString(s) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

func (s StorageConfig) validateDriverSettings(value interface{}) error {
	driver, _ := value.(string)
	switch driver {
	case DriverSQLite:
		if s.DSN == "" {
			return errors.New("dsn is required for the sqlite driver")
		}
	case DriverRedis:
		if s.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis driver")
		}
	}
	return nil
}

// Validate implements validation.Validatable.
func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver,
			validation.Required,
			validation.In(DriverMemory, DriverSQLite, DriverRedis),
			validation.By(s.validateDriverSettings),
		),
	)
}

// Validate implements validation.Validatable.
func (t TemplateConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.MaxLength, validation.Required, validation.Min(4)),
		validation.Field(&t.AllowedColumns, validation.By(validColumns)),
	)
}

func validColumns(value interface{}) error {
	columns, _ := value.([]string)
	for _, column := range columns {
		if err := msgtemplate.ValidateColumnName(column); err != nil {
			return fmt.Errorf("%q: %v", column, err)
		}
	}
	return nil
}

// Validate checks the whole configuration and wraps failures in
// ErrInvalidConfig.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required, validation.By(validLogLevel)),
		validation.Field(&c.PhoneRegion, validation.Required, validation.Length(2, 2)),
		validation.Field(&c.Storage),
		validation.Field(&c.Template),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) GetLogLevel() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

// RenderOptions returns the template options implied by the configuration.
func (c *Config) RenderOptions() []msgtemplate.RenderOption {
	opts := []msgtemplate.RenderOption{msgtemplate.WithMaxLength(c.Template.MaxLength)}
	if len(c.Template.AllowedColumns) > 0 {
		opts = append(opts, msgtemplate.WithAllowedColumns(c.Template.AllowedColumns...))
	}
	return opts
}
