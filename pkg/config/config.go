// Package config holds the settings shared by the CLI, the HTTP server and the MCP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOOKAHEAD_"

// Settings is the full configuration.
type Settings struct {
	LogLevel  string          `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	TrackInfo TrackInfoConfig `yaml:"track_info"`
	Index     IndexConfig     `yaml:"index"`
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
}

// TrackInfoConfig bounds the upcoming-events list.
type TrackInfoConfig struct {
	MaxEventCount int     `yaml:"max_event_count" validate:"gt=0"`
	MaxEventSpan  float64 `yaml:"max_event_span" validate:"gt=0"`
}

// IndexConfig tunes the segment annotation index.
type IndexConfig struct {
	Resolution    float64 `yaml:"resolution" validate:"gt=0"`
	LabelScale    float64 `yaml:"label_scale" validate:"gt=0"`
	MaxIterations int     `yaml:"max_iterations" validate:"gt=0"`
	CacheDir      string  `yaml:"cache_dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// RedisConfig selects the Redis annotation store. It is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string        `yaml:"addr" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		LogLevel: "info",
		TrackInfo: TrackInfoConfig{
			MaxEventCount: 10,
			MaxEventSpan:  5000,
		},
		Index: IndexConfig{
			Resolution:    10,
			LabelScale:    10,
			MaxIterations: 100,
		},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads the YAML file at path over the defaults, applies environment overrides and validates
// the result. A missing file is not an error when path is empty.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if err := s.applyEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings.
func (s Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (s *Settings) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("LOG_LEVEL", &s.LogLevel)
	num("MAX_EVENT_COUNT", &s.TrackInfo.MaxEventCount)
	float("MAX_EVENT_SPAN", &s.TrackInfo.MaxEventSpan)
	float("RESOLUTION", &s.Index.Resolution)
	float("LABEL_SCALE", &s.Index.LabelScale)
	num("MAX_ITERATIONS", &s.Index.MaxIterations)
	str("CACHE_DIR", &s.Index.CacheDir)
	num("PORT", &s.Server.Port)
	str("REDIS_ADDR", &s.Redis.Addr)
	str("REDIS_PASSWORD", &s.Redis.Password)
	num("REDIS_DB", &s.Redis.DB)
	str("REDIS_PREFIX", &s.Redis.Prefix)
	duration("REDIS_TTL", &s.Redis.TTL)

	return errors.Join(errs...)
}
