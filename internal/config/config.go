package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the binaries need at startup. Values come
// from mocdesk.yaml (working directory or /etc/mocdesk) with MOCDESK_*
// environment overrides.
type Config struct {
	Addr string `mapstructure:"addr"`

	DatabaseURL string `mapstructure:"database_url"`

	AuthSecret      string        `mapstructure:"auth_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	GeocoderURL     string        `mapstructure:"geocoder_url"`
	GeocoderTimeout time.Duration `mapstructure:"geocoder_timeout"`

	CORSOrigin   string `mapstructure:"cors_origin"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`

	Version string `mapstructure:"version"`
	Commit  string `mapstructure:"commit"`
}

// Load reads configuration, applying defaults, an optional yaml file,
// then environment variables (MOCDESK_ADDR, MOCDESK_DATABASE_URL, ...).
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("auth_secret", "")
	v.SetDefault("access_token_ttl", time.Hour)
	v.SetDefault("refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("rate_limit_rps", 50.0)
	v.SetDefault("rate_limit_burst", 100)
	v.SetDefault("geocoder_url", "")
	v.SetDefault("geocoder_timeout", 3*time.Second)
	v.SetDefault("cors_origin", "*")
	v.SetDefault("max_body_bytes", int64(1<<20))
	v.SetDefault("version", "dev")
	v.SetDefault("commit", "none")

	v.SetConfigName("mocdesk")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mocdesk")

	v.SetEnvPrefix("MOCDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("token TTLs must be positive")
	}
	return cfg, nil
}
