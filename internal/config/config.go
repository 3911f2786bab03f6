// Package config loads runtime settings from the environment via viper.
// Every key can be set as an uppercase env var (HTTP_ADDR, DATABASE_URL, ...).
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the service.
type Config struct {
	// DatabaseURL selects the Postgres store when set; the in-memory store is
	// used otherwise.
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	LogFormat   string
	// Currency is the default plan currency (ISO 4217).
	Currency string
	// JWTSecret enables the HS256 auth gate when non-empty.
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	// DevSeed loads a small demo data set on startup.
	DevSeed bool
}

// Load reads configuration from the environment with sane defaults.
func Load() Config {
	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("currency", "MXN")
	v.SetDefault("dev_seed", false)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return Config{
		DatabaseURL: strings.TrimSpace(v.GetString("database_url")),
		HTTPAddr:    v.GetString("http_addr"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		Currency:    strings.ToUpper(strings.TrimSpace(v.GetString("currency"))),
		JWTSecret:   strings.TrimSpace(v.GetString("jwt_hs256_secret")),
		JWTIssuer:   strings.TrimSpace(v.GetString("jwt_issuer")),
		JWTAudience: strings.TrimSpace(v.GetString("jwt_audience")),
		DevSeed:     v.GetBool("dev_seed"),
	}
}
