package app

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/openbridgehq/hubconsole/internal/console/service"
)

// Config holds application configuration aggregated from environment
// variables and an optional config file.
type Config struct {
	Port           int           // HTTP listen port
	AuthMode       string        // "form" or "none"
	SessionTimeout time.Duration // session token lifetime
	UserFilePath   string        // JSON user store
	SecretsPath    string        // instance id + signing secret
	OtpIssuer      string        // issuer shown in authenticator apps

	Env       string // dev, staging, prod
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// LoadConfig reads configuration with the HUBCONSOLE_ env prefix, falling
// back to an optional ./config.yaml and then to defaults.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HUBCONSOLE")
	v.AutomaticEnv()

	v.SetDefault("port", 8581)
	v.SetDefault("auth_mode", service.AuthModeForm)
	v.SetDefault("session_timeout", "8h")
	v.SetDefault("user_file", "data/auth.json")
	v.SetDefault("secrets_file", "data/secrets.json")
	v.SetDefault("otp_issuer", "Hub Console")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	cfg := Config{
		Port:           v.GetInt("port"),
		AuthMode:       v.GetString("auth_mode"),
		SessionTimeout: v.GetDuration("session_timeout"),
		UserFilePath:   v.GetString("user_file"),
		SecretsPath:    v.GetString("secrets_file"),
		OtpIssuer:      v.GetString("otp_issuer"),
		Env:            v.GetString("env"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
	}

	if cfg.AuthMode != service.AuthModeForm && cfg.AuthMode != service.AuthModeNone {
		return Config{}, fmt.Errorf("invalid auth_mode %q: must be %q or %q",
			cfg.AuthMode, service.AuthModeForm, service.AuthModeNone)
	}
	if cfg.SessionTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid session_timeout %v: must be positive", cfg.SessionTimeout)
	}

	return cfg, nil
}
