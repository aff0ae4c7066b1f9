// Package config provides unified configuration for the zotgate server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (ZOTGATE_ prefix, plus DEBUG_LEVEL)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the zotgate server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	CORS          CORSConfig          `yaml:"cors"`
	Backend       BackendConfig       `yaml:"backend"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Log           LogConfig           `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"` // default: 1969
	ReadTimeout     time.Duration `yaml:"read_timeout"`                    // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`                   // default: 120s
	IdleTimeout     time.Duration `yaml:"idle_timeout"`                    // default: 120s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`                // default: 30s
}

// CORSConfig holds the cross-origin policy.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"` // default: ["*"]
}

// BackendConfig describes the translation engine the endpoints forward to.
type BackendConfig struct {
	URL        string        `yaml:"url" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout"` // default: 60s
	APIKey     string        `yaml:"api_key"`
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key

	// InitPath is probed once before the first request is served.
	InitPath string `yaml:"init_path" validate:"startswith=/"` // default: "/"
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type    string         `yaml:"type" validate:"oneof=none apikey jwt"` // default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys" validate:"dive"`
	JWT     JWTConfig      `yaml:"jwt"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string `yaml:"key" json:"key"`
	KeyFile string `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject string `yaml:"subject" json:"subject"`
}

// JWTConfig holds shared-secret token validation settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
	UserClaim  string `yaml:"user_claim"` // default: "sub"
}

// ObservabilityConfig holds monitoring and error reporting settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Sentry  SentryConfig  `yaml:"sentry"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`                      // default: true
	Path    string `yaml:"path" validate:"startswith=/"` // default: "/metrics"
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	DSNFile     string `yaml:"dsn_file"` // _file variant for dsn
	Environment string `yaml:"environment"`
}

// LogConfig controls the slog level and debug categories.
type LogConfig struct {
	Level string `yaml:"level"` // TRACE, DEBUG, INFO, WARN, ERROR or 0-4
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            1969,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Backend: BackendConfig{
			Timeout:  60 * time.Second,
			InitPath: "/",
		},
		Auth: AuthConfig{
			Type: "none",
			JWT: JWTConfig{
				UserClaim: "sub",
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}
