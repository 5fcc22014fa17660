package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "KRISTALBALL"

// Token lifetime bounds.
const (
	MinTokenTTL = time.Hour
	MaxTokenTTL = 24 * time.Hour
)

// Config aggregates all runtime settings.
type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	DB   DBConfig
	JWT  JWTConfig
}

// AppConfig holds the environment name and logging settings.
type AppConfig struct {
	Env      string `envconfig:"KRISTALBALL_APP_ENV" default:"development"`
	LogLevel string `envconfig:"KRISTALBALL_LOG_LEVEL" default:"info"`
	// LogFormat is "json" or "console"; empty picks one from Env.
	LogFormat string `envconfig:"KRISTALBALL_LOG_FORMAT"`
}

// IsDev reports whether the service runs in a development environment.
func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "development") || strings.EqualFold(a.Env, "local")
}

// Format returns the log output format: LogFormat if set, otherwise console
// in development and json elsewhere.
func (a AppConfig) Format() string {
	if f := strings.ToLower(strings.TrimSpace(a.LogFormat)); f != "" {
		return f
	}
	if a.IsDev() {
		return "console"
	}
	return "json"
}

// HTTPConfig holds the listener, timeouts and CORS origins of the API server.
type HTTPConfig struct {
	Addr            string        `envconfig:"KRISTALBALL_HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"KRISTALBALL_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"KRISTALBALL_HTTP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"KRISTALBALL_HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
	AllowedOrigins  []string      `envconfig:"KRISTALBALL_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// DBConfig locates the SQLite database file.
type DBConfig struct {
	Path string `envconfig:"KRISTALBALL_DB_PATH" default:"kristalball.sqlite3"`
}

// JWTConfig holds the token signing secret and lifetime.
type JWTConfig struct {
	Secret string        `envconfig:"KRISTALBALL_JWT_SECRET"`
	TTL    time.Duration `envconfig:"KRISTALBALL_JWT_TTL" default:"24h"`
}

// Load reads the configuration for serving. A missing JWT secret is an
// error; there is no built-in fallback.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("parsing config: %s_JWT_SECRET must not be blank", envPrefix)
	}
	return cfg, nil
}

// Parse reads the configuration without requiring the JWT secret, for
// commands that never issue tokens.
func Parse() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.JWT.TTL = clampTTL(cfg.JWT.TTL)
	return &cfg, nil
}

func clampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl < MinTokenTTL:
		return MinTokenTTL
	case ttl > MaxTokenTTL:
		return MaxTokenTTL
	}
	return ttl
}
