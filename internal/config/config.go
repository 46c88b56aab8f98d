package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// Config holds the application's configuration.
type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		SecretKey                string `yaml:"secret_key"`
		Algorithm                string `yaml:"algorithm"`
		AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes"`
	} `yaml:"auth"`
	RateLimit struct {
		LoginMax           int `yaml:"login_max"`
		LoginWindowSeconds int `yaml:"login_window_seconds"`
	} `yaml:"rate_limit"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Sentry struct {
		DSN string `yaml:"dsn"`
	} `yaml:"sentry"`
}

// LoadConfig reads configuration from the specified YAML file and applies
// environment overrides. A missing file is not an error: defaults and the
// environment (optionally populated from .env) are enough to run.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	file, err := os.Open(configPath)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.App.Env, "APP_ENV")
	overrideString(&c.Server.Port, "PORT")
	overrideString(&c.Database.Driver, "DATABASE_DRIVER")
	overrideString(&c.Database.URL, "DATABASE_URL")
	overrideString(&c.Auth.SecretKey, "SECRET_KEY")
	overrideString(&c.Auth.Algorithm, "ALGORITHM")
	if err := overrideInt(&c.Auth.AccessTokenExpireMinutes, "ACCESS_TOKEN_EXPIRE_MINUTES"); err != nil {
		return err
	}
	if err := overrideInt(&c.RateLimit.LoginMax, "LOGIN_RATE_LIMIT_MAX"); err != nil {
		return err
	}
	if err := overrideInt(&c.RateLimit.LoginWindowSeconds, "LOGIN_RATE_LIMIT_WINDOW_SECONDS"); err != nil {
		return err
	}
	overrideString(&c.Log.Level, "LOG_LEVEL")
	overrideString(&c.Sentry.DSN, "SENTRY_DSN")

	// Values in the YAML file may reference the environment, e.g. "${SECRET_KEY}".
	c.Database.URL = os.ExpandEnv(c.Database.URL)
	c.Auth.SecretKey = os.ExpandEnv(c.Auth.SecretKey)
	c.Sentry.DSN = os.ExpandEnv(c.Sentry.DSN)
	return nil
}

func (c *Config) setDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.URL == "" && c.Database.Driver == DriverSQLite {
		c.Database.URL = "file:database.db?_pragma=foreign_keys(1)"
	}
	if c.Auth.Algorithm == "" {
		c.Auth.Algorithm = "HS256"
	}
	if c.Auth.AccessTokenExpireMinutes == 0 {
		c.Auth.AccessTokenExpireMinutes = 30
	}
	if c.RateLimit.LoginMax == 0 {
		c.RateLimit.LoginMax = 10
	}
	if c.RateLimit.LoginWindowSeconds == 0 {
		c.RateLimit.LoginWindowSeconds = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports the first configuration problem that would prevent the
// service from starting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database url is required")
	}
	if c.Auth.SecretKey == "" {
		return errors.New("secret key is required")
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported signing algorithm %q", c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return errors.New("access token lifetime must be positive")
	}
	if c.RateLimit.LoginMax <= 0 || c.RateLimit.LoginWindowSeconds <= 0 {
		return errors.New("rate limit settings must be positive")
	}
	return nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenExpireMinutes) * time.Minute
}

// LoginWindow returns the login rate limit window.
func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.RateLimit.LoginWindowSeconds) * time.Second
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func overrideString(dst *string, name string) {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		*dst = value
	}
}

func overrideInt(dst *int, name string) error {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	*dst = parsed
	return nil
}
