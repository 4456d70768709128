package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is the application configuration, read from the environment.
type Config struct {
	Server ServerConfig
	DB     DBConfig `envPrefix:"DB_"`
	Auth   AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT"      envDefault:"8080"`
	GinMode         string        `env:"GIN_MODE"         envDefault:"release"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
}

// DBConfig holds database connection parameters
type DBConfig struct {
	Host           string        `env:"HOST"            envDefault:"localhost"`
	Port           int           `env:"PORT"            envDefault:"5432"`
	User           string        `env:"USER"            envDefault:"postgres"`
	Password       string        `env:"PASSWORD"`
	Name           string        `env:"NAME"            envDefault:"propelize"`
	SSLMode        string        `env:"SSL_MODE"        envDefault:"disable"`
	ConnectRetries int           `env:"CONNECT_RETRIES" envDefault:"5"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL"  envDefault:"5s"`
}

// AuthConfig holds token secrets and password hashing settings.
type AuthConfig struct {
	AccessSecret      string `env:"JWT_SECRET,required,notEmpty"`
	RefreshSecret     string `env:"JWT_REFRESH_SECRET,required,notEmpty"`
	BcryptCost        int    `env:"BCRYPT_COST"         envDefault:"10"`
	InitialAdminEmail string `env:"INITIAL_ADMIN_EMAIL"`
}

// DSN returns the libpq-style connection string for pgx.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	return Parse()
}

// Parse reads Config from the process environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings that would weaken token or password security.
func (c Config) Validate() error {
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DB.ConnectRetries < 1 {
		return errors.New("config: DB_CONNECT_RETRIES must be at least 1")
	}
	if _, err := ParseLogLevel(c.Server.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid LOG_LEVEL %q", level)
	}
	return l, nil
}

// NewLogger builds the JSON logger used by every component.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
