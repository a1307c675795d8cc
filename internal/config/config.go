package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"site_stores_backend/internal/database"
	"site_stores_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Storage drivers accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	DBDriver       string
	DB             database.Options
	ApplySchema    bool
	JWTSecret      string
	JWTTTL         time.Duration
	AllowedOrigins []string
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Port:      utils.Getenv("PORT", "8080"),
		GinMode:   utils.Getenv("GIN_MODE", "release"),
		LogLevel:  utils.Getenv("LOG_LEVEL", "info"),
		LogFormat: utils.Getenv("LOG_FORMAT", "json"),
		DBDriver:  strings.ToLower(utils.Getenv("DB_DRIVER", DriverPostgres)),
		DB: database.Options{
			Host:         utils.Getenv("DB_HOST", "localhost"),
			Port:         utils.Getenv("DB_PORT", "5432"),
			User:         utils.Getenv("DB_USER", "site_stores"),
			Password:     utils.Getenv("DB_PASSWORD", "site_stores"),
			Name:         utils.Getenv("DB_NAME", "site_stores"),
			SSLMode:      utils.Getenv("DB_SSLMODE", "disable"),
			MaxOpenConns: utils.GetenvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
		},
		ApplySchema: utils.GetenvBool("DB_APPLY_SCHEMA", false),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      time.Duration(utils.GetenvInt("JWT_TTL_HOURS", 12)) * time.Hour,
	}

	origins := utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverMemory {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	return nil
}
