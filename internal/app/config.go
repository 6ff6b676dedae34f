package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/ordermgmt/ordersvc/internal/adapters/repo/postgres"
)

const (
	FinderCriteria = "criteria"
	FinderTemplate = "template"
)

type Config struct {
	Addr            string
	Env             string
	LogLevel        zerolog.Level
	DBDriver        string
	DBDSN           string
	AutoMigrate     bool
	OrderFinder     string
	SlowQuery       time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Env:             "development",
		LogLevel:        zerolog.InfoLevel,
		DBDriver:        postgres.DriverPostgres,
		AutoMigrate:     true,
		OrderFinder:     FinderCriteria,
		SlowQuery:       200 * time.Millisecond,
		ShutdownTimeout: 5 * time.Second,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
	}
}

// fileConfig mirrors the optional TOML file. Durations are strings such as
// "5s".
type fileConfig struct {
	Port     int    `toml:"port"`
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	Database struct {
		Driver      string `toml:"driver"`
		DSN         string `toml:"dsn"`
		AutoMigrate *bool  `toml:"auto_migrate"`
		SlowQuery   string `toml:"slow_query"`
	} `toml:"database"`
	Orders struct {
		Finder string `toml:"finder"`
	} `toml:"orders"`
	HTTP struct {
		ShutdownTimeout string   `toml:"shutdown_timeout"`
		RateLimitRPS    *float64 `toml:"rate_limit_rps"`
		RateLimitBurst  *int     `toml:"rate_limit_burst"`
	} `toml:"http"`
}

// LoadConfig builds the configuration from DefaultConfig, then the TOML file
// at path when path is not empty, then the process environment.
func LoadConfig(path string) (Config, error) {
	return loadConfig(path, os.Getenv)
}

func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		cfg.Addr = ":" + port
	}
	if env := strings.ToLower(strings.TrimSpace(getenv("APP_ENV"))); env != "" {
		cfg.Env = env
	}
	if raw := getenv("LOG_LEVEL"); raw != "" {
		lvl, err := parseLevel("LOG_LEVEL", raw)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = lvl
	}

	if driver := strings.ToLower(strings.TrimSpace(getenv("DB_DRIVER"))); driver != "" {
		cfg.DBDriver = driver
	}
	switch cfg.DBDriver {
	case postgres.DriverPostgres:
		if dsn := strings.TrimSpace(getenv("DB_DSN")); dsn != "" {
			cfg.DBDSN = dsn
		}
		if cfg.DBDSN == "" {
			cfg.DBDSN = postgresDSN(getenv)
		}
	case postgres.DriverSQLite:
		if path := strings.TrimSpace(getenv("SQLITE_PATH")); path != "" {
			cfg.DBDSN = path
		}
		if cfg.DBDSN == "" {
			cfg.DBDSN = "ordermgmt.db"
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}

	if raw := getenv("DB_AUTO_MIGRATE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("DB_AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = v
	}
	if finder := strings.ToLower(strings.TrimSpace(getenv("ORDER_FINDER"))); finder != "" {
		cfg.OrderFinder = finder
	}
	if cfg.OrderFinder != FinderCriteria && cfg.OrderFinder != FinderTemplate {
		return Config{}, fmt.Errorf("ORDER_FINDER: expected %s or %s, got %q", FinderCriteria, FinderTemplate, cfg.OrderFinder)
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv(getenv, "SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SlowQuery, err = durationEnv(getenv, "DB_SLOW_QUERY", cfg.SlowQuery); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(getenv("RATE_LIMIT_RPS")); raw != "" {
		if cfg.RateLimitRPS, err = strconv.ParseFloat(raw, 64); err != nil {
			return Config{}, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
	}
	if raw := strings.TrimSpace(getenv("RATE_LIMIT_BURST")); raw != "" {
		if cfg.RateLimitBurst, err = strconv.Atoi(raw); err != nil {
			return Config{}, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		cfg.Addr = ":" + strconv.Itoa(fc.Port)
	}
	if fc.Env != "" {
		cfg.Env = strings.ToLower(fc.Env)
	}
	if fc.LogLevel != "" {
		if cfg.LogLevel, err = parseLevel("log_level", fc.LogLevel); err != nil {
			return err
		}
	}
	if fc.Database.Driver != "" {
		cfg.DBDriver = strings.ToLower(fc.Database.Driver)
	}
	cfg.DBDSN = fc.Database.DSN
	if fc.Database.AutoMigrate != nil {
		cfg.AutoMigrate = *fc.Database.AutoMigrate
	}
	if fc.Database.SlowQuery != "" {
		if cfg.SlowQuery, err = time.ParseDuration(fc.Database.SlowQuery); err != nil {
			return fmt.Errorf("database.slow_query: %w", err)
		}
	}
	if fc.Orders.Finder != "" {
		cfg.OrderFinder = strings.ToLower(fc.Orders.Finder)
	}
	if fc.HTTP.ShutdownTimeout != "" {
		if cfg.ShutdownTimeout, err = time.ParseDuration(fc.HTTP.ShutdownTimeout); err != nil {
			return fmt.Errorf("http.shutdown_timeout: %w", err)
		}
	}
	if fc.HTTP.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.HTTP.RateLimitRPS
	}
	if fc.HTTP.RateLimitBurst != nil {
		cfg.RateLimitBurst = *fc.HTTP.RateLimitBurst
	}
	return nil
}

func parseLevel(key, raw string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%s: %w", key, err)
	}
	return lvl, nil
}

func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

func (c Config) DBOptions(logger zerolog.Logger) postgres.Options {
	return postgres.Options{
		Driver:        c.DBDriver,
		DSN:           c.DBDSN,
		SlowThreshold: c.SlowQuery,
		Logger:        logger,
	}
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// postgresDSN assembles a key/value DSN from the DB_* variables, falling
// back to the POSTGRES_* names used by the official image.
func postgresDSN(getenv func(string) string) string {
	pick := func(def string, keys ...string) string {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				return v
			}
		}
		return def
	}
	host := pick("localhost", "DB_HOST")
	port := pick("5432", "DB_PORT")
	user := pick("postgres", "DB_USER", "POSTGRES_USER")
	pass := pick("postgres", "DB_PASSWORD", "POSTGRES_PASSWORD")
	name := pick("ordermgmt", "DB_NAME", "POSTGRES_DB")
	ssl := pick("disable", "DB_SSLMODE")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}
