// Package config provides application configuration. Defaults are overlaid by an optional
// YAML file (RFQ_CONFIG) and then by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	App       AppConfig       `yaml:"app"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout"`  // seconds
	// TrustUserHeader reads the current user from X-User-ID (behind an authenticating proxy).
	TrustUserHeader bool `yaml:"trust_user_header"`
}

// DatabaseConfig holds connection settings. DSN wins over the discrete fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Debug    bool   `yaml:"debug"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool   `yaml:"dev"`
	Migrations bool   `yaml:"migrations"`
	Seed       bool   `yaml:"seed"`
	LogLevel   string `yaml:"log_level"`
}

// TelemetryConfig selects the metrics exporter: scraper, grpc or none.
type TelemetryConfig struct {
	Exporter    string `yaml:"exporter"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the local development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15,
			WriteTimeout: 15,
			IdleTimeout:  60,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "rfq",
			DBName:  "rfq",
			SSLMode: "disable",
		},
		App: AppConfig{
			Dev:      true,
			LogLevel: "info",
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
		},
	}
}

// Load reads the YAML file named by RFQ_CONFIG, if any, then applies environment overrides.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("RFQ_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvInt("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvInt("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvInt("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.TrustUserHeader = getEnvBool("TRUST_USER_HEADER", c.Server.TrustUserHeader)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DATABASE_DSN", c.Database.DSN)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Debug = getEnvBool("DB_DEBUG", c.Database.Debug)

	c.App.Dev = getEnvBool("DEV", c.App.Dev)
	c.App.Migrations = getEnvBool("MIGRATIONS", c.App.Migrations)
	c.App.Seed = getEnvBool("DB_SEED", c.App.Seed)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)

	c.Telemetry.Exporter = getEnv("METRICS_EXPORTER", c.Telemetry.Exporter)
	c.Telemetry.MetricsAddr = getEnv("METRICS_ADDR", c.Telemetry.MetricsAddr)
}

// DriverName returns the configured driver, inferring it from the DSN when unset.
func (d DatabaseConfig) DriverName() string {
	if d.Driver != "" {
		return strings.ToLower(d.Driver)
	}
	dsn := strings.ToLower(strings.TrimSpace(d.DSN))
	switch {
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), strings.Contains(dsn, ":memory:"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

// ConnString returns the DSN to hand to the driver.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.DriverName() == DriverSQLite {
		return "rfq.db"
	}
	return d.KeyValueDSN()
}

// KeyValueDSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) KeyValueDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
