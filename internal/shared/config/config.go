package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the catalog service.
type Config struct {
	Environment string
	Database    DatabaseConfig
	Objects     ObjectsConfig
	Cache       CacheConfig
	Logging     LoggingConfig
}

// DatabaseConfig holds the Postgres connection used for the catalog schema.
type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

// ObjectsConfig selects and configures the ObjectsRepository implementation.
// Scheme is one of "file" (local filesystem) or "s3"/"minio" (S3-compatible).
type ObjectsConfig struct {
	Scheme    string
	Root      string // local root directory, for Scheme == "file"
	Endpoint  string // for Scheme == "s3"/"minio"
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// CacheConfig configures the Redis-backed hydration cache.
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// LoggingConfig configures process-level logging.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment (and a local .env file
// outside production), validating it before returning.
func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			if err := godotenv.Load(".env.local"); err != nil {
				log.Println("⚠️  no .env file found, using environment variables")
			}
		}
	}

	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		Database:    loadDatabaseConfig(),
		Objects:     loadObjectsConfig(),
		Cache:       loadCacheConfig(),
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		Name:            getEnv("DB_NAME", "mediarepo"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadObjectsConfig() ObjectsConfig {
	return ObjectsConfig{
		Scheme:    getEnv("OBJECTS_SCHEME", "file"),
		Root:      getEnv("OBJECTS_FS_ROOT", "./var/objects"),
		Endpoint:  getEnv("OBJECTS_S3_ENDPOINT", "localhost:9000"),
		AccessKey: getEnv("OBJECTS_S3_ACCESS_KEY", ""),
		SecretKey: getEnv("OBJECTS_S3_SECRET_KEY", ""),
		Bucket:    getEnv("OBJECTS_S3_BUCKET", "mediarepo"),
		UseSSL:    getEnvAsBool("OBJECTS_S3_USE_SSL", false),
		Region:    getEnv("OBJECTS_S3_REGION", "us-east-1"),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  getEnvAsBool("CACHE_ENABLED", false),
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
		TTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	switch c.Objects.Scheme {
	case "file":
		if c.Objects.Root == "" {
			return fmt.Errorf("OBJECTS_FS_ROOT is required when OBJECTS_SCHEME=file")
		}
	case "s3", "minio":
		if c.Objects.Bucket == "" {
			return fmt.Errorf("OBJECTS_S3_BUCKET is required when OBJECTS_SCHEME=%s", c.Objects.Scheme)
		}
	default:
		return fmt.Errorf("unsupported OBJECTS_SCHEME %q", c.Objects.Scheme)
	}

	return nil
}

// DSN returns the Postgres connection string for the catalog database.
func (d *DatabaseConnection) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// DatabaseConnection mirrors DatabaseConfig's connection fields; kept as a
// separate type so tests can build a DSN without the pool-tuning fields.
type DatabaseConnection struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// DSN returns the Postgres connection string built from this config.
func (d DatabaseConfig) DSN() string {
	conn := DatabaseConnection{
		Host: d.Host, Port: d.Port, Name: d.Name,
		User: d.User, Password: d.Password, SSLMode: d.SSLMode,
	}
	return conn.DSN()
}

// IsDevelopment reports whether the configured environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️  invalid integer for %s: %s, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("⚠️  invalid boolean for %s: %s, using default %v", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("⚠️  invalid duration for %s: %s, using default %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
