package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDatabaseConfig(t *testing.T) {
	os.Clearenv()
	cfg := loadDatabaseConfig()

	if cfg.Host != "localhost" {
		t.Errorf("Expected default DB host localhost, got %s", cfg.Host)
	}
	if cfg.Port != 5432 {
		t.Errorf("Expected default DB port 5432, got %d", cfg.Port)
	}

	os.Setenv("DB_HOST", "db.example.com")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "test_catalog")
	os.Setenv("DB_USER", "testuser")
	os.Setenv("DB_PASSWORD", "testpass")

	cfg = loadDatabaseConfig()

	if cfg.Host != "db.example.com" {
		t.Errorf("Expected DB host db.example.com, got %s", cfg.Host)
	}
	if cfg.Port != 5433 {
		t.Errorf("Expected DB port 5433, got %d", cfg.Port)
	}
	if cfg.Name != "test_catalog" {
		t.Errorf("Expected DB name test_catalog, got %s", cfg.Name)
	}

	os.Clearenv()
}

func TestLoadObjectsConfig(t *testing.T) {
	os.Clearenv()
	cfg := loadObjectsConfig()

	if cfg.Scheme != "file" {
		t.Errorf("Expected default scheme file, got %s", cfg.Scheme)
	}
	if cfg.Root != "./var/objects" {
		t.Errorf("Expected default root ./var/objects, got %s", cfg.Root)
	}

	os.Setenv("OBJECTS_SCHEME", "minio")
	os.Setenv("OBJECTS_S3_BUCKET", "media")

	cfg = loadObjectsConfig()
	if cfg.Scheme != "minio" {
		t.Errorf("Expected scheme minio, got %s", cfg.Scheme)
	}
	if cfg.Bucket != "media" {
		t.Errorf("Expected bucket media, got %s", cfg.Bucket)
	}

	os.Clearenv()
}

func TestLoadCacheConfig(t *testing.T) {
	os.Clearenv()
	cfg := loadCacheConfig()

	if cfg.Enabled {
		t.Error("Expected cache disabled by default")
	}
	if cfg.TTL != 5*time.Minute {
		t.Errorf("Expected default TTL 5m, got %v", cfg.TTL)
	}

	os.Setenv("CACHE_ENABLED", "true")
	os.Setenv("CACHE_TTL", "1h")

	cfg = loadCacheConfig()
	if !cfg.Enabled {
		t.Error("Expected cache enabled")
	}
	if cfg.TTL != time.Hour {
		t.Errorf("Expected TTL 1h, got %v", cfg.TTL)
	}

	os.Clearenv()
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid file-backed config",
			config: &Config{
				Database: DatabaseConfig{Host: "localhost", Name: "catalog", User: "postgres"},
				Objects:  ObjectsConfig{Scheme: "file", Root: "./var/objects"},
			},
			expectError: false,
		},
		{
			name: "valid minio-backed config",
			config: &Config{
				Database: DatabaseConfig{Host: "localhost", Name: "catalog", User: "postgres"},
				Objects:  ObjectsConfig{Scheme: "minio", Bucket: "media"},
			},
			expectError: false,
		},
		{
			name: "missing DB host",
			config: &Config{
				Database: DatabaseConfig{Name: "catalog", User: "postgres"},
				Objects:  ObjectsConfig{Scheme: "file", Root: "./var/objects"},
			},
			expectError: true,
			errorMsg:    "DB_HOST is required",
		},
		{
			name: "missing DB name",
			config: &Config{
				Database: DatabaseConfig{Host: "localhost", User: "postgres"},
				Objects:  ObjectsConfig{Scheme: "file", Root: "./var/objects"},
			},
			expectError: true,
			errorMsg:    "DB_NAME is required",
		},
		{
			name: "file scheme without root",
			config: &Config{
				Database: DatabaseConfig{Host: "localhost", Name: "catalog", User: "postgres"},
				Objects:  ObjectsConfig{Scheme: "file"},
			},
			expectError: true,
			errorMsg:    "OBJECTS_FS_ROOT is required when OBJECTS_SCHEME=file",
		},
		{
			name: "s3 scheme without bucket",
			config: &Config{
				Database: DatabaseConfig{Host: "localhost", Name: "catalog", User: "postgres"},
				Objects:  ObjectsConfig{Scheme: "s3"},
			},
			expectError: true,
			errorMsg:    "OBJECTS_S3_BUCKET is required when OBJECTS_SCHEME=s3",
		},
		{
			name: "unsupported scheme",
			config: &Config{
				Database: DatabaseConfig{Host: "localhost", Name: "catalog", User: "postgres"},
				Objects:  ObjectsConfig{Scheme: "ftp"},
			},
			expectError: true,
			errorMsg:    `unsupported OBJECTS_SCHEME "ftp"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("expected error message %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "secret", Name: "catalog", SSLMode: "disable",
	}

	expected := "host=localhost port=5432 user=postgres password=secret dbname=catalog sslmode=disable"
	if dsn := cfg.DSN(); dsn != expected {
		t.Errorf("expected DSN %q, got %q", expected, dsn)
	}
}

func TestConfigEnvironmentHelpers(t *testing.T) {
	cfg := &Config{Environment: "development"}

	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}
	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false")
	}

	cfg.Environment = "production"

	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return false")
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to return true")
	}
}

func TestGetEnv(t *testing.T) {
	os.Clearenv()

	if value := getEnv("NONEXISTENT_VAR", "default"); value != "default" {
		t.Errorf("expected default value, got %q", value)
	}

	os.Setenv("TEST_VAR", "test_value")
	if value := getEnv("TEST_VAR", "default"); value != "test_value" {
		t.Errorf("expected test_value, got %q", value)
	}

	os.Clearenv()
}

func TestGetEnvAsInt(t *testing.T) {
	os.Clearenv()

	if value := getEnvAsInt("NONEXISTENT_VAR", 42); value != 42 {
		t.Errorf("expected default 42, got %d", value)
	}

	os.Setenv("TEST_INT", "100")
	if value := getEnvAsInt("TEST_INT", 42); value != 100 {
		t.Errorf("expected 100, got %d", value)
	}

	os.Setenv("TEST_INT", "invalid")
	if value := getEnvAsInt("TEST_INT", 42); value != 42 {
		t.Errorf("expected default 42 for invalid integer, got %d", value)
	}

	os.Clearenv()
}

func TestGetEnvAsBool(t *testing.T) {
	os.Clearenv()

	if value := getEnvAsBool("NONEXISTENT_VAR", true); value != true {
		t.Errorf("expected default true, got %v", value)
	}

	os.Setenv("TEST_BOOL", "false")
	if value := getEnvAsBool("TEST_BOOL", true); value != false {
		t.Errorf("expected false, got %v", value)
	}

	os.Setenv("TEST_BOOL", "invalid")
	if value := getEnvAsBool("TEST_BOOL", true); value != true {
		t.Errorf("expected default true for invalid boolean, got %v", value)
	}

	os.Clearenv()
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Clearenv()

	if value := getEnvAsDuration("NONEXISTENT_VAR", time.Minute); value != time.Minute {
		t.Errorf("expected default 1m, got %v", value)
	}

	os.Setenv("TEST_DURATION", "30s")
	if value := getEnvAsDuration("TEST_DURATION", time.Minute); value != 30*time.Second {
		t.Errorf("expected 30s, got %v", value)
	}

	os.Setenv("TEST_DURATION", "invalid")
	if value := getEnvAsDuration("TEST_DURATION", time.Minute); value != time.Minute {
		t.Errorf("expected default 1m for invalid duration, got %v", value)
	}

	os.Clearenv()
}
