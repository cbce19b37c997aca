package database

import (
	"testing"

	"github.com/kosaka-studio/mediarepo/internal/shared/config"
)

func TestManagerConfigFields(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "test_catalog",
			User:     "postgres",
			Password: "test",
			SSLMode:  "disable",
		},
	}

	if cfg.Database.Host != "localhost" {
		t.Error("config not properly structured for database manager")
	}
	if cfg.Database.Name != "test_catalog" {
		t.Error("database name not set correctly")
	}
}

func TestManagerStructure(t *testing.T) {
	m := &Manager{config: &config.Config{}}

	if m.db != nil {
		t.Error("expected db to be nil before connect")
	}
	if m.config == nil {
		t.Error("expected config to be set")
	}
}
