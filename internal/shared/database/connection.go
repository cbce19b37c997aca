package database

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/kosaka-studio/mediarepo/internal/shared/config"
)

// Manager owns the single Postgres connection pool backing the catalog.
type Manager struct {
	db     *sqlx.DB
	config *config.Config
}

var (
	instance *Manager
	once     sync.Once
)

// NewManager connects to Postgres and returns a ready Manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	manager := &Manager{config: cfg}

	if err := manager.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("✅ Database Manager initialized successfully")
	return manager, nil
}

// GetInstance returns the singleton Manager.
func GetInstance() *Manager {
	if instance == nil {
		log.Fatal("❌ Database Manager not initialized. Call InitializeManager first.")
	}
	return instance
}

// InitializeManager initializes the singleton Manager exactly once.
func InitializeManager(cfg *config.Config) error {
	var err error
	once.Do(func() {
		instance, err = NewManager(cfg)
	})
	return err
}

func (m *Manager) connect() error {
	dsn := m.config.Database.DSN()

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	db.SetMaxOpenConns(m.config.Database.MaxOpenConns)
	db.SetMaxIdleConns(m.config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(m.config.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m.db = db
	log.Printf("✅ Connected to database: %s", m.config.Database.Name)
	return nil
}

// DB returns the underlying sqlx handle.
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

// Close closes the connection pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	log.Println("🔒 Database connection closed")
	return nil
}

// HealthCheck verifies the pool can still reach Postgres.
func (m *Manager) HealthCheck() error {
	if err := m.db.Ping(); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	log.Println("💚 Health check passed")
	return nil
}
