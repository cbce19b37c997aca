package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationRunner applies golang-migrate migrations to the catalog database.
type MigrationRunner struct {
	manager *Manager
}

// NewMigrationRunner creates a migration runner bound to a Manager.
func NewMigrationRunner(manager *Manager) *MigrationRunner {
	return &MigrationRunner{manager: manager}
}

// Up applies all pending migrations.
func (mr *MigrationRunner) Up(migrationsPath string) error {
	log.Println("🔄 Running database migrations...")

	m, err := mr.instance(migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	} else if err == migrate.ErrNoChange {
		log.Println("ℹ️  No new migrations to apply")
		return nil
	}

	log.Println("✅ Migrations completed successfully")
	return nil
}

// Down rolls back the given number of migration steps.
func (mr *MigrationRunner) Down(migrationsPath string, steps int) error {
	log.Printf("⚠️  Rolling back migrations (%d steps)...", steps)

	m, err := mr.instance(migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	log.Println("✅ Rollback completed")
	return nil
}

// Version reports the currently applied migration version.
func (mr *MigrationRunner) Version(migrationsPath string) (uint, bool, error) {
	m, err := mr.instance(migrationsPath)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}

	return version, dirty, nil
}

func (mr *MigrationRunner) instance(migrationsPath string) (*migrate.Migrate, error) {
	var sqlDB *sql.DB = mr.manager.DB().DB

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
