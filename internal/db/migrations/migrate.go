// Package migrations applies the versioned marketplace schema with golang-migrate
package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file:// sources

	"github.com/effectiveacceleration/marketplace/internal/logger"
)

var (
	// ErrNoDatabaseURL is returned when the service is built without a database to migrate
	ErrNoDatabaseURL = errors.New("database url is required")
	// ErrDirtySchema is returned when a previous migration failed half way
	ErrDirtySchema = errors.New("schema is dirty, force a version first")
)

// openMigrate is swapped out in tests
var openMigrate = migrate.New

// Config holds migration configuration
type Config struct {
	MigrationsPath string
	DatabaseURL    string
	RetryAttempts  int
	RetryDelay     time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MigrationsPath: "file://migrations",
		RetryAttempts:  5,
		RetryDelay:     time.Second * 3,
	}
}

// withDefaults fills unset fields from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MigrationsPath == "" {
		c.MigrationsPath = def.MigrationsPath
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 1
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// MigrationService applies the schema migrations
type MigrationService struct {
	config  Config
	migrate *migrate.Migrate
}

// NewMigrationService opens the migration source and database, retrying while
// the database comes up.
func NewMigrationService(config Config) (*MigrationService, error) {
	if config.DatabaseURL == "" {
		return nil, ErrNoDatabaseURL
	}
	config = config.withDefaults()

	var m *migrate.Migrate
	var err error
	for attempt := 1; attempt <= config.RetryAttempts; attempt++ {
		m, err = openMigrate(config.MigrationsPath, config.DatabaseURL)
		if err == nil {
			break
		}
		logger.Warnf("Marketplace database not reachable, attempt %d/%d: %v", attempt, config.RetryAttempts, err)
		if attempt < config.RetryAttempts {
			time.Sleep(config.RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations after %d attempts: %w", config.RetryAttempts, err)
	}

	return &MigrationService{config: config, migrate: m}, nil
}

// Up applies every pending migration
func (s *MigrationService) Up() error {
	if err := s.checkClean(); err != nil {
		return err
	}
	if err := s.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Marketplace schema is up to date")
	return nil
}

// Down rolls back all migrations
func (s *MigrationService) Down() error {
	if err := s.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	logger.Info("Marketplace schema rolled back")
	return nil
}

// Steps runs n migrations up or down
func (s *MigrationService) Steps(n int) error {
	if err := s.checkClean(); err != nil {
		return err
	}
	if err := s.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run %d migrations: %w", n, err)
	}
	return nil
}

// Version returns the current migration version
func (s *MigrationService) Version() (uint, bool, error) {
	return s.migrate.Version()
}

// Force sets the version without running anything and clears the dirty flag
func (s *MigrationService) Force(version int) error {
	return s.migrate.Force(version)
}

// Close releases the source and database handles
func (s *MigrationService) Close() error {
	srcErr, dbErr := s.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

func (s *MigrationService) checkClean() error {
	version, dirty, err := s.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("version %d: %w", version, ErrDirtySchema)
	}
	return nil
}
