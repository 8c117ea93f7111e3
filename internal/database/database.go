package database

import (
	"errors"
	"fmt"
	"time"

	"finanzas/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	config *Config
}

// GormConfig is shared by the API and the tests so both stores translate
// constraint errors and stamp times in UTC.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// NewManager creates a new database manager
func NewManager(config *Config) (*Manager, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  config.DSN(),
		PreferSimpleProtocol: true, // Required for Supabase Supavisor; harmless for direct connections
	}), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Manager{db: db, config: config}, nil
}

// RunMigrations applies pending SQL migrations.
func (m *Manager) RunMigrations() error {
	return RunMigrations(m.config)
}

// RunMigrations applies pending SQL migrations from the configured directory.
func RunMigrations(config *Config) error {
	log := logger.Get()
	log.Infow("Running database migrations...", "source", config.MigrationsSource())

	mig, err := migrate.New(config.MigrationsSource(), config.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			log.Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			log.Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
