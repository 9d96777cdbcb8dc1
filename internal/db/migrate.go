// Package db owns the database connection, schema migration and seeding.
package db

import (
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mguerin/materiguard/internal/config"
	"github.com/mguerin/materiguard/internal/models"
)

const connectRetries = 10

// ConnectAndMigrate opens the postgres connection with retries and brings the
// schema up to date. With useSQLMigrations the versioned files under
// ./migrations run via golang-migrate; otherwise GORM AutoMigrate keeps dev
// setups working without the migration tooling.
func ConnectAndMigrate(cfg config.DatabaseConfig, useSQLMigrations bool, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < connectRetries; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d retries: %w", connectRetries, err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping: %w", pingErr)
	}

	if useSQLMigrations {
		if err := runSQLMigrations(cfg.URL()); err != nil {
			return nil, fmt.Errorf("sql migrations: %w", err)
		}
	} else if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	for _, table := range []string{"users", "articles", "loans", "issuances"} {
		if !db.Migrator().HasTable(table) {
			return nil, fmt.Errorf("missing table after migration: %s", table)
		}
	}
	return db, nil
}

// AutoMigrate applies the GORM schema for every model. Shared with the test
// helpers so tests and the dev path migrate identically.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range []any{&models.User{}, &models.Article{}, &models.Loan{}, &models.Issuance{}} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// runSQLMigrations executes the files in ./migrations against the database.
func runSQLMigrations(url string) error {
	m, err := migrate.New("file://migrations", url)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
