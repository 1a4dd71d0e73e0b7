package database

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Info().Str("component", "migrations").Msgf(format, v...)
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Str("component", "migrations").Msgf(format, v...)
}

func setupGoose() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	return goose.SetDialect("postgres")
}

// Migrate applies all pending relationship store migrations.
func Migrate(db *sqlx.DB) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Rollback rolls back the latest migration.
func Rollback(db *sqlx.DB) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Down(db.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}
