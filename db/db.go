package db

import (
	"database/sql"
	"errors"
	"fmt"

	"skillswap-api/config"
	"skillswap-api/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	logger.Log.WithField("connection", cfg.SafeDSN()).Info("Attempting to connect to the database")

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Log.WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = db.Ping(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping database")
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("Database connection established successfully")
	return db, nil
}

// RunMigrations applies every pending migration from cfg.MigrationsPath.
func RunMigrations(cfg config.DatabaseConfig) error {
	mig, err := migrate.New(cfg.MigrationsPath, cfg.DSN())
	if err != nil {
		return fmt.Errorf("cannot create migrate instance: %w", err)
	}
	defer mig.Close()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate up: %w", err)
	}

	version, dirty, err := mig.Version()
	if err == nil {
		logger.Log.WithField("version", version).WithField("dirty", dirty).Info("Database migrations applied")
	}
	return nil
}
