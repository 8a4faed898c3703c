package database

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang-migrate/migrate/v4"
)

// MigrateUp applies all pending migrations. An already current schema is not
// an error.
func MigrateUp(m Migrator) error {
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No migrations to apply, database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("Migration completed successfully")
	return nil
}

// MigrateDown reverts numSteps migrations, or every migration when numSteps is 0.
func MigrateDown(m Migrator, numSteps uint) error {
	var err error
	if numSteps == 0 {
		slog.Warn("Migrating down all steps, this will remove the schema")
		err = m.Down()
	} else {
		if numSteps > math.MaxInt {
			return fmt.Errorf("number of steps exceeds maximum allowed value")
		}
		slog.Info("Migrating down", "steps", numSteps)
		err = m.Steps(-1 * int(numSteps)) // #nosec G115 -- overflow checked above
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No migrations to revert, database is already at the oldest version")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migration completed successfully")
	return nil
}

// LogVersion reports the current schema version.
func LogVersion(m Migrator) {
	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			slog.Info("Database schema is empty")
			return
		}
		slog.Warn("Failed to get migration version", "error", err)
		return
	}
	if dirty {
		slog.Warn("Current migration version is dirty, manual intervention may be required", "version", version)
		return
	}
	slog.Info("Current migration version", "version", version)
}
