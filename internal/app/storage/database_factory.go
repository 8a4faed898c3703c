package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ipam-rir/rir-manager/database"
	"github.com/ipam-rir/rir-manager/internal/config"
	"github.com/ipam-rir/rir-manager/internal/db"
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/secrets"
	"github.com/ipam-rir/rir-manager/internal/store"
	"github.com/ipam-rir/rir-manager/internal/store/postgres"
)

// DatabaseFactory creates PostgreSQL-backed storage components
type DatabaseFactory struct {
	conn   *db.Connection
	cipher secrets.Cipher
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory connects to the configured database, applying pending
// migrations first when migrateOnStart is set. API keys are encrypted at rest
// when a secret key is configured.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	slog.Info("Creating database-backed storage factory",
		"host", cfg.Database.Host, "database", cfg.Database.Database)

	cipher, err := buildCipher(cfg.Secrets)
	if err != nil {
		return nil, err
	}

	if cfg.Database.MigrateOnStart {
		if err := migrate(cfg.Database); err != nil {
			return nil, err
		}
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DatabaseFactory{conn: conn, cipher: cipher}, nil
}

func buildCipher(cfg *config.SecretsConfig) (secrets.Cipher, error) {
	key, err := cfg.GetKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load secret key: %w", err)
	}
	if key == "" {
		return nil, nil
	}
	enc, err := secrets.NewEncryptor(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}
	return enc, nil
}

func migrate(cfg *config.DatabaseConfig) error {
	connString, err := cfg.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to build connection string: %w", err)
	}
	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := database.MigrateUp(m); err != nil {
		return err
	}
	database.LogVersion(m)
	return nil
}

// CreateStore implements Factory
func (f *DatabaseFactory) CreateStore(context.Context) (store.Store, error) {
	var opts []postgres.Option
	if f.cipher != nil {
		opts = append(opts, postgres.WithCipher(f.cipher))
	}
	return postgres.New(f.conn.DB, opts...), nil
}

// CreateSource implements Factory
func (f *DatabaseFactory) CreateSource(context.Context) (ipam.Source, error) {
	return postgres.NewIPAM(f.conn.DB), nil
}

// Cleanup closes the connection pool
func (f *DatabaseFactory) Cleanup() {
	if err := f.conn.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}
}
