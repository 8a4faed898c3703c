// Package db contains code for connecting to the database.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Needs to be imported for Postgres driver

	"github.com/ipam-rir/rir-manager/internal/config"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultSSLMode         = "require"
	defaultConnectTimeout  = 10 * time.Second
)

// Connection wraps the database handle
type Connection struct {
	DB *sql.DB
}

// DSN builds the pgx key/value connection string for cfg
func DSN(cfg *config.DatabaseConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("database configuration is required")
	}

	// Validate required fields
	if cfg.Host == "" {
		return "", fmt.Errorf("database host is required")
	}
	if cfg.Port == 0 {
		return "", fmt.Errorf("database port is required")
	}
	if cfg.User == "" {
		return "", fmt.Errorf("database user is required")
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("database name is required")
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	// Get password using secure priority order (file -> env)
	password, err := cfg.GetPassword()
	if err != nil {
		return "", fmt.Errorf("failed to get database password: %w", err)
	}

	// Note: password is not URL-escaped here because pgx driver handles it directly
	return fmt.Sprintf(
		"host=%s port=%d user=%s password='%s' dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Host,
		cfg.Port,
		cfg.User,
		quote(password),
		cfg.Database,
		sslMode,
		int(defaultConnectTimeout.Seconds()),
	), nil
}

// quote escapes a value for a single-quoted key/value DSN field
func quote(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// NewConnection creates a new database connection from the provided configuration
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*Connection, error) {
	connStr, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = defaultMaxOpenConns
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = defaultMaxIdleConns
	}

	connMaxLifetime := defaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		duration, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid connection max lifetime: %w", err)
		}
		connMaxLifetime = duration
	}

	// Open database connection using pgx driver
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	// Verify connection
	if err := sqlDB.PingContext(ctx); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			slog.Error("Failed to close database connection after ping failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connection established",
		"user", cfg.User, "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)

	return &Connection{DB: sqlDB}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	if c.DB != nil {
		slog.Info("Closing database connection")
		return c.DB.Close()
	}
	return nil
}

// Ping verifies the database connection is still alive
func (c *Connection) Ping(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.PingContext(ctx)
	}
	return fmt.Errorf("database connection is nil")
}
