// Package postgres implements store.Store and ipam.Source over database/sql
// with the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/secrets"
	"github.com/ipam-rir/rir-manager/internal/store"
)

const uniqueViolation = "23505"

// Store is the Postgres implementation of store.Store.
type Store struct {
	db     *sql.DB
	cipher secrets.Cipher
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithCipher encrypts credential API keys at rest.
func WithCipher(c secrets.Cipher) Option {
	return func(s *Store) {
		s.cipher = c
	}
}

// New creates a Store over an open database handle.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.cipher == nil {
		slog.Warn("No secret key configured, registry API keys will be stored unencrypted")
	}
	return s
}

// Ping implements store.Store
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func encodeRaw(raw models.RawPayload) (any, error) {
	if raw == nil {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw payload: %w", err)
	}
	return string(b), nil
}

func decodeRaw(b []byte) (models.RawPayload, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var raw models.RawPayload
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode raw payload: %w", err)
	}
	return raw, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

func nullString(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}
