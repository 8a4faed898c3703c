package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ipam-rir/rir-manager/internal/models"
)

const ticketColumns = `id, config_id, ticket_number, ticket_type, status, resolution, network_id,
	submitted_by, created_at, resolved_at, raw_data`

func scanTicket(row scanner) (*models.Ticket, error) {
	var (
		t                      models.Ticket
		networkID, submittedBy sql.NullInt64
		resolvedAt             sql.NullTime
		raw                    []byte
	)
	err := row.Scan(&t.ID, &t.ConfigID, &t.Number, &t.Type, &t.Status, &t.Resolution, &networkID,
		&submittedBy, &t.CreatedAt, &resolvedAt, &raw)
	if err != nil {
		return nil, err
	}
	if t.RawData, err = decodeRaw(raw); err != nil {
		return nil, err
	}
	t.NetworkID = int64Ptr(networkID)
	t.SubmittedBy = int64Ptr(submittedBy)
	t.ResolvedAt = timePtr(resolvedAt)
	return &t, nil
}

// UpsertTicket implements store.Store
func (s *Store) UpsertTicket(ctx context.Context, t *models.Ticket) (bool, error) {
	raw, err := encodeRaw(t.RawData)
	if err != nil {
		return false, err
	}

	var (
		networkID, submittedBy sql.NullInt64
		created                bool
	)
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO tickets (config_id, ticket_number, ticket_type, status, resolution, network_id,
			submitted_by, resolved_at, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		ON CONFLICT (ticket_number) DO UPDATE SET
			ticket_type = EXCLUDED.ticket_type,
			status = EXCLUDED.status,
			resolution = EXCLUDED.resolution,
			network_id = COALESCE(EXCLUDED.network_id, tickets.network_id),
			submitted_by = COALESCE(EXCLUDED.submitted_by, tickets.submitted_by),
			resolved_at = EXCLUDED.resolved_at,
			raw_data = EXCLUDED.raw_data
		RETURNING id, network_id, submitted_by, created_at, (xmax = 0)`,
		t.ConfigID, t.Number, string(t.Type), string(t.Status), string(t.Resolution), nullInt64(t.NetworkID),
		nullInt64(t.SubmittedBy), nullTime(t.ResolvedAt), raw,
	).Scan(&t.ID, &networkID, &submittedBy, &t.CreatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert ticket %s: %w", t.Number, err)
	}
	t.NetworkID = int64Ptr(networkID)
	t.SubmittedBy = int64Ptr(submittedBy)
	return created, nil
}

// GetTicket implements store.Store
func (s *Store) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	t, err := scanTicket(s.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// ListTickets implements store.Store
func (s *Store) ListTickets(ctx context.Context, configID int64) ([]models.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE config_id = $1 ORDER BY id`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// AppendAuditLog implements store.Store
func (s *Store) AppendAuditLog(ctx context.Context, e *models.AuditLogEntry) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (config_id, operation, object_type, object_handle, status, message, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		e.ConfigID, string(e.Operation), string(e.ObjectType), e.ObjectHandle, string(e.Status), e.Message,
		nullInt64(e.UserID),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// ListAuditLog implements store.Store
func (s *Store) ListAuditLog(ctx context.Context, configID int64) ([]models.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config_id, operation, object_type, object_handle, status, message, user_id, created_at
		FROM audit_log WHERE config_id = $1 ORDER BY id`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLogEntry
	for rows.Next() {
		var (
			e      models.AuditLogEntry
			userID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.ConfigID, &e.Operation, &e.ObjectType, &e.ObjectHandle, &e.Status,
			&e.Message, &userID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = int64Ptr(userID)
		out = append(out, e)
	}
	return out, rows.Err()
}
