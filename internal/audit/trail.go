// Package audit records the append-only trail of sync and write attempts.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/store"
	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

// Trail appends audit entries for one config and keeps them in order for the
// caller's result.
type Trail struct {
	store    store.Store
	configID int64
	userID   *int64
	metrics  *telemetry.SyncMetrics

	mu      sync.Mutex
	entries []models.AuditLogEntry
}

// Option configures a Trail.
type Option func(*Trail)

// WithUser attributes every entry to the given host user.
func WithUser(userID *int64) Option {
	return func(t *Trail) {
		t.userID = userID
	}
}

// WithMetrics counts entries by object type and status.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(t *Trail) {
		t.metrics = m
	}
}

// NewTrail creates a trail writing entries for configID.
func NewTrail(s store.Store, configID int64, opts ...Option) *Trail {
	t := &Trail{store: s, configID: configID}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Entry describes one audit record before it is stored.
type Entry struct {
	Operation    models.Operation
	ObjectType   models.ObjectType
	ObjectHandle string
	Status       models.Status
	Message      string
}

// Record stores e and returns the persisted entry.
func (t *Trail) Record(ctx context.Context, e Entry) (*models.AuditLogEntry, error) {
	row := &models.AuditLogEntry{
		ConfigID:     t.configID,
		Operation:    e.Operation,
		ObjectType:   e.ObjectType,
		ObjectHandle: e.ObjectHandle,
		Status:       e.Status,
		Message:      e.Message,
		UserID:       t.userID,
	}
	if err := t.store.AppendAuditLog(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}

	attrs := []any{
		"config_id", t.configID,
		"operation", e.Operation,
		"object_type", e.ObjectType,
		"handle", e.ObjectHandle,
		"message", e.Message,
	}
	switch e.Status {
	case models.StatusError:
		slog.WarnContext(ctx, "Registry operation failed", attrs...)
	case models.StatusSkipped:
		slog.InfoContext(ctx, "Registry operation skipped", attrs...)
	default:
		slog.DebugContext(ctx, "Registry operation succeeded", attrs...)
	}
	t.metrics.RecordEntry(ctx, string(e.ObjectType), string(e.Status))

	t.mu.Lock()
	t.entries = append(t.entries, *row)
	t.mu.Unlock()
	return row, nil
}

// Success records a success entry.
func (t *Trail) Success(ctx context.Context, op models.Operation, obj models.ObjectType, handle, msg string) (*models.AuditLogEntry, error) {
	return t.Record(ctx, Entry{Operation: op, ObjectType: obj, ObjectHandle: handle, Status: models.StatusSuccess, Message: msg})
}

// Failure records an error entry.
func (t *Trail) Failure(ctx context.Context, op models.Operation, obj models.ObjectType, handle, msg string) (*models.AuditLogEntry, error) {
	return t.Record(ctx, Entry{Operation: op, ObjectType: obj, ObjectHandle: handle, Status: models.StatusError, Message: msg})
}

// Skipped records a skipped entry.
func (t *Trail) Skipped(ctx context.Context, op models.Operation, obj models.ObjectType, handle, msg string) (*models.AuditLogEntry, error) {
	return t.Record(ctx, Entry{Operation: op, ObjectType: obj, ObjectHandle: handle, Status: models.StatusSkipped, Message: msg})
}

// Entries returns a copy of the recorded entries in insertion order.
func (t *Trail) Entries() []models.AuditLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.AuditLogEntry(nil), t.entries...)
}
