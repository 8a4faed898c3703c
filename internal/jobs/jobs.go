// Package jobs carries background work between the trigger and API surfaces
// and the worker that runs sync and write operations.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_jobs.go -package=mocks -source=jobs.go Enqueuer,Queue

// ErrQueueClosed is returned by Dequeue once a queue has been closed.
var ErrQueueClosed = errors.New("job queue closed")

// Type identifies a job handler.
type Type string

// Job types
const (
	TypeSyncConfig        Type = "sync_config"
	TypeSyncChildPrefixes Type = "sync_child_prefixes"
	TypeReassignPrefix    Type = "reassign_prefix"
	TypeRemoveNetwork     Type = "remove_network"
	TypeRefreshTicket     Type = "refresh_ticket"
)

// Job is the queued envelope. Params holds the JSON encoded parameters of
// the job type.
type Job struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	Params     json.RawMessage `json:"params"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// New builds a job of type t with params encoded as JSON.
func New(t Type, params any) (Job, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Job{}, fmt.Errorf("failed to encode %s params: %w", t, err)
	}
	return Job{ID: uuid.New(), Type: t, Params: raw, EnqueuedAt: time.Now().UTC()}, nil
}

// Decode unmarshals the job parameters into v.
func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Params, v); err != nil {
		return fmt.Errorf("failed to decode %s params: %w", j.Type, err)
	}
	return nil
}

// SyncConfigParams are the parameters of a sync_config job.
type SyncConfigParams struct {
	ConfigID     int64    `json:"config_id"`
	CredentialID int64    `json:"credential_id"`
	Scopes       []string `json:"scopes,omitempty"`
}

// SyncChildPrefixesParams are the parameters of a sync_child_prefixes job.
type SyncChildPrefixesParams struct {
	ConfigID     int64   `json:"config_id"`
	CredentialID int64   `json:"credential_id"`
	AggregateIDs []int64 `json:"aggregate_ids"`
}

// ReassignPrefixParams are the parameters of a reassign_prefix job.
type ReassignPrefixParams struct {
	PrefixID     int64 `json:"prefix_id"`
	CredentialID int64 `json:"credential_id"`
}

// RemoveNetworkParams are the parameters of a remove_network job.
type RemoveNetworkParams struct {
	NetworkID    int64 `json:"network_id"`
	CredentialID int64 `json:"credential_id"`
}

// RefreshTicketParams are the parameters of a refresh_ticket job.
type RefreshTicketParams struct {
	TicketID     int64 `json:"ticket_id"`
	CredentialID int64 `json:"credential_id"`
}

// Enqueuer accepts jobs for asynchronous execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Queue is a FIFO of jobs shared by producers and the worker.
type Queue interface {
	Enqueuer
	// Dequeue blocks until a job is available, ctx is done, or the queue is
	// closed.
	Dequeue(ctx context.Context) (Job, error)
	Ping(ctx context.Context) error
	Close() error
}

// Submit builds a job and enqueues it.
func Submit(ctx context.Context, q Enqueuer, t Type, params any) (Job, error) {
	job, err := New(t, params)
	if err != nil {
		return Job{}, err
	}
	if err := q.Enqueue(ctx, job); err != nil {
		return Job{}, fmt.Errorf("failed to enqueue %s job: %w", t, err)
	}
	return job, nil
}
