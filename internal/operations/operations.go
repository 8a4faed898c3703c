// Package operations submits mutating requests to a registry on behalf of a
// user credential and mirrors the outcome locally: tickets, customers, child
// networks and audit entries.
package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ipam-rir/rir-manager/internal/address"
	"github.com/ipam-rir/rir-manager/internal/audit"
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/store"
	rsync "github.com/ipam-rir/rir-manager/internal/sync"
	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=operations.go Service

var (
	// ErrNoCredential is returned when the actor has no credential for the
	// network's registry config. No registry call is made.
	ErrNoCredential = errors.New("no API key configured for this registry config")

	// ErrValidation is wrapped by every *ValidationError
	ErrValidation = errors.New("invalid request")

	// ErrNetworkNotFound is returned when the target network is not mirrored
	ErrNetworkNotFound = errors.New("network not found")

	// ErrTicketNotFound is returned when the target ticket is not mirrored
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrRegistryRejected is returned when the registry call produced no result
	ErrRegistryRejected = errors.New("registry rejected request")

	// ErrCustomerFailed is returned when a simple reassignment could not
	// create its customer
	ErrCustomerFailed = errors.New("failed to create customer at registry")

	// ErrNoAddress is returned when no postal address could be resolved for
	// the site of an auto-reassigned prefix
	ErrNoAddress = errors.New("could not resolve address for site")

	// ErrNoParentNetwork is returned when a prefix has no containing
	// aggregate with an auto-reassign network
	ErrNoParentNetwork = errors.New("no parent network with auto-reassign enabled")
)

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Actor identifies who a write is performed for. CredentialID, when set,
// selects the credential directly; otherwise the user's credential for the
// network's config is used.
type Actor struct {
	UserID       int64
	CredentialID int64
}

// Outcome statuses
const (
	OutcomeSuccess = models.StatusSuccess
	OutcomeError   = models.StatusError
	OutcomeSkipped = models.StatusSkipped
)

// Outcome describes one attempted registry write.
type Outcome struct {
	Status   models.Status         `json:"status"`
	Message  string                `json:"message"`
	Ticket   *models.Ticket        `json:"ticket,omitempty"`
	Customer *models.Customer      `json:"customer,omitempty"`
	Network  *models.Network       `json:"network,omitempty"`
	Entry    *models.AuditLogEntry `json:"-"`
}

// Service is the write surface consumed by the API and job handlers
type Service interface {
	Reassign(ctx context.Context, networkID int64, actor Actor, req ReassignRequest) (*Outcome, error)
	Reallocate(ctx context.Context, networkID int64, actor Actor, req ReallocateRequest) (*Outcome, error)
	Remove(ctx context.Context, networkID int64, actor Actor) (*Outcome, error)
	Delete(ctx context.Context, networkID int64, actor Actor) (*Outcome, error)
	Update(ctx context.Context, networkID int64, actor Actor, patch registry.NetworkPatch) (*Outcome, error)
	RefreshTicket(ctx context.Context, ticketID int64, actor Actor) (*Outcome, error)
	AutoReassign(ctx context.Context, prefixID, credentialID int64) (*Outcome, error)
}

// Orchestrator is the default Service
type Orchestrator struct {
	store     store.Store
	source    ipam.Source
	connector registry.Connector
	resolver  address.Resolver
	linker    *rsync.Linker
	metrics   *telemetry.OperationMetrics
	now       func() time.Time
}

var _ Service = (*Orchestrator)(nil)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithAddressResolver sets the resolver used for simple auto-reassignments.
// Without one, simple auto-reassignment fails with ErrNoAddress.
func WithAddressResolver(r address.Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = r
	}
}

// WithMetrics counts outcomes per operation.
func WithMetrics(m *telemetry.OperationMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator
func New(st store.Store, src ipam.Source, conn registry.Connector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     st,
		source:    src,
		connector: conn,
		linker:    rsync.NewLinker(src),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// session is an authenticated registry client for one config.
type session struct {
	cfg    *models.RegistryConfig
	cred   *models.UserCredential
	client registry.Client
	trail  *audit.Trail
}

func (o *Orchestrator) open(ctx context.Context, configID int64, actor Actor) (*session, error) {
	cred, err := o.credential(ctx, configID, actor)
	if err != nil {
		return nil, err
	}

	cfg, err := o.store.GetConfig(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry config %d: %w", configID, err)
	}

	client, err := o.connector.Connect(cfg, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s registry: %w", cfg.RIR, err)
	}

	userID := actor.UserID
	if userID == 0 {
		userID = cred.UserID
	}
	return &session{
		cfg:    cfg,
		cred:   cred,
		client: client,
		trail:  audit.NewTrail(o.store, cfg.ID, audit.WithUser(&userID)),
	}, nil
}

func (o *Orchestrator) credential(ctx context.Context, configID int64, actor Actor) (*models.UserCredential, error) {
	if actor.CredentialID != 0 {
		cred, err := o.store.GetCredential(ctx, actor.CredentialID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: credential %d does not exist", ErrNoCredential, actor.CredentialID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load credential %d: %w", actor.CredentialID, err)
		}
		if cred.ConfigID != configID {
			return nil, fmt.Errorf("%w: credential %d belongs to config %d", ErrNoCredential, cred.ID, cred.ConfigID)
		}
		return cred, nil
	}

	cred, err := o.store.FindCredential(ctx, actor.UserID, configID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	return cred, nil
}

func (o *Orchestrator) loadNetwork(ctx context.Context, id int64) (*models.Network, error) {
	n, err := o.store.GetNetwork(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNetworkNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load network %d: %w", id, err)
	}
	return n, nil
}

// fail records a failed registry call and returns the outcome with cause.
func (o *Orchestrator) fail(
	ctx context.Context, s *session, op models.Operation, obj models.ObjectType, handle, msg string, cause error,
) (*Outcome, error) {
	o.metrics.RecordOutcome(ctx, string(op), string(OutcomeError))
	entry, err := s.trail.Failure(ctx, op, obj, handle, msg)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: OutcomeError, Message: msg, Entry: entry}, cause
}

// succeed records a successful registry call on out.
func (o *Orchestrator) succeed(
	ctx context.Context, s *session, op models.Operation, obj models.ObjectType, handle string, out *Outcome,
) (*Outcome, error) {
	o.metrics.RecordOutcome(ctx, string(op), string(out.Status))
	entry, err := s.trail.Record(ctx, audit.Entry{
		Operation:    op,
		ObjectType:   obj,
		ObjectHandle: handle,
		Status:       out.Status,
		Message:      out.Message,
	})
	if err != nil {
		return nil, err
	}
	out.Entry = entry
	return out, nil
}

// mirrorNetwork upserts a registry network returned by a write, stamped as
// synced by the session credential.
func (o *Orchestrator) mirrorNetwork(
	ctx context.Context, s *session, remote *registry.Network, prefixID *int64,
) (*models.Network, error) {
	n := remote.ToModel(s.cfg.ID)
	n.PrefixID = prefixID
	if n.PrefixID == nil {
		if _, err := o.linker.Link(ctx, n, remote.Blocks); err != nil {
			slog.WarnContext(ctx, "Failed to link network", "handle", n.Handle, "error", err)
		}
	}

	if remote.OrgHandle != "" {
		org, err := o.store.GetOrganizationByHandle(ctx, remote.OrgHandle)
		switch {
		case err == nil:
			n.OrganizationID = &org.ID
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("failed to resolve organization %s: %w", remote.OrgHandle, err)
		}
	}

	now := o.now()
	n.LastSynced = &now
	n.SyncedBy = &s.cred.ID
	if _, err := o.store.UpsertNetwork(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to upsert network %s: %w", n.Handle, err)
	}
	return n, nil
}
