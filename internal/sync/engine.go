package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ipam-rir/rir-manager/internal/audit"
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	rirotel "github.com/ipam-rir/rir-manager/internal/otel"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/store"
	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

// Scope selects which object kinds a sync run reconciles.
type Scope string

// Sync scopes
const (
	ScopeOrganizations Scope = "organizations"
	ScopeContacts      Scope = "contacts"
	ScopeNetworks      Scope = "networks"
)

// AllScopes lists every scope in reconciliation order.
var AllScopes = []Scope{ScopeOrganizations, ScopeContacts, ScopeNetworks}

// ParseScopes validates raw scope names. An empty list means all scopes.
func ParseScopes(raw []string) ([]Scope, error) {
	if len(raw) == 0 {
		return AllScopes, nil
	}
	scopes := make([]Scope, 0, len(raw))
	for _, r := range raw {
		s := Scope(strings.ToLower(strings.TrimSpace(r)))
		switch s {
		case ScopeOrganizations, ScopeContacts, ScopeNetworks:
			scopes = append(scopes, s)
		default:
			return nil, fmt.Errorf("unknown sync scope %q", r)
		}
	}
	return scopes, nil
}

func scopeNames(scopes []Scope) []string {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = string(s)
	}
	return names
}

// Step names reported on *Error
const (
	StepConnect       = "connect"
	StepOrganizations = "organizations"
	StepContacts      = "contacts"
	StepNetworks      = "networks"
	StepChildPrefixes = "child_prefixes"
	StepLinking       = "linking"
	StepFinalize      = "finalize"
)

// Request describes one sync run.
type Request struct {
	Config     *models.RegistryConfig
	Credential *models.UserCredential
	// Scopes limits the run; empty means all scopes.
	Scopes []Scope
}

// Result contains the outcome of a sync run
type Result struct {
	// Entries are the audit entries written by the run, in order.
	Entries []models.AuditLogEntry
	// AggregateIDs are the aggregates matched to a registry network.
	AggregateIDs []int64
	// ChildDiscoveryQueued is set when child prefix discovery was handed to
	// the job queue instead of running inline.
	ChildDiscoveryQueued bool
}

// Error is returned when a run could not complete, either because no client
// could be built for the credential or because the store failed.
type Error struct {
	Err     error
	Message string
	Step    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Engine reconciles local records with the registry
//
//go:generate mockgen -destination=mocks/mock_engine.go -package=mocks -source=engine.go Engine
type Engine interface {
	// Sync runs the scoped reconciliation for one config as one credential
	Sync(ctx context.Context, req Request) (*Result, error)

	// SyncChildPrefixes discovers registry sub-blocks for prefixes contained
	// in the given aggregates
	SyncChildPrefixes(
		ctx context.Context, cfg *models.RegistryConfig, cred *models.UserCredential, aggregateIDs []int64,
	) (*Result, error)
}

// Option configures the engine
type Option func(*engine)

// WithChildDiscoveryQueue hands child prefix discovery to q as a
// sync_child_prefixes job instead of running it inline.
func WithChildDiscoveryQueue(q jobs.Enqueuer) Option {
	return func(e *engine) {
		e.queue = q
	}
}

// WithAutoLink links mirrored networks that have neither an aggregate nor a
// prefix to an exactly matching local block.
func WithAutoLink(enabled bool) Option {
	return func(e *engine) {
		e.autoLink = enabled
	}
}

// WithMetrics records run durations and audit entry counts.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(e *engine) {
		e.metrics = m
	}
}

// WithTracer wraps each run in a span
func WithTracer(t trace.Tracer) Option {
	return func(e *engine) {
		e.tracer = t
	}
}

// WithClock overrides the time source used for sync stamps.
func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		e.now = now
	}
}

// engine is the default implementation of Engine
type engine struct {
	store     store.Store
	source    ipam.Source
	connector registry.Connector
	linker    *Linker
	queue     jobs.Enqueuer
	autoLink  bool
	metrics   *telemetry.SyncMetrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEngine creates a new Engine
func NewEngine(st store.Store, src ipam.Source, conn registry.Connector, opts ...Option) Engine {
	e := &engine{
		store:     st,
		source:    src,
		connector: conn,
		linker:    NewLinker(src),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync implements Engine
func (e *engine) Sync(ctx context.Context, req Request) (res *Result, err error) {
	cfg := req.Config
	start := time.Now()
	logger := slog.With("config", cfg.Name, "config_id", cfg.ID, "credential_id", req.Credential.ID)
	logger.Info("Starting registry sync", "scopes", req.Scopes)

	ctx, span := rirotel.StartSpan(ctx, e.tracer, "sync.run", trace.WithAttributes(
		rirotel.AttrConfigName.String(cfg.Name),
		rirotel.AttrRIR.String(cfg.RIR),
		rirotel.AttrCredentialID.Int64(req.Credential.ID),
		rirotel.AttrSyncScopes.StringSlice(scopeNames(req.Scopes)),
	))
	defer span.End()

	defer func() {
		if terr := e.store.TouchLastSync(ctx, cfg.ID, e.now()); terr != nil {
			logger.Error("Failed to stamp last sync", "error", terr)
			if err == nil {
				res = nil
				err = &Error{Err: terr, Message: fmt.Sprintf("failed to stamp last sync: %v", terr), Step: StepFinalize}
			}
		}
		e.metrics.RecordSyncDuration(ctx, cfg.Name, time.Since(start), err == nil)
		if err != nil {
			rirotel.RecordError(span, err)
			logger.Error("Registry sync failed", "error", err, "duration", time.Since(start))
			return
		}
		span.SetAttributes(rirotel.AttrEntryCount.Int(len(res.Entries)))
		logger.Info("Registry sync completed", "entries", len(res.Entries), "duration", time.Since(start))
	}()

	r, err := e.newRun(cfg, req.Credential)
	if err != nil {
		return nil, err
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = AllScopes
	}
	has := func(s Scope) bool {
		for _, v := range scopes {
			if v == s {
				return true
			}
		}
		return false
	}

	result := &Result{}

	var org *models.Organization
	var handles []string
	orgFetched := false
	if has(ScopeOrganizations) && cfg.OrgHandle != "" {
		orgFetched = true
		if org, handles, err = r.syncOrganization(ctx); err != nil {
			return nil, err
		}
	}

	if has(ScopeContacts) && cfg.OrgHandle != "" {
		if !orgFetched {
			if org, handles, err = r.localOrganization(ctx); err != nil {
				return nil, err
			}
		}
		if org != nil {
			if err := r.syncContacts(ctx, org, handles); err != nil {
				return nil, err
			}
		}
	}

	if has(ScopeNetworks) {
		ids, err := r.syncAggregates(ctx)
		if err != nil {
			return nil, err
		}
		result.AggregateIDs = ids

		if len(ids) > 0 {
			queued, err := e.discoverChildren(ctx, r, ids)
			if err != nil {
				return nil, err
			}
			result.ChildDiscoveryQueued = queued
		}

		if e.autoLink {
			if err := r.linkUnlinked(ctx); err != nil {
				return nil, err
			}
		}
	}

	result.Entries = r.trail.Entries()
	return result, nil
}

func (e *engine) discoverChildren(ctx context.Context, r *run, aggregateIDs []int64) (bool, error) {
	if e.queue == nil {
		return false, r.syncChildPrefixes(ctx, aggregateIDs)
	}

	_, err := jobs.Submit(ctx, e.queue, jobs.TypeSyncChildPrefixes, jobs.SyncChildPrefixesParams{
		ConfigID:     r.cfg.ID,
		CredentialID: r.cred.ID,
		AggregateIDs: aggregateIDs,
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to queue child prefix discovery, running inline",
			"config_id", r.cfg.ID, "error", err)
		return false, r.syncChildPrefixes(ctx, aggregateIDs)
	}
	slog.InfoContext(ctx, "Queued child prefix discovery", "config_id", r.cfg.ID, "aggregates", len(aggregateIDs))
	return true, nil
}

// SyncChildPrefixes implements Engine
func (e *engine) SyncChildPrefixes(
	ctx context.Context, cfg *models.RegistryConfig, cred *models.UserCredential, aggregateIDs []int64,
) (*Result, error) {
	start := time.Now()
	r, err := e.newRun(cfg, cred)
	if err != nil {
		return nil, err
	}
	err = r.syncChildPrefixes(ctx, aggregateIDs)
	e.metrics.RecordSyncDuration(ctx, cfg.Name, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	return &Result{Entries: r.trail.Entries(), AggregateIDs: aggregateIDs}, nil
}

func (e *engine) newRun(cfg *models.RegistryConfig, cred *models.UserCredential) (*run, error) {
	client, err := e.connector.Connect(cfg, cred)
	if err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("failed to connect to %s registry: %v", cfg.RIR, err),
			Step:    StepConnect,
		}
	}
	return &run{
		engine: e,
		cfg:    cfg,
		cred:   cred,
		client: client,
		trail:  audit.NewTrail(e.store, cfg.ID, audit.WithUser(&cred.UserID), audit.WithMetrics(e.metrics)),
		orgs:   make(map[string]*int64),
	}, nil
}

func storeError(step string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Err: err, Message: fmt.Sprintf("%s sync failed: %v", step, err), Step: step}
}
