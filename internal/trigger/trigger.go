// Package trigger evaluates local prefix changes and enqueues the registry
// work they imply. Rules run synchronously on the host's save or delete
// hook; the registry call itself always happens in a job.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/store"
)

//go:generate mockgen -destination=mocks/mock_trigger.go -package=mocks -source=trigger.go Engine

// Action is what a rule decided to do about a prefix change.
type Action string

// Actions
const (
	ActionNone     Action = "none"
	ActionReassign Action = "reassign"
	ActionRemove   Action = "remove"
)

// Decision is the result of evaluating a prefix change.
type Decision struct {
	Action Action    `json:"action"`
	Reason string    `json:"reason,omitempty"`
	Job    *jobs.Job `json:"job,omitempty"`
}

// Engine evaluates prefix lifecycle events. It never returns an error to the
// host: problems are logged and reported in the decision reason.
type Engine interface {
	// OnPrefixSaved is called after a prefix is created (old is nil) or updated.
	OnPrefixSaved(ctx context.Context, old *ipam.Prefix, updated ipam.Prefix) Decision
	// OnPrefixDeleted is called when a prefix is about to be deleted.
	OnPrefixDeleted(ctx context.Context, p ipam.Prefix) Decision
}

type engine struct {
	store  store.Store
	source ipam.Source
	queue  jobs.Enqueuer
}

// New creates a trigger engine that enqueues onto q.
func New(st store.Store, src ipam.Source, q jobs.Enqueuer) Engine {
	return &engine{store: st, source: src, queue: q}
}

func none(format string, args ...any) Decision {
	return Decision{Action: ActionNone, Reason: fmt.Sprintf(format, args...)}
}

// errSkip carries the reason a rule did not match.
type errSkip struct{ reason string }

func (e *errSkip) Error() string { return e.reason }

func skip(format string, args ...any) error {
	return &errSkip{reason: fmt.Sprintf(format, args...)}
}

// decide turns a rule failure into a none decision, logging anything that
// is not a plain mismatch.
func decide(ctx context.Context, p ipam.Prefix, err error) Decision {
	var s *errSkip
	if errors.As(err, &s) {
		slog.DebugContext(ctx, "Prefix change needs no registry action", "prefix", p.Prefix.String(), "reason", s.reason)
		return none("%s", s.reason)
	}
	slog.WarnContext(ctx, "Failed to evaluate prefix change", "prefix", p.Prefix.String(), "error", err)
	return none("%v", err)
}

func (e *engine) OnPrefixSaved(ctx context.Context, old *ipam.Prefix, updated ipam.Prefix) Decision {
	if old != nil && old.IsActive() && !updated.IsActive() {
		d, err := e.remove(ctx, updated)
		if err != nil {
			return decide(ctx, updated, err)
		}
		return d
	}

	d, err := e.reassign(ctx, updated)
	if err != nil {
		return decide(ctx, updated, err)
	}
	return d
}

func (e *engine) OnPrefixDeleted(ctx context.Context, p ipam.Prefix) Decision {
	d, err := e.remove(ctx, p)
	if err != nil {
		return decide(ctx, p, err)
	}
	return d
}

func (e *engine) reassign(ctx context.Context, p ipam.Prefix) (Decision, error) {
	if p.SiteID == nil || p.TenantID == nil {
		return Decision{}, skip("prefix %s has no site and tenant", p.Prefix)
	}
	if !p.IsActive() {
		return Decision{}, skip("prefix %s is %s", p.Prefix, p.Status)
	}

	linked, err := e.linkedNetwork(ctx, p)
	if err != nil {
		return Decision{}, err
	}
	if linked != nil {
		return Decision{}, skip("prefix %s is already linked to network %s", p.Prefix, linked.Handle)
	}

	agg, err := e.source.FindAggregateContaining(ctx, p.Prefix)
	if errors.Is(err, ipam.ErrNotFound) {
		return Decision{}, skip("no aggregate contains %s", p.Prefix)
	}
	if err != nil {
		return Decision{}, fmt.Errorf("failed to find aggregate of %s: %w", p.Prefix, err)
	}

	parent, err := e.store.FindAutoReassignNetwork(ctx, agg.ID)
	if errors.Is(err, store.ErrNotFound) {
		return Decision{}, skip("aggregate %s has no auto-reassign network", agg.Prefix)
	}
	if err != nil {
		return Decision{}, fmt.Errorf("failed to find auto-reassign network of %s: %w", agg.Prefix, err)
	}

	cred, err := e.credential(ctx, parent.ConfigID, p)
	if err != nil {
		return Decision{}, err
	}

	return e.submit(ctx, ActionReassign, jobs.TypeReassignPrefix, jobs.ReassignPrefixParams{
		PrefixID:     p.ID,
		CredentialID: cred.ID,
	}, fmt.Sprintf("reassign %s from %s", p.Prefix, parent.Handle))
}

func (e *engine) remove(ctx context.Context, p ipam.Prefix) (Decision, error) {
	network, err := e.linkedNetwork(ctx, p)
	if err != nil {
		return Decision{}, err
	}
	if network == nil {
		return Decision{}, skip("prefix %s has no linked network", p.Prefix)
	}
	if !network.IsRemovable() {
		return Decision{}, skip("network %s is a root allocation", network.Handle)
	}

	cred, err := e.credential(ctx, network.ConfigID, p)
	if err != nil {
		return Decision{}, err
	}

	return e.submit(ctx, ActionRemove, jobs.TypeRemoveNetwork, jobs.RemoveNetworkParams{
		NetworkID:    network.ID,
		CredentialID: cred.ID,
	}, fmt.Sprintf("remove network %s", network.Handle))
}

func (e *engine) linkedNetwork(ctx context.Context, p ipam.Prefix) (*models.Network, error) {
	n, err := e.store.FindNetworkByPrefix(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find network of prefix %s: %w", p.Prefix, err)
	}
	return n, nil
}

// credential returns the first credential of the config.
func (e *engine) credential(ctx context.Context, configID int64, p ipam.Prefix) (*models.UserCredential, error) {
	creds, err := e.store.ListCredentials(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials of config %d: %w", configID, err)
	}
	if len(creds) == 0 {
		slog.WarnContext(ctx, "No registry credential for config, skipping automatic action",
			"config_id", configID, "prefix", p.Prefix.String())
		return nil, skip("config %d has no credential", configID)
	}
	return &creds[0], nil
}

func (e *engine) submit(ctx context.Context, action Action, t jobs.Type, params any, reason string) (Decision, error) {
	job, err := jobs.Submit(ctx, e.queue, t, params)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to enqueue job", "type", t, "error", err)
		return Decision{Action: ActionNone, Reason: fmt.Sprintf("failed to enqueue %s: %v", t, err)}, nil
	}
	slog.InfoContext(ctx, "Enqueued registry job", "type", t, "job_id", job.ID, "reason", reason)
	return Decision{Action: action, Reason: reason, Job: &job}, nil
}
