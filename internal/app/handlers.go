package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/operations"
	"github.com/ipam-rir/rir-manager/internal/store"
	pkgsync "github.com/ipam-rir/rir-manager/internal/sync"
)

// jobHandlers executes queued jobs against the sync engine and operations
type jobHandlers struct {
	store  store.Store
	engine pkgsync.Engine
	ops    operations.Service
}

func newJobHandlers(st store.Store, engine pkgsync.Engine, ops operations.Service) *jobHandlers {
	return &jobHandlers{store: st, engine: engine, ops: ops}
}

func (h *jobHandlers) register(w *jobs.Worker) {
	w.Register(jobs.TypeSyncConfig, h.syncConfig)
	w.Register(jobs.TypeSyncChildPrefixes, h.syncChildPrefixes)
	w.Register(jobs.TypeReassignPrefix, h.reassignPrefix)
	w.Register(jobs.TypeRemoveNetwork, h.removeNetwork)
	w.Register(jobs.TypeRefreshTicket, h.refreshTicket)
}

// target loads the config and credential a sync job runs as
func (h *jobHandlers) target(
	ctx context.Context, configID, credentialID int64,
) (*models.RegistryConfig, *models.UserCredential, error) {
	cfg, err := h.store.GetConfig(ctx, configID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load registry config %d: %w", configID, err)
	}
	cred, err := h.store.GetCredential(ctx, credentialID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load credential %d: %w", credentialID, err)
	}
	if cred.ConfigID != cfg.ID {
		return nil, nil, fmt.Errorf("credential %d does not belong to config %d", cred.ID, cfg.ID)
	}
	return cfg, cred, nil
}

func (h *jobHandlers) syncConfig(ctx context.Context, job jobs.Job) error {
	var p jobs.SyncConfigParams
	if err := job.Decode(&p); err != nil {
		return err
	}
	scopes, err := pkgsync.ParseScopes(p.Scopes)
	if err != nil {
		return err
	}
	cfg, cred, err := h.target(ctx, p.ConfigID, p.CredentialID)
	if err != nil {
		return err
	}

	res, err := h.engine.Sync(ctx, pkgsync.Request{Config: cfg, Credential: cred, Scopes: scopes})
	if err != nil {
		return fmt.Errorf("sync of config %s failed: %w", cfg.Name, err)
	}
	slog.InfoContext(ctx, "Queued sync finished",
		"config", cfg.Name,
		"entries", len(res.Entries),
		"child_discovery_queued", res.ChildDiscoveryQueued)
	return nil
}

func (h *jobHandlers) syncChildPrefixes(ctx context.Context, job jobs.Job) error {
	var p jobs.SyncChildPrefixesParams
	if err := job.Decode(&p); err != nil {
		return err
	}
	cfg, cred, err := h.target(ctx, p.ConfigID, p.CredentialID)
	if err != nil {
		return err
	}
	res, err := h.engine.SyncChildPrefixes(ctx, cfg, cred, p.AggregateIDs)
	if err != nil {
		return fmt.Errorf("child prefix discovery for config %s failed: %w", cfg.Name, err)
	}
	slog.InfoContext(ctx, "Child prefix discovery finished",
		"config", cfg.Name,
		"aggregates", len(p.AggregateIDs),
		"entries", len(res.Entries))
	return nil
}

func (h *jobHandlers) reassignPrefix(ctx context.Context, job jobs.Job) error {
	var p jobs.ReassignPrefixParams
	if err := job.Decode(&p); err != nil {
		return err
	}
	out, err := h.ops.AutoReassign(ctx, p.PrefixID, p.CredentialID)
	return outcomeError("reassign prefix", p.PrefixID, out, err)
}

func (h *jobHandlers) removeNetwork(ctx context.Context, job jobs.Job) error {
	var p jobs.RemoveNetworkParams
	if err := job.Decode(&p); err != nil {
		return err
	}
	out, err := h.ops.Remove(ctx, p.NetworkID, operations.Actor{CredentialID: p.CredentialID})
	return outcomeError("remove network", p.NetworkID, out, err)
}

func (h *jobHandlers) refreshTicket(ctx context.Context, job jobs.Job) error {
	var p jobs.RefreshTicketParams
	if err := job.Decode(&p); err != nil {
		return err
	}
	out, err := h.ops.RefreshTicket(ctx, p.TicketID, operations.Actor{CredentialID: p.CredentialID})
	return outcomeError("refresh ticket", p.TicketID, out, err)
}

// outcomeError turns a failed operation into a job error. Skipped outcomes
// are not failures.
func outcomeError(op string, id int64, out *operations.Outcome, err error) error {
	if err != nil {
		return fmt.Errorf("failed to %s %d: %w", op, id, err)
	}
	if out != nil && out.Status == operations.OutcomeSkipped {
		slog.Info("Job skipped", "operation", op, "id", id, "reason", out.Message)
	}
	return nil
}
