package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/store"
	pkgsync "github.com/ipam-rir/rir-manager/internal/sync"
)

// Coordinator schedules reconciliation runs for all active registry configs
type Coordinator interface {
	// Start begins the scheduled sync loop.
	// Blocks until context is cancelled or Stop is called
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator, waiting for a running pass
	Stop() error

	// RunOnce syncs every active config once
	RunOnce(ctx context.Context) Summary
}

// Summary counts the units of one pass
type Summary struct {
	Configs       int
	Units         int
	Failures      int
	Skipped       int
	TicketsQueued int
	Duration      time.Duration
	StartedAt     time.Time
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	engine  pkgsync.Engine
	store   store.Store
	scopes  []pkgsync.Scope
	spec    string
	initial bool
	logger  *slog.Logger
	tickets jobs.Enqueuer

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSchedule sets the cron schedule (standard five-field or descriptor)
func WithSchedule(spec string) Option {
	return func(c *defaultCoordinator) {
		c.spec = spec
	}
}

// WithScopes limits scheduled runs to the given scopes
func WithScopes(scopes ...pkgsync.Scope) Option {
	return func(c *defaultCoordinator) {
		c.scopes = scopes
	}
}

// WithInitialRun makes Start perform a pass before waiting for the first tick
func WithInitialRun(enabled bool) Option {
	return func(c *defaultCoordinator) {
		c.initial = enabled
	}
}

// WithLogger sets the logger handed to the cron scheduler
func WithLogger(logger *slog.Logger) Option {
	return func(c *defaultCoordinator) {
		c.logger = logger
	}
}

// WithTicketRefresh makes each pass queue a refresh_ticket job for every
// ticket of the config that is not yet resolved or closed
func WithTicketRefresh(q jobs.Enqueuer) Option {
	return func(c *defaultCoordinator) {
		c.tickets = q
	}
}

// New creates a new coordinator with injected dependencies
func New(engine pkgsync.Engine, st store.Store, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		engine: engine,
		store:  st,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background sync coordination for all registry configs
func (c *defaultCoordinator) Start(ctx context.Context) error {
	spec, schedule := resolveSchedule(c.spec)
	slog.Info("Starting background sync coordinator", "schedule", spec)

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	logger := cronLogger{logger: c.logger}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	scheduler.Schedule(schedule, cron.FuncJob(func() {
		c.RunOnce(coordCtx)
	}))

	if c.initial {
		c.RunOnce(coordCtx)
	}

	scheduler.Start()
	<-coordCtx.Done()

	slog.Info("Sync coordinator stopping")
	<-scheduler.Stop().Done()
	return nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping sync coordinator")
		c.cancelFunc()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// RunOnce syncs each active config with each of its credentials
func (c *defaultCoordinator) RunOnce(ctx context.Context) Summary {
	summary := Summary{StartedAt: time.Now()}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
		slog.Info("Scheduled sync pass finished",
			"configs", summary.Configs,
			"units", summary.Units,
			"failures", summary.Failures,
			"skipped", summary.Skipped,
			"tickets_queued", summary.TicketsQueued,
			"duration", summary.Duration)
	}()

	configs, err := c.store.ListActiveConfigs(ctx)
	if err != nil {
		slog.Error("Failed to list active registry configs", "error", err)
		return summary
	}

	for i := range configs {
		if ctx.Err() != nil {
			return summary
		}
		cfg := &configs[i]
		summary.Configs++

		creds, err := c.credentials(ctx, cfg)
		if err != nil {
			slog.Error("Failed to resolve sync credentials", "config", cfg.Name, "error", err)
			summary.Failures++
			continue
		}
		if len(creds) == 0 {
			slog.Warn("No credentials for registry config, skipping sync", "config", cfg.Name)
			summary.Skipped++
			continue
		}

		for _, cred := range creds {
			summary.Units++
			if err := c.performSync(ctx, cfg, cred); err != nil {
				summary.Failures++
				slog.Error("Sync failed",
					"config", cfg.Name,
					"credential_id", cred.ID,
					"error", err)
			}
		}

		if c.tickets != nil {
			summary.TicketsQueued += c.queueTicketRefresh(ctx, cfg, creds[0])
		}
	}
	return summary
}

// queueTicketRefresh submits a refresh for each open ticket of cfg, running
// as the submitting credential when known and as fallback otherwise. It
// returns the number of jobs queued.
func (c *defaultCoordinator) queueTicketRefresh(
	ctx context.Context, cfg *models.RegistryConfig, fallback *models.UserCredential,
) int {
	tickets, err := c.store.ListTickets(ctx, cfg.ID)
	if err != nil {
		slog.Error("Failed to list tickets for refresh", "config", cfg.Name, "error", err)
		return 0
	}

	queued := 0
	for _, t := range tickets {
		if t.Status.IsTerminal() {
			continue
		}
		credID := fallback.ID
		if t.SubmittedBy != nil {
			credID = *t.SubmittedBy
		}
		if _, err := jobs.Submit(ctx, c.tickets, jobs.TypeRefreshTicket, jobs.RefreshTicketParams{
			TicketID:     t.ID,
			CredentialID: credID,
		}); err != nil {
			slog.Error("Failed to queue ticket refresh", "config", cfg.Name, "ticket", t.Number, "error", err)
			continue
		}
		queued++
	}
	if queued > 0 {
		slog.Info("Queued ticket refresh", "config", cfg.Name, "tickets", queued)
	}
	return queued
}

// credentials returns the credentials that last synced the config's objects,
// or its first credential when there are none.
func (c *defaultCoordinator) credentials(ctx context.Context, cfg *models.RegistryConfig) ([]*models.UserCredential, error) {
	ids, err := c.store.ListSyncedBy(ctx, cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list synced-by credentials: %w", err)
	}

	creds := make([]*models.UserCredential, 0, len(ids))
	for _, id := range ids {
		cred, err := c.store.GetCredential(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			slog.Debug("Synced-by credential no longer exists", "config", cfg.Name, "credential_id", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load credential %d: %w", id, err)
		}
		creds = append(creds, cred)
	}
	if len(creds) > 0 {
		return creds, nil
	}

	all, err := c.store.ListCredentials(ctx, cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return []*models.UserCredential{&all[0]}, nil
}

// performSync runs one unit, converting a panic into an error
func (c *defaultCoordinator) performSync(
	ctx context.Context, cfg *models.RegistryConfig, cred *models.UserCredential,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panicked: %v", r)
		}
	}()

	slog.Info("Starting sync operation", "config", cfg.Name, "credential_id", cred.ID)
	result, err := c.engine.Sync(ctx, pkgsync.Request{Config: cfg, Credential: cred, Scopes: c.scopes})
	if err != nil {
		return err
	}
	slog.Info("Sync completed successfully",
		"config", cfg.Name,
		"credential_id", cred.ID,
		"entries", len(result.Entries),
		"child_discovery_queued", result.ChildDiscoveryQueued)
	return nil
}
