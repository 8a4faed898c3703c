package app

import (
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/operations"
	"github.com/ipam-rir/rir-manager/internal/store"
	pkgsync "github.com/ipam-rir/rir-manager/internal/sync"
	"github.com/ipam-rir/rir-manager/internal/sync/coordinator"
	"github.com/ipam-rir/rir-manager/internal/telemetry"
	"github.com/ipam-rir/rir-manager/internal/trigger"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	Store  store.Store
	Source ipam.Source

	// Queue carries background jobs to the Worker
	Queue  jobs.Queue
	Worker *jobs.Worker

	SyncEngine pkgsync.Engine
	Operations operations.Service
	Trigger    trigger.Engine

	// SyncCoordinator runs scheduled syncs; nil when scheduling is disabled
	SyncCoordinator coordinator.Coordinator

	Telemetry *telemetry.Provider
}
