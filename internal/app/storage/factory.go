// Package storage builds the persistence backends of the application: the
// store of registry records and the IPAM source they link to.
package storage

import (
	"context"
	"fmt"

	"github.com/ipam-rir/rir-manager/internal/config"
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/store"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family, so the store and
// the IPAM source always share a backend.
type Factory interface {
	// CreateStore returns the store of registry configs, mirrored objects
	// and the audit log.
	CreateStore(ctx context.Context) (store.Store, error)

	// CreateSource returns the read-only IPAM view.
	CreateSource(ctx context.Context) (ipam.Source, error)

	// Cleanup releases any resources held by this factory.
	Cleanup()
}

// NewStorageFactory returns a DatabaseFactory when a database is configured
// and a MemoryFactory otherwise.
func NewStorageFactory(ctx context.Context, cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return NewMemoryFactory(), nil
	}
	return NewDatabaseFactory(ctx, cfg)
}
