package storage

import (
	"context"
	"log/slog"

	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/store"
	"github.com/ipam-rir/rir-manager/internal/store/memory"
)

// MemoryFactory keeps everything in process memory. Nothing survives a
// restart, so it only suits development and tests.
type MemoryFactory struct {
	store  *memory.Store
	source *ipam.Memory
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates a factory with an empty store and IPAM source
func NewMemoryFactory() *MemoryFactory {
	slog.Warn("No database configured, using in-memory storage")
	return &MemoryFactory{
		store:  memory.New(),
		source: ipam.NewMemory(),
	}
}

// CreateStore implements Factory
func (f *MemoryFactory) CreateStore(context.Context) (store.Store, error) {
	return f.store, nil
}

// CreateSource implements Factory
func (f *MemoryFactory) CreateSource(context.Context) (ipam.Source, error) {
	return f.source, nil
}

// IPAM exposes the in-memory source so it can be populated
func (f *MemoryFactory) IPAM() *ipam.Memory {
	return f.source
}

// Cleanup implements Factory
func (*MemoryFactory) Cleanup() {}
