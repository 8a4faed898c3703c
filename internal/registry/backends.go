package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ipam-rir/rir-manager/internal/models"
)

// ErrUnsupportedRIR is returned when no backend is registered for an RIR.
var ErrUnsupportedRIR = errors.New("unsupported registry")

// BackendConfig is the connection scope handed to a backend factory.
type BackendConfig struct {
	BaseURL string
	APIKey  string
}

// Factory builds a Backend for one registry account.
type Factory func(cfg BackendConfig) (Backend, error)

// Backends maps RIR names to transport factories. It is built once at
// startup and passed to whatever needs to talk to a registry.
type Backends struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewBackends creates an empty backend registry.
func NewBackends() *Backends {
	return &Backends{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for rir.
func (b *Backends) Register(rir string, factory Factory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[strings.ToUpper(rir)] = factory
}

// Get returns the factory for rir.
func (b *Backends) Get(rir string) (Factory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.factories[strings.ToUpper(rir)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRIR, rir)
	}
	return f, nil
}

// Names returns the registered RIR names, sorted.
func (b *Backends) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.factories))
	for name := range b.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connect builds a raw Backend for a config and API key.
func (b *Backends) Connect(cfg *models.RegistryConfig, apiKey string) (Backend, error) {
	factory, err := b.Get(cfg.RIR)
	if err != nil {
		return nil, err
	}
	backend, err := factory(BackendConfig{BaseURL: cfg.APIURL, APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.RIR, err)
	}
	return backend, nil
}

// Connector produces a Client authenticated as one credential.
type Connector interface {
	Connect(cfg *models.RegistryConfig, cred *models.UserCredential) (Client, error)
}
