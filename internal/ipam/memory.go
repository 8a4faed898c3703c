package ipam

import (
	"context"
	"net/netip"
	"sort"
	"sync"
)

// Memory is an in-process Source, used by tests and the standalone dev mode.
type Memory struct {
	mu         sync.RWMutex
	aggregates map[int64]Aggregate
	prefixes   map[int64]Prefix
	tenants    map[int64]Tenant
	sites      map[int64]Site
}

var _ Source = (*Memory)(nil)

// NewMemory creates an empty in-memory IPAM source.
func NewMemory() *Memory {
	return &Memory{
		aggregates: make(map[int64]Aggregate),
		prefixes:   make(map[int64]Prefix),
		tenants:    make(map[int64]Tenant),
		sites:      make(map[int64]Site),
	}
}

// PutAggregate stores or replaces an aggregate.
func (m *Memory) PutAggregate(a Aggregate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregates[a.ID] = a
}

// PutPrefix stores or replaces a prefix.
func (m *Memory) PutPrefix(p Prefix) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes[p.ID] = p
}

// PutTenant stores or replaces a tenant.
func (m *Memory) PutTenant(t Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
}

// PutSite stores or replaces a site.
func (m *Memory) PutSite(s Site) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[s.ID] = s
}

// ListAggregates implements Source.
func (m *Memory) ListAggregates(_ context.Context, rir string) ([]Aggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Aggregate
	for _, a := range m.aggregates {
		if a.RIR == rir {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetAggregate implements Source.
func (m *Memory) GetAggregate(_ context.Context, id int64) (*Aggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.aggregates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

// FindAggregateContaining implements Source.
func (m *Memory) FindAggregateContaining(_ context.Context, p netip.Prefix) (*Aggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *Aggregate
	for _, a := range m.aggregates {
		if a.Prefix.Bits() <= p.Bits() && a.Prefix.Contains(p.Addr()) {
			if best == nil || a.Prefix.Bits() > best.Prefix.Bits() {
				found := a
				best = &found
			}
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

// FindAggregate implements Source.
func (m *Memory) FindAggregate(_ context.Context, p netip.Prefix) (*Aggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.aggregates {
		if a.Prefix == p.Masked() {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

// ListPrefixesWithin implements Source.
func (m *Memory) ListPrefixesWithin(_ context.Context, p netip.Prefix) ([]Prefix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Prefix
	for _, pfx := range m.prefixes {
		if Contains(p, pfx.Prefix) {
			out = append(out, pfx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetPrefix implements Source.
func (m *Memory) GetPrefix(_ context.Context, id int64) (*Prefix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.prefixes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// FindPrefix implements Source.
func (m *Memory) FindPrefix(_ context.Context, p netip.Prefix) (*Prefix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, pfx := range m.prefixes {
		if pfx.Prefix == p.Masked() {
			return &pfx, nil
		}
	}
	return nil, ErrNotFound
}

// GetTenant implements Source.
func (m *Memory) GetTenant(_ context.Context, id int64) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

// GetSite implements Source.
func (m *Memory) GetSite(_ context.Context, id int64) (*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sites[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}
