// Package memory provides an in-process implementation of store.Store.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/store"
)

// Store keeps every table in maps guarded by a single lock.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	configs       map[int64]models.RegistryConfig
	credentials   map[int64]models.UserCredential
	organizations map[int64]models.Organization
	contacts      map[int64]models.Contact
	networks      map[int64]models.Network
	customers     map[int64]models.Customer
	tickets       map[int64]models.Ticket
	audit         []models.AuditLogEntry
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		now:           time.Now,
		configs:       make(map[int64]models.RegistryConfig),
		credentials:   make(map[int64]models.UserCredential),
		organizations: make(map[int64]models.Organization),
		contacts:      make(map[int64]models.Contact),
		networks:      make(map[int64]models.Network),
		customers:     make(map[int64]models.Customer),
		tickets:       make(map[int64]models.Ticket),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedValues[V any](m map[int64]V, keep func(V) bool) []V {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func cloneRaw(raw models.RawPayload) models.RawPayload {
	if raw == nil {
		return nil
	}
	return maps.Clone(raw)
}

// CreateConfig implements store.Store
func (s *Store) CreateConfig(_ context.Context, cfg *models.RegistryConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.configs {
		if existing.Name == cfg.Name {
			return store.ErrConflict
		}
	}
	cfg.ID = s.id()
	s.configs[cfg.ID] = *cfg
	return nil
}

// GetConfig implements store.Store
func (s *Store) GetConfig(_ context.Context, id int64) (*models.RegistryConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cfg, nil
}

// ListActiveConfigs implements store.Store
func (s *Store) ListActiveConfigs(_ context.Context) ([]models.RegistryConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.configs, func(c models.RegistryConfig) bool { return c.IsActive }), nil
}

// TouchLastSync implements store.Store
func (s *Store) TouchLastSync(_ context.Context, configID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[configID]
	if !ok {
		return store.ErrNotFound
	}
	cfg.LastSync = &at
	s.configs[configID] = cfg
	return nil
}

// CreateCredential implements store.Store
func (s *Store) CreateCredential(_ context.Context, cred *models.UserCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.credentials {
		if existing.UserID == cred.UserID && existing.ConfigID == cred.ConfigID {
			return store.ErrConflict
		}
	}
	cred.ID = s.id()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = s.now()
	}
	s.credentials[cred.ID] = *cred
	return nil
}

// GetCredential implements store.Store
func (s *Store) GetCredential(_ context.Context, id int64) (*models.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cred, nil
}

// FindCredential implements store.Store
func (s *Store) FindCredential(_ context.Context, userID, configID int64) (*models.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cred := range s.credentials {
		if cred.UserID == userID && cred.ConfigID == configID {
			return &cred, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListCredentials implements store.Store
func (s *Store) ListCredentials(_ context.Context, configID int64) ([]models.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.credentials, func(c models.UserCredential) bool { return c.ConfigID == configID }), nil
}

// ListSyncedBy implements store.Store
func (s *Store) ListSyncedBy(_ context.Context, configID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	add := func(cfg int64, by *int64) {
		if cfg == configID && by != nil {
			seen[*by] = struct{}{}
		}
	}
	for _, o := range s.organizations {
		add(o.ConfigID, o.SyncedBy)
	}
	for _, c := range s.contacts {
		add(c.ConfigID, c.SyncedBy)
	}
	for _, n := range s.networks {
		add(n.ConfigID, n.SyncedBy)
	}

	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// UpsertOrganization implements store.Store
func (s *Store) UpsertOrganization(_ context.Context, org *models.Organization) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.organizations {
		if existing.Handle != org.Handle {
			continue
		}
		org.ID = id
		if org.TenantID == nil {
			org.TenantID = existing.TenantID
		}
		stored := *org
		stored.RawData = cloneRaw(org.RawData)
		s.organizations[id] = stored
		return false, nil
	}

	org.ID = s.id()
	stored := *org
	stored.RawData = cloneRaw(org.RawData)
	s.organizations[org.ID] = stored
	return true, nil
}

// GetOrganizationByHandle implements store.Store
func (s *Store) GetOrganizationByHandle(_ context.Context, handle string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.organizations {
		if o.Handle == handle {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

// FindOrganizationByTenant implements store.Store
func (s *Store) FindOrganizationByTenant(_ context.Context, tenantID int64) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := sortedValues(s.organizations, func(o models.Organization) bool {
		return o.TenantID != nil && *o.TenantID == tenantID
	})
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	return &found[0], nil
}

// ListOrganizations implements store.Store
func (s *Store) ListOrganizations(_ context.Context, configID int64) ([]models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.organizations, func(o models.Organization) bool { return o.ConfigID == configID }), nil
}

// UpsertContact implements store.Store
func (s *Store) UpsertContact(_ context.Context, c *models.Contact) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.contacts {
		if existing.Handle != c.Handle {
			continue
		}
		c.ID = id
		if c.LocalContactID == nil {
			c.LocalContactID = existing.LocalContactID
		}
		stored := *c
		stored.RawData = cloneRaw(c.RawData)
		s.contacts[id] = stored
		return false, nil
	}

	c.ID = s.id()
	stored := *c
	stored.RawData = cloneRaw(c.RawData)
	s.contacts[c.ID] = stored
	return true, nil
}

// ListContacts implements store.Store
func (s *Store) ListContacts(_ context.Context, configID int64) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.contacts, func(c models.Contact) bool { return c.ConfigID == configID }), nil
}

// UpsertNetwork implements store.Store
func (s *Store) UpsertNetwork(_ context.Context, n *models.Network) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.networks {
		if existing.Handle != n.Handle {
			continue
		}
		n.ID = id
		if n.AggregateID == nil {
			n.AggregateID = existing.AggregateID
		}
		if n.PrefixID == nil {
			n.PrefixID = existing.PrefixID
		}
		n.AutoReassign = n.AutoReassign || existing.AutoReassign
		stored := *n
		stored.RawData = cloneRaw(n.RawData)
		s.networks[id] = stored
		return false, nil
	}

	n.ID = s.id()
	stored := *n
	stored.RawData = cloneRaw(n.RawData)
	s.networks[n.ID] = stored
	return true, nil
}

// SetAutoReassign implements store.Store
func (s *Store) SetAutoReassign(_ context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.networks[id]
	if !ok {
		return store.ErrNotFound
	}
	n.AutoReassign = enabled
	s.networks[id] = n
	return nil
}

// GetNetwork implements store.Store
func (s *Store) GetNetwork(_ context.Context, id int64) (*models.Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.networks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (s *Store) findNetwork(match func(models.Network) bool) (*models.Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := sortedValues(s.networks, match)
	if len(found) == 0 {
		return nil, store.ErrNotFound
	}
	return &found[0], nil
}

// GetNetworkByHandle implements store.Store
func (s *Store) GetNetworkByHandle(_ context.Context, handle string) (*models.Network, error) {
	return s.findNetwork(func(n models.Network) bool { return n.Handle == handle })
}

// FindNetworkByPrefix implements store.Store
func (s *Store) FindNetworkByPrefix(_ context.Context, prefixID int64) (*models.Network, error) {
	return s.findNetwork(func(n models.Network) bool { return n.PrefixID != nil && *n.PrefixID == prefixID })
}

// FindNetworkByAggregate implements store.Store
func (s *Store) FindNetworkByAggregate(_ context.Context, aggregateID int64) (*models.Network, error) {
	return s.findNetwork(func(n models.Network) bool { return n.AggregateID != nil && *n.AggregateID == aggregateID })
}

// FindAutoReassignNetwork implements store.Store
func (s *Store) FindAutoReassignNetwork(_ context.Context, aggregateID int64) (*models.Network, error) {
	return s.findNetwork(func(n models.Network) bool {
		return n.AutoReassign && n.AggregateID != nil && *n.AggregateID == aggregateID
	})
}

// ListNetworks implements store.Store
func (s *Store) ListNetworks(_ context.Context, configID int64) ([]models.Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.networks, func(n models.Network) bool { return n.ConfigID == configID }), nil
}

// DeleteNetwork implements store.Store
func (s *Store) DeleteNetwork(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.networks[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.networks, id)
	for cid, c := range s.customers {
		if c.NetworkID != nil && *c.NetworkID == id {
			c.NetworkID = nil
			s.customers[cid] = c
		}
	}
	for tid, t := range s.tickets {
		if t.NetworkID != nil && *t.NetworkID == id {
			t.NetworkID = nil
			s.tickets[tid] = t
		}
	}
	return nil
}

// UpsertCustomer implements store.Store
func (s *Store) UpsertCustomer(_ context.Context, c *models.Customer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.customers {
		if existing.Handle != c.Handle {
			continue
		}
		c.ID = id
		c.CreatedAt = existing.CreatedAt
		if c.TenantID == nil {
			c.TenantID = existing.TenantID
		}
		if c.NetworkID == nil {
			c.NetworkID = existing.NetworkID
		}
		stored := *c
		stored.RawData = cloneRaw(c.RawData)
		s.customers[id] = stored
		return false, nil
	}

	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	stored := *c
	stored.RawData = cloneRaw(c.RawData)
	s.customers[c.ID] = stored
	return true, nil
}

// ListCustomers implements store.Store
func (s *Store) ListCustomers(_ context.Context, configID int64) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.customers, func(c models.Customer) bool { return c.ConfigID == configID }), nil
}

// UpsertTicket implements store.Store
func (s *Store) UpsertTicket(_ context.Context, t *models.Ticket) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.tickets {
		if existing.Number != t.Number {
			continue
		}
		t.ID = id
		if t.NetworkID == nil {
			t.NetworkID = existing.NetworkID
		}
		if t.SubmittedBy == nil {
			t.SubmittedBy = existing.SubmittedBy
		}
		stored := *t
		stored.RawData = cloneRaw(t.RawData)
		s.tickets[id] = stored
		return false, nil
	}

	t.ID = s.id()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	stored := *t
	stored.RawData = cloneRaw(t.RawData)
	s.tickets[t.ID] = stored
	return true, nil
}

// GetTicket implements store.Store
func (s *Store) GetTicket(_ context.Context, id int64) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

// ListTickets implements store.Store
func (s *Store) ListTickets(_ context.Context, configID int64) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.tickets, func(t models.Ticket) bool { return t.ConfigID == configID }), nil
}

// AppendAuditLog implements store.Store
func (s *Store) AppendAuditLog(_ context.Context, e *models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.audit = append(s.audit, *e)
	return nil
}

// ListAuditLog implements store.Store
func (s *Store) ListAuditLog(_ context.Context, configID int64) ([]models.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AuditLogEntry
	for _, e := range s.audit {
		if e.ConfigID == configID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Ping implements store.Store
func (*Store) Ping(context.Context) error {
	return nil
}
