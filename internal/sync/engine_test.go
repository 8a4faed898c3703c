package sync

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/registry/mocks"
	"github.com/ipam-rir/rir-manager/internal/store/memory"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type staticConnector struct {
	client registry.Client
	err    error
}

func (c staticConnector) Connect(*models.RegistryConfig, *models.UserCredential) (registry.Client, error) {
	return c.client, c.err
}

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	source *ipam.Memory
	client *mocks.MockClient
	cfg    *models.RegistryConfig
	cred   *models.UserCredential
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		ctx:    context.Background(),
		store:  memory.New(),
		source: ipam.NewMemory(),
		client: mocks.NewMockClient(ctrl),
		cfg:    &models.RegistryConfig{RIR: "ARIN", Name: "arin-test", OrgHandle: "TESTORG-ARIN", IsActive: true},
	}
	require.NoError(t, f.store.CreateConfig(f.ctx, f.cfg))
	f.cred = &models.UserCredential{UserID: 42, ConfigID: f.cfg.ID, APIKey: "key"}
	require.NoError(t, f.store.CreateCredential(f.ctx, f.cred))
	return f
}

func (f *fixture) engine(opts ...Option) Engine {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewEngine(f.store, f.source, staticConnector{client: f.client}, opts...)
}

func (f *fixture) sync(t *testing.T, e Engine, scopes ...Scope) *Result {
	t.Helper()
	res, err := e.Sync(f.ctx, Request{Config: f.cfg, Credential: f.cred, Scopes: scopes})
	require.NoError(t, err)
	return res
}

func testOrg() *registry.Organization {
	return &registry.Organization{
		Handle: "TESTORG-ARIN",
		Name:   "Test Org",
		Raw:    map[string]any{"handle": "TESTORG-ARIN", "org_name": "Test Org", "poc_links": []any{}},
	}
}

func TestParseScopes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     []string
		want    []Scope
		wantErr bool
	}{
		{name: "empty means all", raw: nil, want: AllScopes},
		{name: "normalized", raw: []string{" Contacts ", "networks"}, want: []Scope{ScopeContacts, ScopeNetworks}},
		{name: "unknown", raw: []string{"tickets"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseScopes(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncOrganizationCreated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.client.EXPECT().GetOrganization(gomock.Any(), "TESTORG-ARIN").Return(testOrg())

	res := f.sync(t, f.engine())

	orgs, err := f.store.ListOrganizations(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "TESTORG-ARIN", orgs[0].Handle)
	assert.Equal(t, "Test Org", orgs[0].Name)
	require.NotNil(t, orgs[0].SyncedBy)
	assert.Equal(t, f.cred.ID, *orgs[0].SyncedBy)
	assert.Equal(t, fixedNow, *orgs[0].LastSynced)

	require.Len(t, res.Entries, 1)
	entry := res.Entries[0]
	assert.Equal(t, models.OperationSync, entry.Operation)
	assert.Equal(t, models.ObjectOrganization, entry.ObjectType)
	assert.Equal(t, models.StatusSuccess, entry.Status)
	assert.Equal(t, "Created organization TESTORG-ARIN", entry.Message)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, int64(42), *entry.UserID)
}

func TestSyncOrganizationMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.client.EXPECT().GetOrganization(gomock.Any(), "TESTORG-ARIN").Return(nil)

	res := f.sync(t, f.engine())

	orgs, err := f.store.ListOrganizations(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	assert.Empty(t, orgs)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, models.StatusError, res.Entries[0].Status)
	assert.Equal(t, "Failed to retrieve organization TESTORG-ARIN", res.Entries[0].Message)

	cfg, err := f.store.GetConfig(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	require.NotNil(t, cfg.LastSync)
	assert.Equal(t, fixedNow, *cfg.LastSync)
}

func TestSyncIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.client.EXPECT().GetOrganization(gomock.Any(), "TESTORG-ARIN").Return(testOrg()).Times(2)
	e := f.engine()

	first := f.sync(t, e, ScopeOrganizations)
	second := f.sync(t, e, ScopeOrganizations)

	orgs, err := f.store.ListOrganizations(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)
	assert.Equal(t, "Created organization TESTORG-ARIN", first.Entries[0].Message)
	assert.Equal(t, "Updated organization TESTORG-ARIN", second.Entries[0].Message)
}

func TestSyncPreservesTenantLink(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	existing := &models.Organization{ConfigID: f.cfg.ID, Handle: "TESTORG-ARIN", Name: "Old", TenantID: models.Int64Ptr(9)}
	_, err := f.store.UpsertOrganization(f.ctx, existing)
	require.NoError(t, err)

	f.client.EXPECT().GetOrganization(gomock.Any(), "TESTORG-ARIN").Return(testOrg())
	f.sync(t, f.engine(), ScopeOrganizations)

	org, err := f.store.GetOrganizationByHandle(f.ctx, "TESTORG-ARIN")
	require.NoError(t, err)
	assert.Equal(t, "Test Org", org.Name)
	require.NotNil(t, org.TenantID)
	assert.Equal(t, int64(9), *org.TenantID)
}

func TestSyncContacts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	org := testOrg()
	org.POCLinks = []registry.POCLink{{Handle: "ADMIN-ARIN", Function: "AD"}, {Handle: "GONE-ARIN", Function: "T"}}

	gomock.InOrder(
		f.client.EXPECT().GetOrganization(gomock.Any(), "TESTORG-ARIN").Return(org),
		f.client.EXPECT().GetContact(gomock.Any(), "ADMIN-ARIN").Return(&registry.Contact{
			Handle: "ADMIN-ARIN", Type: "PERSON", FirstName: "Ada", LastName: "Admin", Email: "ada@example.net",
		}),
		f.client.EXPECT().GetContact(gomock.Any(), "GONE-ARIN").Return(nil),
	)

	res := f.sync(t, f.engine(), ScopeOrganizations, ScopeContacts)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, "Created contact ADMIN-ARIN", res.Entries[1].Message)
	assert.Equal(t, models.StatusError, res.Entries[2].Status)
	assert.Equal(t, "Failed to retrieve POC GONE-ARIN", res.Entries[2].Message)

	contacts, err := f.store.ListContacts(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	local, err := f.store.GetOrganizationByHandle(f.ctx, "TESTORG-ARIN")
	require.NoError(t, err)
	require.NotNil(t, contacts[0].OrganizationID)
	assert.Equal(t, local.ID, *contacts[0].OrganizationID)
	assert.Equal(t, models.ContactPerson, contacts[0].Type)
}

func TestSyncContactsSkippedWhenOrganizationMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.client.EXPECT().GetOrganization(gomock.Any(), "TESTORG-ARIN").Return(nil)
	// No GetContact expectation: gomock fails the test on any call

	res := f.sync(t, f.engine(), ScopeOrganizations, ScopeContacts)
	assert.Len(t, res.Entries, 1)
}

func TestSyncContactsOnlyUsesStoredPayload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.store.UpsertOrganization(f.ctx, &models.Organization{
		ConfigID: f.cfg.ID,
		Handle:   "TESTORG-ARIN",
		RawData:  models.RawPayload{"poc_links": []any{map[string]any{"handle": "NOC-ARIN"}}},
	})
	require.NoError(t, err)

	f.client.EXPECT().GetContact(gomock.Any(), "NOC-ARIN").Return(&registry.Contact{Handle: "NOC-ARIN", Type: "ROLE"})

	res := f.sync(t, f.engine(), ScopeContacts)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Created contact NOC-ARIN", res.Entries[0].Message)
}

func networkFixture(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t)
	_, err := f.store.UpsertOrganization(f.ctx, &models.Organization{ConfigID: f.cfg.ID, Handle: "TESTORG-ARIN"})
	require.NoError(t, err)

	f.source.PutAggregate(ipam.Aggregate{ID: 10, RIR: "ARIN", Prefix: netip.MustParsePrefix("192.0.2.0/24")})
	f.source.PutAggregate(ipam.Aggregate{ID: 11, RIR: "ARIN", Prefix: netip.MustParsePrefix("198.51.100.0/24")})
	f.source.PutAggregate(ipam.Aggregate{ID: 12, RIR: "RIPE", Prefix: netip.MustParsePrefix("203.0.113.0/24")})
	f.source.PutPrefix(ipam.Prefix{ID: 20, Prefix: netip.MustParsePrefix("192.0.2.0/26"), Status: ipam.PrefixActive})
	f.source.PutPrefix(ipam.Prefix{ID: 21, Prefix: netip.MustParsePrefix("192.0.2.64/26"), Status: ipam.PrefixActive})
	return f
}

func parentNetwork() *registry.Network {
	return &registry.Network{
		Handle:    "NET-192-0-2-0-1",
		Name:      "EXAMPLE-NET",
		OrgHandle: "TESTORG-ARIN",
		Blocks:    []registry.NetBlock{{Start: "192.0.2.0", End: "192.0.2.255", CIDRLength: 24, Type: "A"}},
	}
}

func TestSyncNetworksInline(t *testing.T) {
	t.Parallel()

	f := networkFixture(t)
	child := &registry.Network{
		Handle:         "NET-192-0-2-0-2",
		Name:           "CUST-NET",
		OrgHandle:      "UNKNOWN-ARIN",
		CustomerHandle: "C01234",
		Blocks:         []registry.NetBlock{{Start: "192.0.2.0", End: "192.0.2.63", CIDRLength: 26, Type: "S"}},
	}

	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.0", "192.0.2.255").Return(parentNetwork())
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "198.51.100.0", "198.51.100.255").Return(nil)
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.0", "192.0.2.63").Return(child)
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.64", "192.0.2.127").Return(parentNetwork())
	f.client.EXPECT().GetCustomer(gomock.Any(), "C01234").Return(&registry.Customer{
		Handle: "C01234", Name: "Example Customer", City: "Reston", Country: "US",
	})

	res := f.sync(t, f.engine(), ScopeNetworks)

	assert.Equal(t, []int64{10}, res.AggregateIDs)
	assert.False(t, res.ChildDiscoveryQueued)

	messages := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{
		"Created network NET-192-0-2-0-1",
		"Created network NET-192-0-2-0-2",
		"Created customer C01234",
	}, messages)

	parent, err := f.store.GetNetworkByHandle(f.ctx, "NET-192-0-2-0-1")
	require.NoError(t, err)
	assert.True(t, parent.IsRootAllocation())
	assert.Equal(t, int64(10), *parent.AggregateID)
	assert.NotNil(t, parent.OrganizationID)
	assert.Equal(t, "A", parent.NetType)

	sub, err := f.store.GetNetworkByHandle(f.ctx, "NET-192-0-2-0-2")
	require.NoError(t, err)
	assert.True(t, sub.IsRemovable())
	assert.Equal(t, int64(20), *sub.PrefixID)
	assert.Nil(t, sub.OrganizationID)
	assert.Equal(t, "192.0.2.63", sub.EndAddress)

	customers, err := f.store.ListCustomers(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, sub.ID, *customers[0].NetworkID)
}

func TestSyncNetworksKeepsAutoReassign(t *testing.T) {
	t.Parallel()

	f := networkFixture(t)
	existing := &models.Network{ConfigID: f.cfg.ID, Handle: "NET-192-0-2-0-1", AggregateID: models.Int64Ptr(10)}
	_, err := f.store.UpsertNetwork(f.ctx, existing)
	require.NoError(t, err)
	require.NoError(t, f.store.SetAutoReassign(f.ctx, existing.ID, true))

	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.0", "192.0.2.255").Return(parentNetwork())
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	res := f.sync(t, f.engine(), ScopeNetworks)
	assert.Equal(t, "Updated network NET-192-0-2-0-1", res.Entries[0].Message)

	n, err := f.store.GetNetwork(f.ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, n.AutoReassign)
	assert.Equal(t, "EXAMPLE-NET", n.Name)
}

func TestSyncNetworksCustomerMissing(t *testing.T) {
	t.Parallel()

	f := networkFixture(t)
	parent := parentNetwork()
	parent.CustomerHandle = "C-GONE"

	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.0", "192.0.2.255").Return(parent)
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.client.EXPECT().GetCustomer(gomock.Any(), "C-GONE").Return(nil)

	res := f.sync(t, f.engine(), ScopeNetworks)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, models.ObjectCustomer, res.Entries[1].ObjectType)
	assert.Equal(t, models.StatusError, res.Entries[1].Status)
	assert.Equal(t, "Failed to retrieve customer C-GONE", res.Entries[1].Message)
}

func TestSyncQueuesChildDiscovery(t *testing.T) {
	t.Parallel()

	f := networkFixture(t)
	q := jobs.NewMemoryQueue(4)

	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.0", "192.0.2.255").Return(parentNetwork())
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "198.51.100.0", "198.51.100.255").Return(nil)

	res := f.sync(t, f.engine(WithChildDiscoveryQueue(q)), ScopeNetworks)
	assert.True(t, res.ChildDiscoveryQueued)
	require.Equal(t, 1, q.Len())

	job, err := q.Dequeue(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.TypeSyncChildPrefixes, job.Type)

	var params jobs.SyncChildPrefixesParams
	require.NoError(t, job.Decode(&params))
	assert.Equal(t, f.cfg.ID, params.ConfigID)
	assert.Equal(t, f.cred.ID, params.CredentialID)
	assert.Equal(t, []int64{10}, params.AggregateIDs)
}

func TestSyncChildPrefixesWithoutMirroredParent(t *testing.T) {
	t.Parallel()

	f := networkFixture(t)
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.0", "192.0.2.255").Return(parentNetwork())
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.0", "192.0.2.63").Return(parentNetwork())
	f.client.EXPECT().FindNetworkByRange(gomock.Any(), "192.0.2.64", "192.0.2.127").Return(nil)

	res, err := f.engine().SyncChildPrefixes(f.ctx, f.cfg, f.cred, []int64{10, 999})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	networks, err := f.store.ListNetworks(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	assert.Empty(t, networks)
}

func TestSyncAutoLink(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.source.PutAggregate(ipam.Aggregate{ID: 30, RIR: "RIPE", Prefix: netip.MustParsePrefix("203.0.113.0/24")})
	f.source.PutPrefix(ipam.Prefix{ID: 31, Prefix: netip.MustParsePrefix("198.51.100.0/25")})

	toAggregate := &models.Network{ConfigID: f.cfg.ID, Handle: "NET-AGG", StartAddress: "203.0.113.0", EndAddress: "203.0.113.255"}
	toPrefix := &models.Network{ConfigID: f.cfg.ID, Handle: "NET-PFX", StartAddress: "198.51.100.0", EndAddress: "198.51.100.127"}
	unmatched := &models.Network{ConfigID: f.cfg.ID, Handle: "NET-NONE", StartAddress: "10.0.0.0", EndAddress: "10.0.0.255"}
	for _, n := range []*models.Network{toAggregate, toPrefix, unmatched} {
		_, err := f.store.UpsertNetwork(f.ctx, n)
		require.NoError(t, err)
	}

	res := f.sync(t, f.engine(WithAutoLink(true)), ScopeNetworks)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "Linked network NET-AGG", res.Entries[0].Message)
	assert.Equal(t, "Linked network NET-PFX", res.Entries[1].Message)

	n, err := f.store.GetNetworkByHandle(f.ctx, "NET-AGG")
	require.NoError(t, err)
	assert.Equal(t, int64(30), *n.AggregateID)

	n, err = f.store.GetNetworkByHandle(f.ctx, "NET-PFX")
	require.NoError(t, err)
	assert.Equal(t, int64(31), *n.PrefixID)

	n, err = f.store.GetNetworkByHandle(f.ctx, "NET-NONE")
	require.NoError(t, err)
	assert.Nil(t, n.AggregateID)
	assert.Nil(t, n.PrefixID)
}

func TestSyncConnectFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	e := NewEngine(f.store, f.source, staticConnector{err: errors.New("unsupported registry")},
		WithClock(func() time.Time { return fixedNow }))

	res, err := e.Sync(f.ctx, Request{Config: f.cfg, Credential: f.cred})
	assert.Nil(t, res)

	var syncErr *Error
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, StepConnect, syncErr.Step)

	cfg, err := f.store.GetConfig(f.ctx, f.cfg.ID)
	require.NoError(t, err)
	assert.NotNil(t, cfg.LastSync)
}

func TestSyncUnknownConfigFailsFinalize(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cfg = &models.RegistryConfig{ID: 999, RIR: "ARIN", Name: "ghost"}

	res, err := f.engine().Sync(f.ctx, Request{Config: f.cfg, Credential: f.cred, Scopes: []Scope{ScopeNetworks}})
	assert.Nil(t, res)

	var syncErr *Error
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, StepFinalize, syncErr.Step)
}
