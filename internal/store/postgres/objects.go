package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ipam-rir/rir-manager/internal/models"
)

const organizationColumns = `id, config_id, handle, name, street_address, city, state_province,
	postal_code, country, tenant_id, raw_data, last_synced, synced_by`

func scanOrganization(row scanner) (*models.Organization, error) {
	var (
		o          models.Organization
		tenantID   sql.NullInt64
		raw        []byte
		lastSynced sql.NullTime
		syncedBy   sql.NullInt64
	)
	err := row.Scan(&o.ID, &o.ConfigID, &o.Handle, &o.Name, &o.Street, &o.City, &o.StateProvince,
		&o.PostalCode, &o.Country, &tenantID, &raw, &lastSynced, &syncedBy)
	if err != nil {
		return nil, err
	}
	if o.RawData, err = decodeRaw(raw); err != nil {
		return nil, err
	}
	o.TenantID = int64Ptr(tenantID)
	o.LastSynced = timePtr(lastSynced)
	o.SyncedBy = int64Ptr(syncedBy)
	return &o, nil
}

// UpsertOrganization implements store.Store
func (s *Store) UpsertOrganization(ctx context.Context, org *models.Organization) (bool, error) {
	raw, err := encodeRaw(org.RawData)
	if err != nil {
		return false, err
	}

	var (
		tenantID sql.NullInt64
		created  bool
	)
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO organizations (config_id, handle, name, street_address, city, state_province,
			postal_code, country, tenant_id, raw_data, last_synced, synced_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12)
		ON CONFLICT (handle) DO UPDATE SET
			config_id = EXCLUDED.config_id,
			name = EXCLUDED.name,
			street_address = EXCLUDED.street_address,
			city = EXCLUDED.city,
			state_province = EXCLUDED.state_province,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			tenant_id = COALESCE(EXCLUDED.tenant_id, organizations.tenant_id),
			raw_data = EXCLUDED.raw_data,
			last_synced = EXCLUDED.last_synced,
			synced_by = EXCLUDED.synced_by
		RETURNING id, tenant_id, (xmax = 0)`,
		org.ConfigID, org.Handle, org.Name, org.Street, org.City, org.StateProvince,
		org.PostalCode, org.Country, nullInt64(org.TenantID), raw, nullTime(org.LastSynced), nullInt64(org.SyncedBy),
	).Scan(&org.ID, &tenantID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert organization %s: %w", org.Handle, err)
	}
	org.TenantID = int64Ptr(tenantID)
	return created, nil
}

// GetOrganizationByHandle implements store.Store
func (s *Store) GetOrganizationByHandle(ctx context.Context, handle string) (*models.Organization, error) {
	o, err := scanOrganization(s.db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE handle = $1`, handle))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// FindOrganizationByTenant implements store.Store
func (s *Store) FindOrganizationByTenant(ctx context.Context, tenantID int64) (*models.Organization, error) {
	o, err := scanOrganization(s.db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE tenant_id = $1 ORDER BY id LIMIT 1`, tenantID))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// ListOrganizations implements store.Store
func (s *Store) ListOrganizations(ctx context.Context, configID int64) ([]models.Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE config_id = $1 ORDER BY id`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var out []models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

const contactColumns = `id, config_id, handle, contact_type, first_name, last_name, company_name, email,
	phone, street_address, city, state_province, postal_code, country, organization_id,
	local_contact_id, raw_data, last_synced, synced_by`

func scanContact(row scanner) (*models.Contact, error) {
	var (
		c              models.Contact
		orgID, localID sql.NullInt64
		raw            []byte
		lastSynced     sql.NullTime
		syncedBy       sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.ConfigID, &c.Handle, &c.Type, &c.FirstName, &c.LastName, &c.CompanyName,
		&c.Email, &c.Phone, &c.Street, &c.City, &c.StateProvince, &c.PostalCode, &c.Country,
		&orgID, &localID, &raw, &lastSynced, &syncedBy)
	if err != nil {
		return nil, err
	}
	if c.RawData, err = decodeRaw(raw); err != nil {
		return nil, err
	}
	c.OrganizationID = int64Ptr(orgID)
	c.LocalContactID = int64Ptr(localID)
	c.LastSynced = timePtr(lastSynced)
	c.SyncedBy = int64Ptr(syncedBy)
	return &c, nil
}

// UpsertContact implements store.Store
func (s *Store) UpsertContact(ctx context.Context, c *models.Contact) (bool, error) {
	raw, err := encodeRaw(c.RawData)
	if err != nil {
		return false, err
	}

	var (
		localID sql.NullInt64
		created bool
	)
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO contacts (config_id, handle, contact_type, first_name, last_name, company_name, email,
			phone, street_address, city, state_province, postal_code, country, organization_id,
			local_contact_id, raw_data, last_synced, synced_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::jsonb, $17, $18)
		ON CONFLICT (handle) DO UPDATE SET
			config_id = EXCLUDED.config_id,
			contact_type = EXCLUDED.contact_type,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			company_name = EXCLUDED.company_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			street_address = EXCLUDED.street_address,
			city = EXCLUDED.city,
			state_province = EXCLUDED.state_province,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			organization_id = EXCLUDED.organization_id,
			local_contact_id = COALESCE(EXCLUDED.local_contact_id, contacts.local_contact_id),
			raw_data = EXCLUDED.raw_data,
			last_synced = EXCLUDED.last_synced,
			synced_by = EXCLUDED.synced_by
		RETURNING id, local_contact_id, (xmax = 0)`,
		c.ConfigID, c.Handle, string(c.Type), c.FirstName, c.LastName, c.CompanyName, c.Email,
		c.Phone, c.Street, c.City, c.StateProvince, c.PostalCode, c.Country, nullInt64(c.OrganizationID),
		nullInt64(c.LocalContactID), raw, nullTime(c.LastSynced), nullInt64(c.SyncedBy),
	).Scan(&c.ID, &localID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert contact %s: %w", c.Handle, err)
	}
	c.LocalContactID = int64Ptr(localID)
	return created, nil
}

// ListContacts implements store.Store
func (s *Store) ListContacts(ctx context.Context, configID int64) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE config_id = $1 ORDER BY id`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

const networkColumns = `id, config_id, handle, net_name, net_type, start_address, end_address,
	organization_id, aggregate_id, prefix_id, auto_reassign, raw_data, last_synced, synced_by`

func scanNetwork(row scanner) (*models.Network, error) {
	var (
		n                      models.Network
		orgID, aggID, prefixID sql.NullInt64
		raw                    []byte
		lastSynced             sql.NullTime
		syncedBy               sql.NullInt64
	)
	err := row.Scan(&n.ID, &n.ConfigID, &n.Handle, &n.Name, &n.NetType, &n.StartAddress, &n.EndAddress,
		&orgID, &aggID, &prefixID, &n.AutoReassign, &raw, &lastSynced, &syncedBy)
	if err != nil {
		return nil, err
	}
	if n.RawData, err = decodeRaw(raw); err != nil {
		return nil, err
	}
	n.OrganizationID = int64Ptr(orgID)
	n.AggregateID = int64Ptr(aggID)
	n.PrefixID = int64Ptr(prefixID)
	n.LastSynced = timePtr(lastSynced)
	n.SyncedBy = int64Ptr(syncedBy)
	return &n, nil
}

// UpsertNetwork implements store.Store
func (s *Store) UpsertNetwork(ctx context.Context, n *models.Network) (bool, error) {
	raw, err := encodeRaw(n.RawData)
	if err != nil {
		return false, err
	}

	var (
		aggID, prefixID sql.NullInt64
		created         bool
	)
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO networks (config_id, handle, net_name, net_type, start_address, end_address,
			organization_id, aggregate_id, prefix_id, auto_reassign, raw_data, last_synced, synced_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13)
		ON CONFLICT (handle) DO UPDATE SET
			config_id = EXCLUDED.config_id,
			net_name = EXCLUDED.net_name,
			net_type = EXCLUDED.net_type,
			start_address = EXCLUDED.start_address,
			end_address = EXCLUDED.end_address,
			organization_id = EXCLUDED.organization_id,
			aggregate_id = COALESCE(EXCLUDED.aggregate_id, networks.aggregate_id),
			prefix_id = COALESCE(EXCLUDED.prefix_id, networks.prefix_id),
			auto_reassign = networks.auto_reassign OR EXCLUDED.auto_reassign,
			raw_data = EXCLUDED.raw_data,
			last_synced = EXCLUDED.last_synced,
			synced_by = EXCLUDED.synced_by
		RETURNING id, aggregate_id, prefix_id, auto_reassign, (xmax = 0)`,
		n.ConfigID, n.Handle, n.Name, n.NetType, n.StartAddress, n.EndAddress,
		nullInt64(n.OrganizationID), nullInt64(n.AggregateID), nullInt64(n.PrefixID), n.AutoReassign,
		raw, nullTime(n.LastSynced), nullInt64(n.SyncedBy),
	).Scan(&n.ID, &aggID, &prefixID, &n.AutoReassign, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert network %s: %w", n.Handle, err)
	}
	n.AggregateID = int64Ptr(aggID)
	n.PrefixID = int64Ptr(prefixID)
	return created, nil
}

func (s *Store) getNetwork(ctx context.Context, where string, args ...any) (*models.Network, error) {
	n, err := scanNetwork(s.db.QueryRowContext(ctx,
		`SELECT `+networkColumns+` FROM networks WHERE `+where+` ORDER BY id LIMIT 1`, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

// GetNetwork implements store.Store
func (s *Store) GetNetwork(ctx context.Context, id int64) (*models.Network, error) {
	return s.getNetwork(ctx, `id = $1`, id)
}

// GetNetworkByHandle implements store.Store
func (s *Store) GetNetworkByHandle(ctx context.Context, handle string) (*models.Network, error) {
	return s.getNetwork(ctx, `handle = $1`, handle)
}

// FindNetworkByPrefix implements store.Store
func (s *Store) FindNetworkByPrefix(ctx context.Context, prefixID int64) (*models.Network, error) {
	return s.getNetwork(ctx, `prefix_id = $1`, prefixID)
}

// FindNetworkByAggregate implements store.Store
func (s *Store) FindNetworkByAggregate(ctx context.Context, aggregateID int64) (*models.Network, error) {
	return s.getNetwork(ctx, `aggregate_id = $1`, aggregateID)
}

// FindAutoReassignNetwork implements store.Store
func (s *Store) FindAutoReassignNetwork(ctx context.Context, aggregateID int64) (*models.Network, error) {
	return s.getNetwork(ctx, `aggregate_id = $1 AND auto_reassign`, aggregateID)
}

// ListNetworks implements store.Store
func (s *Store) ListNetworks(ctx context.Context, configID int64) ([]models.Network, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+networkColumns+` FROM networks WHERE config_id = $1 ORDER BY id`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	defer rows.Close()

	var out []models.Network
	for rows.Next() {
		n, err := scanNetwork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// SetAutoReassign implements store.Store
func (s *Store) SetAutoReassign(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE networks SET auto_reassign = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to set auto reassign: %w", err)
	}
	return expectAffected(res)
}

// DeleteNetwork implements store.Store. Customer and ticket links are
// cleared by the foreign keys.
func (s *Store) DeleteNetwork(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM networks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete network: %w", err)
	}
	return expectAffected(res)
}

const customerColumns = `id, config_id, handle, customer_name, street_address, city, state_province,
	postal_code, country, network_id, tenant_id, raw_data, created_at`

func scanCustomer(row scanner) (*models.Customer, error) {
	var (
		c                   models.Customer
		networkID, tenantID sql.NullInt64
		raw                 []byte
	)
	err := row.Scan(&c.ID, &c.ConfigID, &c.Handle, &c.CustomerName, &c.Street, &c.City, &c.StateProvince,
		&c.PostalCode, &c.Country, &networkID, &tenantID, &raw, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if c.RawData, err = decodeRaw(raw); err != nil {
		return nil, err
	}
	c.NetworkID = int64Ptr(networkID)
	c.TenantID = int64Ptr(tenantID)
	return &c, nil
}

// UpsertCustomer implements store.Store
func (s *Store) UpsertCustomer(ctx context.Context, c *models.Customer) (bool, error) {
	raw, err := encodeRaw(c.RawData)
	if err != nil {
		return false, err
	}

	var (
		networkID, tenantID sql.NullInt64
		created             bool
	)
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO customers (config_id, handle, customer_name, street_address, city, state_province,
			postal_code, country, network_id, tenant_id, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)
		ON CONFLICT (handle) DO UPDATE SET
			config_id = EXCLUDED.config_id,
			customer_name = EXCLUDED.customer_name,
			street_address = EXCLUDED.street_address,
			city = EXCLUDED.city,
			state_province = EXCLUDED.state_province,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			network_id = COALESCE(EXCLUDED.network_id, customers.network_id),
			tenant_id = COALESCE(EXCLUDED.tenant_id, customers.tenant_id),
			raw_data = EXCLUDED.raw_data
		RETURNING id, network_id, tenant_id, created_at, (xmax = 0)`,
		c.ConfigID, c.Handle, c.CustomerName, c.Street, c.City, c.StateProvince,
		c.PostalCode, c.Country, nullInt64(c.NetworkID), nullInt64(c.TenantID), raw,
	).Scan(&c.ID, &networkID, &tenantID, &c.CreatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert customer %s: %w", c.Handle, err)
	}
	c.NetworkID = int64Ptr(networkID)
	c.TenantID = int64Ptr(tenantID)
	return created, nil
}

// ListCustomers implements store.Store
func (s *Store) ListCustomers(ctx context.Context, configID int64) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE config_id = $1 ORDER BY id`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
