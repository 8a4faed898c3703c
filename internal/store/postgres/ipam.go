package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/netip"

	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/models"
)

// IPAM reads the ipam_* collaborator tables.
type IPAM struct {
	db *sql.DB
}

var _ ipam.Source = (*IPAM)(nil)

// NewIPAM creates an ipam.Source over an open database handle.
func NewIPAM(db *sql.DB) *IPAM {
	return &IPAM{db: db}
}

func ipamNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ipam.ErrNotFound
	}
	return err
}

func scanAggregate(row scanner) (*ipam.Aggregate, error) {
	var (
		a      ipam.Aggregate
		prefix string
	)
	if err := row.Scan(&a.ID, &a.RIR, &prefix); err != nil {
		return nil, err
	}
	p, err := netip.ParsePrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("invalid aggregate prefix %q: %w", prefix, err)
	}
	a.Prefix = p
	return &a, nil
}

func scanPrefix(row scanner) (*ipam.Prefix, error) {
	var (
		p        ipam.Prefix
		prefix   string
		siteID   sql.NullInt64
		tenantID sql.NullInt64
	)
	if err := row.Scan(&p.ID, &prefix, &p.Status, &siteID, &tenantID); err != nil {
		return nil, err
	}
	parsed, err := netip.ParsePrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("invalid prefix %q: %w", prefix, err)
	}
	p.Prefix = parsed
	p.SiteID = int64Ptr(siteID)
	p.TenantID = int64Ptr(tenantID)
	return &p, nil
}

const (
	aggregateSelect = `SELECT id, rir, prefix::text FROM ipam_aggregates`
	prefixSelect    = `SELECT id, prefix::text, status, site_id, tenant_id FROM ipam_prefixes`
)

func (i *IPAM) getAggregate(ctx context.Context, query string, args ...any) (*ipam.Aggregate, error) {
	a, err := scanAggregate(i.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, ipamNotFound(err)
	}
	return a, nil
}

func (i *IPAM) getPrefix(ctx context.Context, query string, args ...any) (*ipam.Prefix, error) {
	p, err := scanPrefix(i.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, ipamNotFound(err)
	}
	return p, nil
}

// ListAggregates implements ipam.Source
func (i *IPAM) ListAggregates(ctx context.Context, rir string) ([]ipam.Aggregate, error) {
	rows, err := i.db.QueryContext(ctx, aggregateSelect+` WHERE upper(rir) = upper($1) ORDER BY id`, rir)
	if err != nil {
		return nil, fmt.Errorf("failed to list aggregates: %w", err)
	}
	defer rows.Close()

	var out []ipam.Aggregate
	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetAggregate implements ipam.Source
func (i *IPAM) GetAggregate(ctx context.Context, id int64) (*ipam.Aggregate, error) {
	return i.getAggregate(ctx, aggregateSelect+` WHERE id = $1`, id)
}

// FindAggregateContaining implements ipam.Source
func (i *IPAM) FindAggregateContaining(ctx context.Context, p netip.Prefix) (*ipam.Aggregate, error) {
	return i.getAggregate(ctx,
		aggregateSelect+` WHERE prefix >>= $1::cidr ORDER BY masklen(prefix) DESC LIMIT 1`, p.Masked().String())
}

// FindAggregate implements ipam.Source
func (i *IPAM) FindAggregate(ctx context.Context, p netip.Prefix) (*ipam.Aggregate, error) {
	return i.getAggregate(ctx, aggregateSelect+` WHERE prefix = $1::cidr`, p.Masked().String())
}

// ListPrefixesWithin implements ipam.Source
func (i *IPAM) ListPrefixesWithin(ctx context.Context, p netip.Prefix) ([]ipam.Prefix, error) {
	rows, err := i.db.QueryContext(ctx, prefixSelect+` WHERE prefix << $1::cidr ORDER BY id`, p.Masked().String())
	if err != nil {
		return nil, fmt.Errorf("failed to list prefixes: %w", err)
	}
	defer rows.Close()

	var out []ipam.Prefix
	for rows.Next() {
		pfx, err := scanPrefix(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pfx)
	}
	return out, rows.Err()
}

// GetPrefix implements ipam.Source
func (i *IPAM) GetPrefix(ctx context.Context, id int64) (*ipam.Prefix, error) {
	return i.getPrefix(ctx, prefixSelect+` WHERE id = $1`, id)
}

// FindPrefix implements ipam.Source
func (i *IPAM) FindPrefix(ctx context.Context, p netip.Prefix) (*ipam.Prefix, error) {
	return i.getPrefix(ctx, prefixSelect+` WHERE prefix = $1::cidr ORDER BY id LIMIT 1`, p.Masked().String())
}

// GetTenant implements ipam.Source
func (i *IPAM) GetTenant(ctx context.Context, id int64) (*ipam.Tenant, error) {
	var t ipam.Tenant
	err := i.db.QueryRowContext(ctx, `SELECT id, name FROM ipam_tenants WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, ipamNotFound(err)
	}
	return &t, nil
}

// GetSite implements ipam.Source
func (i *IPAM) GetSite(ctx context.Context, id int64) (*ipam.Site, error) {
	var (
		s                                 ipam.Site
		lat, lon                          sql.NullFloat64
		street, city, state, postal, ctry sql.NullString
	)
	err := i.db.QueryRowContext(ctx, `
		SELECT id, name, physical_address, latitude, longitude,
			street_address, city, state_province, postal_code, country
		FROM ipam_sites WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.PhysicalAddress, &lat, &lon, &street, &city, &state, &postal, &ctry)
	if err != nil {
		return nil, ipamNotFound(err)
	}
	if lat.Valid {
		s.Latitude = &lat.Float64
	}
	if lon.Valid {
		s.Longitude = &lon.Float64
	}
	if street.Valid || city.Valid || ctry.Valid {
		s.Address = &models.Address{
			Street:        nullString(street),
			City:          nullString(city),
			StateProvince: nullString(state),
			PostalCode:    nullString(postal),
			Country:       nullString(ctry),
		}
	}
	return &s, nil
}
