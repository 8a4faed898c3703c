// Package ipam describes the local address-management records the registry
// mirror is reconciled against. Aggregates, prefixes, tenants and sites are
// owned by the host IPAM and are only ever read here.
package ipam

import (
	"context"
	"errors"
	"net/netip"

	"github.com/ipam-rir/rir-manager/internal/models"
)

// ErrNotFound is returned when a requested IPAM record does not exist.
var ErrNotFound = errors.New("ipam record not found")

// PrefixStatus is the lifecycle state of a local prefix.
type PrefixStatus string

// Prefix statuses
const (
	PrefixActive     PrefixStatus = "active"
	PrefixReserved   PrefixStatus = "reserved"
	PrefixDeprecated PrefixStatus = "deprecated"
	PrefixContainer  PrefixStatus = "container"
)

// Aggregate is a top-level block allocated by an RIR.
type Aggregate struct {
	ID     int64        `json:"id"`
	RIR    string       `json:"rir"`
	Prefix netip.Prefix `json:"prefix"`
}

// Prefix is a sub-block of an aggregate.
type Prefix struct {
	ID       int64        `json:"id"`
	Prefix   netip.Prefix `json:"prefix"`
	Status   PrefixStatus `json:"status"`
	SiteID   *int64       `json:"site_id,omitempty"`
	TenantID *int64       `json:"tenant_id,omitempty"`
}

// IsActive reports whether the prefix is in the active state.
func (p *Prefix) IsActive() bool {
	return p.Status == PrefixActive
}

// Tenant is a local customer or organization.
type Tenant struct {
	ID   int64
	Name string
}

// Site is a physical location, optionally carrying a stored postal address
// and coordinates.
type Site struct {
	ID              int64
	Name            string
	PhysicalAddress string
	Latitude        *float64
	Longitude       *float64
	Address         *models.Address
}

// Source provides read access to the host IPAM.
type Source interface {
	// ListAggregates returns every aggregate belonging to the given RIR.
	ListAggregates(ctx context.Context, rir string) ([]Aggregate, error)
	GetAggregate(ctx context.Context, id int64) (*Aggregate, error)
	// FindAggregateContaining returns the aggregate that contains p, or ErrNotFound.
	FindAggregateContaining(ctx context.Context, p netip.Prefix) (*Aggregate, error)
	// FindAggregate returns the aggregate exactly equal to p, or ErrNotFound.
	FindAggregate(ctx context.Context, p netip.Prefix) (*Aggregate, error)
	// ListPrefixesWithin returns prefixes strictly contained in p.
	ListPrefixesWithin(ctx context.Context, p netip.Prefix) ([]Prefix, error)
	GetPrefix(ctx context.Context, id int64) (*Prefix, error)
	// FindPrefix returns the prefix exactly equal to p, or ErrNotFound.
	FindPrefix(ctx context.Context, p netip.Prefix) (*Prefix, error)
	GetTenant(ctx context.Context, id int64) (*Tenant, error)
	GetSite(ctx context.Context, id int64) (*Site, error)
}

// Range returns the first and last addresses of p.
func Range(p netip.Prefix) (first, last netip.Addr) {
	p = p.Masked()
	first = p.Addr()
	b := first.AsSlice()
	hostBits := first.BitLen() - p.Bits()
	for i := len(b) - 1; i >= 0 && hostBits > 0; i-- {
		if hostBits >= 8 {
			b[i] = 0xff
			hostBits -= 8
			continue
		}
		b[i] |= byte(1<<hostBits) - 1
		hostBits = 0
	}
	last, _ = netip.AddrFromSlice(b)
	if first.Is4() {
		last = last.Unmap()
	}
	return first, last
}

// Contains reports whether outer strictly contains inner.
func Contains(outer, inner netip.Prefix) bool {
	return outer.Bits() < inner.Bits() && outer.Contains(inner.Addr())
}

// PrefixFromRange returns the prefix spanning exactly first..last, if the
// range is CIDR aligned.
func PrefixFromRange(first, last netip.Addr) (netip.Prefix, bool) {
	if !first.IsValid() || !last.IsValid() || first.BitLen() != last.BitLen() {
		return netip.Prefix{}, false
	}
	for bits := first.BitLen(); bits >= 0; bits-- {
		p := netip.PrefixFrom(first, bits).Masked()
		if p.Addr() != first {
			break
		}
		if _, end := Range(p); end == last {
			return p, true
		}
	}
	return netip.Prefix{}, false
}
