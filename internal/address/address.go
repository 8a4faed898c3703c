// Package address turns IPAM sites into postal addresses suitable for
// registry customer records.
package address

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/models"
)

// Resolver finds the postal address of a site. A nil address with a nil
// error means the site cannot be resolved.
type Resolver interface {
	Resolve(ctx context.Context, site ipam.Site) (*models.Address, error)
}

// Geocoder converts coordinates or free-form text to a structured address.
// Implementations return nil when nothing matches.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*models.Address, error)
	Search(ctx context.Context, query string) (*models.Address, error)
}

// Complete reports whether a has the fields a simple reassignment needs.
func Complete(a *models.Address) bool {
	return a != nil && a.City != "" && a.Country != ""
}

// SiteResolver prefers the site's stored address and falls back to the
// geocoder. Geocoded results are cached per site.
type SiteResolver struct {
	geocoder Geocoder

	mu    sync.Mutex
	cache map[int64]models.Address
}

var _ Resolver = (*SiteResolver)(nil)

// NewSiteResolver creates a resolver. geocoder may be nil, in which case
// only stored site addresses resolve.
func NewSiteResolver(geocoder Geocoder) *SiteResolver {
	return &SiteResolver{geocoder: geocoder, cache: make(map[int64]models.Address)}
}

// Resolve implements Resolver
func (r *SiteResolver) Resolve(ctx context.Context, site ipam.Site) (*models.Address, error) {
	if Complete(site.Address) {
		addr := *site.Address
		return &addr, nil
	}

	r.mu.Lock()
	cached, ok := r.cache[site.ID]
	r.mu.Unlock()
	if ok {
		return &cached, nil
	}

	if r.geocoder == nil {
		return nil, nil
	}

	var (
		addr *models.Address
		err  error
	)
	if site.Latitude != nil && site.Longitude != nil {
		addr, err = r.geocoder.Reverse(ctx, *site.Latitude, *site.Longitude)
		if err != nil {
			slog.WarnContext(ctx, "Reverse geocode failed", "site", site.Name, "error", err)
			addr = nil
		}
	}
	if addr == nil && site.PhysicalAddress != "" {
		addr, err = r.geocoder.Search(ctx, site.PhysicalAddress)
		if err != nil {
			slog.WarnContext(ctx, "Forward geocode failed", "site", site.Name, "error", err)
			addr = nil
		}
	}
	if !Complete(addr) {
		slog.WarnContext(ctx, "Could not resolve address for site", "site", site.Name, "site_id", site.ID)
		return nil, nil
	}

	r.mu.Lock()
	r.cache[site.ID] = *addr
	r.mu.Unlock()
	slog.InfoContext(ctx, "Resolved address for site", "site", site.Name, "city", addr.City, "country", addr.Country)
	return addr, nil
}
