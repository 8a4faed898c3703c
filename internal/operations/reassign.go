package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/store"
)

// Reassign reassigns part of a network to a customer (simple mode) or an
// organization (detailed mode).
func (o *Orchestrator) Reassign(
	ctx context.Context, networkID int64, actor Actor, req ReassignRequest,
) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	network, err := o.loadNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	s, err := o.open(ctx, network.ConfigID, actor)
	if err != nil {
		return nil, err
	}
	return o.reassign(ctx, s, network, req)
}

func (o *Orchestrator) reassign(
	ctx context.Context, s *session, parent *models.Network, req ReassignRequest,
) (*Outcome, error) {
	spec := registry.ReassignSpec{
		NetName:      req.netName(),
		StartAddress: req.StartAddress,
		EndAddress:   req.EndAddress,
	}

	var customer *models.Customer
	if req.Mode == ModeSimple {
		remote := s.client.CreateCustomer(ctx, parent.Handle, registry.CustomerSpec{
			Name:          req.CustomerName,
			Street:        req.Street,
			City:          req.City,
			StateProvince: req.StateProvince,
			PostalCode:    req.PostalCode,
			Country:       req.Country,
		})
		if remote == nil {
			return o.fail(ctx, s, models.OperationCreate, models.ObjectCustomer, parent.Handle,
				fmt.Sprintf("Failed to create customer for %s", req.CustomerName), ErrCustomerFailed)
		}

		customer = remote.ToModel(s.cfg.ID)
		customer.NetworkID = &parent.ID
		customer.TenantID = req.TenantID
		if _, err := o.store.UpsertCustomer(ctx, customer); err != nil {
			return nil, fmt.Errorf("failed to store customer %s: %w", customer.Handle, err)
		}
		spec.CustomerHandle = customer.Handle
	} else {
		spec.OrgHandle = req.OrgHandle
	}

	result := s.client.ReassignNetwork(ctx, parent.Handle, spec)
	if result == nil {
		out, err := o.fail(ctx, s, models.OperationReassign, models.ObjectNetwork, parent.Handle,
			fmt.Sprintf("Reassignment failed for prefix %s-%s", req.StartAddress, req.EndAddress), ErrRegistryRejected)
		if out != nil {
			out.Customer = customer
		}
		return out, err
	}

	ticket, err := o.recordTicket(ctx, s, &parent.ID, result, req.defaultTicketType())
	if err != nil {
		return nil, err
	}

	var child *models.Network
	if result.Network != nil && result.Network.Handle != "" {
		if child, err = o.mirrorNetwork(ctx, s, result.Network, req.PrefixID); err != nil {
			return nil, err
		}
	}

	return o.succeed(ctx, s, models.OperationReassign, models.ObjectNetwork, parent.Handle, &Outcome{
		Status:   OutcomeSuccess,
		Message:  fmt.Sprintf("Reassignment submitted for %s-%s, ticket %s", req.StartAddress, req.EndAddress, result.Number),
		Ticket:   ticket,
		Customer: customer,
		Network:  child,
	})
}

// Reallocate reallocates part of a network to an organization.
func (o *Orchestrator) Reallocate(
	ctx context.Context, networkID int64, actor Actor, req ReallocateRequest,
) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	network, err := o.loadNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	s, err := o.open(ctx, network.ConfigID, actor)
	if err != nil {
		return nil, err
	}

	netName := req.NetName
	if netName == "" {
		netName = DefaultNetName(req.OrgHandle, req.StartAddress)
	}
	result := s.client.ReallocateNetwork(ctx, network.Handle, registry.ReassignSpec{
		NetName:      netName,
		StartAddress: req.StartAddress,
		EndAddress:   req.EndAddress,
		OrgHandle:    req.OrgHandle,
	})
	if result == nil {
		return o.fail(ctx, s, models.OperationReallocate, models.ObjectNetwork, network.Handle,
			fmt.Sprintf("Reallocation failed for prefix %s-%s", req.StartAddress, req.EndAddress), ErrRegistryRejected)
	}

	ticket, err := o.recordTicket(ctx, s, &network.ID, result, req.defaultTicketType())
	if err != nil {
		return nil, err
	}

	var child *models.Network
	if result.Network != nil && result.Network.Handle != "" {
		if child, err = o.mirrorNetwork(ctx, s, result.Network, req.PrefixID); err != nil {
			return nil, err
		}
	}

	return o.succeed(ctx, s, models.OperationReallocate, models.ObjectNetwork, network.Handle, &Outcome{
		Status:  OutcomeSuccess,
		Message: fmt.Sprintf("Reallocation submitted for %s-%s, ticket %s", req.StartAddress, req.EndAddress, result.Number),
		Ticket:  ticket,
		Network: child,
	})
}

// AutoReassign reassigns a newly activated prefix out of the auto-reassign
// network of its aggregate. If the registry already has a separate network
// for the prefix range, that network is mirrored and no write is made.
func (o *Orchestrator) AutoReassign(ctx context.Context, prefixID, credentialID int64) (*Outcome, error) {
	prefix, err := o.source.GetPrefix(ctx, prefixID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prefix %d: %w", prefixID, err)
	}

	parent, err := o.parentNetwork(ctx, prefix)
	if err != nil {
		return nil, err
	}

	s, err := o.open(ctx, parent.ConfigID, Actor{CredentialID: credentialID})
	if err != nil {
		return nil, err
	}

	// Pre-flight: an existing separate allocation means there is nothing to do
	first, last := ipam.Range(prefix.Prefix)
	existing := s.client.FindNetworkByRange(ctx, first.String(), last.String())
	if existing != nil && existing.Handle != parent.Handle {
		n, err := o.mirrorNetwork(ctx, s, existing, &prefix.ID)
		if err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("Range %s is already allocated as %s, skipped reassignment from %s",
			prefix.Prefix, existing.Handle, parent.Handle)
		return o.succeed(ctx, s, models.OperationReassign, models.ObjectNetwork, existing.Handle, &Outcome{
			Status:  OutcomeSkipped,
			Message: msg,
			Network: n,
		})
	}

	req, err := o.autoRequest(ctx, prefix)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Submitting automatic reassignment",
		"prefix", prefix.Prefix.String(), "parent", parent.Handle, "mode", req.Mode)
	return o.reassign(ctx, s, parent, *req)
}

func (o *Orchestrator) parentNetwork(ctx context.Context, prefix *ipam.Prefix) (*models.Network, error) {
	agg, err := o.source.FindAggregateContaining(ctx, prefix.Prefix)
	if errors.Is(err, ipam.ErrNotFound) {
		return nil, fmt.Errorf("%w: no aggregate contains %s", ErrNoParentNetwork, prefix.Prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find aggregate of %s: %w", prefix.Prefix, err)
	}

	parent, err := o.store.FindAutoReassignNetwork(ctx, agg.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: aggregate %s", ErrNoParentNetwork, agg.Prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find parent network of %s: %w", agg.Prefix, err)
	}
	return parent, nil
}

// autoRequest derives the reassignment for a prefix from its tenant: detailed
// when the tenant has a mirrored organization, simple with the site address
// otherwise.
func (o *Orchestrator) autoRequest(ctx context.Context, prefix *ipam.Prefix) (*ReassignRequest, error) {
	if prefix.TenantID == nil {
		return nil, invalid("tenant_id", "prefix has no tenant")
	}
	tenant, err := o.source.GetTenant(ctx, *prefix.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant %d: %w", *prefix.TenantID, err)
	}

	first, last := ipam.Range(prefix.Prefix)
	req := &ReassignRequest{
		NetName:      DefaultNetName(tenant.Name, first.String()),
		StartAddress: first.String(),
		EndAddress:   last.String(),
		TenantID:     &tenant.ID,
		PrefixID:     &prefix.ID,
	}

	org, err := o.store.FindOrganizationByTenant(ctx, tenant.ID)
	switch {
	case err == nil:
		req.Mode = ModeDetailed
		req.OrgHandle = org.Handle
		return req, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to find organization of tenant %d: %w", tenant.ID, err)
	}

	if prefix.SiteID == nil {
		return nil, invalid("site_id", "prefix has no site")
	}
	site, err := o.source.GetSite(ctx, *prefix.SiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load site %d: %w", *prefix.SiteID, err)
	}

	var addr *models.Address
	if o.resolver != nil {
		if addr, err = o.resolver.Resolve(ctx, *site); err != nil {
			return nil, fmt.Errorf("failed to resolve address of site %s: %w", site.Name, err)
		}
	}
	if addr == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAddress, site.Name)
	}

	req.Mode = ModeSimple
	req.CustomerName = tenant.Name
	req.Address = *addr
	return req, nil
}
