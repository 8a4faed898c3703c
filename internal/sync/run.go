package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ipam-rir/rir-manager/internal/audit"
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/store"
)

// run holds the state of one sync invocation.
type run struct {
	*engine
	cfg    *models.RegistryConfig
	cred   *models.UserCredential
	client registry.Client
	trail  *audit.Trail

	// org handle -> local organization id, nil when not mirrored
	orgs map[string]*int64
}

func createdOrUpdated(created bool) string {
	if created {
		return "Created"
	}
	return "Updated"
}

func (r *run) success(ctx context.Context, obj models.ObjectType, handle, msg string) error {
	_, err := r.trail.Success(ctx, models.OperationSync, obj, handle, msg)
	return err
}

func (r *run) failure(ctx context.Context, obj models.ObjectType, handle, msg string) error {
	_, err := r.trail.Failure(ctx, models.OperationSync, obj, handle, msg)
	return err
}

// syncOrganization fetches and upserts the config's root organization. It
// returns nil when the registry has no such organization.
func (r *run) syncOrganization(ctx context.Context) (*models.Organization, []string, error) {
	handle := r.cfg.OrgHandle
	remote := r.client.GetOrganization(ctx, handle)
	if remote == nil {
		msg := fmt.Sprintf("Failed to retrieve organization %s", handle)
		return nil, nil, storeError(StepOrganizations, r.failure(ctx, models.ObjectOrganization, handle, msg))
	}

	org := remote.ToModel(r.cfg.ID)
	r.markSynced(&org.LastSynced, &org.SyncedBy)
	created, err := r.store.UpsertOrganization(ctx, org)
	if err != nil {
		return nil, nil, storeError(StepOrganizations, fmt.Errorf("failed to upsert organization %s: %w", handle, err))
	}
	r.orgs[org.Handle] = &org.ID

	msg := fmt.Sprintf("%s organization %s", createdOrUpdated(created), org.Handle)
	if err := r.success(ctx, models.ObjectOrganization, org.Handle, msg); err != nil {
		return nil, nil, storeError(StepOrganizations, err)
	}
	return org, remote.ContactHandles(), nil
}

// localOrganization loads the mirrored root organization for a contacts-only
// run. The contact handles come from its stored payload.
func (r *run) localOrganization(ctx context.Context) (*models.Organization, []string, error) {
	org, err := r.store.GetOrganizationByHandle(ctx, r.cfg.OrgHandle)
	if errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "Root organization not mirrored yet, skipping contacts",
			"config_id", r.cfg.ID, "org_handle", r.cfg.OrgHandle)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, storeError(StepContacts, fmt.Errorf("failed to load organization %s: %w", r.cfg.OrgHandle, err))
	}
	r.orgs[org.Handle] = &org.ID
	return org, registry.RawContactHandles(org.RawData), nil
}

func (r *run) syncContacts(ctx context.Context, org *models.Organization, handles []string) error {
	for _, handle := range handles {
		remote := r.client.GetContact(ctx, handle)
		if remote == nil {
			if err := r.failure(ctx, models.ObjectContact, handle, fmt.Sprintf("Failed to retrieve POC %s", handle)); err != nil {
				return storeError(StepContacts, err)
			}
			continue
		}

		contact := remote.ToModel(r.cfg.ID)
		contact.OrganizationID = &org.ID
		r.markSynced(&contact.LastSynced, &contact.SyncedBy)
		created, err := r.store.UpsertContact(ctx, contact)
		if err != nil {
			return storeError(StepContacts, fmt.Errorf("failed to upsert contact %s: %w", handle, err))
		}

		msg := fmt.Sprintf("%s contact %s", createdOrUpdated(created), contact.Handle)
		if err := r.success(ctx, models.ObjectContact, contact.Handle, msg); err != nil {
			return storeError(StepContacts, err)
		}
	}
	return nil
}

// syncAggregates mirrors the registry network of every local aggregate and
// returns the ids of the aggregates that matched one.
func (r *run) syncAggregates(ctx context.Context) ([]int64, error) {
	aggregates, err := r.source.ListAggregates(ctx, r.cfg.RIR)
	if err != nil {
		return nil, storeError(StepNetworks, fmt.Errorf("failed to list aggregates: %w", err))
	}

	var ids []int64
	for _, agg := range aggregates {
		first, last := ipam.Range(agg.Prefix)
		remote := r.client.FindNetworkByRange(ctx, first.String(), last.String())
		if remote == nil {
			slog.DebugContext(ctx, "No registry network for aggregate", "aggregate", agg.Prefix.String())
			continue
		}

		network := remote.ToModel(r.cfg.ID)
		network.AggregateID = &agg.ID
		if err := r.upsertNetwork(ctx, network, remote, StepNetworks); err != nil {
			return nil, err
		}
		ids = append(ids, agg.ID)
	}
	return ids, nil
}

func (r *run) syncChildPrefixes(ctx context.Context, aggregateIDs []int64) error {
	for _, id := range aggregateIDs {
		agg, err := r.source.GetAggregate(ctx, id)
		if errors.Is(err, ipam.ErrNotFound) {
			slog.WarnContext(ctx, "Aggregate disappeared before child discovery", "aggregate_id", id)
			continue
		}
		if err != nil {
			return storeError(StepChildPrefixes, fmt.Errorf("failed to load aggregate %d: %w", id, err))
		}

		parent, err := r.aggregateHandle(ctx, agg)
		if err != nil {
			return err
		}

		prefixes, err := r.source.ListPrefixesWithin(ctx, agg.Prefix)
		if err != nil {
			return storeError(StepChildPrefixes, fmt.Errorf("failed to list prefixes of %s: %w", agg.Prefix, err))
		}

		for _, p := range prefixes {
			first, last := ipam.Range(p.Prefix)
			remote := r.client.FindNetworkByRange(ctx, first.String(), last.String())
			if remote == nil || remote.Handle == parent {
				continue
			}

			network := remote.ToModel(r.cfg.ID)
			network.PrefixID = &p.ID
			if err := r.upsertNetwork(ctx, network, remote, StepChildPrefixes); err != nil {
				return err
			}
		}
	}
	return nil
}

// aggregateHandle returns the registry handle of the network covering agg,
// preferring the mirrored network.
func (r *run) aggregateHandle(ctx context.Context, agg *ipam.Aggregate) (string, error) {
	n, err := r.store.FindNetworkByAggregate(ctx, agg.ID)
	if err == nil {
		return n.Handle, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", storeError(StepChildPrefixes, fmt.Errorf("failed to load network of aggregate %d: %w", agg.ID, err))
	}

	first, last := ipam.Range(agg.Prefix)
	if remote := r.client.FindNetworkByRange(ctx, first.String(), last.String()); remote != nil {
		return remote.Handle, nil
	}
	return "", nil
}

// upsertNetwork stores network, records its entry and mirrors the customer
// it references.
func (r *run) upsertNetwork(ctx context.Context, network *models.Network, remote *registry.Network, step string) error {
	orgID, err := r.resolveOrganization(ctx, remote.OrgHandle)
	if err != nil {
		return storeError(step, err)
	}
	network.OrganizationID = orgID
	r.markSynced(&network.LastSynced, &network.SyncedBy)

	created, err := r.store.UpsertNetwork(ctx, network)
	if err != nil {
		return storeError(step, fmt.Errorf("failed to upsert network %s: %w", network.Handle, err))
	}
	msg := fmt.Sprintf("%s network %s", createdOrUpdated(created), network.Handle)
	if err := r.success(ctx, models.ObjectNetwork, network.Handle, msg); err != nil {
		return storeError(step, err)
	}

	if remote.CustomerHandle != "" {
		if err := r.syncCustomer(ctx, remote.CustomerHandle, network.ID); err != nil {
			return storeError(step, err)
		}
	}
	return nil
}

func (r *run) syncCustomer(ctx context.Context, handle string, networkID int64) error {
	remote := r.client.GetCustomer(ctx, handle)
	if remote == nil {
		return r.failure(ctx, models.ObjectCustomer, handle, fmt.Sprintf("Failed to retrieve customer %s", handle))
	}

	customer := remote.ToModel(r.cfg.ID)
	customer.NetworkID = &networkID
	created, err := r.store.UpsertCustomer(ctx, customer)
	if err != nil {
		return fmt.Errorf("failed to upsert customer %s: %w", handle, err)
	}
	return r.success(ctx, models.ObjectCustomer, customer.Handle,
		fmt.Sprintf("%s customer %s", createdOrUpdated(created), customer.Handle))
}

// resolveOrganization maps an org handle to the local organization id. Misses
// are cached as nil.
func (r *run) resolveOrganization(ctx context.Context, handle string) (*int64, error) {
	if handle == "" {
		return nil, nil
	}
	if id, ok := r.orgs[handle]; ok {
		return id, nil
	}

	org, err := r.store.GetOrganizationByHandle(ctx, handle)
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.orgs[handle] = nil
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to resolve organization %s: %w", handle, err)
	}
	r.orgs[handle] = &org.ID
	return &org.ID, nil
}

// linkUnlinked links mirrored networks of the config that have neither an
// aggregate nor a prefix to an exactly matching local block.
func (r *run) linkUnlinked(ctx context.Context) error {
	networks, err := r.store.ListNetworks(ctx, r.cfg.ID)
	if err != nil {
		return storeError(StepLinking, fmt.Errorf("failed to list networks: %w", err))
	}

	for i := range networks {
		n := &networks[i]
		if n.AggregateID != nil || n.PrefixID != nil {
			continue
		}
		linked, err := r.linker.Link(ctx, n, nil)
		if err != nil {
			return storeError(StepLinking, err)
		}
		if !linked {
			continue
		}
		if _, err := r.store.UpsertNetwork(ctx, n); err != nil {
			return storeError(StepLinking, fmt.Errorf("failed to link network %s: %w", n.Handle, err))
		}
		if err := r.success(ctx, models.ObjectNetwork, n.Handle, fmt.Sprintf("Linked network %s", n.Handle)); err != nil {
			return storeError(StepLinking, err)
		}
	}
	return nil
}

func (r *run) markSynced(lastSynced **time.Time, syncedBy **int64) {
	now := r.now()
	id := r.cred.ID
	*lastSynced = &now
	*syncedBy = &id
}
