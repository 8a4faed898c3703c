package operations

import (
	"context"
	"fmt"

	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/registry"
)

// Remove removes a reassigned network from the registry. Removal is
// synchronous at the registry, so the local row is deleted on success.
// Root allocations cannot be removed.
func (o *Orchestrator) Remove(ctx context.Context, networkID int64, actor Actor) (*Outcome, error) {
	network, err := o.loadNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if network.IsRootAllocation() {
		return nil, invalid("network", fmt.Sprintf("%s is a root allocation and cannot be removed", network.Handle))
	}
	s, err := o.open(ctx, network.ConfigID, actor)
	if err != nil {
		return nil, err
	}

	if !s.client.RemoveNetwork(ctx, network.Handle) {
		return o.fail(ctx, s, models.OperationRemove, models.ObjectNetwork, network.Handle,
			fmt.Sprintf("Failed to remove network %s from registry", network.Handle), ErrRegistryRejected)
	}

	if err := o.store.DeleteNetwork(ctx, network.ID); err != nil {
		return nil, fmt.Errorf("failed to delete local network %s: %w", network.Handle, err)
	}
	return o.succeed(ctx, s, models.OperationRemove, models.ObjectNetwork, network.Handle, &Outcome{
		Status:  OutcomeSuccess,
		Message: fmt.Sprintf("Removed network %s from registry", network.Handle),
		Network: network,
	})
}

// Delete submits a network delete request. The registry answers with a
// ticket; the local row is kept until a later sync.
func (o *Orchestrator) Delete(ctx context.Context, networkID int64, actor Actor) (*Outcome, error) {
	network, err := o.loadNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	s, err := o.open(ctx, network.ConfigID, actor)
	if err != nil {
		return nil, err
	}

	result := s.client.DeleteNetwork(ctx, network.Handle)
	if result == nil {
		return o.fail(ctx, s, models.OperationDelete, models.ObjectNetwork, network.Handle,
			fmt.Sprintf("Failed to delete network %s at registry", network.Handle), ErrRegistryRejected)
	}

	ticket, err := o.recordTicket(ctx, s, &network.ID, result, models.TicketNetDeleteRequest)
	if err != nil {
		return nil, err
	}
	return o.succeed(ctx, s, models.OperationDelete, models.ObjectNetwork, network.Handle, &Outcome{
		Status:  OutcomeSuccess,
		Message: fmt.Sprintf("Delete request submitted for %s, ticket %s", network.Handle, result.Number),
		Ticket:  ticket,
		Network: network,
	})
}

// Update modifies mutable network fields at the registry and mirrors the
// updated record.
func (o *Orchestrator) Update(
	ctx context.Context, networkID int64, actor Actor, patch registry.NetworkPatch,
) (*Outcome, error) {
	if patch.Name == nil {
		return nil, invalid("name", "nothing to update")
	}
	if *patch.Name == "" {
		return nil, invalid("name", "must not be empty")
	}
	network, err := o.loadNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	s, err := o.open(ctx, network.ConfigID, actor)
	if err != nil {
		return nil, err
	}

	updated := s.client.UpdateNetwork(ctx, network.Handle, patch)
	if updated == nil {
		return o.fail(ctx, s, models.OperationUpdate, models.ObjectNetwork, network.Handle,
			fmt.Sprintf("Failed to update network %s", network.Handle), ErrRegistryRejected)
	}

	mirrored, err := o.mirrorNetwork(ctx, s, updated, network.PrefixID)
	if err != nil {
		return nil, err
	}
	return o.succeed(ctx, s, models.OperationUpdate, models.ObjectNetwork, network.Handle, &Outcome{
		Status:  OutcomeSuccess,
		Message: fmt.Sprintf("Updated network %s", network.Handle),
		Network: mirrored,
	})
}
