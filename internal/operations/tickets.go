package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/store"
)

func ticketStatus(ctx context.Context, number, raw string) models.TicketStatus {
	status, ok := models.NormalizeTicketStatus(raw)
	if !ok && raw != "" {
		slog.WarnContext(ctx, "Unrecognized ticket status, using pending_review",
			"ticket", number, "status", raw)
	}
	return status
}

// recordTicket upserts the ticket returned by a write. Tickets are keyed by
// number, so a replayed answer updates the existing row.
func (o *Orchestrator) recordTicket(
	ctx context.Context, s *session, networkID *int64, result *registry.TicketResult, fallback models.TicketType,
) (*models.Ticket, error) {
	if result.Number == "" {
		slog.WarnContext(ctx, "Registry returned a ticket without a number, not recording it",
			"config_id", s.cfg.ID)
		return nil, nil
	}

	ticketType := models.TicketType(strings.ToUpper(strings.TrimSpace(result.Type)))
	if ticketType == "" {
		ticketType = fallback
	}
	createdAt := o.now()
	if result.CreatedAt != nil {
		createdAt = *result.CreatedAt
	}

	ticket := &models.Ticket{
		ConfigID:    s.cfg.ID,
		Number:      result.Number,
		Type:        ticketType,
		Status:      ticketStatus(ctx, result.Number, result.Status),
		Resolution:  models.NormalizeTicketResolution(result.Resolution),
		NetworkID:   networkID,
		SubmittedBy: &s.cred.ID,
		CreatedAt:   createdAt,
		ResolvedAt:  result.ResolvedAt,
		RawData:     models.RawPayload(result.Raw),
	}
	if _, err := o.store.UpsertTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to store ticket %s: %w", result.Number, err)
	}
	return ticket, nil
}

// RefreshTicket fetches the current state of a ticket from the registry and
// updates the local row.
func (o *Orchestrator) RefreshTicket(ctx context.Context, ticketID int64, actor Actor) (*Outcome, error) {
	ticket, err := o.store.GetTicket(ctx, ticketID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrTicketNotFound, ticketID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket %d: %w", ticketID, err)
	}
	s, err := o.open(ctx, ticket.ConfigID, actor)
	if err != nil {
		return nil, err
	}

	result := s.client.GetTicket(ctx, ticket.Number)
	if result == nil {
		return o.fail(ctx, s, models.OperationSync, models.ObjectTicket, ticket.Number,
			fmt.Sprintf("Failed to retrieve ticket %s", ticket.Number), ErrRegistryRejected)
	}

	ticket.Status = ticketStatus(ctx, ticket.Number, result.Status)
	ticket.Resolution = models.NormalizeTicketResolution(result.Resolution)
	if result.ResolvedAt != nil {
		ticket.ResolvedAt = result.ResolvedAt
	}
	if result.Raw != nil {
		ticket.RawData = models.RawPayload(result.Raw)
	}
	if _, err := o.store.UpsertTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to store ticket %s: %w", ticket.Number, err)
	}

	msg := fmt.Sprintf("Ticket %s is %s", ticket.Number, ticket.Status)
	if ticket.Resolution != models.ResolutionNone {
		msg += fmt.Sprintf(" (%s)", ticket.Resolution)
	}
	return o.succeed(ctx, s, models.OperationSync, models.ObjectTicket, ticket.Number, &Outcome{
		Status:  OutcomeSuccess,
		Message: msg,
		Ticket:  ticket,
	})
}
