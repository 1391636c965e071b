package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// EscalationNotifier bridges the escalation runner to the rest of the
// application: each applied escalation appends a SYSTEM audit entry and
// becomes one ticket_escalated event for the notification handlers.
type EscalationNotifier struct {
	dispatcher events.Dispatcher
	ticketLog  repository.TicketEventRepository
}

// NewEscalationNotifier constructs the notifier.
func NewEscalationNotifier(dispatcher events.Dispatcher, ticketLog repository.TicketEventRepository) *EscalationNotifier {
	return &EscalationNotifier{dispatcher: dispatcher, ticketLog: ticketLog}
}

// NotifyEscalated implements escalation.Notifier.
func (n *EscalationNotifier) NotifyEscalated(ctx context.Context, ticket domain.Ticket, level int, assigneeID *string) error {
	if n.ticketLog != nil {
		if err := n.ticketLog.Create(ctx, &domain.TicketEvent{
			TicketID:      ticket.ID,
			ChangedByType: domain.ActorTypeSystem,
			ChangeType:    domain.ChangeTypeEscalation,
			OldValue:      map[string]any{"escalation_level": ticket.EscalationLevel},
			NewValue:      map[string]any{"escalation_level": level, "assignee_id": assigneeID},
		}); err != nil {
			return err
		}
	}

	if n.dispatcher == nil {
		return nil
	}
	return n.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.ActorTypeSystem},
		Timestamp: time.Now(),
		Payload: events.TicketEscalatedPayload{
			NewLevel:   level,
			AssigneeID: assigneeID,
		},
	})
}
