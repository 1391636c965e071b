package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketTATSet        EventType = "ticket_tat_set"
	EventTicketTATExtended   EventType = "ticket_tat_extended"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   domain.ActorType `json:"type"`
	UserID *string          `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CategoryID string `json:"category_id"`
	Title      string `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	NewLevel   int     `json:"new_level"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// TicketTATSetPayload payload.
type TicketTATSetPayload struct {
	DueAt    time.Time `json:"due_at"`
	Duration string    `json:"duration,omitempty"`
}

// TicketTATExtendedPayload payload.
type TicketTATExtendedPayload struct {
	OldDueAt *time.Time `json:"old_due_at,omitempty"`
	NewDueAt time.Time  `json:"new_due_at"`
	Reason   string     `json:"reason,omitempty"`
}
