package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Values are
// stored lowercase in the tickets table.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
	TicketStatusAwaitingStudent TicketStatus = "awaiting_student_response"
)

// TerminalStatuses lists states after which no escalation applies.
var TerminalStatuses = []TicketStatus{TicketStatusResolved, TicketStatusClosed}

// IsTerminal reports whether the status admits no further escalation.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID              string
	Title           string
	Description     string
	Status          TicketStatus
	CategoryID      string
	CreatorID       string
	AssigneeID      *string
	EscalationLevel int
	ResolutionDueAt *time.Time
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
