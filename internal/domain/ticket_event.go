package domain

import "time"

// ActorType captures who caused an audit entry.
type ActorType string

const (
	ActorTypeUser   ActorType = "USER"
	ActorTypeSystem ActorType = "SYSTEM"
)

// TicketChangeType captures what changed in an audit entry.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee   TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeTATSet     TicketChangeType = "TAT_SET"
	ChangeTypeTATExtend  TicketChangeType = "TAT_EXTENDED"
	ChangeTypeEscalation TicketChangeType = "ESCALATION"
)

// TicketEvent is an immutable audit trail entry.
type TicketEvent struct {
	ID            string
	TicketID      string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
