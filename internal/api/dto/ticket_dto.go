package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/tat"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment,omitempty"`
}

// SetTATRequest payload.
type SetTATRequest struct {
	DueAt    time.Time `json:"due_at"`
	Duration string    `json:"duration,omitempty"`
}

// ExtendTATRequest payload.
type ExtendTATRequest struct {
	NewDueAt time.Time `json:"new_due_at"`
	Reason   string    `json:"reason,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Status          domain.TicketStatus `json:"status"`
	CategoryID      string              `json:"category_id"`
	AssigneeID      *string             `json:"assignee_id,omitempty"`
	EscalationLevel int                 `json:"escalation_level"`
	ResolutionDueAt *time.Time          `json:"resolution_due_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info plus the derived
// timing view.
type TicketDetailResponse struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          domain.TicketStatus `json:"status"`
	CategoryID      string              `json:"category_id"`
	CreatorID       string              `json:"creator_id"`
	AssigneeID      *string             `json:"assignee_id,omitempty"`
	EscalationLevel int                 `json:"escalation_level"`
	ResolutionDueAt *time.Time          `json:"resolution_due_at,omitempty"`
	TAT             tat.Snapshot        `json:"tat"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketEventResponse is one audit trail entry.
type TicketEventResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ChangedBy  *string                 `json:"changed_by,omitempty"`
	OldValue   map[string]any          `json:"old_value,omitempty"`
	NewValue   map[string]any          `json:"new_value,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}
