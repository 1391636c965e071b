package tat

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NoDeadlineLabel is the sentinel shown when a ticket carries no
// resolution deadline.
const NoDeadlineLabel = "No deadline"

const deadlineLayout = "Jan 2, 2006 3:04 PM"

// Metadata is the canonical in-memory form of a ticket's TAT facts.
// Source rows may spell the keys camelCase or snake_case; Normalize
// folds both into this one representation.
type Metadata struct {
	SetAt      *time.Time  `json:"set_at,omitempty"`
	SetBy      string      `json:"set_by,omitempty"`
	Duration   string      `json:"duration,omitempty"`
	Extensions []Extension `json:"extensions"`
}

// Extension records one TAT extension.
type Extension struct {
	ExtendedAt *time.Time `json:"extended_at,omitempty"`
	ExtendedBy string     `json:"extended_by,omitempty"`
	OldDueAt   *time.Time `json:"old_due_at,omitempty"`
	NewDueAt   *time.Time `json:"new_due_at,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Snapshot is a derived, never-persisted view of a ticket's timing
// state. It is recomputed on every read since "now" is part of it.
type Snapshot struct {
	Deadline      *time.Time `json:"deadline,omitempty"`
	Overdue       bool       `json:"overdue"`
	DeadlineLabel string     `json:"deadline_label"`
	TAT           Metadata   `json:"tat"`
}

// ComputeSnapshot derives the TAT snapshot for a ticket at the given
// instant. Missing tickets, missing metadata, and malformed timestamps
// all degrade to "no deadline / not overdue"; this feeds UI display
// and must never fail.
func ComputeSnapshot(ticket *domain.Ticket, now time.Time) Snapshot {
	snapshot := Snapshot{DeadlineLabel: NoDeadlineLabel}
	if ticket == nil {
		return snapshot
	}

	snapshot.TAT = NormalizeMetadata(ticket.Metadata)

	deadline := ticket.ResolutionDueAt
	if deadline == nil {
		deadline = lookupTime(ticket.Metadata, "resolutionDueAt", "resolution_due_at")
	}
	if deadline == nil {
		return snapshot
	}

	snapshot.Deadline = deadline
	// Boundary is exclusive: a ticket due exactly now is not overdue.
	snapshot.Overdue = now.After(*deadline)
	snapshot.DeadlineLabel = deadline.Format(deadlineLayout)
	return snapshot
}

// NormalizeMetadata folds a raw metadata mapping into the canonical
// Metadata form, accepting both camelCase and snake_case spellings for
// every key. Absent or malformed fields default to zero values.
func NormalizeMetadata(raw map[string]any) Metadata {
	meta := Metadata{Extensions: []Extension{}}
	if raw == nil {
		return meta
	}

	meta.SetAt = lookupTime(raw, "tatSetAt", "tat_set_at")
	meta.SetBy = lookupString(raw, "tatSetBy", "tat_set_by")
	meta.Duration = lookupString(raw, "tatDuration", "tat_duration")

	entries, ok := lookup(raw, "tatExtensions", "tat_extensions").([]any)
	if !ok {
		return meta
	}
	for _, entry := range entries {
		record, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		meta.Extensions = append(meta.Extensions, Extension{
			ExtendedAt: lookupTime(record, "extendedAt", "extended_at"),
			ExtendedBy: lookupString(record, "extendedBy", "extended_by"),
			OldDueAt:   lookupTime(record, "oldDueAt", "old_due_at"),
			NewDueAt:   lookupTime(record, "newDueAt", "new_due_at"),
			Reason:     lookupString(record, "reason"),
		})
	}
	return meta
}

func lookup(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if val, ok := raw[key]; ok && val != nil {
			return val
		}
	}
	return nil
}

func lookupString(raw map[string]any, keys ...string) string {
	if s, ok := lookup(raw, keys...).(string); ok {
		return s
	}
	return ""
}

func lookupTime(raw map[string]any, keys ...string) *time.Time {
	switch val := lookup(raw, keys...).(type) {
	case time.Time:
		return &val
	case *time.Time:
		return val
	case string:
		if ts, err := time.Parse(time.RFC3339, val); err == nil {
			return &ts
		}
	}
	return nil
}
