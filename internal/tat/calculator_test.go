package tat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestComputeSnapshot(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("nil ticket", func(t *testing.T) {
		snapshot := ComputeSnapshot(nil, now)

		assert.False(t, snapshot.Overdue)
		assert.Nil(t, snapshot.Deadline)
		assert.Equal(t, NoDeadlineLabel, snapshot.DeadlineLabel)
	})

	t.Run("no deadline regardless of metadata", func(t *testing.T) {
		ticket := &domain.Ticket{
			Status: domain.TicketStatusOpen,
			Metadata: map[string]any{
				"tat_set_by":   "committee-7",
				"tat_duration": "72h",
			},
		}

		snapshot := ComputeSnapshot(ticket, now)

		assert.False(t, snapshot.Overdue)
		assert.Equal(t, NoDeadlineLabel, snapshot.DeadlineLabel)
		assert.Equal(t, "committee-7", snapshot.TAT.SetBy)
		assert.Equal(t, "72h", snapshot.TAT.Duration)
	})

	t.Run("deadline strictly in the past is overdue", func(t *testing.T) {
		due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		ticket := &domain.Ticket{ResolutionDueAt: &due}

		snapshot := ComputeSnapshot(ticket, now)

		assert.True(t, snapshot.Overdue)
		assert.Equal(t, due, *snapshot.Deadline)
		assert.Equal(t, "Jan 1, 2024 12:00 AM", snapshot.DeadlineLabel)
	})

	t.Run("deadline in the future is not overdue", func(t *testing.T) {
		due := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
		ticket := &domain.Ticket{ResolutionDueAt: &due}

		snapshot := ComputeSnapshot(ticket, now)

		assert.False(t, snapshot.Overdue)
	})

	t.Run("deadline exactly now is not overdue", func(t *testing.T) {
		due := now
		ticket := &domain.Ticket{ResolutionDueAt: &due}

		snapshot := ComputeSnapshot(ticket, now)

		assert.False(t, snapshot.Overdue)
	})

	t.Run("deadline read from metadata when column is null", func(t *testing.T) {
		ticket := &domain.Ticket{
			Metadata: map[string]any{"resolutionDueAt": "2024-01-01T00:00:00Z"},
		}

		snapshot := ComputeSnapshot(ticket, now)

		assert.True(t, snapshot.Overdue)
		assert.NotNil(t, snapshot.Deadline)
	})

	t.Run("malformed metadata timestamp degrades to no deadline", func(t *testing.T) {
		ticket := &domain.Ticket{
			Metadata: map[string]any{"resolution_due_at": "yesterday-ish"},
		}

		snapshot := ComputeSnapshot(ticket, now)

		assert.False(t, snapshot.Overdue)
		assert.Equal(t, NoDeadlineLabel, snapshot.DeadlineLabel)
	})
}

func TestNormalizeMetadata(t *testing.T) {
	t.Run("nil map", func(t *testing.T) {
		meta := NormalizeMetadata(nil)

		assert.Nil(t, meta.SetAt)
		assert.Empty(t, meta.SetBy)
		assert.Empty(t, meta.Extensions)
	})

	t.Run("camelCase spelling", func(t *testing.T) {
		meta := NormalizeMetadata(map[string]any{
			"tatSetAt":    "2024-01-01T09:00:00Z",
			"tatSetBy":    "admin-1",
			"tatDuration": "48h",
		})

		assert.Equal(t, "admin-1", meta.SetBy)
		assert.Equal(t, "48h", meta.Duration)
		assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), *meta.SetAt)
	})

	t.Run("snake_case spelling", func(t *testing.T) {
		meta := NormalizeMetadata(map[string]any{
			"tat_set_at":   "2024-01-01T09:00:00Z",
			"tat_set_by":   "admin-1",
			"tat_duration": "48h",
		})

		assert.Equal(t, "admin-1", meta.SetBy)
		assert.Equal(t, "48h", meta.Duration)
		assert.NotNil(t, meta.SetAt)
	})

	t.Run("extension history in either spelling", func(t *testing.T) {
		meta := NormalizeMetadata(map[string]any{
			"tat_extensions": []any{
				map[string]any{
					"extendedAt": "2024-01-05T10:00:00Z",
					"extendedBy": "committee-2",
					"newDueAt":   "2024-01-08T00:00:00Z",
					"reason":     "vendor delay",
				},
				map[string]any{
					"extended_at": "2024-01-09T10:00:00Z",
					"extended_by": "admin-1",
				},
				"not a record",
			},
		})

		assert.Len(t, meta.Extensions, 2)
		assert.Equal(t, "committee-2", meta.Extensions[0].ExtendedBy)
		assert.Equal(t, "vendor delay", meta.Extensions[0].Reason)
		assert.Equal(t, "admin-1", meta.Extensions[1].ExtendedBy)
	})

	t.Run("native time values pass through", func(t *testing.T) {
		setAt := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		meta := NormalizeMetadata(map[string]any{"tatSetAt": setAt})

		assert.Equal(t, setAt, *meta.SetAt)
	})
}
