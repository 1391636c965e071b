package tat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestComputeStats(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		stats := ComputeStats(nil)

		assert.Equal(t, Stats{}, stats)
	})

	t.Run("buckets and escalated are orthogonal", func(t *testing.T) {
		tickets := []domain.Ticket{
			{Status: domain.TicketStatusOpen},
			{Status: domain.TicketStatusOpen, EscalationLevel: 2},
			{Status: domain.TicketStatusInProgress, EscalationLevel: 1},
			{Status: domain.TicketStatusResolved, EscalationLevel: 3},
			{Status: domain.TicketStatusClosed},
			{Status: domain.TicketStatusAwaitingStudent},
		}

		stats := ComputeStats(tickets)

		assert.Equal(t, 6, stats.Total)
		assert.Equal(t, 2, stats.Open)
		assert.Equal(t, 1, stats.InProgress)
		assert.Equal(t, 1, stats.Resolved)
		assert.Equal(t, 1, stats.Closed)
		assert.Equal(t, 1, stats.AwaitingStudent)
		assert.Equal(t, 3, stats.Escalated)
	})

	t.Run("status matching is case insensitive", func(t *testing.T) {
		tickets := []domain.Ticket{
			{Status: domain.TicketStatus("OPEN")},
			{Status: domain.TicketStatus("In_Progress")},
		}

		stats := ComputeStats(tickets)

		assert.Equal(t, 1, stats.Open)
		assert.Equal(t, 1, stats.InProgress)
	})

	t.Run("unrecognized status still counts toward total", func(t *testing.T) {
		tickets := []domain.Ticket{
			{Status: domain.TicketStatus("triaged"), EscalationLevel: 1},
			{Status: domain.TicketStatus("")},
			{Status: domain.TicketStatusOpen},
		}

		stats := ComputeStats(tickets)

		assert.Equal(t, 3, stats.Total)
		bucketSum := stats.Open + stats.InProgress + stats.Resolved + stats.Closed + stats.AwaitingStudent
		assert.Equal(t, 1, bucketSum)
		assert.LessOrEqual(t, bucketSum, stats.Total)
		assert.Equal(t, 1, stats.Escalated)
	})
}
