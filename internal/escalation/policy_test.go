package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/tat"
)

func testRouting() RoutingTable {
	return RoutingTable{
		1: domain.RoleCommittee,
		2: domain.RoleAdmin,
		3: domain.RoleSuperAdmin,
	}
}

func TestParseRoutingTable(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		table, err := ParseRoutingTable("1:committee, 2:admin,3:super_admin")

		require.NoError(t, err)
		assert.Equal(t, testRouting(), table)
	})

	t.Run("invalid entry", func(t *testing.T) {
		_, err := ParseRoutingTable("1-committee")
		assert.Error(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := ParseRoutingTable("0:committee")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseRoutingTable("")
		assert.Error(t, err)
	})
}

func TestPolicyEvaluate(t *testing.T) {
	policy := Policy{MaxLevel: 3, Routing: testRouting()}
	overdue := tat.Snapshot{Overdue: true}

	t.Run("overdue open ticket escalates to next level", func(t *testing.T) {
		ticket := &domain.Ticket{Status: domain.TicketStatusOpen, EscalationLevel: 0}

		decision := policy.Evaluate(ticket, overdue)

		assert.True(t, decision.Escalate)
		assert.Equal(t, 1, decision.NextLevel)
		assert.Equal(t, domain.RoleCommittee, decision.TargetRole)
	})

	t.Run("not overdue is a no-op", func(t *testing.T) {
		ticket := &domain.Ticket{Status: domain.TicketStatusOpen}

		decision := policy.Evaluate(ticket, tat.Snapshot{Overdue: false})

		assert.False(t, decision.Escalate)
		assert.Equal(t, "not overdue", decision.Reason)
	})

	t.Run("terminal statuses never escalate", func(t *testing.T) {
		for _, status := range domain.TerminalStatuses {
			ticket := &domain.Ticket{Status: status}

			decision := policy.Evaluate(ticket, overdue)

			assert.False(t, decision.Escalate, string(status))
		}
	})

	t.Run("max level caps escalation", func(t *testing.T) {
		ticket := &domain.Ticket{Status: domain.TicketStatusInProgress, EscalationLevel: 3}

		decision := policy.Evaluate(ticket, overdue)

		assert.False(t, decision.Escalate)
		assert.Equal(t, "max level reached", decision.Reason)
	})

	t.Run("nil ticket is a no-op", func(t *testing.T) {
		decision := policy.Evaluate(nil, overdue)

		assert.False(t, decision.Escalate)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		ticket := &domain.Ticket{Status: domain.TicketStatusAwaitingStudent, EscalationLevel: 1}

		first := policy.Evaluate(ticket, overdue)
		second := policy.Evaluate(ticket, overdue)

		assert.Equal(t, first, second)
		assert.True(t, first.Escalate)
		assert.Equal(t, 2, first.NextLevel)
		assert.Equal(t, domain.RoleAdmin, first.TargetRole)
	})
}

func TestRoutingTableRoleFor(t *testing.T) {
	t.Run("exact level", func(t *testing.T) {
		role, ok := testRouting().RoleFor(2)

		assert.True(t, ok)
		assert.Equal(t, domain.RoleAdmin, role)
	})

	t.Run("falls back to highest lower level", func(t *testing.T) {
		role, ok := testRouting().RoleFor(7)

		assert.True(t, ok)
		assert.Equal(t, domain.RoleSuperAdmin, role)
	})

	t.Run("no rule below first level", func(t *testing.T) {
		table := RoutingTable{2: domain.RoleAdmin}
		_, ok := table.RoleFor(1)

		assert.False(t, ok)
	})
}
