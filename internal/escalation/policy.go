package escalation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/tat"
)

// RoutingTable maps an escalation level to the role that should
// receive tickets bumped to that level. It is configuration, not
// policy logic; levels beyond the table fall back to the highest
// configured entry.
type RoutingTable map[int]domain.Role

// ParseRoutingTable parses the "1:committee,2:admin,3:super_admin"
// env format.
func ParseRoutingTable(raw string) (RoutingTable, error) {
	table := RoutingTable{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid routing entry %q", pair)
		}
		level, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || level < 1 {
			return nil, fmt.Errorf("invalid routing level %q", parts[0])
		}
		table[level] = domain.Role(strings.ToLower(strings.TrimSpace(parts[1])))
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("empty routing table")
	}
	return table, nil
}

// RoleFor returns the target role for a level, falling back to the
// highest configured level when the table is shorter.
func (t RoutingTable) RoleFor(level int) (domain.Role, bool) {
	if role, ok := t[level]; ok {
		return role, true
	}
	best := 0
	var role domain.Role
	for l, r := range t {
		if l > best && l < level {
			best, role = l, r
		}
	}
	return role, best > 0
}

// Decision is the outcome of evaluating one ticket against the policy.
type Decision struct {
	Escalate   bool        `json:"escalate"`
	NextLevel  int         `json:"next_level,omitempty"`
	TargetRole domain.Role `json:"target_role,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Policy decides whether a single ticket is eligible for escalation
// and what the next level is. It is a pure function of the ticket's
// status, the snapshot's overdue flag, the current level, and the
// configured maximum.
type Policy struct {
	MaxLevel int
	Routing  RoutingTable
}

// Evaluate returns the escalation decision for a ticket given its TAT
// snapshot. A no-op decision means the caller must neither mutate the
// ticket nor emit a notification for it.
func (p Policy) Evaluate(ticket *domain.Ticket, snapshot tat.Snapshot) Decision {
	if ticket == nil {
		return Decision{Reason: "no ticket"}
	}
	if !snapshot.Overdue {
		return Decision{Reason: "not overdue"}
	}
	if ticket.Status.IsTerminal() {
		return Decision{Reason: "terminal status"}
	}
	if ticket.EscalationLevel >= p.MaxLevel {
		return Decision{Reason: "max level reached"}
	}

	next := ticket.EscalationLevel + 1
	role, ok := p.Routing.RoleFor(next)
	if !ok {
		return Decision{Reason: "no routing rule for level"}
	}
	return Decision{Escalate: true, NextLevel: next, TargetRole: role}
}
