package tat

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Stats is a derived aggregate over a set of tickets for dashboard
// display. Recomputed fresh from the ticket set each time.
type Stats struct {
	Total           int `json:"total"`
	Open            int `json:"open"`
	InProgress      int `json:"in_progress"`
	Resolved        int `json:"resolved"`
	Closed          int `json:"closed"`
	AwaitingStudent int `json:"awaiting_student_response"`
	Escalated       int `json:"escalated"`
}

// ComputeStats reduces tickets into count-by-status buckets and an
// escalation counter in a single pass. Unrecognized statuses count
// toward Total only; Escalated is orthogonal to status.
func ComputeStats(tickets []domain.Ticket) Stats {
	var stats Stats
	for _, ticket := range tickets {
		stats.Total++
		switch domain.TicketStatus(strings.ToLower(string(ticket.Status))) {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		case domain.TicketStatusClosed:
			stats.Closed++
		case domain.TicketStatusAwaitingStudent:
			stats.AwaitingStudent++
		}
		if ticket.EscalationLevel > 0 {
			stats.Escalated++
		}
	}
	return stats
}
