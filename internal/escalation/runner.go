package escalation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/tat"
)

// TicketStore is the slice of ticket persistence the runner consumes.
type TicketStore interface {
	// ListEscalatable returns tickets with a non-terminal status and a
	// resolution-due timestamp set.
	ListEscalatable(ctx context.Context) ([]domain.Ticket, error)
	// ApplyEscalation bumps a ticket from fromLevel to toLevel with the
	// given assignee. It returns false when the stored level no longer
	// matches fromLevel, meaning a concurrent run got there first.
	ApplyEscalation(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error)
}

// Directory resolves the concrete assignee for an escalation target.
type Directory interface {
	ResolveAssignee(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error)
}

// Notifier receives escalation events. Dispatch failure is best-effort
// and never rolls back the applied state change.
type Notifier interface {
	NotifyEscalated(ctx context.Context, ticket domain.Ticket, level int, assigneeID *string) error
}

// Outcome is the per-ticket result of one run.
type Outcome struct {
	TicketID   string   `json:"ticket_id"`
	Decision   Decision `json:"decision"`
	Applied    bool     `json:"applied"`
	AssigneeID *string  `json:"assignee_id,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// RunResult summarizes one runner invocation. It is returned to the
// trigger and logged, never persisted; the durable effects land on the
// ticket rows themselves.
type RunResult struct {
	Evaluated int       `json:"evaluated"`
	Escalated int       `json:"escalated"`
	Failed    int       `json:"failed"`
	Details   []Outcome `json:"details"`
}

// Runner orchestrates one batch escalation pass over overdue tickets.
type Runner struct {
	store       TicketStore
	directory   Directory
	notifier    Notifier
	policy      Policy
	logger      *zap.Logger
	clock       func() time.Time
	concurrency int
}

// RunnerDependencies bundles runner collaborators.
type RunnerDependencies struct {
	Store     TicketStore
	Directory Directory
	Notifier  Notifier
	Policy    Policy
	Logger    *zap.Logger
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
	// Concurrency bounds the per-ticket fan-out. Defaults to 4.
	Concurrency int
}

// NewRunner constructs a runner.
func NewRunner(deps RunnerDependencies) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Runner{
		store:       deps.Store,
		directory:   deps.Directory,
		notifier:    deps.Notifier,
		policy:      deps.Policy,
		logger:      logger,
		clock:       clock,
		concurrency: concurrency,
	}
}

// Run executes one LOAD -> EVALUATE -> APPLY -> NOTIFY -> SUMMARIZE
// pass. A per-ticket failure is recorded and the run continues; only a
// failure to load tickets aborts the whole run. Safe to invoke
// concurrently: eligibility is re-checked against the stored level on
// write, so an overlapping run skips rather than double-escalates.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	tickets, err := r.store.ListEscalatable(ctx)
	if err != nil {
		return nil, err
	}

	now := r.clock()
	result := &RunResult{Evaluated: len(tickets), Details: make([]Outcome, 0, len(tickets))}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)

	for i := range tickets {
		ticket := tickets[i]
		group.Go(func() error {
			outcome := r.processTicket(groupCtx, ticket, now)
			mu.Lock()
			defer mu.Unlock()
			result.Details = append(result.Details, outcome)
			if outcome.Applied {
				result.Escalated++
			}
			if outcome.Error != "" {
				result.Failed++
			}
			return nil
		})
	}
	_ = group.Wait()

	r.logger.Info("escalation run complete",
		zap.Int("evaluated", result.Evaluated),
		zap.Int("escalated", result.Escalated),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (r *Runner) processTicket(ctx context.Context, ticket domain.Ticket, now time.Time) Outcome {
	snapshot := tat.ComputeSnapshot(&ticket, now)
	decision := r.policy.Evaluate(&ticket, snapshot)
	outcome := Outcome{TicketID: ticket.ID, Decision: decision}
	if !decision.Escalate {
		return outcome
	}

	assignee, err := r.directory.ResolveAssignee(ctx, &ticket, decision.NextLevel, decision.TargetRole)
	if err != nil {
		r.logger.Warn("assignee resolution failed",
			zap.String("ticket_id", ticket.ID),
			zap.Int("level", decision.NextLevel),
			zap.Error(err))
		outcome.Error = err.Error()
		return outcome
	}
	outcome.AssigneeID = assignee

	applied, err := r.store.ApplyEscalation(ctx, ticket.ID, ticket.EscalationLevel, decision.NextLevel, assignee)
	if err != nil {
		r.logger.Warn("escalation update failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		outcome.Error = err.Error()
		return outcome
	}
	if !applied {
		// Stored level moved underneath us; a concurrent run won.
		outcome.Decision.Escalate = false
		outcome.Decision.Reason = "stale level, skipped"
		return outcome
	}
	outcome.Applied = true

	if r.notifier != nil {
		if err := r.notifier.NotifyEscalated(ctx, ticket, decision.NextLevel, assignee); err != nil {
			// Best-effort: the state change stands.
			r.logger.Warn("escalation notification failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}
	return outcome
}
