package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type mockStore struct {
	mu sync.Mutex

	ListEscalatableFunc func(ctx context.Context) ([]domain.Ticket, error)
	ApplyEscalationFunc func(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error)

	applied []string
}

func (m *mockStore) ListEscalatable(ctx context.Context) ([]domain.Ticket, error) {
	if m.ListEscalatableFunc != nil {
		return m.ListEscalatableFunc(ctx)
	}
	return nil, errors.New("ListEscalatableFunc not implemented")
}

func (m *mockStore) ApplyEscalation(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error) {
	if m.ApplyEscalationFunc != nil {
		ok, err := m.ApplyEscalationFunc(ctx, ticketID, fromLevel, toLevel, assigneeID)
		if ok {
			m.mu.Lock()
			m.applied = append(m.applied, ticketID)
			m.mu.Unlock()
		}
		return ok, err
	}
	return false, errors.New("ApplyEscalationFunc not implemented")
}

type mockDirectory struct {
	ResolveAssigneeFunc func(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error)
}

func (m *mockDirectory) ResolveAssignee(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error) {
	if m.ResolveAssigneeFunc != nil {
		return m.ResolveAssigneeFunc(ctx, ticket, level, role)
	}
	return nil, errors.New("ResolveAssigneeFunc not implemented")
}

type mockNotifier struct {
	mu sync.Mutex

	NotifyEscalatedFunc func(ctx context.Context, ticket domain.Ticket, level int, assigneeID *string) error

	notified []string
}

func (m *mockNotifier) NotifyEscalated(ctx context.Context, ticket domain.Ticket, level int, assigneeID *string) error {
	m.mu.Lock()
	m.notified = append(m.notified, ticket.ID)
	m.mu.Unlock()
	if m.NotifyEscalatedFunc != nil {
		return m.NotifyEscalatedFunc(ctx, ticket, level, assigneeID)
	}
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

func overdueTicket(id string, level int) domain.Ticket {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Ticket{
		ID:              id,
		Status:          domain.TicketStatusOpen,
		EscalationLevel: level,
		ResolutionDueAt: &due,
	}
}

func outcomeFor(t *testing.T, result *RunResult, ticketID string) Outcome {
	t.Helper()
	for _, outcome := range result.Details {
		if outcome.TicketID == ticketID {
			return outcome
		}
	}
	t.Fatalf("no outcome for ticket %s", ticketID)
	return Outcome{}
}

func newTestRunner(store TicketStore, directory Directory, notifier Notifier) *Runner {
	return NewRunner(RunnerDependencies{
		Store:     store,
		Directory: directory,
		Notifier:  notifier,
		Policy:    Policy{MaxLevel: 3, Routing: testRouting()},
		Logger:    zap.NewNop(),
		Clock:     fixedClock(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	})
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()

	t.Run("load failure aborts the run", func(t *testing.T) {
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return nil, errors.New("store unreachable")
			},
		}

		runner := newTestRunner(store, &mockDirectory{}, &mockNotifier{})
		result, err := runner.Run(ctx)

		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("overdue open ticket is escalated and notified once", func(t *testing.T) {
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{overdueTicket("t1", 0)}, nil
			},
			ApplyEscalationFunc: func(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error) {
				assert.Equal(t, 0, fromLevel)
				assert.Equal(t, 1, toLevel)
				require.NotNil(t, assigneeID)
				assert.Equal(t, "committee-1", *assigneeID)
				return true, nil
			},
		}
		directory := &mockDirectory{
			ResolveAssigneeFunc: func(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error) {
				assert.Equal(t, 1, level)
				assert.Equal(t, domain.RoleCommittee, role)
				return strPtr("committee-1"), nil
			},
		}
		notifier := &mockNotifier{}

		runner := newTestRunner(store, directory, notifier)
		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Evaluated)
		assert.Equal(t, 1, result.Escalated)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, []string{"t1"}, notifier.notified)

		outcome := outcomeFor(t, result, "t1")
		assert.True(t, outcome.Applied)
		assert.Equal(t, 1, outcome.Decision.NextLevel)
	})

	t.Run("closed ticket is evaluated but not escalated", func(t *testing.T) {
		ticket := overdueTicket("t1", 0)
		ticket.Status = domain.TicketStatusClosed
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
		}
		notifier := &mockNotifier{}

		runner := newTestRunner(store, &mockDirectory{}, notifier)
		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Evaluated)
		assert.Equal(t, 0, result.Escalated)
		assert.Empty(t, store.applied)
		assert.Empty(t, notifier.notified)
	})

	t.Run("one bad update does not abort the batch", func(t *testing.T) {
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{
					overdueTicket("t1", 0),
					overdueTicket("t2", 0),
					overdueTicket("t3", 0),
				}, nil
			},
			ApplyEscalationFunc: func(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error) {
				if ticketID == "t2" {
					return false, errors.New("row update failed")
				}
				return true, nil
			},
		}
		directory := &mockDirectory{
			ResolveAssigneeFunc: func(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error) {
				return strPtr("committee-1"), nil
			},
		}
		notifier := &mockNotifier{}

		runner := newTestRunner(store, directory, notifier)
		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Evaluated)
		assert.Equal(t, 2, result.Escalated)
		assert.Equal(t, 1, result.Failed)
		assert.ElementsMatch(t, []string{"t1", "t3"}, store.applied)
		assert.ElementsMatch(t, []string{"t1", "t3"}, notifier.notified)
		assert.Equal(t, "row update failed", outcomeFor(t, result, "t2").Error)
	})

	t.Run("stale stored level is skipped, not failed", func(t *testing.T) {
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{overdueTicket("t1", 0)}, nil
			},
			ApplyEscalationFunc: func(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error) {
				return false, nil
			},
		}
		directory := &mockDirectory{
			ResolveAssigneeFunc: func(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error) {
				return strPtr("committee-1"), nil
			},
		}
		notifier := &mockNotifier{}

		runner := newTestRunner(store, directory, notifier)
		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Escalated)
		assert.Equal(t, 0, result.Failed)
		assert.Empty(t, notifier.notified)
		assert.False(t, outcomeFor(t, result, "t1").Applied)
	})

	t.Run("notification failure does not undo the escalation", func(t *testing.T) {
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{overdueTicket("t1", 1)}, nil
			},
			ApplyEscalationFunc: func(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error) {
				return true, nil
			},
		}
		directory := &mockDirectory{
			ResolveAssigneeFunc: func(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error) {
				return strPtr("admin-1"), nil
			},
		}
		notifier := &mockNotifier{
			NotifyEscalatedFunc: func(ctx context.Context, ticket domain.Ticket, level int, assigneeID *string) error {
				return errors.New("webhook down")
			},
		}

		runner := newTestRunner(store, directory, notifier)
		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Escalated)
		assert.Equal(t, 0, result.Failed)
	})

	t.Run("second run with updated levels is a no-op", func(t *testing.T) {
		// Simulates property 5: after a run bumps every eligible ticket
		// to max level, a rerun finds nothing to escalate.
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{overdueTicket("t1", 3), overdueTicket("t2", 3)}, nil
			},
		}
		notifier := &mockNotifier{}

		runner := newTestRunner(store, &mockDirectory{}, notifier)
		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Evaluated)
		assert.Equal(t, 0, result.Escalated)
		assert.Empty(t, store.applied)
		assert.Empty(t, notifier.notified)
	})

	t.Run("assignee resolution failure counts as failed", func(t *testing.T) {
		store := &mockStore{
			ListEscalatableFunc: func(ctx context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{overdueTicket("t1", 0)}, nil
			},
		}
		directory := &mockDirectory{
			ResolveAssigneeFunc: func(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error) {
				return nil, errors.New("no active committee member")
			},
		}

		runner := newTestRunner(store, directory, &mockNotifier{})
		result, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Escalated)
		assert.Equal(t, 1, result.Failed)
		assert.Empty(t, store.applied)
	})
}
