package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type mockTicketRepository struct {
	ListWithFilterFunc func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error)
}

func (m *mockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return errors.New("not implemented")
}

func (m *mockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return errors.New("not implemented")
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTicketRepository) ListByCreator(ctx context.Context, creatorID string, limit, offset int) ([]domain.Ticket, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTicketRepository) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if m.ListWithFilterFunc != nil {
		return m.ListWithFilterFunc(ctx, filter)
	}
	return nil, errors.New("ListWithFilterFunc not implemented")
}

func (m *mockTicketRepository) ListEscalatable(ctx context.Context) ([]domain.Ticket, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTicketRepository) ApplyEscalation(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *mockTicketRepository) ResetEscalation(ctx context.Context, ticketID string) error {
	return errors.New("not implemented")
}

func (m *mockTicketRepository) UpdateTAT(ctx context.Context, ticketID string, dueAt *time.Time, metadata map[string]any) error {
	return errors.New("not implemented")
}

func TestStatsServiceDashboardStats(t *testing.T) {
	ctx := context.Background()
	sample := []domain.Ticket{
		{Status: domain.TicketStatusOpen},
		{Status: domain.TicketStatusInProgress, EscalationLevel: 1},
		{Status: domain.TicketStatusClosed},
	}

	t.Run("student scope filters by creator", func(t *testing.T) {
		repo := &mockTicketRepository{
			ListWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				require.NotNil(t, filter.CreatorID)
				assert.Equal(t, "student-1", *filter.CreatorID)
				assert.Nil(t, filter.AssigneeID)
				return sample, nil
			},
		}
		stats := NewStatsService(repo, nil, 0, zap.NewNop())

		actor := &domain.User{ID: "student-1", Role: domain.RoleStudent}
		result, err := stats.DashboardStats(ctx, actor)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 1, result.Open)
		assert.Equal(t, 1, result.Escalated)
	})

	t.Run("committee scope filters by assignee", func(t *testing.T) {
		repo := &mockTicketRepository{
			ListWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				require.NotNil(t, filter.AssigneeID)
				assert.Equal(t, "committee-1", *filter.AssigneeID)
				assert.Nil(t, filter.CreatorID)
				return sample, nil
			},
		}
		stats := NewStatsService(repo, nil, 0, zap.NewNop())

		actor := &domain.User{ID: "committee-1", Role: domain.RoleCommittee}
		_, err := stats.DashboardStats(ctx, actor)

		require.NoError(t, err)
	})

	t.Run("admin scope is unfiltered", func(t *testing.T) {
		repo := &mockTicketRepository{
			ListWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				assert.Nil(t, filter.CreatorID)
				assert.Nil(t, filter.AssigneeID)
				return sample, nil
			},
		}
		stats := NewStatsService(repo, nil, 0, zap.NewNop())

		actor := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}
		_, err := stats.DashboardStats(ctx, actor)

		require.NoError(t, err)
	})

	t.Run("nil actor rejected", func(t *testing.T) {
		stats := NewStatsService(&mockTicketRepository{}, nil, 0, zap.NewNop())

		_, err := stats.DashboardStats(ctx, nil)

		assert.Error(t, err)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		repo := &mockTicketRepository{
			ListWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				return nil, errors.New("connection refused")
			},
		}
		stats := NewStatsService(repo, nil, 0, zap.NewNop())

		actor := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}
		_, err := stats.DashboardStats(ctx, actor)

		assert.Error(t, err)
	})
}
