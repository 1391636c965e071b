package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type mockCategoryLookup struct {
	GetByIDFunc func(ctx context.Context, id string) (*domain.Category, error)
}

func (m *mockCategoryLookup) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented")
}

type mockUserLookup struct {
	FirstActiveByRoleFunc func(ctx context.Context, role domain.Role) (*domain.User, error)
}

func (m *mockUserLookup) FirstActiveByRole(ctx context.Context, role domain.Role) (*domain.User, error) {
	if m.FirstActiveByRoleFunc != nil {
		return m.FirstActiveByRoleFunc(ctx, role)
	}
	return nil, errors.New("FirstActiveByRoleFunc not implemented")
}

func TestRoleDirectoryResolveAssignee(t *testing.T) {
	ctx := context.Background()

	t.Run("committee level routes to category owner", func(t *testing.T) {
		categories := &mockCategoryLookup{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Category, error) {
				assert.Equal(t, "cat-1", id)
				return &domain.Category{ID: id, OwnerCommitteeID: strPtr("committee-9")}, nil
			},
		}
		directory := NewRoleDirectory(categories, &mockUserLookup{})

		ticket := &domain.Ticket{ID: "t1", CategoryID: "cat-1"}
		assignee, err := directory.ResolveAssignee(ctx, ticket, 1, domain.RoleCommittee)

		require.NoError(t, err)
		assert.Equal(t, "committee-9", *assignee)
	})

	t.Run("ownerless category falls back to any committee member", func(t *testing.T) {
		categories := &mockCategoryLookup{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Category, error) {
				return &domain.Category{ID: id}, nil
			},
		}
		users := &mockUserLookup{
			FirstActiveByRoleFunc: func(ctx context.Context, role domain.Role) (*domain.User, error) {
				assert.Equal(t, domain.RoleCommittee, role)
				return &domain.User{ID: "committee-2"}, nil
			},
		}
		directory := NewRoleDirectory(categories, users)

		ticket := &domain.Ticket{ID: "t1", CategoryID: "cat-1"}
		assignee, err := directory.ResolveAssignee(ctx, ticket, 1, domain.RoleCommittee)

		require.NoError(t, err)
		assert.Equal(t, "committee-2", *assignee)
	})

	t.Run("admin level routes by role", func(t *testing.T) {
		users := &mockUserLookup{
			FirstActiveByRoleFunc: func(ctx context.Context, role domain.Role) (*domain.User, error) {
				assert.Equal(t, domain.RoleAdmin, role)
				return &domain.User{ID: "admin-1"}, nil
			},
		}
		directory := NewRoleDirectory(&mockCategoryLookup{}, users)

		ticket := &domain.Ticket{ID: "t1", CategoryID: "cat-1"}
		assignee, err := directory.ResolveAssignee(ctx, ticket, 2, domain.RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, "admin-1", *assignee)
	})

	t.Run("no holder of the role fails resolution", func(t *testing.T) {
		users := &mockUserLookup{
			FirstActiveByRoleFunc: func(ctx context.Context, role domain.Role) (*domain.User, error) {
				return nil, errors.New("no rows")
			},
		}
		directory := NewRoleDirectory(&mockCategoryLookup{}, users)

		ticket := &domain.Ticket{ID: "t1"}
		_, err := directory.ResolveAssignee(ctx, ticket, 3, domain.RoleSuperAdmin)

		assert.Error(t, err)
	})
}
