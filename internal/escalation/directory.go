package escalation

import (
	"context"
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CategoryLookup provides the category records the directory routes by.
type CategoryLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

// UserLookup provides role-based account lookups.
type UserLookup interface {
	FirstActiveByRole(ctx context.Context, role domain.Role) (*domain.User, error)
}

// RoleDirectory resolves escalation targets: committee-level
// escalations go to the ticket's category owner, higher levels to the
// first active holder of the routed role.
type RoleDirectory struct {
	categories CategoryLookup
	users      UserLookup
}

// NewRoleDirectory constructs the directory.
func NewRoleDirectory(categories CategoryLookup, users UserLookup) *RoleDirectory {
	return &RoleDirectory{categories: categories, users: users}
}

// ResolveAssignee implements Directory.
func (d *RoleDirectory) ResolveAssignee(ctx context.Context, ticket *domain.Ticket, level int, role domain.Role) (*string, error) {
	if role == domain.RoleCommittee && ticket != nil && ticket.CategoryID != "" {
		category, err := d.categories.GetByID(ctx, ticket.CategoryID)
		if err == nil && category.OwnerCommitteeID != nil {
			return category.OwnerCommitteeID, nil
		}
		// Fall through to any active committee member when the category
		// has no owner.
	}

	user, err := d.users.FirstActiveByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("resolve %s assignee: %w", role, err)
	}
	return &user.ID, nil
}
