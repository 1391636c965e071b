package domain

import "time"

// Category groups tickets and carries routing defaults: the owning
// committee user receives level-1 escalations.
type Category struct {
	ID               string
	Name             string
	Description      string
	OwnerCommitteeID *string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
