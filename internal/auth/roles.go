package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireRole()
}

// StaffRoles lists the roles that operate dashboards beyond their own
// tickets.
func StaffRoles() []domain.Role {
	return []domain.Role{domain.RoleCommittee, domain.RoleAdmin, domain.RoleSuperAdmin}
}

// IsStaff reports whether the role handles other users' tickets.
func IsStaff(role domain.Role) bool {
	switch role {
	case domain.RoleCommittee, domain.RoleAdmin, domain.RoleSuperAdmin:
		return true
	}
	return false
}
