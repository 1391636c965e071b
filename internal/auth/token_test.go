package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenManager(t *testing.T) {
	manager := NewTokenManager("test-secret", 60)

	t.Run("issue and parse roundtrip", func(t *testing.T) {
		user := &domain.User{ID: "user-1", Role: domain.RoleCommittee}

		token, expiresAt, err := manager.IssueToken(user)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.False(t, expiresAt.IsZero())

		claims, err := manager.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, domain.RoleCommittee, claims.Role)
	})

	t.Run("nil user rejected", func(t *testing.T) {
		_, _, err := manager.IssueToken(nil)
		assert.Error(t, err)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		user := &domain.User{ID: "user-1", Role: domain.RoleStudent}
		token, _, err := manager.IssueToken(user)
		require.NoError(t, err)

		other := NewTokenManager("different-secret", 60)
		_, err = other.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := manager.ParseToken("not.a.token")
		assert.Error(t, err)
	})
}
