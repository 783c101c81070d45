package auth

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil, slog.New(slog.DiscardHandler))
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "pastor@iglesia.test",
		Password: "shortls",
	})
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestRoleForCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleAdmin, roleForCount(0), "first account administers the church")
	assert.Equal(t, RoleMember, roleForCount(1))
	assert.Equal(t, RoleMember, roleForCount(42))
}

func TestValidRole(t *testing.T) {
	t.Parallel()

	for _, role := range []string{RoleAdmin, RoleAccountant, RoleMember} {
		assert.True(t, ValidRole(role), role)
	}
	for _, role := range []string{"", "superadmin", "ADMIN", "owner"} {
		assert.False(t, ValidRole(role), role)
	}
}
