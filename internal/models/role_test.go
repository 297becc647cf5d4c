package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRole_HasPermission(t *testing.T) {
	t.Parallel()

	require.True(t, RoleSearcher.HasPermission(PermIssueJWT))
	require.True(t, RoleRealtor.HasPermission(PermIssueJWT))
	require.True(t, RoleAdmin.HasPermission(PermIssueJWT))

	// Неизвестная роль не имеет разрешений.
	require.False(t, Role("ghost").HasPermission(PermIssueJWT))
}

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, RoleSearcher.Valid())
	require.False(t, Role("").Valid())
	require.False(t, Role("ghost").Valid())
}

func TestValidateRolePermissions(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateRolePermissions())
}
