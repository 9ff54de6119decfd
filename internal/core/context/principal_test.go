package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionhub/internal/core/id"
)

func TestPrincipal_RoundTrip(t *testing.T) {
	accountID := id.New()
	ctx := WithPrincipal(context.Background(), NewPrincipal(accountID, []string{"users.read", "users.ban", "users.read"}))

	p, ok := GetPrincipal(ctx)
	require.True(t, ok)
	assert.Equal(t, accountID, p.AccountID)
	assert.True(t, p.PermissionsLoaded())
	assert.Equal(t, []string{"users.ban", "users.read"}, p.Permissions())
	assert.True(t, p.Has("users.ban"))
	assert.False(t, p.Has("roles.assign"))
	assert.Equal(t, accountID, GetAccountID(ctx))
}

func TestPrincipal_NotLoaded(t *testing.T) {
	p := NewPrincipal(id.New(), nil)

	assert.False(t, p.PermissionsLoaded())
	assert.Nil(t, p.Permissions())
	assert.False(t, p.Has("users.read"))
}

func TestPrincipal_PermissionsCopy(t *testing.T) {
	p := NewPrincipal(id.New(), []string{"users.read"})
	perms := p.Permissions()
	perms[0] = "roles.assign"

	assert.True(t, p.Has("users.read"))
	assert.False(t, p.Has("roles.assign"))
}

func TestGetPrincipal_Anonymous(t *testing.T) {
	_, ok := GetPrincipal(context.Background())
	assert.False(t, ok)
	assert.True(t, id.IsNil(GetAccountID(context.Background())))
}

func TestPrincipal_LoadedButEmpty(t *testing.T) {
	p := NewPrincipal(id.New(), []string{})

	assert.True(t, p.PermissionsLoaded())
	assert.Empty(t, p.Permissions())
}
