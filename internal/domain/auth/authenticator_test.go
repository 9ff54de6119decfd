package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionhub/internal/core/apperror"
	"sessionhub/internal/core/id"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/domain/auth/authtest"
)

type authFixture struct {
	clock  *testClock
	store  *authtest.Store
	tokens *auth.TokenService
	revs   *authtest.Revocations
	authn  *auth.Authenticator
}

func newAuthFixture() *authFixture {
	clock := newTestClock()
	store := authtest.NewStore()
	tokens, revs := newTestTokenService(clock)
	return &authFixture{
		clock:  clock,
		store:  store,
		tokens: tokens,
		revs:   revs,
		authn:  auth.NewAuthenticator(tokens, store.Accounts(), auth.NewResolver(store.Permissions())),
	}
}

func (f *authFixture) accessFor(t *testing.T, a *auth.Account) string {
	t.Helper()
	tok, err := f.tokens.SignAccess(a.ID)
	require.NoError(t, err)
	return tok.Value
}

func requireCode(t *testing.T, err error, code string) *apperror.AppError {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestAuthenticate_NoToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, ok, err := f.authn.Authenticate(ctx, "", auth.Required())
	assert.False(t, ok)
	requireCode(t, err, apperror.CodeUnauthorized)

	_, ok, err = f.authn.Authenticate(ctx, "", auth.Optional())
	assert.False(t, ok)
	assert.NoError(t, err)

	_, ok, err = f.authn.Authenticate(ctx, "anything", auth.Requirement{Mode: auth.ModeNone})
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	f := newAuthFixture()
	alice := f.store.SeedAccount("alice", "")

	p, ok, err := f.authn.Authenticate(context.Background(), f.accessFor(t, alice), auth.Required())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, alice.ID, p.AccountID)
	assert.False(t, p.PermissionsLoaded())
}

func TestAuthenticate_UnusableToken(t *testing.T) {
	cases := map[string]func(t *testing.T, f *authFixture) string{
		"garbage": func(t *testing.T, f *authFixture) string {
			return "garbage"
		},
		"expired": func(t *testing.T, f *authFixture) string {
			tok := f.accessFor(t, f.store.SeedAccount("alice", ""))
			f.clock.Advance(time.Hour)
			return tok
		},
		"revoked": func(t *testing.T, f *authFixture) string {
			tok := f.accessFor(t, f.store.SeedAccount("alice", ""))
			claims, err := f.tokens.VerifyAccess(context.Background(), tok)
			require.NoError(t, err)
			require.NoError(t, f.tokens.Revoke(context.Background(), auth.TokenAccess, claims))
			return tok
		},
		"unknown account": func(t *testing.T, f *authFixture) string {
			tok, err := f.tokens.SignAccess(id.New())
			require.NoError(t, err)
			return tok.Value
		},
		"soft-deleted account": func(t *testing.T, f *authFixture) string {
			a := f.store.SeedAccount("ghost", "")
			require.NoError(t, f.store.Accounts().SoftDelete(context.Background(), a.ID))
			return f.accessFor(t, a)
		},
		"banned account": func(t *testing.T, f *authFixture) string {
			a := f.store.SeedAccount("mallory", "")
			require.NoError(t, f.store.Accounts().SetBanned(context.Background(), a.ID, true))
			return f.accessFor(t, a)
		},
		"revocation store down": func(t *testing.T, f *authFixture) string {
			tok := f.accessFor(t, f.store.SeedAccount("alice", ""))
			f.revs.Fail(errors.New("i/o timeout"))
			return tok
		},
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			f := newAuthFixture()
			tok := setup(t, f)

			_, ok, err := f.authn.Authenticate(context.Background(), tok, auth.Required())
			assert.False(t, ok)
			requireCode(t, err, apperror.CodeUnauthorized)

			_, ok, err = f.authn.Authenticate(context.Background(), tok, auth.Optional())
			assert.False(t, ok)
			assert.NoError(t, err, "optional auth must continue anonymously")
		})
	}
}

func TestAuthenticate_AccountLookupFailure(t *testing.T) {
	f := newAuthFixture()
	tok := f.accessFor(t, f.store.SeedAccount("alice", ""))
	f.store.FailGetByID(errors.New("connection reset"))

	_, _, err := f.authn.Authenticate(context.Background(), tok, auth.Required())
	requireCode(t, err, apperror.CodeInternal)

	_, ok, err := f.authn.Authenticate(context.Background(), tok, auth.Optional())
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestAuthenticate_Permissions(t *testing.T) {
	f := newAuthFixture()
	f.store.SeedRole(auth.RoleModerator, auth.PermUsersRead, auth.PermUsersReadDeleted, auth.PermUsersBan)
	f.store.SeedRole(auth.RoleUser, auth.PermUsersRead)
	bob := f.store.SeedAccount("bob", "", auth.RoleUser)
	mod := f.store.SeedAccount("mod", "", auth.RoleUser, auth.RoleModerator)
	ctx := context.Background()

	t.Run("missing permission on required route", func(t *testing.T) {
		_, ok, err := f.authn.Authenticate(ctx, f.accessFor(t, bob), auth.Required(auth.PermUsersBan))
		assert.False(t, ok)
		appErr := requireCode(t, err, apperror.CodeForbidden)
		assert.Equal(t, []string{auth.PermUsersBan}, appErr.Details["required"])
		assert.Equal(t, []string{auth.PermUsersRead}, appErr.Details["got"])
	})

	t.Run("missing permission on optional route is not downgraded", func(t *testing.T) {
		_, ok, err := f.authn.Authenticate(ctx, f.accessFor(t, bob), auth.Optional(auth.PermUsersReadDeleted))
		assert.False(t, ok)
		requireCode(t, err, apperror.CodeForbidden)
	})

	t.Run("held permission", func(t *testing.T) {
		p, ok, err := f.authn.Authenticate(ctx, f.accessFor(t, mod), auth.Required(auth.PermUsersBan))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, p.PermissionsLoaded())
		// users.read is reachable through both roles but listed once.
		assert.Equal(t, []string{auth.PermUsersBan, auth.PermUsersRead, auth.PermUsersReadDeleted}, p.Permissions())
	})

	t.Run("load without requiring", func(t *testing.T) {
		p, ok, err := f.authn.Authenticate(ctx, f.accessFor(t, bob), auth.Required().WithPermissionsLoaded())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{auth.PermUsersRead}, p.Permissions())
	})

	t.Run("account without roles", func(t *testing.T) {
		loner := f.store.SeedAccount("loner", "")
		p, ok, err := f.authn.Authenticate(ctx, f.accessFor(t, loner), auth.Optional().WithPermissionsLoaded())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, p.PermissionsLoaded())
		assert.Empty(t, p.Permissions())
	})
}

func TestPermissionSet(t *testing.T) {
	set := auth.NewPermissionSet(auth.PermUsersRead, auth.PermUsersBan, auth.PermUsersRead)

	assert.Len(t, set, 2)
	assert.Equal(t, []string{auth.PermUsersBan, auth.PermUsersRead}, set.Keys())
	assert.Equal(t, []string{auth.PermRolesAssign}, set.Missing([]string{auth.PermUsersRead, auth.PermRolesAssign}))
	assert.Empty(t, set.Missing(nil))
}
