package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionhub/internal/core/apperror"
	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/core/id"
	"sessionhub/internal/domain/auth"
)

// fakeAccounts implements the reads the users service needs.
type fakeAccounts struct {
	auth.AccountRepository
	byID  map[id.ID]*auth.Account
	roles map[id.ID][]string
}

func (f *fakeAccounts) GetByID(_ context.Context, accountID id.ID) (*auth.Account, error) {
	a, ok := f.byID[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID.String())
	}
	return a, nil
}

func (f *fakeAccounts) ListRoleKeys(_ context.Context, accountID id.ID) ([]string, error) {
	return f.roles[accountID], nil
}

type fakeResolver struct {
	perms map[id.ID][]string
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, accountID id.ID) (auth.PermissionSet, error) {
	f.calls++
	return auth.NewPermissionSet(f.perms[accountID]...), nil
}

type readOnlyTx struct{ calls int }

func (t *readOnlyTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (t *readOnlyTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func setup() (*Service, *fakeAccounts, *fakeResolver, *auth.Account, *auth.Account) {
	live := auth.NewAccount("bob", "")
	gone := auth.NewAccount("ghost", "")
	deletedAt := time.Now()
	gone.DeletedAt = &deletedAt

	accounts := &fakeAccounts{
		byID:  map[id.ID]*auth.Account{live.ID: live, gone.ID: gone},
		roles: map[id.ID][]string{live.ID: {auth.RoleUser}},
	}
	resolver := &fakeResolver{perms: map[id.ID][]string{live.ID: {auth.PermUsersRead}}}
	return NewService(accounts, resolver, &readOnlyTx{}), accounts, resolver, live, gone
}

func TestGetSelf(t *testing.T) {
	svc, _, resolver, live, _ := setup()

	profile, err := svc.GetSelf(context.Background(), appctx.NewPrincipal(live.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Account.Username)
	assert.Equal(t, []string{auth.RoleUser}, profile.Roles)
	assert.Equal(t, []string{auth.PermUsersRead}, profile.Permissions)
	assert.Equal(t, 1, resolver.calls)
}

func TestGetSelf_UsesLoadedPermissions(t *testing.T) {
	svc, _, resolver, live, _ := setup()

	profile, err := svc.GetSelf(context.Background(), appctx.NewPrincipal(live.ID, []string{auth.PermUsersRead, auth.PermUsersBan}))
	require.NoError(t, err)
	assert.Equal(t, []string{auth.PermUsersBan, auth.PermUsersRead}, profile.Permissions)
	assert.Zero(t, resolver.calls)
}

func TestGetSelf_MissingOrDeleted(t *testing.T) {
	svc, _, _, _, gone := setup()

	for _, accountID := range []id.ID{gone.ID, id.New()} {
		_, err := svc.GetSelf(context.Background(), appctx.NewPrincipal(accountID, nil))
		assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}
}

func TestGetPublic_Visibility(t *testing.T) {
	svc, _, _, live, gone := setup()
	ctx := context.Background()

	got, err := svc.GetPublic(ctx, live.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = svc.GetPublic(ctx, gone.ID, nil)
	assert.True(t, apperror.IsNotFound(err))

	reader := appctx.NewPrincipal(id.New(), []string{auth.PermUsersRead})
	_, err = svc.GetPublic(ctx, gone.ID, &reader)
	assert.True(t, apperror.IsNotFound(err))

	moderator := appctx.NewPrincipal(id.New(), []string{auth.PermUsersRead, auth.PermUsersReadDeleted})
	got, err = svc.GetPublic(ctx, gone.ID, &moderator)
	require.NoError(t, err)
	assert.Equal(t, gone.ID, got.ID)

	_, err = svc.GetPublic(ctx, id.New(), &moderator)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetPublic_ResolvesViewerLazily(t *testing.T) {
	svc, _, resolver, live, gone := setup()
	ctx := context.Background()

	moderatorID := id.New()
	resolver.perms[moderatorID] = []string{auth.PermUsersReadDeleted}
	viewer := appctx.NewPrincipal(moderatorID, nil)

	_, err := svc.GetPublic(ctx, live.ID, &viewer)
	require.NoError(t, err)
	assert.Zero(t, resolver.calls, "live accounts need no permission check")

	got, err := svc.GetPublic(ctx, gone.ID, &viewer)
	require.NoError(t, err)
	assert.Equal(t, gone.ID, got.ID)
	assert.Equal(t, 1, resolver.calls)
}
