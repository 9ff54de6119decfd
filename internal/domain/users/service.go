// Package users serves profile reads for the authenticated account and for other viewers.
package users

import (
	"context"

	"sessionhub/internal/core/apperror"
	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/core/id"
	"sessionhub/internal/core/tx"
	"sessionhub/internal/domain/auth"
)

// Profile is an account with its roles and permissions.
type Profile struct {
	Account     *auth.Account
	Roles       []string
	Permissions []string
}

// PermissionResolver resolves an account's permission set.
type PermissionResolver interface {
	Resolve(ctx context.Context, accountID id.ID) (auth.PermissionSet, error)
}

// Service reads account profiles.
type Service struct {
	accounts  auth.AccountRepository
	resolver  PermissionResolver
	txManager tx.ReadOnlyManager
}

// NewService creates a users service.
func NewService(accounts auth.AccountRepository, resolver PermissionResolver, txManager tx.ReadOnlyManager) *Service {
	return &Service{accounts: accounts, resolver: resolver, txManager: txManager}
}

// GetSelf returns the principal's own profile. A missing or deleted account is UNAUTHORIZED.
func (s *Service) GetSelf(ctx context.Context, principal appctx.Principal) (*Profile, error) {
	profile := &Profile{}

	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetByID(ctx, principal.AccountID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewUnauthorized("User not found")
			}
			return err
		}
		if account.IsDeleted() {
			return apperror.NewUnauthorized("User not found")
		}
		profile.Account = account

		if profile.Roles, err = s.accounts.ListRoleKeys(ctx, account.ID); err != nil {
			return err
		}

		if principal.PermissionsLoaded() {
			profile.Permissions = principal.Permissions()
			return nil
		}
		perms, err := s.resolver.Resolve(ctx, account.ID)
		if err != nil {
			return err
		}
		profile.Permissions = perms.Keys()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// GetPublic returns another account's public view. Soft-deleted accounts are
// visible only to viewers holding users.read_deleted; pass nil for anonymous viewers.
// The viewer's permissions are resolved only when needed and not already loaded.
func (s *Service) GetPublic(ctx context.Context, accountID id.ID, viewer *appctx.Principal) (*auth.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.IsDeleted() {
		allowed, err := s.canReadDeleted(ctx, viewer)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperror.NewNotFound("account", accountID.String())
		}
	}

	return account, nil
}

func (s *Service) canReadDeleted(ctx context.Context, viewer *appctx.Principal) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	if viewer.PermissionsLoaded() {
		return viewer.Has(auth.PermUsersReadDeleted), nil
	}

	perms, err := s.resolver.Resolve(ctx, viewer.AccountID)
	if err != nil {
		return false, err
	}
	return perms.Has(auth.PermUsersReadDeleted), nil
}
