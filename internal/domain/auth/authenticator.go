package auth

import (
	"context"
	"errors"

	"sessionhub/internal/core/apperror"
	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/core/id"
	"sessionhub/pkg/logger"
)

// Mode selects how a route treats a missing or unusable session.
type Mode int

const (
	// ModeNone skips authentication entirely.
	ModeNone Mode = iota
	// ModeOptional authenticates when it can and otherwise continues anonymously.
	ModeOptional
	// ModeRequired rejects requests without a usable session.
	ModeRequired
)

func (m Mode) String() string {
	switch m {
	case ModeOptional:
		return "optional"
	case ModeRequired:
		return "required"
	default:
		return "none"
	}
}

// Requirement declares a route's security needs.
type Requirement struct {
	Mode Mode

	// Permissions must all be held by the principal.
	Permissions []string

	// LoadPermissions attaches the resolved permission set even when Permissions is empty.
	LoadPermissions bool
}

// Required is a Requirement with ModeRequired and the given permission keys.
func Required(permissions ...string) Requirement {
	return Requirement{Mode: ModeRequired, Permissions: permissions}
}

// Optional is a Requirement with ModeOptional and the given permission keys.
func Optional(permissions ...string) Requirement {
	return Requirement{Mode: ModeOptional, Permissions: permissions}
}

// WithPermissionsLoaded returns a copy of r that always resolves permissions.
func (r Requirement) WithPermissionsLoaded() Requirement {
	r.LoadPermissions = true
	return r
}

func (r Requirement) needsPermissions() bool {
	return len(r.Permissions) > 0 || r.LoadPermissions
}

// AccessVerifier verifies access tokens.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*Claims, error)
}

// PermissionResolver resolves an account's permission set.
type PermissionResolver interface {
	Resolve(ctx context.Context, accountID id.ID) (PermissionSet, error)
}

// Authenticator turns a presented access token into a Principal according to a Requirement.
type Authenticator struct {
	tokens   AccessVerifier
	accounts AccountRepository
	resolver PermissionResolver
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(tokens AccessVerifier, accounts AccountRepository, resolver PermissionResolver) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts, resolver: resolver}
}

// Authenticate returns the principal for token, or ok=false for an anonymous request.
// Failures are UNAUTHORIZED, FORBIDDEN (with required/got details) or INTERNAL_ERROR AppErrors.
func (a *Authenticator) Authenticate(ctx context.Context, token string, req Requirement) (principal appctx.Principal, ok bool, err error) {
	if req.Mode == ModeNone {
		return appctx.Principal{}, false, nil
	}

	if token == "" {
		if req.Mode == ModeRequired {
			return appctx.Principal{}, false, apperror.NewUnauthorized("Missing access token")
		}
		return appctx.Principal{}, false, nil
	}

	account, err := a.sessionAccount(ctx, token)
	if err != nil {
		if req.Mode == ModeOptional {
			if apperror.HasCode(err, apperror.CodeInternal) {
				logger.Warn(ctx, "optional auth lookup failed, continuing anonymously", "error", err)
			}
			return appctx.Principal{}, false, nil
		}
		return appctx.Principal{}, false, err
	}

	if !req.needsPermissions() {
		return appctx.NewPrincipal(account.ID, nil), true, nil
	}

	perms, err := a.resolver.Resolve(ctx, account.ID)
	if err != nil {
		return appctx.Principal{}, false, apperror.NewInternal(err)
	}
	if missing := perms.Missing(req.Permissions); len(missing) > 0 {
		return appctx.Principal{}, false, apperror.NewMissingPermissions(req.Permissions, perms.Keys())
	}

	return appctx.NewPrincipal(account.ID, perms.Keys()), true, nil
}

// sessionAccount verifies the token and loads a usable account.
func (a *Authenticator) sessionAccount(ctx context.Context, token string) (*Account, error) {
	claims, err := a.tokens.VerifyAccess(ctx, token)
	if err != nil {
		return nil, apperror.NewUnauthorized("Invalid or expired access token").WithCause(err)
	}

	account, err := a.accounts.GetByID(ctx, claims.AccountID())
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("Invalid or expired access token").WithCause(err)
		}
		return nil, apperror.NewInternal(err)
	}
	if !account.CanUseSession() {
		return nil, apperror.NewUnauthorized("Invalid or expired access token").
			WithCause(errors.New("account deleted or banned"))
	}

	return account, nil
}
