// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"

	"sessionhub/internal/core/id"
)

// Principal is the authenticated identity attached to a request.
// It is stored by value; holders cannot mutate what later middleware sees.
type Principal struct {
	AccountID id.ID

	// permissions is sorted and deduplicated; nil when not loaded.
	permissions []string
}

// NewPrincipal builds a Principal. Pass a nil slice when permissions were not resolved.
func NewPrincipal(accountID id.ID, permissions []string) Principal {
	p := Principal{AccountID: accountID}
	if permissions != nil {
		perms := append(make([]string, 0, len(permissions)), permissions...)
		slices.Sort(perms)
		p.permissions = slices.Compact(perms)
	}
	return p
}

// PermissionsLoaded reports whether the permission set was resolved for this request.
func (p Principal) PermissionsLoaded() bool {
	return p.permissions != nil
}

// Permissions returns a copy of the resolved permission keys.
func (p Principal) Permissions() []string {
	if p.permissions == nil {
		return nil
	}
	return slices.Clone(p.permissions)
}

// Has reports whether the principal holds the permission key.
func (p Principal) Has(key string) bool {
	_, found := slices.BinarySearch(p.permissions, key)
	return found
}

type principalKey struct{}

// WithPrincipal adds Principal to context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns the Principal from context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// GetAccountID returns the authenticated account ID or the nil ID.
func GetAccountID(ctx context.Context) id.ID {
	if p, ok := GetPrincipal(ctx); ok {
		return p.AccountID
	}
	return id.Nil()
}
