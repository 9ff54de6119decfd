package auth

import (
	"context"
	"fmt"
	"slices"

	"sessionhub/internal/core/id"
)

// Permission keys known to the service.
const (
	PermUsersRead        = "users.read"
	PermUsersReadDeleted = "users.read_deleted"
	PermUsersBan         = "users.ban"
	PermRolesAssign      = "roles.assign"
)

// Role keys created by the seed.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// AllPermissions lists every permission key.
func AllPermissions() []string {
	return []string{PermUsersRead, PermUsersReadDeleted, PermUsersBan, PermRolesAssign}
}

// PermissionSet is an unordered set of permission keys.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set, collapsing duplicates.
func NewPermissionSet(keys ...string) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether key is in the set.
func (s PermissionSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Missing returns the required keys absent from the set, in the order given.
func (s PermissionSet) Missing(required []string) []string {
	var missing []string
	for _, k := range required {
		if !s.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Keys returns the keys sorted, for stable output.
func (s PermissionSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Resolver maps an account to the permissions granted through its role assignments.
type Resolver struct {
	perms PermissionRepository
}

// NewResolver creates a permission resolver.
func NewResolver(perms PermissionRepository) *Resolver {
	return &Resolver{perms: perms}
}

// Resolve queries the account's permissions. Nothing is cached between calls.
func (r *Resolver) Resolve(ctx context.Context, accountID id.ID) (PermissionSet, error) {
	keys, err := r.perms.ListKeysForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}
	return NewPermissionSet(keys...), nil
}
