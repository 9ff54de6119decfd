package auth

import (
	"context"

	"sessionhub/internal/core/id"
)

// AccountRepository defines account storage operations.
type AccountRepository interface {
	// Create inserts an account. A taken username yields a CONFLICT AppError.
	Create(ctx context.Context, account *Account) error

	// Upsert inserts the account or, when the username exists, overwrites its
	// password hash, ban flag and deletion mark. The stored row is returned.
	Upsert(ctx context.Context, account *Account) (*Account, error)

	// GetByID retrieves an account by ID, soft-deleted ones included.
	GetByID(ctx context.Context, accountID id.ID) (*Account, error)

	// GetByUsername retrieves an account by exact username, soft-deleted ones included.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// SetBanned updates the ban flag.
	SetBanned(ctx context.Context, accountID id.ID, banned bool) error

	// SoftDelete marks the account deleted.
	SoftDelete(ctx context.Context, accountID id.ID) error

	// AssignRole links the account to a role. Assigning twice is a no-op.
	AssignRole(ctx context.Context, accountID, roleID id.ID, assignedBy *id.ID) error

	// ListRoleKeys returns the keys of the roles assigned to the account.
	ListRoleKeys(ctx context.Context, accountID id.ID) ([]string, error)
}

// RoleRepository defines role storage operations.
type RoleRepository interface {
	// GetByKey retrieves a role by key.
	GetByKey(ctx context.Context, key string) (*Role, error)

	// Upsert creates the role or updates its name, returning the stored row.
	Upsert(ctx context.Context, role *Role) (*Role, error)

	// GrantPermission links a permission to a role. Granting twice is a no-op.
	GrantPermission(ctx context.Context, roleID, permissionID id.ID) error
}

// PermissionRepository defines permission storage operations.
type PermissionRepository interface {
	// Upsert creates the permission if missing, returning the stored row.
	Upsert(ctx context.Context, perm *Permission) (*Permission, error)

	// ListKeysForAccount returns the distinct permission keys granted through role assignments.
	ListKeysForAccount(ctx context.Context, accountID id.ID) ([]string, error)
}
