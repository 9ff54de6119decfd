package auth

import (
	"context"
	"fmt"
	"time"

	"sessionhub/internal/core/id"
	"sessionhub/internal/core/tx"
	"sessionhub/pkg/logger"
)

// RoleGrants lists the permissions of each system role.
func RoleGrants() map[string][]string {
	return map[string][]string{
		RoleAdmin:     AllPermissions(),
		RoleModerator: {PermUsersRead, PermUsersReadDeleted, PermUsersBan},
		RoleUser:      {PermUsersRead},
	}
}

var roleNames = map[string]string{
	RoleAdmin:     "Admin",
	RoleModerator: "Moderator",
	RoleUser:      "User",
}

// DevUser is a development account created by the seed.
type DevUser struct {
	Username string
	Password string
	Role     string
	Deleted  bool
}

// SeedConfig controls what the seed writes.
type SeedConfig struct {
	// DevUsers are upserted by username. Empty means none.
	DevUsers []DevUser
}

// Seeder writes permissions, system roles and optional development accounts.
// Every step is idempotent.
type Seeder struct {
	accounts  AccountRepository
	roles     RoleRepository
	perms     PermissionRepository
	txManager tx.Manager
	hasher    *PasswordHasher
}

// NewSeeder creates a seeder.
func NewSeeder(accounts AccountRepository, roles RoleRepository, perms PermissionRepository, txManager tx.Manager, hasher *PasswordHasher) *Seeder {
	return &Seeder{accounts: accounts, roles: roles, perms: perms, txManager: txManager, hasher: hasher}
}

// Seed runs in a single transaction.
func (s *Seeder) Seed(ctx context.Context, cfg SeedConfig) error {
	// Hash outside the transaction; Argon2 is deliberately slow.
	digests := make([]string, len(cfg.DevUsers))
	for i, u := range cfg.DevUsers {
		digest, err := s.hasher.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		digests[i] = digest
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		permIDs, err := s.seedPermissions(ctx)
		if err != nil {
			return err
		}

		roles, err := s.seedRoles(ctx, permIDs)
		if err != nil {
			return err
		}

		var assigner *id.ID
		for i, u := range cfg.DevUsers {
			account, err := s.seedUser(ctx, u, digests[i])
			if err != nil {
				return err
			}

			role, ok := roles[u.Role]
			if !ok {
				return fmt.Errorf("seed user %s: unknown role %q", u.Username, u.Role)
			}
			// The first dev user (the admin) is recorded as assigner of every role.
			if assigner == nil {
				self := account.ID
				assigner = &self
			}
			if err := s.accounts.AssignRole(ctx, account.ID, role.ID, assigner); err != nil {
				return fmt.Errorf("assign %s to %s: %w", u.Role, u.Username, err)
			}

			logger.Info(ctx, "seeded user",
				"username", account.Username,
				"role", u.Role,
				"deleted", account.IsDeleted())
		}
		return nil
	})
}

func (s *Seeder) seedPermissions(ctx context.Context) (map[string]id.ID, error) {
	ids := make(map[string]id.ID)
	for _, key := range AllPermissions() {
		p, err := s.perms.Upsert(ctx, &Permission{ID: id.New(), Key: key})
		if err != nil {
			return nil, fmt.Errorf("seed permission %s: %w", key, err)
		}
		ids[key] = p.ID
	}
	return ids, nil
}

func (s *Seeder) seedRoles(ctx context.Context, permIDs map[string]id.ID) (map[string]*Role, error) {
	roles := make(map[string]*Role)
	for key, grants := range RoleGrants() {
		role, err := s.roles.Upsert(ctx, NewRole(key, roleNames[key], true))
		if err != nil {
			return nil, fmt.Errorf("seed role %s: %w", key, err)
		}
		for _, perm := range grants {
			if err := s.roles.GrantPermission(ctx, role.ID, permIDs[perm]); err != nil {
				return nil, fmt.Errorf("grant %s to %s: %w", perm, key, err)
			}
		}
		roles[key] = role
	}
	return roles, nil
}

func (s *Seeder) seedUser(ctx context.Context, u DevUser, digest string) (*Account, error) {
	account := NewAccount(u.Username, digest)
	if u.Deleted {
		now := time.Now().UTC()
		account.DeletedAt = &now
	}

	stored, err := s.accounts.Upsert(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("seed user %s: %w", u.Username, err)
	}
	return stored, nil
}
