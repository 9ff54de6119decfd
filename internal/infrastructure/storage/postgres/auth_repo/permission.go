package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"sessionhub/internal/core/id"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/infrastructure/storage/postgres"
)

// PermissionRepo implements auth.PermissionRepository.
type PermissionRepo struct {
	baseRepo
}

// NewPermissionRepo creates a new permission repository.
func NewPermissionRepo(txm *postgres.TxManager) *PermissionRepo {
	return &PermissionRepo{baseRepo{txm: txm}}
}

// Upsert creates the permission or refreshes its description.
func (r *PermissionRepo) Upsert(ctx context.Context, perm *auth.Permission) (*auth.Permission, error) {
	q := psql.Insert("permissions").
		Columns(postgres.Columns[auth.Permission]()...).
		Values(postgres.Values(perm)...).
		Suffix("ON CONFLICT (key) DO UPDATE SET description = EXCLUDED.description RETURNING id, key, description")

	var stored auth.Permission
	if err := r.get(ctx, &stored, q); err != nil {
		return nil, fmt.Errorf("upsert permission: %w", err)
	}
	return &stored, nil
}

// keysForAccountQuery walks role_assignments -> role_permissions -> permissions.
func (r *PermissionRepo) keysForAccountQuery(accountID id.ID) squirrel.SelectBuilder {
	return psql.Select("p.key").
		Distinct().
		From("permissions p").
		Join("role_permissions rp ON rp.permission_id = p.id").
		Join("role_assignments ra ON ra.role_id = rp.role_id").
		Where(squirrel.Eq{"ra.account_id": accountID}).
		OrderBy("p.key")
}

// ListKeysForAccount returns the distinct permission keys granted to the account.
func (r *PermissionRepo) ListKeysForAccount(ctx context.Context, accountID id.ID) ([]string, error) {
	keys := []string{}
	if err := r.selectAll(ctx, &keys, r.keysForAccountQuery(accountID)); err != nil {
		return nil, fmt.Errorf("list permission keys: %w", err)
	}
	return keys, nil
}

var _ auth.PermissionRepository = (*PermissionRepo)(nil)
