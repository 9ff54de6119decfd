package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sessionhub/internal/core/apperror"
	"sessionhub/internal/core/id"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/infrastructure/storage/postgres"
)

var roleColumns = postgres.Columns[auth.Role]()

// RoleRepo implements auth.RoleRepository.
type RoleRepo struct {
	baseRepo
}

// NewRoleRepo creates a new role repository.
func NewRoleRepo(txm *postgres.TxManager) *RoleRepo {
	return &RoleRepo{baseRepo{txm: txm}}
}

// GetByKey retrieves a role by key.
func (r *RoleRepo) GetByKey(ctx context.Context, key string) (*auth.Role, error) {
	var role auth.Role
	q := psql.Select(roleColumns...).From("roles").Where(squirrel.Eq{"key": key})
	if err := r.get(ctx, &role, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("role", key)
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepo) upsertQuery(role *auth.Role) squirrel.InsertBuilder {
	return psql.Insert("roles").
		Columns(roleColumns...).
		Values(postgres.Values(role)...).
		Suffix("ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name, is_system = EXCLUDED.is_system RETURNING id, key, name, is_system, created_at")
}

// Upsert creates the role or refreshes its name and system flag.
func (r *RoleRepo) Upsert(ctx context.Context, role *auth.Role) (*auth.Role, error) {
	var stored auth.Role
	if err := r.get(ctx, &stored, r.upsertQuery(role)); err != nil {
		return nil, fmt.Errorf("upsert role: %w", err)
	}
	return &stored, nil
}

// GrantPermission links a permission to a role.
func (r *RoleRepo) GrantPermission(ctx context.Context, roleID, permissionID id.ID) error {
	q := psql.Insert("role_permissions").
		Columns("role_id", "permission_id").
		Values(roleID, permissionID).
		Suffix("ON CONFLICT (role_id, permission_id) DO NOTHING")

	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

var _ auth.RoleRepository = (*RoleRepo)(nil)
