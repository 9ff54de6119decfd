package auth_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sessionhub/internal/core/apperror"
	"sessionhub/internal/core/id"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/infrastructure/storage/postgres"
)

var accountColumns = postgres.Columns[auth.Account]()

// AccountRepo implements auth.AccountRepository.
type AccountRepo struct {
	baseRepo
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{baseRepo{txm: txm}}
}

// Create inserts an account.
func (r *AccountRepo) Create(ctx context.Context, a *auth.Account) error {
	q := psql.Insert("accounts").
		Columns(accountColumns...).
		Values(postgres.Values(a)...)

	if _, err := r.exec(ctx, q); err != nil {
		if _, ok := postgres.UniqueViolation(err); ok {
			return apperror.NewConflict("Username already taken").
				WithDetail("field", "username").
				WithCause(err)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) upsertQuery(a *auth.Account) squirrel.InsertBuilder {
	return psql.Insert("accounts").
		Columns(accountColumns...).
		Values(postgres.Values(a)...).
		Suffix("ON CONFLICT (username) DO UPDATE SET " +
			"password_hash = EXCLUDED.password_hash, " +
			"is_banned = EXCLUDED.is_banned, " +
			"deleted_at = EXCLUDED.deleted_at, " +
			"updated_at = now() " +
			"RETURNING " + strings.Join(accountColumns, ", "))
}

// Upsert inserts or overwrites an account by username.
func (r *AccountRepo) Upsert(ctx context.Context, a *auth.Account) (*auth.Account, error) {
	var stored auth.Account
	if err := r.get(ctx, &stored, r.upsertQuery(a)); err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return &stored, nil
}

func (r *AccountRepo) selectAccount() squirrel.SelectBuilder {
	return psql.Select(accountColumns...).From("accounts")
}

// GetByID retrieves an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, accountID id.ID) (*auth.Account, error) {
	var a auth.Account
	if err := r.get(ctx, &a, r.selectAccount().Where(squirrel.Eq{"id": accountID})); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("account", accountID.String())
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return &a, nil
}

// GetByUsername retrieves an account by exact username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	var a auth.Account
	if err := r.get(ctx, &a, r.selectAccount().Where(squirrel.Eq{"username": username})); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("account", username)
		}
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) setBannedQuery(accountID id.ID, banned bool) squirrel.UpdateBuilder {
	return psql.Update("accounts").
		Set("is_banned", banned).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": accountID}).
		Where(squirrel.Eq{"deleted_at": nil})
}

// SetBanned updates the ban flag of a live account.
func (r *AccountRepo) SetBanned(ctx context.Context, accountID id.ID, banned bool) error {
	n, err := r.exec(ctx, r.setBannedQuery(accountID, banned))
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("account", accountID.String())
	}
	return nil
}

// SoftDelete marks a live account deleted.
func (r *AccountRepo) SoftDelete(ctx context.Context, accountID id.ID) error {
	q := psql.Update("accounts").
		Set("deleted_at", squirrel.Expr("now()")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": accountID}).
		Where(squirrel.Eq{"deleted_at": nil})

	n, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("account", accountID.String())
	}
	return nil
}

func (r *AccountRepo) assignRoleQuery(accountID, roleID id.ID, assignedBy *id.ID) squirrel.InsertBuilder {
	return psql.Insert("role_assignments").
		Columns("account_id", "role_id", "assigned_by").
		Values(accountID, roleID, assignedBy).
		Suffix("ON CONFLICT (account_id, role_id) DO NOTHING")
}

// AssignRole links an account to a role; an existing pair is left untouched.
func (r *AccountRepo) AssignRole(ctx context.Context, accountID, roleID id.ID, assignedBy *id.ID) error {
	if _, err := r.exec(ctx, r.assignRoleQuery(accountID, roleID, assignedBy)); err != nil {
		if postgres.ForeignKeyViolation(err) {
			return apperror.NewNotFound("account", accountID.String()).WithCause(err)
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *AccountRepo) roleKeysQuery(accountID id.ID) squirrel.SelectBuilder {
	return psql.Select("r.key").
		From("role_assignments ra").
		Join("roles r ON r.id = ra.role_id").
		Where(squirrel.Eq{"ra.account_id": accountID}).
		OrderBy("r.key")
}

// ListRoleKeys returns the keys of the account's roles.
func (r *AccountRepo) ListRoleKeys(ctx context.Context, accountID id.ID) ([]string, error) {
	keys := []string{}
	if err := r.selectAll(ctx, &keys, r.roleKeysQuery(accountID)); err != nil {
		return nil, fmt.Errorf("list role keys: %w", err)
	}
	return keys, nil
}

var _ auth.AccountRepository = (*AccountRepo)(nil)
