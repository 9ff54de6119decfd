// Package authtest provides in-memory implementations of the auth storage
// interfaces for tests of packages built on top of auth.
package authtest

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"sessionhub/internal/core/apperror"
	"sessionhub/internal/core/id"
	"sessionhub/internal/domain/auth"
)

// Store holds accounts, roles and permissions in memory. Safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	accounts    map[id.ID]*auth.Account
	roles       map[string]*auth.Role
	perms       map[string]*auth.Permission
	rolePerms   map[id.ID]map[id.ID]struct{}
	assignments map[id.ID]map[id.ID]*id.ID

	failGetByID error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[id.ID]*auth.Account),
		roles:       make(map[string]*auth.Role),
		perms:       make(map[string]*auth.Permission),
		rolePerms:   make(map[id.ID]map[id.ID]struct{}),
		assignments: make(map[id.ID]map[id.ID]*id.ID),
	}
}

// Accounts returns the store as an auth.AccountRepository.
func (s *Store) Accounts() auth.AccountRepository { return accounts{s} }

// Roles returns the store as an auth.RoleRepository.
func (s *Store) Roles() auth.RoleRepository { return roles{s} }

// Permissions returns the store as an auth.PermissionRepository.
func (s *Store) Permissions() auth.PermissionRepository { return permissions{s} }

// SeedRole creates a role holding the given permission keys.
func (s *Store) SeedRole(key string, permissionKeys ...string) *auth.Role {
	ctx := context.Background()
	role, _ := s.Roles().Upsert(ctx, auth.NewRole(key, key, true))
	for _, k := range permissionKeys {
		p, _ := s.Permissions().Upsert(ctx, &auth.Permission{ID: id.New(), Key: k})
		_ = s.Roles().GrantPermission(ctx, role.ID, p.ID)
	}
	return role
}

// SeedAccount stores an account with the given password hash and role keys.
func (s *Store) SeedAccount(username, passwordHash string, roleKeys ...string) *auth.Account {
	ctx := context.Background()
	a := auth.NewAccount(username, passwordHash)
	_ = s.Accounts().Create(ctx, a)
	for _, key := range roleKeys {
		if role, err := s.Roles().GetByKey(ctx, key); err == nil {
			_ = s.Accounts().AssignRole(ctx, a.ID, role.ID, nil)
		}
	}
	return a
}

// Account returns a copy of the stored account.
func (s *Store) Account(accountID id.ID) (auth.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return auth.Account{}, false
	}
	return *a, true
}

// AssignedBy reports who assigned roleKey to the account.
func (s *Store) AssignedBy(accountID id.ID, roleKey string) (*id.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[roleKey]
	if !ok {
		return nil, false
	}
	by, ok := s.assignments[accountID][role.ID]
	return by, ok
}

// Counts returns the number of stored accounts, roles and permissions.
func (s *Store) Counts() (accounts, roles, permissions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts), len(s.roles), len(s.perms)
}

// FailGetByID makes account lookups by ID return err until FailGetByID(nil).
func (s *Store) FailGetByID(err error) {
	s.mu.Lock()
	s.failGetByID = err
	s.mu.Unlock()
}

type accounts struct{ s *Store }

func (r accounts) Create(_ context.Context, a *auth.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if existing.Username == a.Username {
			return apperror.NewConflict("Username already taken")
		}
	}
	cp := *a
	r.s.accounts[a.ID] = &cp
	return nil
}

func (r accounts) Upsert(_ context.Context, a *auth.Account) (*auth.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if existing.Username == a.Username {
			existing.PasswordHash = a.PasswordHash
			existing.IsBanned = a.IsBanned
			existing.DeletedAt = a.DeletedAt
			existing.UpdatedAt = time.Now().UTC()
			cp := *existing
			return &cp, nil
		}
	}
	cp := *a
	r.s.accounts[a.ID] = &cp
	return a, nil
}

func (r accounts) GetByID(_ context.Context, accountID id.ID) (*auth.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failGetByID != nil {
		return nil, r.s.failGetByID
	}
	a, ok := r.s.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID.String())
	}
	cp := *a
	return &cp, nil
}

func (r accounts) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("account", username)
}

func (r accounts) SetBanned(_ context.Context, accountID id.ID, banned bool) error {
	return r.update(accountID, func(a *auth.Account) { a.IsBanned = banned })
}

func (r accounts) SoftDelete(_ context.Context, accountID id.ID) error {
	return r.update(accountID, func(a *auth.Account) {
		now := time.Now().UTC()
		a.DeletedAt = &now
	})
}

func (r accounts) update(accountID id.ID, fn func(a *auth.Account)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[accountID]
	if !ok || a.IsDeleted() {
		return apperror.NewNotFound("account", accountID.String())
	}
	fn(a)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r accounts) AssignRole(_ context.Context, accountID, roleID id.ID, assignedBy *id.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.assignments[accountID] == nil {
		r.s.assignments[accountID] = make(map[id.ID]*id.ID)
	}
	if _, exists := r.s.assignments[accountID][roleID]; !exists {
		r.s.assignments[accountID][roleID] = assignedBy
	}
	return nil
}

func (r accounts) ListRoleKeys(_ context.Context, accountID id.ID) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	keys := []string{}
	for _, role := range r.s.roles {
		if _, ok := r.s.assignments[accountID][role.ID]; ok {
			keys = append(keys, role.Key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

type roles struct{ s *Store }

func (r roles) GetByKey(_ context.Context, key string) (*auth.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[key]
	if !ok {
		return nil, apperror.NewNotFound("role", key)
	}
	return role, nil
}

func (r roles) Upsert(_ context.Context, role *auth.Role) (*auth.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.roles[role.Key]; ok {
		existing.Name = role.Name
		return existing, nil
	}
	r.s.roles[role.Key] = role
	return role, nil
}

func (r roles) GrantPermission(_ context.Context, roleID, permissionID id.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.rolePerms[roleID] == nil {
		r.s.rolePerms[roleID] = make(map[id.ID]struct{})
	}
	r.s.rolePerms[roleID][permissionID] = struct{}{}
	return nil
}

type permissions struct{ s *Store }

func (r permissions) Upsert(_ context.Context, perm *auth.Permission) (*auth.Permission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.perms[perm.Key]; ok {
		return existing, nil
	}
	r.s.perms[perm.Key] = perm
	return perm, nil
}

func (r permissions) ListKeysForAccount(_ context.Context, accountID id.ID) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]struct{})
	for roleID := range r.s.assignments[accountID] {
		for _, p := range r.s.perms {
			if _, ok := r.s.rolePerms[roleID][p.ID]; ok {
				seen[p.Key] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Revocations is an in-memory auth.RevocationStore.
type Revocations struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]time.Time
	writes  int
	err     error
}

// NewRevocations creates an empty revocation store using time.Now.
func NewRevocations() *Revocations {
	return NewRevocationsAt(time.Now)
}

// NewRevocationsAt creates an empty revocation store reading the time from now.
func NewRevocationsAt(now func() time.Time) *Revocations {
	return &Revocations{now: now, entries: make(map[string]time.Time)}
}

// Revoke implements auth.RevocationStore.
func (m *Revocations) Revoke(_ context.Context, kind auth.TokenKind, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if expiresAt.After(m.now()) {
		m.writes++
		m.entries[string(kind)+":"+jti] = expiresAt
	}
	return nil
}

// RevokeOnce implements auth.RevocationStore.
func (m *Revocations) RevokeOnce(_ context.Context, kind auth.TokenKind, jti string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	now := m.now()
	if !expiresAt.After(now) {
		return false, nil
	}
	key := string(kind) + ":" + jti
	if exp, ok := m.entries[key]; ok && exp.After(now) {
		return false, nil
	}
	m.writes++
	m.entries[key] = expiresAt
	return true, nil
}

// IsRevoked implements auth.RevocationStore.
func (m *Revocations) IsRevoked(_ context.Context, kind auth.TokenKind, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	exp, ok := m.entries[string(kind)+":"+jti]
	return ok && exp.After(m.now()), nil
}

// Fail makes every call return err until Fail(nil).
func (m *Revocations) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Len returns the number of revoked tokens.
func (m *Revocations) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Writes returns the number of records written.
func (m *Revocations) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Tx runs functions directly, without a transaction.
type Tx struct {
	calls atomic.Int64
}

// RunInTransaction implements tx.Manager.
func (t *Tx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls.Add(1)
	return fn(ctx)
}

// ReadOnly implements tx.ReadOnlyManager.
func (t *Tx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Calls returns the number of RunInTransaction calls.
func (t *Tx) Calls() int {
	return int(t.calls.Load())
}

// Compile-time checks.
var (
	_ auth.AccountRepository    = accounts{}
	_ auth.RoleRepository       = roles{}
	_ auth.PermissionRepository = permissions{}
	_ auth.RevocationStore      = (*Revocations)(nil)
)
