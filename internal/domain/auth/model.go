// Package auth provides authentication and authorization domain logic.
package auth

import (
	"time"

	"sessionhub/internal/core/id"
)

// Account is a registered user of the service.
type Account struct {
	ID           id.ID      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsBanned     bool       `db:"is_banned" json:"isBanned"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewAccount creates an account with a fresh ID.
func NewAccount(username, passwordHash string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           id.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsDeleted reports whether the account was soft-deleted.
func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// CanUseSession reports whether tokens issued to the account may be used.
func (a *Account) CanUseSession() bool {
	return !a.IsDeleted() && !a.IsBanned
}

// Role groups permissions under a stable key.
type Role struct {
	ID        id.ID     `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	Name      string    `db:"name" json:"name"`
	IsSystem  bool      `db:"is_system" json:"isSystem"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewRole creates a new role.
func NewRole(key, name string, system bool) *Role {
	return &Role{
		ID:        id.New(),
		Key:       key,
		Name:      name,
		IsSystem:  system,
		CreatedAt: time.Now().UTC(),
	}
}

// Permission is a flat capability key such as "users.read".
type Permission struct {
	ID          id.ID  `db:"id" json:"id"`
	Key         string `db:"key" json:"key"`
	Description string `db:"description" json:"description,omitempty"`
}

// RoleAssignment links an account to a role.
// AssignedBy is nil for system-seeded assignments.
type RoleAssignment struct {
	AccountID  id.ID     `db:"account_id"`
	RoleID     id.ID     `db:"role_id"`
	AssignedBy *id.ID    `db:"assigned_by"`
	CreatedAt  time.Time `db:"created_at"`
}

// TokenKind separates access and refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// SignedToken is an issued token with the metadata needed to set cookies and revoke it.
type SignedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
	TTL       time.Duration
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	Access  SignedToken
	Refresh SignedToken
}

// Session is the result of register, login and refresh.
type Session struct {
	Account *Account
	Tokens  TokenPair
}

// Credentials for register and login.
type Credentials struct {
	Username string
	Password string
}
