package dto

import (
	"time"

	"sessionhub/internal/domain/auth"
	"sessionhub/internal/domain/users"
)

// ProfileResponse is the body of GET /users/me.
type ProfileResponse struct {
	Account     AccountResponse `json:"account"`
	Roles       []string        `json:"roles"`
	Permissions []string        `json:"permissions"`
}

// FromProfile creates response from a users profile.
func FromProfile(p *users.Profile) ProfileResponse {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	perms := p.Permissions
	if perms == nil {
		perms = []string{}
	}
	return ProfileResponse{
		Account:     FromAccount(p.Account),
		Roles:       roles,
		Permissions: perms,
	}
}

// PublicAccountResponse is the body of GET /users/:id.
// DeletedAt is only ever set for viewers allowed to see deleted accounts.
type PublicAccountResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// FromPublicAccount creates the public view of an account.
func FromPublicAccount(a *auth.Account) PublicAccountResponse {
	return PublicAccountResponse{
		ID:        a.ID.String(),
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
		DeletedAt: a.DeletedAt,
	}
}

// AssignRoleRequest for assigning a role to an account.
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
