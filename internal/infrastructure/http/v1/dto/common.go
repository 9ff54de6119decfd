// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"sessionhub/internal/domain/auth"
)

// StatusResponse is the body of endpoints that only acknowledge.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatusOK is the canonical acknowledgement.
var StatusOK = StatusResponse{Status: "ok"}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	IsBanned  bool       `json:"isBanned"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// FromAccount creates response from domain account.
func FromAccount(a *auth.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID.String(),
		Username:  a.Username,
		IsBanned:  a.IsBanned,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		DeletedAt: a.DeletedAt,
	}
}
