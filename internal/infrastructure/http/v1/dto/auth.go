// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"sessionhub/internal/domain/auth"
)

// --- Request DTOs ---

// CredentialsRequest is the body of register and login.
// Length rules are enforced by the auth service so both endpoints agree.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *CredentialsRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Username: r.Username,
		Password: r.Password,
	}
}

// LogoutRequest optionally carries the refresh token, whose cookie is scoped to the refresh path.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// --- Response DTOs ---

// AuthResponse is returned by register and login. Tokens travel in cookies only.
type AuthResponse struct {
	Account AccountResponse `json:"account"`
}

// FromSession creates the response from a domain session.
func FromSession(s *auth.Session) AuthResponse {
	return AuthResponse{Account: FromAccount(s.Account)}
}
