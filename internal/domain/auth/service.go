package auth

import (
	"context"
	"fmt"
	"unicode/utf8"

	"sessionhub/internal/core/apperror"
	appctx "sessionhub/internal/core/context"
	"sessionhub/internal/core/id"
	"sessionhub/internal/core/tx"
	"sessionhub/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	DefaultRole       string
	UsernameMinLength int
	UsernameMaxLength int
	PasswordMinLength int
	PasswordMaxLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultRole:       RoleUser,
		UsernameMinLength: 3,
		UsernameMaxLength: 32,
		PasswordMinLength: 8,
		PasswordMaxLength: 128,
	}
}

// Service orchestrates registration, login and session lifecycle.
type Service struct {
	accounts  AccountRepository
	roles     RoleRepository
	txManager tx.Manager
	tokens    *TokenService
	hasher    *PasswordHasher
	config    ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	accounts AccountRepository,
	roles RoleRepository,
	txManager tx.Manager,
	tokens *TokenService,
	hasher *PasswordHasher,
	config ServiceConfig,
) *Service {
	return &Service{
		accounts:  accounts,
		roles:     roles,
		txManager: txManager,
		tokens:    tokens,
		hasher:    hasher,
		config:    config,
	}
}

// Register creates an account, assigns the default role when it exists and issues a token pair.
func (s *Service) Register(ctx context.Context, creds Credentials) (*Session, error) {
	if err := s.validate(creds); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := NewAccount(creds.Username, passwordHash)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		return s.assignDefaultRole(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	logger.Info(ctx, "account registered",
		"account_id", account.ID,
		"username", account.Username)

	return &Session{Account: account, Tokens: tokens}, nil
}

func (s *Service) assignDefaultRole(ctx context.Context, account *Account) error {
	if s.config.DefaultRole == "" {
		return nil
	}

	role, err := s.roles.GetByKey(ctx, s.config.DefaultRole)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "default role missing, account left without roles",
				"role", s.config.DefaultRole,
				"account_id", account.ID)
			return nil
		}
		return fmt.Errorf("load default role: %w", err)
	}

	if err := s.accounts.AssignRole(ctx, account.ID, role.ID, nil); err != nil {
		return fmt.Errorf("assign default role: %w", err)
	}
	return nil
}

// Login verifies credentials and issues a token pair.
// Unknown and soft-deleted accounts fail with the same INVALID_CREDENTIALS error.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if err := s.validate(creds); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByUsername(ctx, creds.Username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewInvalidCredentials()
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if account.IsDeleted() {
		return nil, apperror.NewInvalidCredentials()
	}
	if account.IsBanned {
		return nil, apperror.NewBanned()
	}

	if !s.hasher.Verify(account.PasswordHash, creds.Password) {
		return nil, apperror.NewInvalidCredentials()
	}

	tokens, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	logger.Info(ctx, "account logged in",
		"account_id", account.ID,
		"username", account.Username)

	return &Session{Account: account, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented refresh token is revoked;
// of concurrent refreshes with the same token only one succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperror.NewUnauthorized("Missing refresh token")
	}

	claims, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, apperror.NewUnauthorized("Invalid or expired refresh token").WithCause(err)
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID())
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("Invalid or expired refresh token").WithCause(err)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if account.IsDeleted() {
		return nil, apperror.NewUnauthorized("Invalid or expired refresh token")
	}
	if account.IsBanned {
		return nil, apperror.NewBanned()
	}

	consumed, err := s.tokens.Consume(ctx, TokenRefresh, claims)
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !consumed {
		return nil, apperror.NewUnauthorized("Invalid or expired refresh token")
	}

	tokens, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	logger.Debug(ctx, "session refreshed", "account_id", account.ID)

	return &Session{Account: account, Tokens: tokens}, nil
}

// Logout revokes whichever of the presented tokens are still valid.
// Invalid tokens are skipped and revocation failures are only logged.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) {
	s.revokePresented(ctx, TokenAccess, accessToken)
	s.revokePresented(ctx, TokenRefresh, refreshToken)
}

func (s *Service) revokePresented(ctx context.Context, kind TokenKind, token string) {
	if token == "" {
		return
	}

	var (
		claims *Claims
		err    error
	)
	if kind == TokenAccess {
		claims, err = s.tokens.VerifyAccess(ctx, token)
	} else {
		claims, err = s.tokens.VerifyRefresh(ctx, token)
	}
	if err != nil {
		return
	}

	if err := s.tokens.Revoke(ctx, kind, claims); err != nil {
		logger.Warn(ctx, "failed to revoke token on logout",
			"kind", string(kind),
			"error", err)
	}
}

// AssignRole grants a role to an account. The acting principal is recorded as assigner.
func (s *Service) AssignRole(ctx context.Context, accountID id.ID, roleKey string) error {
	var assignedBy *id.ID
	if p, ok := appctx.GetPrincipal(ctx); ok {
		actor := p.AccountID
		assignedBy = &actor
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
			return err
		}

		role, err := s.roles.GetByKey(ctx, roleKey)
		if err != nil {
			return err
		}

		return s.accounts.AssignRole(ctx, accountID, role.ID, assignedBy)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "role assigned",
		"target_account_id", accountID,
		"role", roleKey)

	return nil
}

// SetBanned bans or unbans an account. An account cannot ban itself.
func (s *Service) SetBanned(ctx context.Context, accountID id.ID, banned bool) error {
	if banned && appctx.GetAccountID(ctx) == accountID {
		return apperror.NewValidation("cannot ban own account")
	}

	if err := s.accounts.SetBanned(ctx, accountID, banned); err != nil {
		return err
	}

	logger.Info(ctx, "ban flag updated",
		"target_account_id", accountID,
		"banned", banned)

	return nil
}

func (s *Service) validate(creds Credentials) error {
	if n := utf8.RuneCountInString(creds.Username); n < s.config.UsernameMinLength || n > s.config.UsernameMaxLength {
		return apperror.NewValidation(
			fmt.Sprintf("username must be %d-%d characters", s.config.UsernameMinLength, s.config.UsernameMaxLength),
		).WithDetail("field", "username")
	}
	if n := utf8.RuneCountInString(creds.Password); n < s.config.PasswordMinLength || n > s.config.PasswordMaxLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be %d-%d characters", s.config.PasswordMinLength, s.config.PasswordMaxLength),
		).WithDetail("field", "password")
	}
	return nil
}
