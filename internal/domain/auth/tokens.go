package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sessionhub/internal/core/id"
	"sessionhub/pkg/logger"
)

// ErrInvalidToken covers forged, malformed, expired and revoked tokens alike.
var ErrInvalidToken = errors.New("invalid token")

// JWTConfig holds signing configuration for both token kinds.
type JWTConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

// DefaultJWTConfig returns default lifetimes: 15 minutes and 30 days.
func DefaultJWTConfig(accessSecret, refreshSecret string) JWTConfig {
	return JWTConfig{
		AccessSecret:  accessSecret,
		AccessTTL:     15 * time.Minute,
		RefreshSecret: refreshSecret,
		RefreshTTL:    30 * 24 * time.Hour,
		Issuer:        "sessionhub",
	}
}

// Claims represents JWT claims. Only registered claims are used:
// sub (account id), jti, iat, exp, iss.
type Claims struct {
	jwt.RegisteredClaims
}

// RevocationStore records revoked token IDs until the token would have expired.
type RevocationStore interface {
	// Revoke marks (kind, jti) revoked until expiresAt. Already expired tokens are not written.
	Revoke(ctx context.Context, kind TokenKind, jti string, expiresAt time.Time) error

	// RevokeOnce writes the record only if none exists and reports whether this call wrote it.
	// Already expired tokens are not written and report false.
	RevokeOnce(ctx context.Context, kind TokenKind, jti string, expiresAt time.Time) (bool, error)

	// IsRevoked reports whether (kind, jti) was revoked.
	IsRevoked(ctx context.Context, kind TokenKind, jti string) (bool, error)
}

// TokenService signs and verifies access and refresh tokens.
type TokenService struct {
	config      JWTConfig
	revocations RevocationStore
	now         func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(config JWTConfig, revocations RevocationStore) *TokenService {
	return &TokenService{
		config:      config,
		revocations: revocations,
		now:         time.Now,
	}
}

// SignAccess issues an access token for the account.
func (s *TokenService) SignAccess(subject id.ID) (SignedToken, error) {
	return s.sign(subject, s.config.AccessSecret, s.config.AccessTTL)
}

// SignRefresh issues a refresh token for the account.
func (s *TokenService) SignRefresh(subject id.ID) (SignedToken, error) {
	return s.sign(subject, s.config.RefreshSecret, s.config.RefreshTTL)
}

// IssuePair issues a fresh access and refresh token.
func (s *TokenService) IssuePair(subject id.ID) (TokenPair, error) {
	access, err := s.SignAccess(subject)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.SignRefresh(subject)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) sign(subject id.ID, secret string, ttl time.Duration) (SignedToken, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	jti := id.NewTokenID()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.Issuer,
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	value, err := token.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return SignedToken{
		Value:     value,
		ID:        jti,
		ExpiresAt: claims.ExpiresAt.Time,
		TTL:       ttl,
	}, nil
}

// VerifyAccess checks an access token's signature, expiry and revocation state.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, token, TokenAccess, s.config.AccessSecret)
}

// VerifyRefresh checks a refresh token's signature, expiry and revocation state.
func (s *TokenService) VerifyRefresh(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, token, TokenRefresh, s.config.RefreshSecret)
}

func (s *TokenService) verify(ctx context.Context, tokenString string, kind TokenKind, secret string) (*Claims, error) {
	claims, err := s.parse(tokenString, secret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, kind, claims.ID)
	if err != nil {
		// Store unavailable: fail closed.
		logger.Warn(ctx, "revocation lookup failed", "kind", string(kind), "error", err)
		return nil, fmt.Errorf("%w: revocation lookup: %v", ErrInvalidToken, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	return claims, nil
}

func (s *TokenService) parse(tokenString, secret string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse token: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing jti or exp", ErrInvalidToken)
	}
	if _, err := id.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

// AccountID returns the subject as an account ID. Verified claims always carry a valid one.
func (c *Claims) AccountID() id.ID {
	v, _ := id.Parse(c.Subject)
	return v
}

// Revoke records the token as revoked for its remaining lifetime.
func (s *TokenService) Revoke(ctx context.Context, kind TokenKind, claims *Claims) error {
	return s.revocations.Revoke(ctx, kind, claims.ID, claims.ExpiresAt.Time)
}

// Consume revokes the token and reports whether this caller was the first to do so.
// Concurrent callers presenting the same token see true exactly once.
func (s *TokenService) Consume(ctx context.Context, kind TokenKind, claims *Claims) (bool, error) {
	return s.revocations.RevokeOnce(ctx, kind, claims.ID, claims.ExpiresAt.Time)
}
