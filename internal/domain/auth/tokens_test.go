package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionhub/internal/core/id"
	"sessionhub/internal/domain/auth"
)

func TestTokenService_SignAndVerify(t *testing.T) {
	clock := newTestClock()
	svc, _ := newTestTokenService(clock)
	ctx := context.Background()
	subject := id.New()

	access, err := svc.SignAccess(subject)
	require.NoError(t, err)
	assert.True(t, clock.Now().Add(15*time.Minute).Equal(access.ExpiresAt))
	assert.Equal(t, 15*time.Minute, access.TTL)

	claims, err := svc.VerifyAccess(ctx, access.Value)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.AccountID())
	assert.Equal(t, access.ID, claims.ID)
	assert.True(t, clock.Now().Equal(claims.IssuedAt.Time))

	refresh, err := svc.SignRefresh(subject)
	require.NoError(t, err)
	assert.True(t, clock.Now().Add(30*24*time.Hour).Equal(refresh.ExpiresAt))

	_, err = svc.VerifyRefresh(ctx, refresh.Value)
	require.NoError(t, err)
}

func TestTokenService_FreshIDPerToken(t *testing.T) {
	svc, _ := newTestTokenService(newTestClock())
	subject := id.New()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		tok, err := svc.SignAccess(subject)
		require.NoError(t, err)
		assert.False(t, seen[tok.ID], "jti reused")
		seen[tok.ID] = true
	}
}

func TestTokenService_KindsUseDistinctSecrets(t *testing.T) {
	svc, _ := newTestTokenService(newTestClock())
	ctx := context.Background()

	pair, err := svc.IssuePair(id.New())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = svc.VerifyRefresh(ctx, pair.Access.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := newTestClock()
	svc, _ := newTestTokenService(clock)
	ctx := context.Background()

	tok, err := svc.SignAccess(id.New())
	require.NoError(t, err)

	clock.Advance(14 * time.Minute)
	_, err = svc.VerifyAccess(ctx, tok.Value)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.VerifyAccess(ctx, tok.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_Revoked(t *testing.T) {
	clock := newTestClock()
	svc, revs := newTestTokenService(clock)
	ctx := context.Background()

	pair, err := svc.IssuePair(id.New())
	require.NoError(t, err)

	claims, err := svc.VerifyRefresh(ctx, pair.Refresh.Value)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, auth.TokenRefresh, claims))
	assert.Equal(t, 1, revs.Writes())

	_, err = svc.VerifyRefresh(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Same jti namespace is per kind; the access token is unaffected.
	_, err = svc.VerifyAccess(ctx, pair.Access.Value)
	assert.NoError(t, err)
}

func TestTokenService_ConsumeOnce(t *testing.T) {
	svc, revs := newTestTokenService(newTestClock())
	ctx := context.Background()

	pair, err := svc.IssuePair(id.New())
	require.NoError(t, err)
	claims, err := svc.VerifyRefresh(ctx, pair.Refresh.Value)
	require.NoError(t, err)

	first, err := svc.Consume(ctx, auth.TokenRefresh, claims)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := svc.Consume(ctx, auth.TokenRefresh, claims)
	require.NoError(t, err)
	assert.False(t, again)
	assert.Equal(t, 1, revs.Writes())

	_, err = svc.VerifyRefresh(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_StoreUnavailableFailsClosed(t *testing.T) {
	svc, revs := newTestTokenService(newTestClock())
	tok, err := svc.SignAccess(id.New())
	require.NoError(t, err)

	revs.Fail(errors.New("dial tcp: connection refused"))

	_, err = svc.VerifyAccess(context.Background(), tok.Value)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RejectsMalformed(t *testing.T) {
	clock := newTestClock()
	svc, _ := newTestTokenService(clock)
	ctx := context.Background()

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(clock.Now().Add(time.Minute))
	sub := id.New().String()

	cases := map[string]string{
		"garbage": "not.a.jwt",
		"missing jti": sign(jwt.RegisteredClaims{
			Subject: sub, Issuer: "sessionhub", ExpiresAt: exp,
		}, jwt.SigningMethodHS256, []byte(testAccessSecret)),
		"missing exp": sign(jwt.RegisteredClaims{
			ID: "abc", Subject: sub, Issuer: "sessionhub",
		}, jwt.SigningMethodHS256, []byte(testAccessSecret)),
		"wrong secret": sign(jwt.RegisteredClaims{
			ID: "abc", Subject: sub, Issuer: "sessionhub", ExpiresAt: exp,
		}, jwt.SigningMethodHS256, []byte("another-secret-another-secret-another")),
		"wrong algorithm": sign(jwt.RegisteredClaims{
			ID: "abc", Subject: sub, Issuer: "sessionhub", ExpiresAt: exp,
		}, jwt.SigningMethodHS512, []byte(testAccessSecret)),
		"none algorithm": sign(jwt.RegisteredClaims{
			ID: "abc", Subject: sub, Issuer: "sessionhub", ExpiresAt: exp,
		}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"subject not uuid": sign(jwt.RegisteredClaims{
			ID: "abc", Subject: "42", Issuer: "sessionhub", ExpiresAt: exp,
		}, jwt.SigningMethodHS256, []byte(testAccessSecret)),
		"foreign issuer": sign(jwt.RegisteredClaims{
			ID: "abc", Subject: sub, Issuer: "elsewhere", ExpiresAt: exp,
		}, jwt.SigningMethodHS256, []byte(testAccessSecret)),
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifyAccess(ctx, tok)
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	svc, _ := newTestTokenService(newTestClock())
	tok, err := svc.SignAccess(id.New())
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "AA"

	_, err = svc.VerifyAccess(context.Background(), strings.Join(parts, "."))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
