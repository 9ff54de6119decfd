package auth_test

import (
	"sync"
	"time"

	"sessionhub/internal/domain/auth"
	"sessionhub/internal/domain/auth/authtest"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

const (
	testAccessSecret  = "access-secret-0123456789abcdefghijklmnop"
	testRefreshSecret = "refresh-secret-0123456789abcdefghijklmno"
)

func newTestTokenService(clock *testClock) (*auth.TokenService, *authtest.Revocations) {
	revs := authtest.NewRevocationsAt(clock.Now)
	svc := auth.NewTokenService(auth.DefaultJWTConfig(testAccessSecret, testRefreshSecret), revs)
	svc.SetClock(clock.Now)
	return svc, revs
}
