package auth

import "time"

// SetClock replaces the time source used to sign and verify tokens.
func (s *TokenService) SetClock(now func() time.Time) { s.now = now }
