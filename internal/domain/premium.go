package domain

import "time"

// Forever stands in for an unbounded premium window (allow-listed users).
var Forever = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// PremiumState is the referral counter and premium window of one user.
type PremiumState struct {
	UserID       UserID
	InviteCount  int
	PremiumUntil time.Time
}

// ActiveAt reports whether the window is open at t.
func (s PremiumState) ActiveAt(t time.Time) bool {
	return t.Before(s.PremiumUntil)
}
