package db

import (
	"time"
)

// Profile row. UserID is the platform id, never auto-incremented.
type Profile struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false"`
	Gender    string    `gorm:"size:16"`
	Age       int       `gorm:"not null;default:0"`
	Location  string    `gorm:"size:64"`
	Interest  string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Premium holds the referral counter and the end of the premium window.
// A zero PremiumUntil means never premium.
type Premium struct {
	UserID       int64 `gorm:"primaryKey;autoIncrement:false"`
	InviteCount  int   `gorm:"not null;default:0"`
	PremiumUntil time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Premium) TableName() string { return "premium_states" }

// Block represents "blocker never wants to meet blocked again".
//
// Composite PK: (BlockerID, BlockedID)
//   - Repeated /block on the same partner is a no-op.
//
// Indexes:
//   - idx_blocks_blocked(blocked_id) for the reverse direction on load.
type Block struct {
	BlockerID int64     `gorm:"primaryKey;autoIncrement:false"`
	BlockedID int64     `gorm:"primaryKey;autoIncrement:false;index:idx_blocks_blocked"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Referral is one accepted invite. InviteeID is the primary key so each
// person can be credited to at most one inviter, once.
type Referral struct {
	InviteeID int64     `gorm:"primaryKey;autoIncrement:false"`
	InviterID int64     `gorm:"not null;index:idx_referrals_inviter"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// SessionRecord archives a closed session. Only ids and timestamps are
// stored, never message content.
type SessionRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	UserA        int64     `gorm:"not null;index:idx_sessions_user_a"`
	UserB        int64     `gorm:"not null;index:idx_sessions_user_b"`
	StartedAt    time.Time `gorm:"not null"`
	LastActivity time.Time
	EndedAt      time.Time `gorm:"not null;index:idx_sessions_ended"`
}
