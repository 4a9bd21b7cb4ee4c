package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/anonchat/internal/db"
	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/session"
)

// SessionRepository archives closed sessions for stats. Rows are write-once.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(database *gorm.DB) *SessionRepository {
	return &SessionRepository{db: database}
}

// Archive stores info as ended at endedAt. Archiving the same id twice keeps
// the first row.
func (r *SessionRepository) Archive(ctx context.Context, info session.Info, endedAt time.Time) error {
	row := db.SessionRecord{
		ID:           string(info.ID),
		UserA:        int64(info.UserA),
		UserB:        int64(info.UserB),
		StartedAt:    info.CreatedAt,
		LastActivity: info.LastActivity,
		EndedAt:      endedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// CountSince returns how many sessions ended at or after since.
func (r *SessionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.SessionRecord{}).
		Where("ended_at >= ?", since).
		Count(&count).Error
	return count, err
}

// CountByUser returns how many sessions id has taken part in.
func (r *SessionRepository) CountByUser(ctx context.Context, id domain.UserID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.SessionRecord{}).
		Where("user_a = ? OR user_b = ?", int64(id), int64(id)).
		Count(&count).Error
	return count, err
}
