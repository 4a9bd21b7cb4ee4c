package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/anonchat/internal/db"
	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/premium"
)

// PremiumRepository persists referral counters and premium windows.
type PremiumRepository struct {
	db *gorm.DB
}

var _ premium.Persister = (*PremiumRepository)(nil)

func NewPremiumRepository(database *gorm.DB) *PremiumRepository {
	return &PremiumRepository{db: database}
}

// SavePremium upserts the full state; the in-memory gate is authoritative.
func (r *PremiumRepository) SavePremium(ctx context.Context, s domain.PremiumState) error {
	row := db.Premium{
		UserID:       int64(s.UserID),
		InviteCount:  s.InviteCount,
		PremiumUntil: s.PremiumUntil,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"invite_count", "premium_until", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *PremiumRepository) LoadPremium(ctx context.Context) ([]domain.PremiumState, error) {
	var rows []db.Premium
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PremiumState, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.PremiumState{
			UserID:       domain.UserID(row.UserID),
			InviteCount:  row.InviteCount,
			PremiumUntil: row.PremiumUntil,
		})
	}
	return out, nil
}
