package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/anonchat/internal/db"
	"github.com/oggyb/anonchat/internal/domain"
)

// ReferralRepository is the durable log of accepted invites.
type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(database *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: database}
}

// Record stores that invitee joined through inviter.
//
// Behavior:
//   - Returns true only the first time an invitee is recorded.
//   - A second attempt for the same invitee, by any inviter, returns false
//     and changes nothing.
//
// Example:
//
//	fresh, err := repo.Record(ctx, 1, 2) // user 2 joined via user 1
func (r *ReferralRepository) Record(ctx context.Context, inviter, invitee domain.UserID) (bool, error) {
	row := db.Referral{InviteeID: int64(invitee), InviterID: int64(inviter)}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByInviter returns the lifetime number of people inviter brought in.
func (r *ReferralRepository) CountByInviter(ctx context.Context, inviter domain.UserID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Referral{}).
		Where("inviter_id = ?", int64(inviter)).
		Count(&count).Error
	return count, err
}
