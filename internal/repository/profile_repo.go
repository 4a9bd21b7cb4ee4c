package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/anonchat/internal/db"
	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/profile"
)

// ProfileRepository persists profiles and blocks. It implements
// profile.Persister.
type ProfileRepository struct {
	db *gorm.DB
}

var _ profile.Persister = (*ProfileRepository)(nil)

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// SaveProfile inserts or overwrites the row for p.UserID.
func (r *ProfileRepository) SaveProfile(ctx context.Context, p domain.Profile) error {
	row := db.Profile{
		UserID:   int64(p.UserID),
		Gender:   p.Gender,
		Age:      p.Age,
		Location: p.Location,
		Interest: p.Interest,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"gender", "age", "location", "interest", "updated_at"}),
		}).
		Create(&row).Error
}

// DeleteProfile removes the profile row. Deleting a missing row is not an error.
func (r *ProfileRepository) DeleteProfile(ctx context.Context, id domain.UserID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", int64(id)).
		Delete(&db.Profile{}).Error
}

// SaveBlock records a block; repeating it is a no-op.
func (r *ProfileRepository) SaveBlock(ctx context.Context, b profile.Block) error {
	row := db.Block{BlockerID: int64(b.Blocker), BlockedID: int64(b.Blocked)}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *ProfileRepository) LoadProfiles(ctx context.Context) ([]domain.Profile, error) {
	var rows []db.Profile
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Profile{
			UserID:   domain.UserID(row.UserID),
			Gender:   row.Gender,
			Age:      row.Age,
			Location: row.Location,
			Interest: row.Interest,
		})
	}
	return out, nil
}

func (r *ProfileRepository) LoadBlocks(ctx context.Context) ([]profile.Block, error) {
	var rows []db.Block
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]profile.Block, 0, len(rows))
	for _, row := range rows {
		out = append(out, profile.Block{
			Blocker: domain.UserID(row.BlockerID),
			Blocked: domain.UserID(row.BlockedID),
		})
	}
	return out, nil
}

// CountComplete returns how many stored profiles have every field set.
func (r *ProfileRepository) CountComplete(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("gender <> '' AND age > 0 AND location <> '' AND interest <> ''").
		Count(&count).Error
	return count, err
}
