package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/anonchat/internal/db"
	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/profile"
	"github.com/oggyb/anonchat/internal/repository"
	"github.com/oggyb/anonchat/internal/session"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// one connection keeps the in-memory database alive across queries
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestProfileRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	require.NoError(t, repo.SaveProfile(ctx, domain.Profile{UserID: 1, Gender: "Male"}))
	// overwrite with a complete profile
	full := domain.Profile{UserID: 1, Gender: "Male", Age: 33, Location: "Oslo", Interest: "ski"}
	require.NoError(t, repo.SaveProfile(ctx, full))
	require.NoError(t, repo.SaveProfile(ctx, domain.Profile{UserID: 2, Gender: "Female", Age: 20}))

	profiles, err := repo.LoadProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Contains(t, profiles, full)

	n, err := repo.CountComplete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteProfile(ctx, 1))
	require.NoError(t, repo.DeleteProfile(ctx, 1))
	profiles, err = repo.LoadProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestProfileRepository_Blocks(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	b := profile.Block{Blocker: 1, Blocked: 2}
	require.NoError(t, repo.SaveBlock(ctx, b))
	require.NoError(t, repo.SaveBlock(ctx, b))
	require.NoError(t, repo.SaveBlock(ctx, profile.Block{Blocker: 2, Blocked: 1}))

	blocks, err := repo.LoadBlocks(ctx)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
	assert.Contains(t, blocks, b)
}

func TestPremiumRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPremiumRepository(setupTestDB(t))
	until := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)

	require.NoError(t, repo.SavePremium(ctx, domain.PremiumState{UserID: 5, InviteCount: 4}))
	require.NoError(t, repo.SavePremium(ctx, domain.PremiumState{UserID: 5, InviteCount: 0, PremiumUntil: until}))

	states, err := repo.LoadPremium(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, 0, states[0].InviteCount)
	assert.True(t, until.Equal(states[0].PremiumUntil))
}

func TestReferralRepository_OncePerInvitee(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReferralRepository(setupTestDB(t))

	fresh, err := repo.Record(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.Record(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, fresh)

	// another inviter cannot claim the same invitee
	fresh, err = repo.Record(ctx, 2, 10)
	require.NoError(t, err)
	assert.False(t, fresh)

	_, err = repo.Record(ctx, 1, 11)
	require.NoError(t, err)

	n, err := repo.CountByInviter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSessionRepository(setupTestDB(t))
	start := time.Now().UTC().Add(-time.Hour)

	info := session.Info{ID: "s-1", UserA: 1, UserB: 2, CreatedAt: start, LastActivity: start}
	require.NoError(t, repo.Archive(ctx, info, start.Add(10*time.Minute)))
	require.NoError(t, repo.Archive(ctx, info, start.Add(20*time.Minute)))
	require.NoError(t, repo.Archive(ctx, session.Info{ID: "s-2", UserA: 2, UserB: 3, CreatedAt: start}, start.Add(50*time.Minute)))

	n, err := repo.CountSince(ctx, start)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountSince(ctx, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountByUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
