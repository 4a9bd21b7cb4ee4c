package app

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/anonchat/internal/cache"
	"github.com/oggyb/anonchat/internal/config"
	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/matchmaker"
	"github.com/oggyb/anonchat/internal/premium"
	"github.com/oggyb/anonchat/internal/profile"
	"github.com/oggyb/anonchat/internal/repository"
	"github.com/oggyb/anonchat/internal/session"
	"github.com/oggyb/anonchat/internal/utils/reftoken"
	"github.com/oggyb/anonchat/internal/worker"
)

// AppContext holds shared dependencies (DB, Redis, Logger) and the core
// components every adapter drives.
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	Profiles   *profile.Store
	Sessions   *session.Registry
	Matchmaker *matchmaker.Matchmaker
	Premium    *premium.Gate

	ProfileRepo *repository.ProfileRepository
	Referrals   *repository.ReferralRepository
	History     *repository.SessionRepository
	Archiver    *worker.Archiver
	Tokens      *reftoken.Codec
}

// New wires the core on top of db and rdb. It performs no I/O; call Load
// before serving.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	a := &AppContext{
		Config:      cfg,
		DB:          db,
		RedisCache:  rdb,
		Logger:      logger,
		ProfileRepo: repository.NewProfileRepository(db),
		Referrals:   repository.NewReferralRepository(db),
		History:     repository.NewSessionRepository(db),
		Tokens:      reftoken.New(cfg.Auth.ReferralSecret),
	}
	a.Archiver = worker.NewArchiver(a.History, 0, logger.With("worker", "archiver"))

	a.Profiles = profile.New(
		profile.WithPersister(a.ProfileRepo),
		profile.WithLogger(logger),
	)

	admins := make([]domain.UserID, 0, len(cfg.Match.AdminIDs))
	for _, id := range cfg.Match.AdminIDs {
		admins = append(admins, domain.UserID(id))
	}
	a.Premium = premium.NewGate(
		premium.WithThreshold(cfg.Match.ReferralThreshold),
		premium.WithDuration(cfg.Match.PremiumDuration),
		premium.WithAllowList(admins...),
		premium.WithPersister(repository.NewPremiumRepository(db)),
		premium.WithLogger(logger),
	)

	a.Sessions = session.NewRegistry(session.WithCloseHook(a.Archiver.Enqueue))
	a.Matchmaker = matchmaker.New(a.Profiles, a.Sessions, a.Premium, matchmaker.WithLogger(logger))
	return a
}

// Load warms profiles, blocks and premium state from the database.
func (a *AppContext) Load(ctx context.Context) error {
	if err := a.Profiles.Load(ctx); err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	if err := a.Premium.Load(ctx); err != nil {
		return fmt.Errorf("load premium: %w", err)
	}
	return nil
}

// IsAdmin reports whether id is listed in ADMIN_IDS.
func (a *AppContext) IsAdmin(id domain.UserID) bool {
	for _, admin := range a.Config.Match.AdminIDs {
		if domain.UserID(admin) == id {
			return true
		}
	}
	return false
}

// CountMatch bumps the match counter. Counter failures are logged, never
// surfaced: a pairing is already made by the time this runs.
func (a *AppContext) CountMatch(ctx context.Context) {
	if _, err := a.RedisCache.IncrMatches(ctx); err != nil {
		a.Logger.Warn("match counter not updated", "err", err)
	}
}
