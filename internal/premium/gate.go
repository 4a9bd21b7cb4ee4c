// Package premium tracks referral counters and premium windows.
//
// The model is a plain counter with a threshold: every Threshold referrals
// grant one Duration of premium and reset the counter to zero. There is no
// partial credit and the counter never decays.
package premium

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/anonchat/internal/domain"
)

const (
	DefaultThreshold = 5
	DefaultDuration  = 24 * time.Hour
)

// Persister mirrors premium state to durable storage.
type Persister interface {
	SavePremium(ctx context.Context, s domain.PremiumState) error
	LoadPremium(ctx context.Context) ([]domain.PremiumState, error)
}

// Gate is safe for concurrent use.
type Gate struct {
	mu        sync.RWMutex
	states    map[domain.UserID]*domain.PremiumState
	allow     map[domain.UserID]struct{}
	threshold int
	duration  time.Duration

	now     func() time.Time
	persist Persister
	log     *slog.Logger
}

type Option func(*Gate)

func WithThreshold(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.threshold = n
		}
	}
}

func WithDuration(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.duration = d
		}
	}
}

// WithAllowList marks ids as permanently premium.
func WithAllowList(ids ...domain.UserID) Option {
	return func(g *Gate) {
		for _, id := range ids {
			g.allow[id] = struct{}{}
		}
	}
}

func WithClock(now func() time.Time) Option { return func(g *Gate) { g.now = now } }

func WithPersister(p Persister) Option { return func(g *Gate) { g.persist = p } }

func WithLogger(l *slog.Logger) Option { return func(g *Gate) { g.log = l } }

func NewGate(opts ...Option) *Gate {
	g := &Gate{
		states:    make(map[domain.UserID]*domain.PremiumState),
		allow:     make(map[domain.UserID]struct{}),
		threshold: DefaultThreshold,
		duration:  DefaultDuration,
		now:       time.Now,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Threshold is the number of referrals that earn one premium window.
func (g *Gate) Threshold() int { return g.threshold }

// Duration is the length of one earned window.
func (g *Gate) Duration() time.Duration { return g.duration }

// Load warms memory from the persister.
func (g *Gate) Load(ctx context.Context) error {
	if g.persist == nil {
		return nil
	}
	states, err := g.persist.LoadPremium(ctx)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range states {
		s := states[i]
		g.states[s.UserID] = &s
	}
	return nil
}

// RecordReferral credits inviter with one referral. It returns true when this
// referral reached the threshold and opened (or extended) a premium window;
// the caller should then tell the inviter.
func (g *Gate) RecordReferral(ctx context.Context, inviter domain.UserID) (bool, error) {
	g.mu.Lock()
	s := g.stateLocked(inviter)
	s.InviteCount++
	granted := false
	if s.InviteCount >= g.threshold {
		s.InviteCount = 0
		g.extendLocked(s, g.duration)
		granted = true
	}
	snapshot := *s
	g.mu.Unlock()

	if granted {
		g.log.Info("premium granted by referrals", "user_id", inviter, "until", snapshot.PremiumUntil)
	}
	return granted, g.save(ctx, snapshot)
}

// GrantPremium extends the user's window by d, starting from now if the
// current window has already lapsed.
func (g *Gate) GrantPremium(ctx context.Context, id domain.UserID, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	g.mu.Lock()
	s := g.stateLocked(id)
	g.extendLocked(s, d)
	snapshot := *s
	g.mu.Unlock()

	g.log.Info("premium granted", "user_id", id, "until", snapshot.PremiumUntil)
	return g.save(ctx, snapshot)
}

// IsPremium reports whether id may use search filters right now.
func (g *Gate) IsPremium(id domain.UserID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.allow[id]; ok {
		return true
	}
	s, ok := g.states[id]
	return ok && s.ActiveAt(g.now())
}

// State returns a copy of id's counters. Allow-listed users report Forever.
func (g *Gate) State(id domain.UserID) domain.PremiumState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := domain.PremiumState{UserID: id}
	if s, ok := g.states[id]; ok {
		out = *s
	}
	if _, ok := g.allow[id]; ok {
		out.PremiumUntil = domain.Forever
	}
	return out
}

// Remaining is how many more referrals id needs for the next window.
func (g *Gate) Remaining(id domain.UserID) int {
	return g.threshold - g.State(id).InviteCount
}

func (g *Gate) stateLocked(id domain.UserID) *domain.PremiumState {
	s, ok := g.states[id]
	if !ok {
		s = &domain.PremiumState{UserID: id}
		g.states[id] = s
	}
	return s
}

func (g *Gate) extendLocked(s *domain.PremiumState, d time.Duration) {
	start := g.now()
	if s.PremiumUntil.After(start) {
		start = s.PremiumUntil
	}
	s.PremiumUntil = start.Add(d)
}

func (g *Gate) save(ctx context.Context, s domain.PremiumState) error {
	if g.persist == nil {
		return nil
	}
	if err := g.persist.SavePremium(ctx, s); err != nil {
		g.log.Error("persist premium failed", "user_id", s.UserID, "err", err)
		return err
	}
	return nil
}
