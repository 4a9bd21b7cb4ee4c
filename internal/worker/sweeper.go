// Package worker runs the background loops: closing idle sessions and
// archiving closed ones.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/anonchat/internal/session"
)

// IdleSessions is the part of the registry the sweeper needs.
type IdleSessions interface {
	Idle(threshold time.Duration) []session.Info
	CloseSession(sid session.ID) (session.Info, bool)
}

// Notifier tells both members that their session timed out.
type Notifier interface {
	SessionExpired(ctx context.Context, info session.Info)
}

// Sweeper closes sessions with no relayed message for longer than Timeout.
type Sweeper struct {
	sessions IdleSessions
	notify   Notifier
	timeout  time.Duration
	log      *slog.Logger
}

func NewSweeper(sessions IdleSessions, notify Notifier, timeout time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{sessions: sessions, notify: notify, timeout: timeout, log: log}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				s.log.Info("idle sessions closed", "count", n)
			}
		}
	}
}

// Sweep closes every idle session once and returns how many it closed.
// A session that was closed meanwhile by its users is skipped.
func (s *Sweeper) Sweep(ctx context.Context) int {
	closed := 0
	for _, info := range s.sessions.Idle(s.timeout) {
		got, ok := s.sessions.CloseSession(info.ID)
		if !ok {
			continue
		}
		closed++
		if s.notify != nil {
			s.notify.SessionExpired(ctx, got)
		}
	}
	return closed
}
