package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/anonchat/internal/session"
)

// SessionStore is where closed sessions end up.
type SessionStore interface {
	Archive(ctx context.Context, info session.Info, endedAt time.Time) error
}

type closedSession struct {
	info    session.Info
	endedAt time.Time
}

// Archiver moves closed sessions to storage off the hot path. Enqueue never
// blocks; it is called from the registry's close hook, which may run while the
// matchmaker holds its lock.
type Archiver struct {
	store SessionStore
	queue chan closedSession
	log   *slog.Logger
	now   func() time.Time
}

func NewArchiver(store SessionStore, buffer int, log *slog.Logger) *Archiver {
	if buffer <= 0 {
		buffer = 256
	}
	return &Archiver{
		store: store,
		queue: make(chan closedSession, buffer),
		log:   log,
		now:   time.Now,
	}
}

// Enqueue drops the record with a warning when the buffer is full.
func (a *Archiver) Enqueue(info session.Info) {
	select {
	case a.queue <- closedSession{info: info, endedAt: a.now()}:
	default:
		a.log.Warn("archive queue full, dropping session", "session_id", info.ID)
	}
}

// Run stores queued sessions until ctx is cancelled, then drains what is left
// with a short deadline.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return
		case c := <-a.queue:
			a.archiveOne(ctx, c)
		}
	}
}

func (a *Archiver) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case c := <-a.queue:
			a.archiveOne(ctx, c)
		default:
			return
		}
	}
}

func (a *Archiver) archiveOne(ctx context.Context, c closedSession) {
	if err := a.store.Archive(ctx, c.info, c.endedAt); err != nil {
		a.log.Error("archive session failed", "session_id", c.info.ID, "err", err)
	}
}
