// Package matchmaker owns the waiting queue and pairs users.
//
// Matching is first-in-first-out: the earliest waiting candidate that passes
// the mutual filter check wins. There is no scoring. Every operation that
// reads and mutates the queue runs as one critical section, so two concurrent
// requests can never select the same candidate.
//
// Queue entries whose profile has become incomplete since they were queued
// are not purged eagerly. The next scan that reaches them drops them. This
// keeps profile edits off the matchmaker lock.
package matchmaker

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/anonchat/internal/domain"
	"github.com/oggyb/anonchat/internal/session"
)

// Profiles is the read side of the profile store.
type Profiles interface {
	Lookup(id domain.UserID) (domain.Profile, bool)
	IsBlocked(a, b domain.UserID) bool
}

// Sessions is the part of the session registry the matchmaker drives.
type Sessions interface {
	Open(a, b domain.UserID) (session.ID, error)
	Close(id domain.UserID) (session.Info, bool)
	IsActive(id domain.UserID) bool
}

// PremiumChecker decides whether a filtered search is allowed.
type PremiumChecker interface {
	IsPremium(id domain.UserID) bool
}

type Status int

const (
	Queued Status = iota + 1
	Matched
)

func (s Status) String() string {
	switch s {
	case Queued:
		return "queued"
	case Matched:
		return "matched"
	}
	return "unknown"
}

// MatchResult tells the caller who to notify. The matchmaker never sends
// anything itself.
type MatchResult struct {
	Status    Status
	Partner   domain.UserID
	SessionID session.ID
	Filter    domain.Filter
}

// NextResult is the outcome of leaving the current partner and searching again.
type NextResult struct {
	// Closed is the session that was ended, valid when HadSession is true.
	Closed     session.Info
	HadSession bool
	Match      MatchResult
}

// FormerPartner returns the user that must be told their partner left.
func (r NextResult) FormerPartner(self domain.UserID) (domain.UserID, bool) {
	if !r.HadSession {
		return 0, false
	}
	return r.Closed.Other(self), true
}

// StopResult is the outcome of Stop.
type StopResult struct {
	Closed     session.Info
	HadSession bool
	WasQueued  bool
}

type Matchmaker struct {
	mu      sync.Mutex
	queue   *queue
	filters map[domain.UserID]domain.Filter

	profiles Profiles
	sessions Sessions
	premium  PremiumChecker

	now func() time.Time
	log *slog.Logger
}

type Option func(*Matchmaker)

func WithClock(now func() time.Time) Option { return func(m *Matchmaker) { m.now = now } }

func WithLogger(l *slog.Logger) Option { return func(m *Matchmaker) { m.log = l } }

func New(profiles Profiles, sessions Sessions, premium PremiumChecker, opts ...Option) *Matchmaker {
	m := &Matchmaker{
		queue:    newQueue(),
		filters:  make(map[domain.UserID]domain.Filter),
		profiles: profiles,
		sessions: sessions,
		premium:  premium,
		now:      time.Now,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// RequestMatch pairs id with the earliest compatible waiting user, or queues
// id when there is none. A user that is already queued is re-queued at the
// back with the new filter. A rejected request leaves the queue untouched.
func (m *Matchmaker) RequestMatch(id domain.UserID, filter domain.Filter) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestLocked(id, filter)
}

// CancelSearch removes id from the queue. It reports whether id was waiting;
// calling it for a user that is not queued is a no-op.
func (m *Matchmaker) CancelSearch(id domain.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.remove(id)
}

// Requeue restarts id's search. A nil filter reuses the filter of id's
// previous request.
func (m *Matchmaker) Requeue(id domain.UserID, filter *domain.Filter) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requeueLocked(id, filter)
}

// Next ends id's current session, if any, and searches again. When the search
// itself is rejected the session stays closed and the error is returned
// together with the closed session so the former partner can still be told.
func (m *Matchmaker) Next(id domain.UserID, filter *domain.Filter) (NextResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res NextResult
	res.Closed, res.HadSession = m.sessions.Close(id)
	if res.HadSession {
		m.log.Debug("session closed by next", "user_id", id, "session_id", res.Closed.ID)
	}

	match, err := m.requeueLocked(id, filter)
	res.Match = match
	return res, err
}

// Stop ends id's session, or cancels its search when it is only waiting.
func (m *Matchmaker) Stop(id domain.UserID) StopResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res StopResult
	res.Closed, res.HadSession = m.sessions.Close(id)
	res.WasQueued = m.queue.remove(id)
	return res
}

// Forget drops everything the matchmaker remembers about id. Used when a
// profile is reset.
func (m *Matchmaker) Forget(id domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.remove(id)
	delete(m.filters, id)
}

func (m *Matchmaker) IsQueued(id domain.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.contains(id)
}

func (m *Matchmaker) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.len()
}

// Waiting returns the queue in insertion order.
func (m *Matchmaker) Waiting() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.snapshot()
}

// LastFilter returns the filter of id's most recent accepted request.
func (m *Matchmaker) LastFilter(id domain.UserID) domain.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters[id]
}

func (m *Matchmaker) requeueLocked(id domain.UserID, filter *domain.Filter) (MatchResult, error) {
	f := m.filters[id]
	if filter != nil {
		f = *filter
	}
	return m.requestLocked(id, f)
}

func (m *Matchmaker) requestLocked(id domain.UserID, filter domain.Filter) (MatchResult, error) {
	self, ok := m.profiles.Lookup(id)
	if !ok || !self.IsComplete() {
		return MatchResult{}, domain.ErrProfileIncomplete
	}
	if m.sessions.IsActive(id) {
		return MatchResult{}, domain.ErrAlreadyInSession
	}
	if !filter.IsEmpty() && !m.premium.IsPremium(id) {
		return MatchResult{}, domain.ErrPremiumRequired
	}

	m.queue.remove(id)
	m.filters[id] = filter

	for i := 0; i < m.queue.len(); {
		cand := m.queue.entries[i]

		other, ok := m.profiles.Lookup(cand.UserID)
		if !ok || !other.IsComplete() || m.sessions.IsActive(cand.UserID) {
			m.queue.removeAt(i)
			m.log.Debug("dropped stale queue entry", "user_id", cand.UserID)
			continue
		}

		if !m.eligible(self, filter, other, cand.Filter) {
			i++
			continue
		}

		m.queue.removeAt(i)
		sid, err := m.sessions.Open(id, cand.UserID)
		if err != nil {
			m.queue.insertAt(i, cand)
			return MatchResult{}, fmt.Errorf("open session: %w", err)
		}

		m.log.Info("users matched",
			"user_id", id,
			"partner_id", cand.UserID,
			"session_id", sid,
			"waited", m.now().Sub(cand.QueuedAt).String(),
		)
		return MatchResult{Status: Matched, Partner: cand.UserID, SessionID: sid, Filter: filter}, nil
	}

	m.queue.push(Entry{UserID: id, Filter: filter, QueuedAt: m.now()})
	m.log.Debug("user queued", "user_id", id, "filter", filter.String(), "queue_len", m.queue.len())
	return MatchResult{Status: Queued, Filter: filter}, nil
}

// eligible is the mutual check: each side's filter must accept the other
// side's profile, and neither may have blocked the other.
func (m *Matchmaker) eligible(self domain.Profile, selfFilter domain.Filter, other domain.Profile, otherFilter domain.Filter) bool {
	if self.UserID == other.UserID {
		return false
	}
	if !selfFilter.SatisfiedBy(other) {
		return false
	}
	if !otherFilter.SatisfiedBy(self) {
		return false
	}
	return !m.profiles.IsBlocked(self.UserID, other.UserID)
}
