// Package session is the single source of truth for who is talking to whom.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/anonchat/internal/domain"
)

// ID identifies one pairing.
type ID string

// Info describes an active or just-closed session.
type Info struct {
	ID           ID
	UserA        domain.UserID
	UserB        domain.UserID
	CreatedAt    time.Time
	LastActivity time.Time
}

// Other returns the member of the session that is not id.
func (i Info) Other(id domain.UserID) domain.UserID {
	if i.UserA == id {
		return i.UserB
	}
	return i.UserA
}

// Has reports whether id is a member.
func (i Info) Has(id domain.UserID) bool { return i.UserA == id || i.UserB == id }

// Registry maps every paired user to its session. Both members always point
// at the same *Info; Open and Close update both pointers under one lock.
type Registry struct {
	mu      sync.RWMutex
	byUser  map[domain.UserID]*Info
	byID    map[ID]*Info
	now     func() time.Time
	onClose func(Info)
}

type Option func(*Registry)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// WithCloseHook is called with every closed session after the lock is released.
func WithCloseHook(fn func(Info)) Option { return func(r *Registry) { r.onClose = fn } }

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byUser: make(map[domain.UserID]*Info),
		byID:   make(map[ID]*Info),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open pairs a and b. It re-checks that neither is already paired even though
// the matchmaker checks first.
func (r *Registry) Open(a, b domain.UserID) (ID, error) {
	if a == b {
		return "", domain.ErrSelfPairing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[a]; ok {
		return "", fmt.Errorf("user %s: %w", a, domain.ErrAlreadyInSession)
	}
	if _, ok := r.byUser[b]; ok {
		return "", fmt.Errorf("user %s: %w", b, domain.ErrAlreadyInSession)
	}

	now := r.now()
	info := &Info{
		ID:           ID(uuid.NewString()),
		UserA:        a,
		UserB:        b,
		CreatedAt:    now,
		LastActivity: now,
	}
	r.byUser[a] = info
	r.byUser[b] = info
	r.byID[info.ID] = info
	return info.ID, nil
}

// PartnerOf returns the other member of id's session.
func (r *Registry) PartnerOf(id domain.UserID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byUser[id]
	if !ok {
		return 0, false
	}
	return info.Other(id), true
}

// Get returns a copy of id's session.
func (r *Registry) Get(id domain.UserID) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byUser[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

func (r *Registry) IsActive(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[id]
	return ok
}

// Close ends id's session and clears both members. Closing a user with no
// session is a no-op that returns false.
func (r *Registry) Close(id domain.UserID) (Info, bool) {
	r.mu.Lock()
	info, ok := r.byUser[id]
	if !ok {
		r.mu.Unlock()
		return Info{}, false
	}
	closed := r.removeLocked(info)
	r.mu.Unlock()

	r.closed(closed)
	return closed, true
}

// CloseSession ends the session only if it is still the one identified by sid,
// so a caller holding a stale id never closes a newer pairing.
func (r *Registry) CloseSession(sid ID) (Info, bool) {
	r.mu.Lock()
	info, ok := r.byID[sid]
	if !ok {
		r.mu.Unlock()
		return Info{}, false
	}
	closed := r.removeLocked(info)
	r.mu.Unlock()

	r.closed(closed)
	return closed, true
}

func (r *Registry) removeLocked(info *Info) Info {
	delete(r.byUser, info.UserA)
	delete(r.byUser, info.UserB)
	delete(r.byID, info.ID)
	return *info
}

func (r *Registry) closed(info Info) {
	if r.onClose != nil {
		r.onClose(info)
	}
}

// Touch records activity on id's session.
func (r *Registry) Touch(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.byUser[id]; ok {
		info.LastActivity = r.now()
	}
}

// Idle lists sessions with no activity for longer than threshold.
func (r *Registry) Idle(threshold time.Duration) []Info {
	cutoff := r.now().Add(-threshold)
	var out []Info
	r.eachSession(func(info *Info) {
		if info.LastActivity.Before(cutoff) {
			out = append(out, *info)
		}
	})
	return out
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Snapshot copies every active session.
func (r *Registry) Snapshot() []Info {
	var out []Info
	r.eachSession(func(info *Info) { out = append(out, *info) })
	return out
}

// eachSession visits every session once, under the read lock.
func (r *Registry) eachSession(fn func(*Info)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, info := range r.byID {
		fn(info)
	}
}
