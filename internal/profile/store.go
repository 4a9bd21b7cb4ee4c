// Package profile keeps the self-reported attributes of every user and the
// block list. Memory is authoritative; an optional Persister mirrors writes to
// durable storage after the in-memory update has been made.
package profile

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/anonchat/internal/domain"
)

// Block records that Blocker does not want to meet Blocked again.
type Block struct {
	Blocker domain.UserID
	Blocked domain.UserID
}

// Persister mirrors profile state to durable storage.
type Persister interface {
	SaveProfile(ctx context.Context, p domain.Profile) error
	DeleteProfile(ctx context.Context, id domain.UserID) error
	SaveBlock(ctx context.Context, b Block) error
	LoadProfiles(ctx context.Context) ([]domain.Profile, error)
	LoadBlocks(ctx context.Context) ([]Block, error)
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*domain.Profile
	blocks   map[domain.UserID]map[domain.UserID]struct{}

	persist  Persister
	validate *validator.Validate
	log      *slog.Logger
}

type Option func(*Store)

// WithPersister mirrors every mutation to p.
func WithPersister(p Persister) Option { return func(s *Store) { s.persist = p } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

func New(opts ...Option) *Store {
	s := &Store{
		profiles: make(map[domain.UserID]*domain.Profile),
		blocks:   make(map[domain.UserID]map[domain.UserID]struct{}),
		validate: newValidator(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load warms the in-memory state from the persister. Call once at startup.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	profiles, err := s.persist.LoadProfiles(ctx)
	if err != nil {
		return err
	}
	blocks, err := s.persist.LoadBlocks(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range profiles {
		p := profiles[i]
		s.profiles[p.UserID] = &p
	}
	for _, b := range blocks {
		s.addBlockLocked(b)
	}
	s.log.Info("profiles loaded", "profiles", len(profiles), "blocks", len(blocks))
	return nil
}

// Get returns the profile of id, creating a blank one on first access.
func (s *Store) Get(id domain.UserID) domain.Profile {
	s.mu.RLock()
	if p, ok := s.profiles[id]; ok {
		defer s.mu.RUnlock()
		return *p
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreateLocked(id)
}

// Lookup returns the profile without creating it.
func (s *Store) Lookup(id domain.UserID) (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, false
	}
	return *p, true
}

// SetField validates raw and stores it. Unknown fields yield ErrUnknownField;
// bad user input yields ErrInvalidAge, ErrInvalidGender or ErrInvalidValue and
// leaves the profile untouched.
func (s *Store) SetField(ctx context.Context, id domain.UserID, field domain.Field, raw string) error {
	s.mu.Lock()
	p := s.getOrCreateLocked(id)
	next := *p
	if err := apply(s.validate, &next, field, raw); err != nil {
		s.mu.Unlock()
		return err
	}
	*p = next
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.SaveProfile(ctx, next); err != nil {
			s.log.Error("persist profile failed", "user_id", id, "err", err)
			return err
		}
	}
	return nil
}

func (s *Store) IsComplete(id domain.UserID) bool {
	p, ok := s.Lookup(id)
	return ok && p.IsComplete()
}

// NextMissing returns the next field the setup form should ask for.
func (s *Store) NextMissing(id domain.UserID) (domain.Field, bool) {
	return s.Get(id).Missing()
}

// Reset deletes the profile. Block entries survive a reset so that a user
// cannot escape a block by starting over.
func (s *Store) Reset(ctx context.Context, id domain.UserID) error {
	s.mu.Lock()
	delete(s.profiles, id)
	s.mu.Unlock()

	if s.persist != nil {
		return s.persist.DeleteProfile(ctx, id)
	}
	return nil
}

// Block stops id and other from ever being matched together.
func (s *Store) Block(ctx context.Context, id, other domain.UserID) error {
	if id == other {
		return nil
	}
	b := Block{Blocker: id, Blocked: other}

	s.mu.Lock()
	s.addBlockLocked(b)
	s.mu.Unlock()

	if s.persist != nil {
		return s.persist.SaveBlock(ctx, b)
	}
	return nil
}

// IsBlocked is symmetric: a block in either direction counts.
func (s *Store) IsBlocked(a, b domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blocks[a][b]; ok {
		return true
	}
	_, ok := s.blocks[b][a]
	return ok
}

// Count returns the number of known profiles.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *Store) getOrCreateLocked(id domain.UserID) *domain.Profile {
	p, ok := s.profiles[id]
	if !ok {
		p = &domain.Profile{UserID: id}
		s.profiles[id] = p
	}
	return p
}

func (s *Store) addBlockLocked(b Block) {
	set, ok := s.blocks[b.Blocker]
	if !ok {
		set = make(map[domain.UserID]struct{})
		s.blocks[b.Blocker] = set
	}
	set[b.Blocked] = struct{}{}
}
