package favorites

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultKey is the storage key the favorite set is saved under
const DefaultKey = "movie_favorites"

// Change describes one update to the favorite set
type Change struct {
	ID       string
	Favorite bool
	// Cleared is set when every favorite was removed at once
	Cleared bool
	Count   int
}

// Option configures a Store
type Option func(*Store)

// WithKey stores the set under key instead of DefaultKey
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// Store is the set of favorited movie IDs, mirrored to Storage on every
// change. The in-memory set is authoritative: load and save failures are
// logged, never returned.
type Store struct {
	storage Storage
	logger  zerolog.Logger
	key     string

	loadOnce sync.Once
	mu       sync.Mutex
	ids      map[string]struct{}

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// NewStore creates a favorites store. The set is read from storage on
// first use.
func NewStore(storage Storage, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  logger.With().Str("component", "favorites").Logger(),
		key:     DefaultKey,
		ids:     make(map[string]struct{}),
		subs:    make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key in use
func (s *Store) Key() string {
	return s.key
}

func (s *Store) ensureLoaded() {
	s.loadOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		raw, ok, err := s.storage.Get(s.key)
		if err != nil {
			s.logger.Error().Err(err).Str("key", s.key).Msg("Failed to load favorites")
			return
		}
		if !ok {
			return
		}

		ids, err := decodeIDs(raw)
		if err != nil {
			s.logger.Error().Err(err).Str("key", s.key).Msg("Failed to parse favorites, starting empty")
			return
		}
		for _, id := range ids {
			s.ids[id] = struct{}{}
		}
		s.logger.Debug().Int("count", len(s.ids)).Msg("Loaded favorites")
	})
}

// decodeIDs parses a JSON array of strings. A null element fails the whole
// set instead of becoming "".
func decodeIDs(raw string) ([]string, error) {
	var elems []*string
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(elems))
	for i, elem := range elems {
		if elem == nil {
			return nil, fmt.Errorf("element %d is null", i)
		}
		ids = append(ids, *elem)
	}
	return ids, nil
}

// IsFavorite reports whether id is in the set
func (s *Store) IsFavorite(id string) bool {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Add puts id in the set. Adding an existing favorite does nothing.
func (s *Store) Add(id string) {
	s.ensureLoaded()

	s.mu.Lock()
	if _, ok := s.ids[id]; ok {
		s.mu.Unlock()
		return
	}
	s.ids[id] = struct{}{}
	change := Change{ID: id, Favorite: true, Count: len(s.ids)}
	s.saveLocked()
	s.mu.Unlock()

	s.notify(change)
}

// Remove takes id out of the set. Removing an unknown ID does nothing.
func (s *Store) Remove(id string) {
	s.ensureLoaded()

	s.mu.Lock()
	if _, ok := s.ids[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.ids, id)
	change := Change{ID: id, Favorite: false, Count: len(s.ids)}
	s.saveLocked()
	s.mu.Unlock()

	s.notify(change)
}

// Toggle flips membership of id and returns whether it is now a favorite
func (s *Store) Toggle(id string) bool {
	s.ensureLoaded()

	s.mu.Lock()
	_, was := s.ids[id]
	if was {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
	change := Change{ID: id, Favorite: !was, Count: len(s.ids)}
	s.saveLocked()
	s.mu.Unlock()

	s.notify(change)
	return !was
}

// Count returns the number of favorites
func (s *Store) Count() int {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the favorites in sorted order
func (s *Store) IDs() []string {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Clear removes every favorite
func (s *Store) Clear() {
	s.ensureLoaded()

	s.mu.Lock()
	s.ids = make(map[string]struct{})
	s.saveLocked()
	s.mu.Unlock()

	s.notify(Change{Cleared: true})
}

// Subscribe calls fn after every change. The returned function stops it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) sortedLocked() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// saveLocked writes the whole set; failures leave the in-memory set as is
func (s *Store) saveLocked() {
	data, err := json.Marshal(s.sortedLocked())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode favorites")
		return
	}
	if err := s.storage.Set(s.key, string(data)); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("Failed to save favorites")
	}
}

func (s *Store) notify(change Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
