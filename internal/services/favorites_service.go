package services

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/liamwears/cinematch/internal/database"
	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// ErrFavoritesUnavailable is returned by Toggle while the persisted favorites cannot be read
var ErrFavoritesUnavailable = errors.New("favorites unavailable")

var errCorruptFavorites = errors.New("corrupt favorites")

// KeyValueStore is the slice of database.KV the services need
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// FavoritesListener receives a private copy of the favorites after every toggle
type FavoritesListener func(snapshot []models.Movie)

type subscription struct {
	id int
	fn FavoritesListener
}

// FavoritesStore owns the favorites set for the session
type FavoritesStore struct {
	kv          KeyValueStore
	key         string
	loadTimeout time.Duration
	logger      zerolog.Logger

	loadMu     sync.Mutex
	loaded     atomic.Bool
	loadFailed bool
	toggleMu sync.Mutex

	mu    sync.RWMutex
	index map[int]*list.Element
	order *list.List

	subMu     sync.Mutex
	subs      []subscription
	nextSubID int
}

// NewFavoritesStore creates a store persisted under key. Nothing is read until first use.
func NewFavoritesStore(kv KeyValueStore, key string, logger zerolog.Logger) *FavoritesStore {
	return &FavoritesStore{
		kv:          kv,
		key:         key,
		loadTimeout: 5 * time.Second,
		logger:      logger.With().Str("component", "favorites").Logger(),
		index:       make(map[int]*list.Element),
		order:       list.New(),
	}
}

// ensureLoaded reads the persisted set once. A failed read leaves the store
// unloaded so the next access retries. Unreadable data starts the store empty.
func (s *FavoritesStore) ensureLoaded() error {
	if s.loaded.Load() {
		return nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded.Load() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	defer cancel()

	movies, err := s.load(ctx)
	switch {
	case errors.Is(err, errCorruptFavorites):
		s.logger.Error().Err(err).Str("key", s.key).Msg("Persisted favorites are unreadable, starting empty")
		movies = nil
	case err != nil:
		s.loadFailed = true
		s.logger.Warn().Err(err).Str("key", s.key).Msg("Failed to load favorites, will retry")
		return fmt.Errorf("%w: %w", ErrFavoritesUnavailable, err)
	}

	// Subscribers may have been handed an empty set while the store was unreadable
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	for _, m := range movies {
		if _, dup := s.index[m.ID]; dup {
			continue
		}
		s.index[m.ID] = s.order.PushBack(m.Clone())
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.loaded.Store(true)
	metrics.Favorites.Set(float64(len(snapshot)))
	s.logger.Info().Int("count", len(snapshot)).Msg("Loaded favorites")

	if s.loadFailed {
		s.notify(snapshot)
	}
	return nil
}

func (s *FavoritesStore) load(ctx context.Context) ([]models.Movie, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var movies []models.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptFavorites, err)
	}
	return movies, nil
}

// GetAll returns a copy of the favorites in insertion order.
// It is empty while the persisted set cannot be read.
func (s *FavoritesStore) GetAll() []models.Movie {
	_ = s.ensureLoaded()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsFavorite reports whether a movie with id is in the set
func (s *FavoritesStore) IsFavorite(id int) bool {
	_ = s.ensureLoaded()

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Count returns the number of favorites
func (s *FavoritesStore) Count() int {
	_ = s.ensureLoaded()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

// Toggle removes the movie if a favorite with the same id exists and inserts it otherwise.
// The new set is persisted and every subscriber is notified before Toggle returns.
// A persistence error is returned but the in-memory change stands.
// While the persisted set cannot be read Toggle changes nothing and returns ErrFavoritesUnavailable.
func (s *FavoritesStore) Toggle(ctx context.Context, movie models.Movie) (bool, error) {
	if err := s.ensureLoaded(); err != nil {
		return false, err
	}

	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	added := false
	if el, ok := s.index[movie.ID]; ok {
		s.order.Remove(el)
		delete(s.index, movie.ID)
	} else {
		s.index[movie.ID] = s.order.PushBack(movie.Clone())
		added = true
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	metrics.RecordToggle(added, len(snapshot))
	s.logger.Debug().Int("movie_id", movie.ID).Bool("added", added).Int("count", len(snapshot)).Msg("Toggled favorite")

	err := s.persist(ctx, snapshot)
	if err != nil {
		metrics.FavoritesPersistErrors.Inc()
		s.logger.Error().Err(err).Int("movie_id", movie.ID).Msg("Failed to persist favorites")
	}

	s.notify(snapshot)

	return added, err
}

// Subscribe registers fn for change notifications. Listeners must not call back into the store.
func (s *FavoritesStore) Subscribe(fn FavoritesListener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// SubscribeWithCurrent hands fn the current set and then registers it.
// No toggle can land in between, so fn observes changes in order from that snapshot on.
func (s *FavoritesStore) SubscribeWithCurrent(fn FavoritesListener) (unsubscribe func()) {
	_ = s.ensureLoaded()

	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.RLock()
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	fn(snapshot)
	return s.Subscribe(fn)
}

func (s *FavoritesStore) notify(snapshot []models.Movie) {
	s.subMu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(models.CloneMovies(snapshot))
	}
}

func (s *FavoritesStore) persist(ctx context.Context, snapshot []models.Movie) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	return nil
}

func (s *FavoritesStore) snapshotLocked() []models.Movie {
	out := make([]models.Movie, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(models.Movie).Clone())
	}
	return out
}
