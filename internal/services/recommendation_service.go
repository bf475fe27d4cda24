package services

import (
	"context"
	"sync"
	"time"

	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// Recommender is the recommendation backend as seen by the orchestrator
type Recommender interface {
	Recommend(ctx context.Context, favorites []models.Movie) ([]models.Movie, error)
	RecommendByActors(ctx context.Context, favorites []models.Movie) ([]models.Movie, error)
	RecommendByGenres(ctx context.Context, favorites []models.Movie) (models.GenreRecommendations, error)
	Compatibility(ctx context.Context, movieID int, favorites []models.Movie) (float64, error)
}

// FavoritesSource is what the orchestrator needs from the favorites store
type FavoritesSource interface {
	SubscribeWithCurrent(fn FavoritesListener) (unsubscribe func())
}

// RecommendationService turns favorites snapshots into three independent recommendation sets
type RecommendationService struct {
	recommender Recommender
	timeout     time.Duration
	logger      zerolog.Logger

	mu          sync.Mutex
	byTaste     []models.Movie
	byActor     []models.Movie
	byGenre     models.GenreRecommendations
	generations map[models.Category]uint64
	inFlight    int
	favorites   []models.Movie

	wg sync.WaitGroup
}

// NewRecommendationService creates a new orchestrator. timeout bounds every backend call.
func NewRecommendationService(recommender Recommender, timeout time.Duration, logger zerolog.Logger) *RecommendationService {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RecommendationService{
		recommender: recommender,
		timeout:     timeout,
		logger:      logger.With().Str("component", "recommendations").Logger(),
		byTaste:     []models.Movie{},
		byActor:     []models.Movie{},
		byGenre:     models.GenreRecommendations{},
		generations: make(map[models.Category]uint64, len(models.Categories)),
	}
}

// Attach runs one refresh with the current contents of source and then follows its changes
func (s *RecommendationService) Attach(source FavoritesSource) (detach func()) {
	return source.SubscribeWithCurrent(s.Refresh)
}

// Refresh recomputes every category from favorites. It returns once the requests are issued.
func (s *RecommendationService) Refresh(favorites []models.Movie) {
	snapshot := models.CloneMovies(favorites)

	s.mu.Lock()
	s.favorites = snapshot
	s.mu.Unlock()

	s.logger.Debug().Int("favorites", len(snapshot)).Msg("Refreshing recommendations")

	emptyMovies := func() []models.Movie { return []models.Movie{} }

	runCategory(s, models.CategoryTaste, snapshot, s.recommender.Recommend, emptyMovies,
		func(v []models.Movie) { s.byTaste = v })
	runCategory(s, models.CategoryActor, snapshot, s.recommender.RecommendByActors, emptyMovies,
		func(v []models.Movie) { s.byActor = v })
	runCategory(s, models.CategoryGenre, snapshot, s.recommender.RecommendByGenres,
		func() models.GenreRecommendations { return models.GenreRecommendations{} },
		func(v models.GenreRecommendations) { s.byGenre = v })
}

// runCategory issues one category request. store is called with s.mu held.
func runCategory[T any](
	s *RecommendationService,
	category models.Category,
	snapshot []models.Movie,
	call func(context.Context, []models.Movie) (T, error),
	empty func() T,
	store func(T),
) {
	s.mu.Lock()
	s.generations[category]++
	generation := s.generations[category]

	if len(snapshot) == 0 {
		store(empty())
		s.mu.Unlock()
		metrics.RecordRecommendation(category.String(), "skipped", 0)
		return
	}

	s.inFlight++
	s.wg.Add(1)
	s.mu.Unlock()
	metrics.RecommendationsInFlight.Inc()

	go func() {
		defer s.wg.Done()

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		result := fetch(ctx, func(ctx context.Context) (T, error) {
			return call(ctx, snapshot)
		})
		elapsed := time.Since(start)

		s.mu.Lock()
		defer s.mu.Unlock()

		s.inFlight--
		metrics.RecommendationsInFlight.Dec()

		if generation != s.generations[category] {
			s.logger.Debug().Str("category", category.String()).Uint64("generation", generation).Msg("Discarding stale recommendations")
			metrics.RecordRecommendation(category.String(), "stale", elapsed)
			return
		}

		if !result.IsOk() {
			kind := result.Kind()
			s.logger.Warn().Err(result.Err()).Str("category", category.String()).Str("kind", kind.String()).Msg("Recommendation request failed")
			metrics.RecordRecommendation(category.String(), kind.String(), elapsed)
		} else {
			metrics.RecordRecommendation(category.String(), "ok", elapsed)
		}

		store(result.OrElse(empty()))
	}()
}

// Loading reports whether any recommendation request is outstanding
func (s *RecommendationService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Snapshot returns copies of the last computed results
func (s *RecommendationService) Snapshot() models.Recommendations {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.Recommendations{
		Loading: s.inFlight > 0,
		ByTaste: models.CloneMovies(s.byTaste),
		ByActor: models.CloneMovies(s.byActor),
		ByGenre: s.byGenre.Clone(),
	}
}

// Wait blocks until every issued request has settled
func (s *RecommendationService) Wait() {
	s.wg.Wait()
}

// Compatibility scores movieID against the last refreshed favorites.
// ok is false when there are no favorites or the backend failed.
func (s *RecommendationService) Compatibility(ctx context.Context, movieID int) (score float64, ok bool, err error) {
	s.mu.Lock()
	favorites := s.favorites
	s.mu.Unlock()

	if len(favorites) == 0 {
		return 0, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := fetch(ctx, func(ctx context.Context) (float64, error) {
		return s.recommender.Compatibility(ctx, movieID, favorites)
	})

	score, ok = result.Value()
	if !ok {
		s.logger.Warn().Err(result.Err()).Int("movie_id", movieID).Str("kind", result.Kind().String()).Msg("Compatibility request failed")
		return 0, false, result.Err()
	}

	switch {
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	return score, true, nil
}
