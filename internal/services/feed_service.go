package services

import (
	"context"
	"time"

	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// PopularLister pages the catalog's popular titles. TMDBService implements it.
type PopularLister interface {
	PopularMovies(ctx context.Context, page int) (*models.MoviePage, error)
}

// UpcomingFetcher produces the upcoming releases list. UpcomingService implements it.
type UpcomingFetcher interface {
	Load(ctx context.Context, limit int) FetchResult[[]models.Movie]
}

// CarouselResetter replaces a named carousel's sequence. carousel.Registry implements it.
type CarouselResetter interface {
	Reset(name string, items []models.Movie) bool
}

// FeedConfig holds feed refresher configuration
type FeedConfig struct {
	PopularLimit     int
	UpcomingLimit    int
	Interval         time.Duration
	RequestTimeout   time.Duration
	PopularCarousel  string
	UpcomingCarousel string
}

// FeedService loads the popular and upcoming lists and feeds them to the carousels
type FeedService struct {
	catalog   PopularLister
	upcoming  UpcomingFetcher
	carousels CarouselResetter
	cfg       FeedConfig
	logger    zerolog.Logger
}

// NewFeedService creates a new feed refresher
func NewFeedService(catalog PopularLister, upcoming UpcomingFetcher, carousels CarouselResetter, cfg FeedConfig, logger zerolog.Logger) *FeedService {
	if cfg.PopularLimit <= 0 {
		cfg.PopularLimit = 10
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 20
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &FeedService{
		catalog:   catalog,
		upcoming:  upcoming,
		carousels: carousels,
		cfg:       cfg,
		logger:    logger.With().Str("component", "feed").Logger(),
	}
}

// LoadPopular returns the first page of popular movies truncated to the configured limit.
// A failure yields an empty list.
func (s *FeedService) LoadPopular(ctx context.Context) []models.Movie {
	return s.loadPopular(ctx).OrElse([]models.Movie{})
}

func (s *FeedService) loadPopular(ctx context.Context) FetchResult[[]models.Movie] {
	result := fetch(ctx, func(ctx context.Context) ([]models.Movie, error) {
		page, err := s.catalog.PopularMovies(ctx, 1)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return []models.Movie{}, nil
		}
		movies := page.Results
		if len(movies) > s.cfg.PopularLimit {
			movies = movies[:s.cfg.PopularLimit]
		}
		return models.CloneMovies(movies), nil
	})

	if !result.IsOk() {
		s.logger.Warn().Err(result.Err()).Str("kind", result.Kind().String()).Msg("Failed to load popular movies")
	}
	return result
}

// Refresh reloads both lists and resets the carousels.
// A carousel keeps its current sequence when its list fails to load.
func (s *FeedService) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	popular := s.reset(s.cfg.PopularCarousel, s.loadPopular(ctx))
	upcoming := s.reset(s.cfg.UpcomingCarousel, s.upcoming.Load(ctx, s.cfg.UpcomingLimit))

	s.logger.Info().Int("popular", popular).Int("upcoming", upcoming).Msg("Feeds refreshed")
}

// reset feeds a successful result to the named carousel and returns its size, or -1 when skipped
func (s *FeedService) reset(name string, result FetchResult[[]models.Movie]) int {
	movies, ok := result.Value()
	if !ok {
		s.logger.Warn().Str("carousel", name).Msg("Keeping previous carousel contents")
		return -1
	}
	s.carousels.Reset(name, movies)
	return len(movies)
}

// Serve implements suture.Service
func (s *FeedService) Serve(ctx context.Context) error {
	s.Refresh(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *FeedService) String() string {
	return "feed-refresher"
}
