package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// UpcomingLister pages the catalog's upcoming releases. TMDBService implements it.
type UpcomingLister interface {
	UpcomingMovies(ctx context.Context, page int) (*models.MoviePage, error)
}

// UpcomingConfig holds release pipeline configuration
type UpcomingConfig struct {
	Language string
	MaxPages int
}

// UpcomingService collects future releases in one original language, soonest first
type UpcomingService struct {
	catalog  UpcomingLister
	language string
	maxPages int
	now      func() time.Time
	logger   zerolog.Logger
}

// NewUpcomingService creates a new release pipeline
func NewUpcomingService(catalog UpcomingLister, cfg UpcomingConfig, logger zerolog.Logger) *UpcomingService {
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	return &UpcomingService{
		catalog:  catalog,
		language: cfg.Language,
		maxPages: maxPages,
		now:      time.Now,
		logger:   logger.With().Str("component", "upcoming").Logger(),
	}
}

// Fetch returns up to limit upcoming movies sorted by release date.
// Any page failure yields an empty result.
func (s *UpcomingService) Fetch(ctx context.Context, limit int) []models.Movie {
	return s.Load(ctx, limit).OrElse([]models.Movie{})
}

// Load is Fetch without the fallback. A failed run reports its error.
func (s *UpcomingService) Load(ctx context.Context, limit int) FetchResult[[]models.Movie] {
	if limit <= 0 {
		return Ok([]models.Movie{})
	}

	result := fetch(ctx, func(ctx context.Context) ([]models.Movie, error) {
		return s.collect(ctx, limit)
	})

	if !result.IsOk() {
		s.logger.Warn().Err(result.Err()).Str("kind", result.Kind().String()).Int("limit", limit).Msg("Upcoming releases fetch failed")
		metrics.UpcomingRuns.WithLabelValues(result.Kind().String()).Inc()
		return result
	}

	metrics.UpcomingRuns.WithLabelValues("ok").Inc()
	return result
}

func (s *UpcomingService) collect(ctx context.Context, limit int) ([]models.Movie, error) {
	now := s.now()
	acc := make([]models.Movie, 0, limit)
	seen := make(map[int]struct{})

	for page := 1; ; page++ {
		if reachedLimit(len(acc), limit) || pastCeiling(page, s.maxPages) {
			break
		}

		resp, err := s.catalog.UpcomingMovies(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch upcoming page %d: %w", page, err)
		}
		metrics.UpcomingPagesFetched.Inc()

		if endOfData(resp) {
			break
		}

		for _, m := range resp.Results {
			if _, dup := seen[m.ID]; dup || !s.upcoming(m, now) {
				continue
			}
			seen[m.ID] = struct{}{}
			acc = append(acc, m)
		}
	}

	sort.SliceStable(acc, func(i, j int) bool {
		a, _ := acc[i].Released()
		b, _ := acc[j].Released()
		return a.Before(b)
	})

	if len(acc) > limit {
		acc = acc[:limit]
	}
	return acc, nil
}

// upcoming reports whether m is released strictly after now in the target language
func (s *UpcomingService) upcoming(m models.Movie, now time.Time) bool {
	released, ok := m.Released()
	if !ok {
		return false
	}
	return released.After(now) && m.OriginalLanguage == s.language
}

func reachedLimit(size, limit int) bool { return size >= limit }

func pastCeiling(page, maxPages int) bool { return page > maxPages }

// endOfData treats a page without a results field as the end of the feed
func endOfData(page *models.MoviePage) bool { return page == nil || page.Results == nil }
