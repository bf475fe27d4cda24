package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/liamwears/cinematch/internal/database"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// IntroSource supplies the intro screen movies. BackendClient implements it.
type IntroSource interface {
	IntroMovies(ctx context.Context) ([]models.Movie, error)
}

// IntroService tracks whether the intro screen was seen and what it offers
type IntroService struct {
	kv     KeyValueStore
	source IntroSource
	key    string
	limit  int
	logger zerolog.Logger
}

// NewIntroService creates a new intro service
func NewIntroService(kv KeyValueStore, source IntroSource, key string, limit int, logger zerolog.Logger) *IntroService {
	if limit <= 0 {
		limit = 100
	}
	return &IntroService{
		kv:     kv,
		source: source,
		key:    key,
		limit:  limit,
		logger: logger.With().Str("component", "intro").Logger(),
	}
}

// HasSeenIntro reports the persisted flag. A missing key means not seen.
func (s *IntroService) HasSeenIntro(ctx context.Context) (bool, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read intro flag: %w", err)
	}
	return string(data) == "true", nil
}

// MarkIntroSeen persists the flag
func (s *IntroService) MarkIntroSeen(ctx context.Context) error {
	if err := s.kv.Set(ctx, s.key, []byte("true")); err != nil {
		return fmt.Errorf("failed to write intro flag: %w", err)
	}
	s.logger.Info().Msg("Intro marked as seen")
	return nil
}

// IntroMovies returns the first movies offered on the intro screen
func (s *IntroService) IntroMovies(ctx context.Context) ([]models.Movie, error) {
	movies, err := s.source.IntroMovies(ctx)
	if err != nil {
		return nil, err
	}
	if len(movies) > s.limit {
		movies = movies[:s.limit]
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}
