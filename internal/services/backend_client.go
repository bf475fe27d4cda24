package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// BackendClient talks to the recommendation backend
type BackendClient struct {
	client  *http.Client
	baseURL string
	breaker *breaker
	logger  zerolog.Logger
}

// BackendConfig holds recommendation backend configuration
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// NewBackendClient creates a new recommendation backend client
func NewBackendClient(cfg BackendConfig, logger zerolog.Logger) *BackendClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &BackendClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		breaker: newBreaker("recommender-backend", logger),
		logger:  logger.With().Str("component", "backend").Logger(),
	}
}

type recommendationsEnvelope[T any] struct {
	Recommendations *T `json:"recommendations"`
}

type compatibilityEnvelope struct {
	Compatibility *float64 `json:"compatibility"`
}

// doRequest sends one request to the backend and returns the raw body
func (c *BackendClient) doRequest(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.breaker.execute(func() ([]byte, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to execute request: %w", ErrNetwork, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Service: "recommendation backend", Code: resp.StatusCode, Body: string(body)}
		}

		return body, nil
	})
}

// recommend posts the favorites to endpoint and decodes the recommendations field
func recommend[T any](ctx context.Context, c *BackendClient, endpoint string, favorites []models.Movie) (T, error) {
	var zero T
	if len(favorites) == 0 {
		return zero, fmt.Errorf("%w: no favorites to recommend from", ErrEmptyInput)
	}

	body, err := c.doRequest(ctx, http.MethodPost, endpoint, models.RecommendRequest{Favorites: favorites})
	if err != nil {
		return zero, err
	}

	var envelope recommendationsEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return zero, fmt.Errorf("%w: failed to unmarshal %s response: %w", ErrDecode, endpoint, err)
	}
	if envelope.Recommendations == nil {
		return zero, fmt.Errorf("%w: %s response has no recommendations field", ErrDecode, endpoint)
	}

	return *envelope.Recommendations, nil
}

// Recommend returns taste-based recommendations
func (c *BackendClient) Recommend(ctx context.Context, favorites []models.Movie) ([]models.Movie, error) {
	return recommend[[]models.Movie](ctx, c, "/recommend", favorites)
}

// RecommendByActors returns recommendations sharing cast with the favorites
func (c *BackendClient) RecommendByActors(ctx context.Context, favorites []models.Movie) ([]models.Movie, error) {
	return recommend[[]models.Movie](ctx, c, "/recommend-by-actors", favorites)
}

// RecommendByGenres returns recommendations bucketed by genre label
func (c *BackendClient) RecommendByGenres(ctx context.Context, favorites []models.Movie) (models.GenreRecommendations, error) {
	return recommend[models.GenreRecommendations](ctx, c, "/recommend-by-genres", favorites)
}

// Compatibility scores a movie against the favorites, in [0,1]
func (c *BackendClient) Compatibility(ctx context.Context, movieID int, favorites []models.Movie) (float64, error) {
	if len(favorites) == 0 {
		return 0, fmt.Errorf("%w: no favorites to compare against", ErrEmptyInput)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/compatibility", models.CompatibilityRequest{MovieID: movieID, Favorites: favorites})
	if err != nil {
		return 0, err
	}

	var envelope compatibilityEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, fmt.Errorf("%w: failed to unmarshal compatibility response: %w", ErrDecode, err)
	}
	if envelope.Compatibility == nil {
		return 0, fmt.Errorf("%w: compatibility response has no compatibility field", ErrDecode)
	}

	return *envelope.Compatibility, nil
}

// IntroMovies returns the movies offered on the intro screen
func (c *BackendClient) IntroMovies(ctx context.Context) ([]models.Movie, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/intro-movies", nil)
	if err != nil {
		return nil, err
	}

	var movies []models.Movie
	if err := json.Unmarshal(body, &movies); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal intro movies: %w", ErrDecode, err)
	}
	return movies, nil
}
