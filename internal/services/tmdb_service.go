package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 8 << 20

// PageCache stores decoded catalog pages. RedisCache implements it.
type PageCache interface {
	Fetch(ctx context.Context, key string, dest any) (bool, error)
	Store(ctx context.Context, key string, value any) error
}

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	client       *http.Client
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	breaker      *breaker
	cache        PageCache
	logger       zerolog.Logger
}

// TMDBConfig holds TMDB service configuration
type TMDBConfig struct {
	APIKey       string
	ReadToken    string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration
}

// NewTMDBService creates a new TMDB service. cache may be nil.
func NewTMDBService(cfg TMDBConfig, cache PageCache, logger zerolog.Logger) *TMDBService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	if cfg.ReadToken != "" {
		// v4 read access tokens are plain bearer tokens
		client.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.ReadToken, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		}
	}

	return &TMDBService{
		client:       client,
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: cfg.ImageBaseURL,
		language:     cfg.Language,
		breaker:      newBreaker("tmdb-api", logger),
		cache:        cache,
		logger:       logger.With().Str("component", "tmdb").Logger(),
	}
}

// tmdbProvidersResponse is the watch/providers payload keyed by region
type tmdbProvidersResponse struct {
	ID      int `json:"id"`
	Results map[string]struct {
		Link     string                 `json:"link"`
		Flatrate []models.WatchProvider `json:"flatrate"`
	} `json:"results"`
}

// doRequest performs an HTTP request to TMDB API
func (s *TMDBService) doRequest(ctx context.Context, endpoint string, params map[string]string, localized bool) ([]byte, error) {
	url := fmt.Sprintf("%s%s", s.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	// Add query parameters
	q := req.URL.Query()
	if s.apiKey != "" {
		q.Add("api_key", s.apiKey)
	}
	if localized && s.language != "" {
		q.Add("language", s.language)
	}
	q.Add("include_adult", "false")
	for key, value := range params {
		q.Add(key, value)
	}
	req.URL.RawQuery = q.Encode()

	return s.breaker.execute(func() ([]byte, error) {
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to execute request: %w", ErrNetwork, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Service: "TMDB API", Code: resp.StatusCode, Body: string(body)}
		}

		return body, nil
	})
}

// getJSON fetches endpoint and decodes it into T
func getJSON[T any](ctx context.Context, s *TMDBService, label, endpoint string, params map[string]string, localized bool) (*T, error) {
	body, err := s.doRequest(ctx, endpoint, params, localized)
	metrics.RecordCatalogRequest(label, err)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal %s: %w", ErrDecode, label, err)
	}
	return &out, nil
}

// cachedPage serves listing pages from the cache when one is configured
func (s *TMDBService) cachedPage(ctx context.Context, label, endpoint string, page int, params map[string]string) (*models.MoviePage, error) {
	key := fmt.Sprintf("%s:%s:%d", label, s.language, page)

	if s.cache != nil {
		var cached models.MoviePage
		hit, err := s.cache.Fetch(ctx, key, &cached)
		if err != nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("Catalog cache read failed")
		}
		if hit {
			metrics.CatalogCacheHits.Inc()
			return &cached, nil
		}
		metrics.CatalogCacheMisses.Inc()
	}

	response, err := getJSON[models.MoviePage](ctx, s, label, endpoint, params, true)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, key, response); err != nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("Catalog cache write failed")
		}
	}

	return response, nil
}

// GetMovie retrieves a movie by ID
func (s *TMDBService) GetMovie(ctx context.Context, movieID int) (*models.MovieDetail, error) {
	endpoint := fmt.Sprintf("/movie/%d", movieID)
	return getJSON[models.MovieDetail](ctx, s, "movie", endpoint, nil, true)
}

// GetMovieImages retrieves the backdrops of a movie. Image lookups are not localized.
func (s *TMDBService) GetMovieImages(ctx context.Context, movieID int) (*models.ImageSet, error) {
	endpoint := fmt.Sprintf("/movie/%d/images", movieID)
	return getJSON[models.ImageSet](ctx, s, "images", endpoint, nil, false)
}

// GetWatchProviders returns the flatrate providers of a movie in region.
// A region without data yields an empty list.
func (s *TMDBService) GetWatchProviders(ctx context.Context, movieID int, region string) ([]models.WatchProvider, error) {
	endpoint := fmt.Sprintf("/movie/%d/watch/providers", movieID)
	response, err := getJSON[tmdbProvidersResponse](ctx, s, "providers", endpoint, nil, true)
	if err != nil {
		return nil, err
	}

	country, ok := response.Results[strings.ToUpper(region)]
	if !ok || country.Flatrate == nil {
		return []models.WatchProvider{}, nil
	}
	return country.Flatrate, nil
}

// SearchMovies searches for movies
func (s *TMDBService) SearchMovies(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrEmptyInput)
	}
	if page < 1 {
		page = 1
	}

	params := map[string]string{
		"query": query,
		"page":  strconv.Itoa(page),
	}

	return getJSON[models.MoviePage](ctx, s, "search", "/search/movie", params, true)
}

// PopularMovies gets one page of popular movies
func (s *TMDBService) PopularMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	if page < 1 {
		page = 1
	}
	return s.cachedPage(ctx, "popular", "/movie/popular", page, map[string]string{"page": strconv.Itoa(page)})
}

// UpcomingMovies gets one page of upcoming releases
func (s *TMDBService) UpcomingMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	if page < 1 {
		page = 1
	}
	return s.cachedPage(ctx, "upcoming", "/movie/upcoming", page, map[string]string{"page": strconv.Itoa(page)})
}

// GetImageURL returns the full URL for an image path
func (s *TMDBService) GetImageURL(path string) string {
	if path == "" {
		return ""
	}
	return s.imageBaseURL + path
}
