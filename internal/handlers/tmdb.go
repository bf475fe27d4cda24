package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// Catalog is the catalog client surface the handlers need
type Catalog interface {
	SearchMovies(ctx context.Context, query string, page int) (*models.MoviePage, error)
	GetMovie(ctx context.Context, movieID int) (*models.MovieDetail, error)
	GetMovieImages(ctx context.Context, movieID int) (*models.ImageSet, error)
	GetWatchProviders(ctx context.Context, movieID int, region string) ([]models.WatchProvider, error)
}

// PopularFeed supplies the popular list
type PopularFeed interface {
	LoadPopular(ctx context.Context) []models.Movie
}

// UpcomingFeed supplies upcoming releases
type UpcomingFeed interface {
	Fetch(ctx context.Context, limit int) []models.Movie
}

// CompatibilityScorer scores a movie against the current favorites
type CompatibilityScorer interface {
	Compatibility(ctx context.Context, movieID int) (float64, bool, error)
}

// TMDBConfig holds catalog endpoint defaults
type TMDBConfig struct {
	Region        string
	ImageLimit    int
	UpcomingLimit int
	MaxUpcoming   int
}

// TMDBHandler handles catalog requests
type TMDBHandler struct {
	catalog  Catalog
	popular  PopularFeed
	upcoming UpcomingFeed
	scorer   CompatibilityScorer
	cfg      TMDBConfig
	logger   zerolog.Logger
}

// NewTMDBHandler creates a new catalog handler
func NewTMDBHandler(catalog Catalog, popular PopularFeed, upcoming UpcomingFeed, scorer CompatibilityScorer, cfg TMDBConfig, logger zerolog.Logger) *TMDBHandler {
	if cfg.Region == "" {
		cfg.Region = "ES"
	}
	if cfg.ImageLimit <= 0 {
		cfg.ImageLimit = 6
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 20
	}
	if cfg.MaxUpcoming <= 0 {
		cfg.MaxUpcoming = 100
	}
	return &TMDBHandler{
		catalog:  catalog,
		popular:  popular,
		upcoming: upcoming,
		scorer:   scorer,
		cfg:      cfg,
		logger:   logger,
	}
}

// GetMovie handles GET /api/movies/{id}
func (h *TMDBHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	movie, err := h.catalog.GetMovie(r.Context(), movieID)
	if err != nil {
		writeUpstreamError(w, h.logger, err, "Failed to fetch movie")
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// GetImages handles GET /api/movies/{id}/images
func (h *TMDBHandler) GetImages(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	limit := intQuery(r, "limit", h.cfg.ImageLimit)
	if limit < 1 {
		limit = h.cfg.ImageLimit
	}

	images, err := h.catalog.GetMovieImages(r.Context(), movieID)
	if err != nil {
		writeUpstreamError(w, h.logger, err, "Failed to fetch images")
		return
	}

	backdrops := images.Backdrops
	if len(backdrops) > limit {
		backdrops = backdrops[:limit]
	}
	if backdrops == nil {
		backdrops = []models.Image{}
	}

	writeJSON(w, http.StatusOK, models.ImageSet{ID: movieID, Backdrops: backdrops})
}

// GetProviders handles GET /api/movies/{id}/providers
func (h *TMDBHandler) GetProviders(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	region := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("region")))
	if region == "" {
		region = h.cfg.Region
	}
	if len(region) != 2 {
		writeError(w, http.StatusBadRequest, "Region must be a two-letter country code")
		return
	}

	providers, err := h.catalog.GetWatchProviders(r.Context(), movieID, region)
	if err != nil {
		writeUpstreamError(w, h.logger, err, "Failed to fetch watch providers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        movieID,
		"region":    region,
		"providers": providers,
	})
}

// GetCompatibility handles GET /api/movies/{id}/compatibility
func (h *TMDBHandler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	score, available, err := h.scorer.Compatibility(r.Context(), movieID)
	if err != nil {
		writeUpstreamError(w, h.logger, err, "Failed to compute compatibility")
		return
	}

	body := map[string]any{
		"movie_id":  movieID,
		"available": available,
	}
	if available {
		body["compatibility"] = score
	}
	writeJSON(w, http.StatusOK, body)
}

// SearchMovies handles GET /api/search
func (h *TMDBHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	page := intQuery(r, "page", 1)
	if page < 1 {
		page = 1
	}

	result, err := h.catalog.SearchMovies(r.Context(), query, page)
	if err != nil {
		writeUpstreamError(w, h.logger, err, "Failed to search movies")
		return
	}

	if result.Results == nil {
		result.Results = []models.Movie{}
	}
	writeJSON(w, http.StatusOK, result)
}

// Popular handles GET /api/popular
func (h *TMDBHandler) Popular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"results": h.popular.LoadPopular(r.Context())})
}

// Upcoming handles GET /api/upcoming
func (h *TMDBHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", h.cfg.UpcomingLimit)
	if limit > h.cfg.MaxUpcoming {
		limit = h.cfg.MaxUpcoming
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": h.upcoming.Fetch(r.Context(), limit)})
}
