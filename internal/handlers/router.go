package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/liamwears/cinematch/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups every route handler
type Handlers struct {
	Favorites       *FavoritesHandler
	Recommendations *RecommendationHandler
	TMDB            *TMDBHandler
	Carousels       *CarouselHandler
	Intro           *IntroHandler
	Health          *HealthHandler
}

// RouterConfig holds cross-cutting HTTP settings
type RouterConfig struct {
	AllowedOrigins []string
	// RateLimit wraps the /api routes. Nil disables rate limiting.
	RateLimit func(http.Handler) http.Handler
	Logger    zerolog.Logger
}

// NewRouter wires the handlers into a chi router
func NewRouter(h Handlers, cfg RouterConfig) chi.Router {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		r.Get("/favorites", h.Favorites.List)
		r.Post("/favorites/toggle", h.Favorites.Toggle)
		r.Get("/favorites/{id}", h.Favorites.Get)

		r.Get("/recommendations", h.Recommendations.Get)
		r.Post("/recommendations/refresh", h.Recommendations.Refresh)

		r.Route("/movies/{id}", func(r chi.Router) {
			r.Get("/", h.TMDB.GetMovie)
			r.Get("/images", h.TMDB.GetImages)
			r.Get("/providers", h.TMDB.GetProviders)
			r.Get("/compatibility", h.TMDB.GetCompatibility)
		})
		r.Get("/search", h.TMDB.SearchMovies)
		r.Get("/popular", h.TMDB.Popular)
		r.Get("/upcoming", h.TMDB.Upcoming)

		r.Get("/carousels", h.Carousels.List)
		r.Route("/carousels/{name}", func(r chi.Router) {
			r.Get("/", h.Carousels.Get)
			r.Post("/next", h.Carousels.Next)
			r.Post("/previous", h.Carousels.Previous)
			r.Post("/jump", h.Carousels.Jump)
		})

		r.Get("/intro", h.Intro.Get)
		r.Post("/intro/seen", h.Intro.MarkSeen)
	})

	return r
}
