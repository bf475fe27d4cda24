package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/liamwears/cinematch/internal/services"
	"github.com/rs/zerolog"
)

// FavoritesStore is the favorites surface the handlers need
type FavoritesStore interface {
	GetAll() []models.Movie
	IsFavorite(id int) bool
	Toggle(ctx context.Context, movie models.Movie) (bool, error)
}

// FavoritesHandler handles favorites requests
type FavoritesHandler struct {
	store    FavoritesStore
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(store FavoritesStore, validate *validator.Validate, logger zerolog.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		store:    store,
		validate: validate,
		logger:   logger,
	}
}

type favoritesResponse struct {
	Favorites []models.Movie `json:"favorites"`
	Count     int            `json:"count"`
}

type toggleResponse struct {
	Added     bool           `json:"added"`
	Persisted bool           `json:"persisted"`
	Favorites []models.Movie `json:"favorites"`
}

// List handles GET /api/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	favorites := h.store.GetAll()
	writeJSON(w, http.StatusOK, favoritesResponse{Favorites: favorites, Count: len(favorites)})
}

// Toggle handles POST /api/favorites/toggle
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var movie models.Movie
	if err := decodeJSON(w, r, &movie); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(movie); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid movie: "+err.Error())
		return
	}

	added, err := h.store.Toggle(r.Context(), movie)
	if errors.Is(err, services.ErrFavoritesUnavailable) {
		h.logger.Warn().Err(err).Int("movie_id", movie.ID).Msg("Favorites not loaded, toggle refused")
		writeError(w, http.StatusServiceUnavailable, "Favorites are temporarily unavailable")
		return
	}

	// The toggle stands even when it could not be persisted
	writeJSON(w, http.StatusOK, toggleResponse{
		Added:     added,
		Persisted: err == nil,
		Favorites: h.store.GetAll(),
	})
}

// Get handles GET /api/favorites/{id}
func (h *FavoritesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"favorite": h.store.IsFavorite(id),
	})
}
