package handlers

import (
	"context"
	"net/http"

	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

// Intro is the intro screen surface the handlers need
type Intro interface {
	HasSeenIntro(ctx context.Context) (bool, error)
	MarkIntroSeen(ctx context.Context) error
	IntroMovies(ctx context.Context) ([]models.Movie, error)
}

// IntroHandler serves the first-run intro screen
type IntroHandler struct {
	intro  Intro
	logger zerolog.Logger
}

func NewIntroHandler(intro Intro, logger zerolog.Logger) *IntroHandler {
	return &IntroHandler{intro: intro, logger: logger}
}

type introResponse struct {
	Seen   bool           `json:"seen"`
	Movies []models.Movie `json:"movies"`
}

// Get handles GET /api/intro. Movies are only listed while the intro is unseen.
func (h *IntroHandler) Get(w http.ResponseWriter, r *http.Request) {
	seen, err := h.intro.HasSeenIntro(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read intro flag")
		writeError(w, http.StatusInternalServerError, "Failed to read intro state")
		return
	}

	resp := introResponse{Seen: seen, Movies: []models.Movie{}}
	if !seen {
		movies, err := h.intro.IntroMovies(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to fetch intro movies")
		} else {
			resp.Movies = movies
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// MarkSeen handles POST /api/intro/seen
func (h *IntroHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	if err := h.intro.MarkIntroSeen(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist intro flag")
		writeError(w, http.StatusInternalServerError, "Failed to save intro state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
