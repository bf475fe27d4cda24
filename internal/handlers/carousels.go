package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/liamwears/cinematch/internal/carousel"
	"github.com/rs/zerolog"
)

// CarouselHandler exposes carousel state and manual navigation
type CarouselHandler struct {
	registry *carousel.Registry
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewCarouselHandler(registry *carousel.Registry, validate *validator.Validate, logger zerolog.Logger) *CarouselHandler {
	return &CarouselHandler{registry: registry, validate: validate, logger: logger}
}

type jumpRequest struct {
	Offset *int `json:"offset" validate:"required"`
}

// List handles GET /api/carousels
func (h *CarouselHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"carousels": h.registry.Names()})
}

// Get handles GET /api/carousels/{name}
func (h *CarouselHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.registry.Get(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "Carousel not found")
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

// Next handles POST /api/carousels/{name}/next
func (h *CarouselHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, carousel.CommandNext, 0)
}

// Previous handles POST /api/carousels/{name}/previous
func (h *CarouselHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, carousel.CommandPrevious, 0)
}

// Jump handles POST /api/carousels/{name}/jump
func (h *CarouselHandler) Jump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Offset is required")
		return
	}

	h.navigate(w, r, carousel.CommandJump, *req.Offset)
}

func (h *CarouselHandler) navigate(w http.ResponseWriter, r *http.Request, cmd carousel.Command, offset int) {
	name := chi.URLParam(r, "name")
	state, ok := h.registry.Navigate(name, cmd, offset)
	if !ok {
		writeError(w, http.StatusNotFound, "Carousel not found")
		return
	}

	h.logger.Debug().Str("carousel", name).Str("command", string(cmd)).Int("index", state.Index).Msg("Carousel moved")
	writeJSON(w, http.StatusOK, state)
}
