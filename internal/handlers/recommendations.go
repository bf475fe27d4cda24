package handlers

import (
	"net/http"

	"github.com/liamwears/cinematch/internal/models"
)

// Recommendations is the orchestrator surface the handlers need
type Recommendations interface {
	Snapshot() models.Recommendations
	Refresh(favorites []models.Movie)
}

// RecommendationHandler serves the per-category recommendation read model
type RecommendationHandler struct {
	recommendations Recommendations
	favorites       FavoritesStore
}

func NewRecommendationHandler(recommendations Recommendations, favorites FavoritesStore) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations, favorites: favorites}
}

// Get handles GET /api/recommendations
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.recommendations.Snapshot())
}

// Refresh handles POST /api/recommendations/refresh
func (h *RecommendationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.recommendations.Refresh(h.favorites.GetAll())
	writeJSON(w, http.StatusAccepted, h.recommendations.Snapshot())
}
