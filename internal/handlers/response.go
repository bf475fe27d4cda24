package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/liamwears/cinematch/internal/services"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies. A favorite carries one movie.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dest)
}

// movieIDParam parses the {id} path segment
func movieIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// intQuery parses an integer query parameter, falling back to def
func intQuery(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

// writeUpstreamError maps a client error onto a status code
func writeUpstreamError(w http.ResponseWriter, logger zerolog.Logger, err error, message string) {
	var se *services.StatusError
	switch {
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, message)
	case errors.Is(err, services.ErrNetwork), errors.Is(err, services.ErrDecode):
		logger.Warn().Err(err).Str("kind", services.KindOf(err).String()).Msg(message)
		writeError(w, http.StatusBadGateway, message)
	default:
		logger.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message)
	}
}
