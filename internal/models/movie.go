package models

import (
	"time"
)

// ReleaseDateLayout is the catalog's release date format
const ReleaseDateLayout = "2006-01-02"

// Movie represents a catalog movie. Identity is the catalog-assigned ID.
type Movie struct {
	ID               int     `json:"id" validate:"required,gt=0"`
	Title            string  `json:"title" validate:"required"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average" validate:"gte=0,lte=10"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Popularity       float64 `json:"popularity,omitempty"`
	SharedActors     []Actor `json:"shared_actors,omitempty"`
}

// Actor represents a cast member shared between a recommendation and the favorites
type Actor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	ProfilePath *string `json:"profile_path"`
}

// Released parses the release date. It reports false when the date is missing or malformed.
func (m Movie) Released() (time.Time, bool) {
	if m.ReleaseDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(ReleaseDateLayout, m.ReleaseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a copy that shares no slices or pointers with m
func (m Movie) Clone() Movie {
	out := m
	out.PosterPath = cloneString(m.PosterPath)
	out.BackdropPath = cloneString(m.BackdropPath)
	if m.GenreIDs != nil {
		out.GenreIDs = append([]int(nil), m.GenreIDs...)
	}
	if m.SharedActors != nil {
		out.SharedActors = make([]Actor, len(m.SharedActors))
		for i, a := range m.SharedActors {
			a.ProfilePath = cloneString(a.ProfilePath)
			out.SharedActors[i] = a
		}
	}
	return out
}

// CloneMovies deep-copies a movie slice. A nil input yields an empty, non-nil slice.
func CloneMovies(movies []Movie) []Movie {
	out := make([]Movie, len(movies))
	for i, m := range movies {
		out[i] = m.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Genre is a catalog genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetail represents the full detail payload for a single movie
type MovieDetail struct {
	Movie
	Runtime int     `json:"runtime"`
	Tagline string  `json:"tagline"`
	Status  string  `json:"status"`
	Genres  []Genre `json:"genres"`
}

// MoviePage represents one page of a catalog listing
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Image describes a single backdrop or poster image
type Image struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// ImageSet represents the images attached to a movie
type ImageSet struct {
	ID        int     `json:"id"`
	Backdrops []Image `json:"backdrops"`
}

// WatchProvider represents a streaming platform offering a movie
type WatchProvider struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}
