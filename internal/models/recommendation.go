package models

// Category identifies one of the independent recommendation algorithms
type Category string

const (
	CategoryTaste Category = "by-taste"
	CategoryActor Category = "by-actor"
	CategoryGenre Category = "by-genre"
)

// Categories lists every recommendation category in display order
var Categories = []Category{CategoryTaste, CategoryActor, CategoryGenre}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// GenreRecommendations maps a genre label to its recommended movies
type GenreRecommendations map[string][]Movie

// Clone deep-copies the genre buckets. A nil input yields an empty, non-nil map.
func (g GenreRecommendations) Clone() GenreRecommendations {
	out := make(GenreRecommendations, len(g))
	for genre, movies := range g {
		out[genre] = CloneMovies(movies)
	}
	return out
}

// Recommendations is the read model of the last computed result per category
type Recommendations struct {
	Loading bool                 `json:"loading"`
	ByTaste []Movie              `json:"by_taste"`
	ByActor []Movie              `json:"by_actor"`
	ByGenre GenreRecommendations `json:"by_genre"`
}

// RecommendRequest is the body sent to every recommendation endpoint
type RecommendRequest struct {
	Favorites []Movie `json:"favorites"`
}

// CompatibilityRequest is the body sent to the compatibility endpoint
type CompatibilityRequest struct {
	MovieID   int     `json:"movie_id"`
	Favorites []Movie `json:"favorites"`
}
