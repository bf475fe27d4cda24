package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type memoryPageCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memoryPageCache) Fetch(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dest)
}

func (c *memoryPageCache) Store(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func newTestTMDB(t *testing.T, cfg TMDBConfig, cache PageCache, handler http.HandlerFunc) *TMDBService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	return NewTMDBService(cfg, cache, zerolog.Nop())
}

func TestTMDBService_QueryParameters(t *testing.T) {
	var got *http.Request
	svc := newTestTMDB(t, TMDBConfig{APIKey: "secret", Language: "es-ES"}, nil, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"A"}],"total_pages":1,"total_results":1}`))
	})

	page, err := svc.SearchMovies(context.Background(), "matrix", 0)
	if err != nil {
		t.Fatalf("SearchMovies: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("results = %+v", page.Results)
	}

	q := got.URL.Query()
	if got.URL.Path != "/search/movie" {
		t.Errorf("path = %s", got.URL.Path)
	}
	if q.Get("api_key") != "secret" || q.Get("language") != "es-ES" || q.Get("include_adult") != "false" {
		t.Errorf("query = %v", q)
	}
	if q.Get("query") != "matrix" || q.Get("page") != "1" {
		t.Errorf("query = %v", q)
	}
	if got.Header.Get("Authorization") != "" {
		t.Errorf("unexpected Authorization header with api key auth")
	}
}

func TestTMDBService_ReadTokenUsesBearer(t *testing.T) {
	var auth, apiKey string
	svc := newTestTMDB(t, TMDBConfig{ReadToken: "v4-token", Language: "es-ES"}, nil, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		apiKey = r.URL.Query().Get("api_key")
		_, _ = w.Write([]byte(`{"id":5,"title":"Detail","runtime":120,"genres":[{"id":18,"name":"Drama"}]}`))
	})

	detail, err := svc.GetMovie(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if auth != "Bearer v4-token" {
		t.Errorf("Authorization = %q", auth)
	}
	if apiKey != "" {
		t.Errorf("api_key sent with bearer auth: %q", apiKey)
	}
	if detail.ID != 5 || detail.Runtime != 120 || len(detail.Genres) != 1 {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestTMDBService_ImagesAreNotLocalized(t *testing.T) {
	var language string
	var hasLanguage bool
	svc := newTestTMDB(t, TMDBConfig{APIKey: "k", Language: "es-ES"}, nil, func(w http.ResponseWriter, r *http.Request) {
		_, hasLanguage = r.URL.Query()["language"]
		language = r.URL.Query().Get("language")
		_, _ = w.Write([]byte(`{"id":5,"backdrops":[{"file_path":"/a.jpg","width":1280,"height":720}]}`))
	})

	images, err := svc.GetMovieImages(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetMovieImages: %v", err)
	}
	if hasLanguage {
		t.Errorf("image lookup sent language=%q", language)
	}
	if len(images.Backdrops) != 1 || images.Backdrops[0].FilePath != "/a.jpg" {
		t.Fatalf("images = %+v", images)
	}
}

func TestTMDBService_WatchProviders(t *testing.T) {
	svc := newTestTMDB(t, TMDBConfig{APIKey: "k", Language: "es-ES"}, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5,"results":{
			"ES":{"link":"x","flatrate":[{"provider_id":8,"provider_name":"Netflix","logo_path":"/n.png","display_priority":1}],"rent":[{"provider_id":2}]},
			"US":{"link":"y","rent":[{"provider_id":3}]}
		}}`))
	})

	tests := []struct {
		region string
		want   []int
	}{
		{"ES", []int{8}},
		{"es", []int{8}},
		{"US", []int{}},
		{"FR", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			got, err := svc.GetWatchProviders(context.Background(), 5, tt.region)
			if err != nil {
				t.Fatalf("GetWatchProviders: %v", err)
			}
			if got == nil {
				t.Fatal("expected non-nil providers")
			}
			gotIDs := make([]int, len(got))
			for i, p := range got {
				gotIDs[i] = p.ProviderID
			}
			if !equalInts(gotIDs, tt.want) {
				t.Fatalf("providers = %v, want %v", gotIDs, tt.want)
			}
		})
	}
}

func TestTMDBService_EmptySearchQuery(t *testing.T) {
	called := false
	svc := newTestTMDB(t, TMDBConfig{APIKey: "k"}, nil, func(http.ResponseWriter, *http.Request) { called = true })

	if _, err := svc.SearchMovies(context.Background(), "  ", 1); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if called {
		t.Fatal("empty search reached the API")
	}
}

func TestTMDBService_ErrorsAreClassified(t *testing.T) {
	status := http.StatusNotFound
	body := `{"status_message":"not found"}`
	svc := newTestTMDB(t, TMDBConfig{APIKey: "k"}, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	_, err := svc.GetMovie(context.Background(), 1)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound || !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}

	status, body = http.StatusOK, `{"id":`
	if _, err := svc.GetMovie(context.Background(), 1); !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestTMDBService_PopularUsesCache(t *testing.T) {
	hits := 0
	cache := &memoryPageCache{data: map[string][]byte{}}
	svc := newTestTMDB(t, TMDBConfig{APIKey: "k", Language: "es-ES"}, cache, func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/movie/popular" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`))
	})

	for i := 0; i < 3; i++ {
		page, err := svc.PopularMovies(context.Background(), 1)
		if err != nil {
			t.Fatalf("PopularMovies: %v", err)
		}
		if !equalInts(ids(page.Results), []int{1, 2}) {
			t.Fatalf("results = %v", ids(page.Results))
		}
	}
	if hits != 1 {
		t.Fatalf("API hit %d times, want 1", hits)
	}
	if _, ok := cache.data["popular:es-ES:1"]; !ok {
		t.Fatalf("cache keys = %v", cache.data)
	}
}

func TestTMDBService_UpcomingMissingResults(t *testing.T) {
	svc := newTestTMDB(t, TMDBConfig{APIKey: "k"}, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":3,"total_pages":2}`))
	})

	page, err := svc.UpcomingMovies(context.Background(), 3)
	if err != nil {
		t.Fatalf("UpcomingMovies: %v", err)
	}
	if page.Results != nil {
		t.Fatalf("expected nil results, got %v", page.Results)
	}
	if !endOfData(page) {
		t.Fatal("page without results must end the feed")
	}
}

func TestTMDBService_GetImageURL(t *testing.T) {
	svc := NewTMDBService(TMDBConfig{ImageBaseURL: "https://img.example/t/p/original"}, nil, zerolog.Nop())
	if got := svc.GetImageURL("/x.jpg"); got != "https://img.example/t/p/original/x.jpg" {
		t.Fatalf("GetImageURL = %q", got)
	}
	if svc.GetImageURL("") != "" {
		t.Fatal("empty path should yield empty URL")
	}
}

var _ UpcomingLister = (*TMDBService)(nil)
var _ PopularLister = (*TMDBService)(nil)
var _ Recommender = (*BackendClient)(nil)
var _ IntroSource = (*BackendClient)(nil)
