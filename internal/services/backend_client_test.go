package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *BackendClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBackendClient(BackendConfig{URL: server.URL, Timeout: 2 * time.Second}, zerolog.Nop())
}

func TestBackendClient_Recommend(t *testing.T) {
	var gotPath string
	var gotBody models.RecommendRequest
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recommendations":[{"id":10,"title":"A"},{"id":20,"title":"B"}]}`))
	})

	got, err := client.Recommend(context.Background(), []models.Movie{movie(1, "Fav")})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if gotPath != "/recommend" {
		t.Errorf("path = %s", gotPath)
	}
	if len(gotBody.Favorites) != 1 || gotBody.Favorites[0].ID != 1 {
		t.Errorf("request favorites = %+v", gotBody.Favorites)
	}
	if !equalInts(ids(got), []int{10, 20}) {
		t.Fatalf("got %v", ids(got))
	}
}

func TestBackendClient_RecommendByActorsKeepsSharedActors(t *testing.T) {
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommend-by-actors" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"recommendations":[{"id":10,"title":"A","shared_actors":[{"id":3,"name":"Actor","profile_path":null}]}]}`))
	})

	got, err := client.RecommendByActors(context.Background(), []models.Movie{movie(1, "Fav")})
	if err != nil {
		t.Fatalf("RecommendByActors: %v", err)
	}
	if len(got) != 1 || len(got[0].SharedActors) != 1 || got[0].SharedActors[0].Name != "Actor" {
		t.Fatalf("got %+v", got)
	}
}

func TestBackendClient_RecommendByGenres(t *testing.T) {
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recommendations":{"Drama":[{"id":1,"title":"A"}],"Comedy":[]}}`))
	})

	got, err := client.RecommendByGenres(context.Background(), []models.Movie{movie(1, "Fav")})
	if err != nil {
		t.Fatalf("RecommendByGenres: %v", err)
	}
	if len(got) != 2 || len(got["Drama"]) != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestBackendClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrNetwork},
		{"bad request", http.StatusBadRequest, `{"error":"No favorites provided"}`, ErrNetwork},
		{"malformed json", http.StatusOK, `{"recommendations":`, ErrDecode},
		{"missing field", http.StatusOK, `{"results":[]}`, ErrDecode},
		{"wrong shape", http.StatusOK, `{"recommendations":{"a":1}}`, ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Recommend(context.Background(), []models.Movie{movie(1, "Fav")})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackendClient_EmptyFavoritesShortCircuits(t *testing.T) {
	called := false
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	if _, err := client.Recommend(context.Background(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if _, err := client.Compatibility(context.Background(), 1, nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if called {
		t.Fatal("backend called with empty favorites")
	}
}

func TestBackendClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewBackendClient(BackendConfig{URL: url, Timeout: time.Second}, zerolog.Nop())
	_, err := client.Recommend(context.Background(), []models.Movie{movie(1, "Fav")})
	if KindOf(err) != FailureNetwork {
		t.Fatalf("kind = %v (%v), want network", KindOf(err), err)
	}
}

func TestBackendClient_Compatibility(t *testing.T) {
	var got models.CompatibilityRequest
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/compatibility" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"compatibility":0.82}`))
	})

	score, err := client.Compatibility(context.Background(), 42, []models.Movie{movie(1, "Fav")})
	if err != nil || score != 0.82 {
		t.Fatalf("score=%v err=%v", score, err)
	}
	if got.MovieID != 42 || len(got.Favorites) != 1 {
		t.Fatalf("request = %+v", got)
	}
}

func TestBackendClient_IntroMovies(t *testing.T) {
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/intro-movies" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var sb strings.Builder
		sb.WriteString("[")
		for i := 1; i <= 3; i++ {
			if i > 1 {
				sb.WriteString(",")
			}
			sb.WriteString(`{"id":` + string(rune('0'+i)) + `,"title":"m"}`)
		}
		sb.WriteString("]")
		_, _ = w.Write([]byte(sb.String()))
	})

	got, err := client.IntroMovies(context.Background())
	if err != nil {
		t.Fatalf("IntroMovies: %v", err)
	}
	if !equalInts(ids(got), []int{1, 2, 3}) {
		t.Fatalf("got %v", ids(got))
	}
}
