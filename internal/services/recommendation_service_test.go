package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/liamwears/cinematch/internal/database"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

type fakeRecommender struct {
	mu       sync.Mutex
	calls    map[string]int
	received map[string][]models.Movie

	taste  func(ctx context.Context, favs []models.Movie) ([]models.Movie, error)
	actors func(ctx context.Context, favs []models.Movie) ([]models.Movie, error)
	genres func(ctx context.Context, favs []models.Movie) (models.GenreRecommendations, error)
	compat func(ctx context.Context, id int, favs []models.Movie) (float64, error)
}

func newFakeRecommender() *fakeRecommender {
	return &fakeRecommender{calls: map[string]int{}, received: map[string][]models.Movie{}}
}

func (f *fakeRecommender) record(name string, favs []models.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	f.received[name] = models.CloneMovies(favs)
}

func (f *fakeRecommender) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeRecommender) Recommend(ctx context.Context, favs []models.Movie) ([]models.Movie, error) {
	f.record("taste", favs)
	if f.taste == nil {
		return []models.Movie{}, nil
	}
	return f.taste(ctx, favs)
}

func (f *fakeRecommender) RecommendByActors(ctx context.Context, favs []models.Movie) ([]models.Movie, error) {
	f.record("actors", favs)
	if f.actors == nil {
		return []models.Movie{}, nil
	}
	return f.actors(ctx, favs)
}

func (f *fakeRecommender) RecommendByGenres(ctx context.Context, favs []models.Movie) (models.GenreRecommendations, error) {
	f.record("genres", favs)
	if f.genres == nil {
		return models.GenreRecommendations{}, nil
	}
	return f.genres(ctx, favs)
}

func (f *fakeRecommender) Compatibility(ctx context.Context, id int, favs []models.Movie) (float64, error) {
	f.record("compat", favs)
	if f.compat == nil {
		return 0, nil
	}
	return f.compat(ctx, id, favs)
}

func TestRecommendationService_EmptyFavoritesMakesNoCalls(t *testing.T) {
	rec := newFakeRecommender()
	svc := NewRecommendationService(rec, time.Second, zerolog.Nop())

	svc.Refresh(nil)
	svc.Wait()

	if n := rec.totalCalls(); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
	snap := svc.Snapshot()
	if snap.Loading {
		t.Fatal("loading should be false")
	}
	if len(snap.ByTaste) != 0 || len(snap.ByActor) != 0 || len(snap.ByGenre) != 0 {
		t.Fatalf("expected empty categories, got %+v", snap)
	}
	if snap.ByTaste == nil || snap.ByActor == nil || snap.ByGenre == nil {
		t.Fatal("empty categories must be non-nil")
	}
}

func TestRecommendationService_ByTasteResult(t *testing.T) {
	rec := newFakeRecommender()
	rec.taste = func(context.Context, []models.Movie) ([]models.Movie, error) {
		return []models.Movie{movie(100, "A"), movie(200, "B")}, nil
	}
	svc := NewRecommendationService(rec, time.Second, zerolog.Nop())

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	svc.Wait()

	snap := svc.Snapshot()
	if got := ids(snap.ByTaste); !equalInts(got, []int{100, 200}) {
		t.Fatalf("by-taste = %v, want [100 200]", got)
	}
	if snap.Loading || svc.Loading() {
		t.Fatal("loading should be false after resolution")
	}
}

func TestRecommendationService_IndependentFailures(t *testing.T) {
	rec := newFakeRecommender()
	rec.taste = func(context.Context, []models.Movie) ([]models.Movie, error) {
		return nil, fmt.Errorf("%w: connection refused", ErrNetwork)
	}
	rec.actors = func(context.Context, []models.Movie) ([]models.Movie, error) {
		return []models.Movie{movie(7, "Shared cast")}, nil
	}
	rec.genres = func(context.Context, []models.Movie) (models.GenreRecommendations, error) {
		return nil, fmt.Errorf("%w: missing field", ErrDecode)
	}
	svc := NewRecommendationService(rec, time.Second, zerolog.Nop())

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	svc.Wait()

	snap := svc.Snapshot()
	if len(snap.ByTaste) != 0 {
		t.Fatalf("failed category should be empty, got %v", ids(snap.ByTaste))
	}
	if got := ids(snap.ByActor); !equalInts(got, []int{7}) {
		t.Fatalf("by-actor = %v, want [7]", got)
	}
	if len(snap.ByGenre) != 0 {
		t.Fatalf("failed genre category should be empty, got %v", snap.ByGenre)
	}
	if snap.Loading {
		t.Fatal("loading stuck after failures")
	}
}

func TestRecommendationService_FailureReplacesPreviousResult(t *testing.T) {
	rec := newFakeRecommender()
	fail := false
	rec.taste = func(context.Context, []models.Movie) ([]models.Movie, error) {
		if fail {
			return nil, ErrNetwork
		}
		return []models.Movie{movie(100, "A")}, nil
	}
	svc := NewRecommendationService(rec, time.Second, zerolog.Nop())

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	svc.Wait()
	fail = true
	svc.Refresh([]models.Movie{movie(1, "Fav"), movie(2, "Fav 2")})
	svc.Wait()

	if got := svc.Snapshot().ByTaste; len(got) != 0 {
		t.Fatalf("stale result kept after failure: %v", ids(got))
	}
}

func TestRecommendationService_LoadingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	rec := newFakeRecommender()
	rec.taste = func(context.Context, []models.Movie) ([]models.Movie, error) {
		<-release
		return []models.Movie{movie(100, "A")}, nil
	}
	svc := NewRecommendationService(rec, 5*time.Second, zerolog.Nop())

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	if !svc.Loading() {
		t.Fatal("expected loading while a request is outstanding")
	}

	close(release)
	svc.Wait()
	if svc.Loading() {
		t.Fatal("expected loading to clear")
	}
}

func TestRecommendationService_TimeoutClearsLoading(t *testing.T) {
	rec := newFakeRecommender()
	rec.taste = func(ctx context.Context, _ []models.Movie) ([]models.Movie, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	svc := NewRecommendationService(rec, 20*time.Millisecond, zerolog.Nop())

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	svc.Wait()

	if svc.Loading() {
		t.Fatal("loading stuck after timeout")
	}
	if len(svc.Snapshot().ByTaste) != 0 {
		t.Fatal("timed out category should be empty")
	}
}

func TestRecommendationService_DiscardsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	rec := newFakeRecommender()
	rec.taste = func(_ context.Context, favs []models.Movie) ([]models.Movie, error) {
		if len(favs) == 1 {
			<-release
			return []models.Movie{movie(111, "old")}, nil
		}
		return []models.Movie{movie(222, "new")}, nil
	}
	svc := NewRecommendationService(rec, 5*time.Second, zerolog.Nop())

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	svc.Refresh([]models.Movie{movie(1, "Fav"), movie(2, "Fav 2")})

	// Let the newer request land first, then release the older one
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := ids(svc.Snapshot().ByTaste); equalInts(got, []int{222}) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	svc.Wait()

	if got := ids(svc.Snapshot().ByTaste); !equalInts(got, []int{222}) {
		t.Fatalf("by-taste = %v, want [222]", got)
	}
}

func TestRecommendationService_EmptyTriggerDiscardsInFlight(t *testing.T) {
	release := make(chan struct{})
	rec := newFakeRecommender()
	rec.taste = func(context.Context, []models.Movie) ([]models.Movie, error) {
		<-release
		return []models.Movie{movie(111, "old")}, nil
	}
	svc := NewRecommendationService(rec, 5*time.Second, zerolog.Nop())

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	svc.Refresh(nil)
	close(release)
	svc.Wait()

	if got := svc.Snapshot().ByTaste; len(got) != 0 {
		t.Fatalf("response for removed favorites leaked: %v", ids(got))
	}
}

func TestRecommendationService_UsesCapturedSnapshot(t *testing.T) {
	rec := newFakeRecommender()
	svc := NewRecommendationService(rec, time.Second, zerolog.Nop())

	favs := []models.Movie{movie(1, "Original")}
	svc.Refresh(favs)
	favs[0].Title = "mutated"
	svc.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, name := range []string{"taste", "actors", "genres"} {
		got := rec.received[name]
		if len(got) != 1 || got[0].Title != "Original" {
			t.Fatalf("%s received %+v", name, got)
		}
	}
}

func TestRecommendationService_AttachFollowsStore(t *testing.T) {
	ctx := context.Background()
	store := NewFavoritesStore(database.NewMemoryKV(), "favs", zerolog.Nop())
	_, _ = store.Toggle(ctx, movie(1, "A"))

	rec := newFakeRecommender()
	svc := NewRecommendationService(rec, time.Second, zerolog.Nop())

	detach := svc.Attach(store)
	svc.Wait()
	if rec.totalCalls() != 3 {
		t.Fatalf("eager refresh made %d calls, want 3", rec.totalCalls())
	}

	_, _ = store.Toggle(ctx, movie(2, "B"))
	svc.Wait()

	rec.mu.Lock()
	got := ids(rec.received["taste"])
	rec.mu.Unlock()
	if !equalInts(got, []int{1, 2}) {
		t.Fatalf("toggle refresh sent %v, want [1 2]", got)
	}

	detach()
	_, _ = store.Toggle(ctx, movie(3, "C"))
	svc.Wait()
	if rec.totalCalls() != 6 {
		t.Fatalf("detached orchestrator still refreshed: %d calls", rec.totalCalls())
	}
}

func TestRecommendationService_Compatibility(t *testing.T) {
	rec := newFakeRecommender()
	rec.compat = func(_ context.Context, id int, _ []models.Movie) (float64, error) {
		if id == 404 {
			return 0, ErrNetwork
		}
		return 1.7, nil
	}
	svc := NewRecommendationService(rec, time.Second, zerolog.Nop())

	if _, ok, err := svc.Compatibility(context.Background(), 5); ok || err != nil {
		t.Fatalf("expected short-circuit without favorites, ok=%v err=%v", ok, err)
	}
	if rec.totalCalls() != 0 {
		t.Fatal("compatibility called the backend without favorites")
	}

	svc.Refresh([]models.Movie{movie(1, "Fav")})
	svc.Wait()

	score, ok, err := svc.Compatibility(context.Background(), 5)
	if err != nil || !ok || score != 1 {
		t.Fatalf("score=%v ok=%v err=%v, want clamped 1", score, ok, err)
	}

	_, ok, err = svc.Compatibility(context.Background(), 404)
	if ok || !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure, ok=%v err=%v", ok, err)
	}
}
