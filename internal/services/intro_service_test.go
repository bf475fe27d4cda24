package services

import (
	"context"
	"errors"
	"testing"

	"github.com/liamwears/cinematch/internal/database"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/rs/zerolog"
)

type fakeIntroSource struct {
	movies []models.Movie
	err    error
}

func (f fakeIntroSource) IntroMovies(context.Context) ([]models.Movie, error) {
	return f.movies, f.err
}

func TestIntroService_Flag(t *testing.T) {
	ctx := context.Background()
	svc := NewIntroService(database.NewMemoryKV(), fakeIntroSource{}, "hasSeenIntro", 100, zerolog.Nop())

	seen, err := svc.HasSeenIntro(ctx)
	if err != nil || seen {
		t.Fatalf("fresh store: seen=%v err=%v", seen, err)
	}

	if err := svc.MarkIntroSeen(ctx); err != nil {
		t.Fatalf("MarkIntroSeen: %v", err)
	}

	seen, err = svc.HasSeenIntro(ctx)
	if err != nil || !seen {
		t.Fatalf("after mark: seen=%v err=%v", seen, err)
	}
}

func TestIntroService_FlagErrors(t *testing.T) {
	svc := NewIntroService(failingKV{getErr: errors.New("io"), setErr: errors.New("io")}, fakeIntroSource{}, "k", 0, zerolog.Nop())

	if _, err := svc.HasSeenIntro(context.Background()); err == nil {
		t.Fatal("expected read error")
	}
	if err := svc.MarkIntroSeen(context.Background()); err == nil {
		t.Fatal("expected write error")
	}
}

func TestIntroService_TruncatesMovies(t *testing.T) {
	many := make([]models.Movie, 150)
	for i := range many {
		many[i] = movie(i+1, "m")
	}
	svc := NewIntroService(database.NewMemoryKV(), fakeIntroSource{movies: many}, "k", 100, zerolog.Nop())

	got, err := svc.IntroMovies(context.Background())
	if err != nil {
		t.Fatalf("IntroMovies: %v", err)
	}
	if len(got) != 100 || got[0].ID != 1 || got[99].ID != 100 {
		t.Fatalf("got %d movies", len(got))
	}

	empty := NewIntroService(database.NewMemoryKV(), fakeIntroSource{}, "k", 100, zerolog.Nop())
	got, err = empty.IntroMovies(context.Background())
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("empty source: %v %v", got, err)
	}
}
