package carousel

import (
	"sort"
	"sync"

	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/liamwears/cinematch/internal/models"
)

// Names of the carousels fed by the catalog
const (
	Popular  = "popular"
	Upcoming = "upcoming"
)

// Command is a manual navigation request
type Command string

const (
	CommandNext     Command = "next"
	CommandPrevious Command = "previous"
	CommandJump     Command = "jump"
)

type entry struct {
	carousel *Carousel
	rotator  *Rotator
}

// Registry holds the named carousels and their rotators
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a carousel. rotator may be nil.
func (r *Registry) Register(c *Carousel, rotator *Rotator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[c.Name()] = entry{carousel: c, rotator: rotator}
}

// Get returns the carousel registered under name
func (r *Registry) Get(name string) (*Carousel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.carousel, ok
}

// Names returns the registered carousel names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Rotators returns every registered rotator
func (r *Registry) Rotators() []*Rotator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Rotator, 0, len(r.entries))
	for _, name := range r.namesLocked() {
		if rot := r.entries[name].rotator; rot != nil {
			out = append(out, rot)
		}
	}
	return out
}

// Reset replaces the sequence of the named carousel. It reports false for unknown names.
func (r *Registry) Reset(name string, items []models.Movie) bool {
	e, ok := r.lookup(name)
	if !ok {
		return false
	}
	e.carousel.Reset(items)
	if e.rotator != nil {
		e.rotator.Touch()
	}
	return true
}

// Navigate applies a manual command and restarts the auto-rotation interval
func (r *Registry) Navigate(name string, cmd Command, offset int) (State, bool) {
	e, ok := r.lookup(name)
	if !ok {
		return State{}, false
	}

	switch cmd {
	case CommandNext:
		e.carousel.Next()
	case CommandPrevious:
		e.carousel.Previous()
	case CommandJump:
		e.carousel.JumpToOffset(offset)
	default:
		return State{}, false
	}

	if e.rotator != nil {
		e.rotator.Touch()
	}
	metrics.CarouselMoves.WithLabelValues(name, string(cmd)).Inc()
	return e.carousel.State(), true
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
