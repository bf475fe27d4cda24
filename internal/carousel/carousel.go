// Package carousel drives circular "now showing" rotations over movie lists.
package carousel

import (
	"sync"

	"github.com/liamwears/cinematch/internal/models"
)

// DefaultWindow is the number of preview thumbnails shown after the active item
const DefaultWindow = 5

// State is the view of a carousel handed to the UI
type State struct {
	Name    string         `json:"name"`
	Index   int            `json:"index"`
	Active  *models.Movie  `json:"active"`
	Preview []models.Movie `json:"preview"`
	Length  int            `json:"length"`
}

// Carousel is a circular index over an ordered movie sequence.
// Every operation on an empty sequence is a no-op.
type Carousel struct {
	name   string
	window int

	mu      sync.RWMutex
	items   []models.Movie
	current int
}

// New creates an empty carousel. window <= 0 selects DefaultWindow.
func New(name string, window int) *Carousel {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Carousel{name: name, window: window}
}

func (c *Carousel) Name() string { return c.name }

// Reset replaces the sequence and discards the previous position
func (c *Carousel) Reset(items []models.Movie) {
	cloned := models.CloneMovies(items)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = cloned
	c.current = 0
}

// Len returns the number of items in the sequence
func (c *Carousel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Index returns the active position, or -1 when the carousel is empty
func (c *Carousel) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		return -1
	}
	return c.current
}

// Current returns the active movie
func (c *Carousel) Current() (models.Movie, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		return models.Movie{}, false
	}
	return c.items[c.current].Clone(), true
}

func (c *Carousel) Next() {
	c.JumpToOffset(1)
}

func (c *Carousel) Previous() {
	c.JumpToOffset(-1)
}

// JumpToOffset moves k positions forward. Negative k moves backward.
func (c *Carousel) JumpToOffset(k int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	if n == 0 {
		return
	}
	c.current = ((c.current+k)%n + n) % n
}

// PreviewWindow returns up to w items following the active one, wrapping around.
// The active item is never included.
func (c *Carousel) PreviewWindow(w int) []models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.previewLocked(w)
}

func (c *Carousel) previewLocked(w int) []models.Movie {
	n := len(c.items)
	count := min(w, n-1)
	if count <= 0 {
		return []models.Movie{}
	}

	out := make([]models.Movie, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, c.items[(c.current+i)%n].Clone())
	}
	return out
}

// State returns the active item and the configured preview window
func (c *Carousel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := State{
		Name:    c.name,
		Index:   -1,
		Preview: c.previewLocked(c.window),
		Length:  len(c.items),
	}
	if len(c.items) > 0 {
		active := c.items[c.current].Clone()
		st.Index = c.current
		st.Active = &active
	}
	return st
}
