package carousel

import (
	"context"
	"time"

	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/rs/zerolog"
)

// Rotator advances a carousel on a fixed interval. It runs as a supervised service.
type Rotator struct {
	carousel *Carousel
	interval time.Duration
	touch    chan struct{}
	logger   zerolog.Logger
}

func NewRotator(c *Carousel, interval time.Duration, logger zerolog.Logger) *Rotator {
	if interval <= 0 {
		interval = 8 * time.Second
	}
	return &Rotator{
		carousel: c,
		interval: interval,
		touch:    make(chan struct{}, 1),
		logger:   logger.With().Str("carousel", c.Name()).Logger(),
	}
}

// Touch restarts the interval after manual navigation
func (r *Rotator) Touch() {
	select {
	case r.touch <- struct{}{}:
	default:
	}
}

// Serve implements suture.Service
func (r *Rotator) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug().Dur("interval", r.interval).Msg("Carousel rotator started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.touch:
			ticker.Reset(r.interval)
		case <-ticker.C:
			if r.carousel.Len() == 0 {
				continue
			}
			r.carousel.Next()
			metrics.CarouselMoves.WithLabelValues(r.carousel.Name(), "auto").Inc()
		}
	}
}

func (r *Rotator) String() string {
	return "carousel-rotator-" + r.carousel.Name()
}
