// Package events publishes favorites change notifications to NATS.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/liamwears/cinematch/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const EventFavoritesChanged = "favorites.changed"

// FavoritesChanged is the payload published after every toggle
type FavoritesChanged struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Count       int       `json:"count"`
	FavoriteIDs []int     `json:"favorite_ids"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type publishConn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends favorites events to a subject. Without a connection it only logs.
type Publisher struct {
	conn    publishConn
	nc      *nats.Conn
	subject string
	logger  zerolog.Logger
}

// Connect dials NATS. An empty url yields a stub publisher.
func Connect(url, subject string, logger zerolog.Logger) (*Publisher, error) {
	logger = logger.With().Str("component", "events").Logger()

	if url == "" {
		logger.Warn().Msg("NATS_URL not set, favorites events will not be published")
		return &Publisher{subject: subject, logger: logger}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("cinematch"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}

	logger.Info().Str("subject", subject).Msg("NATS publisher initialised")
	return &Publisher{conn: nc, nc: nc, subject: subject, logger: logger}, nil
}

// OnFavoritesChanged publishes a snapshot. It has the FavoritesListener signature.
func (p *Publisher) OnFavoritesChanged(snapshot []models.Movie) {
	ids := make([]int, len(snapshot))
	for i, m := range snapshot {
		ids[i] = m.ID
	}

	evt := FavoritesChanged{
		EventID:     uuid.NewString(),
		EventType:   EventFavoritesChanged,
		Count:       len(snapshot),
		FavoriteIDs: ids,
		OccurredAt:  time.Now().UTC(),
	}

	if err := p.Publish(evt); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		p.logger.Error().Err(err).Str("event_id", evt.EventID).Msg("Failed to publish favorites event")
	}
}

// Publish sends evt to the configured subject
func (p *Publisher) Publish(evt FavoritesChanged) error {
	if p.conn == nil {
		p.logger.Debug().Str("event_id", evt.EventID).Msg("NATS stub: skipping publish")
		metrics.EventsPublished.WithLabelValues("skipped").Inc()
		return nil
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}

	metrics.EventsPublished.WithLabelValues("ok").Inc()
	p.logger.Debug().Str("subject", p.subject).Str("event_id", evt.EventID).Int("count", evt.Count).Msg("Favorites event published")
	return nil
}

// Close drains the connection
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.logger.Warn().Err(err).Msg("NATS drain failed")
		}
	}
}
