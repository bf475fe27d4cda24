// Package supervisor runs the server's long-lived services under a suture tree.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// TreeConfig holds supervisor tree configuration
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when the threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service gets to stop.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// Tree groups services into two layers: background workers (carousel
// rotators, feed refresher) and the HTTP API. A crashing worker is restarted
// without taking the API down.
type Tree struct {
	root    *suture.Supervisor
	workers *suture.Supervisor
	api     *suture.Supervisor
	logger  zerolog.Logger
}

// NewTree creates a supervisor tree. Zero config values take the defaults.
func NewTree(logger zerolog.Logger, cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	spec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = eventHook(logger)

	root := suture.New("cinematch", rootSpec)
	workers := suture.New("workers", spec)
	api := suture.New("api", spec)
	root.Add(workers)
	root.Add(api)

	return &Tree{root: root, workers: workers, api: api, logger: logger}
}

// AddWorker adds a background service
func (t *Tree) AddWorker(svc suture.Service) suture.ServiceToken {
	return t.workers.Add(svc)
}

// AddAPIService adds a service to the API layer
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is cancelled
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// LogUnstopped reports services that missed the shutdown deadline
func (t *Tree) LogUnstopped() {
	report, err := t.root.UnstoppedServiceReport()
	if err != nil {
		t.logger.Warn().Err(err).Msg("Failed to collect unstopped services")
		return
	}
	for _, svc := range report {
		t.logger.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
	}
}

func eventHook(logger zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		var event *zerolog.Event
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
			event = logger.Error()
		case suture.EventTypeBackoff, suture.EventTypeStopTimeout:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		// Map also carries the service and supervisor values themselves
		for k, v := range e.Map() {
			switch v := v.(type) {
			case string:
				event = event.Str(k, v)
			case float64:
				event = event.Float64(k, v)
			case bool:
				event = event.Bool(k, v)
			}
		}
		event.Msg(e.String())
	}
}
