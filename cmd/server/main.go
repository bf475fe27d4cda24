package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/liamwears/cinematch/internal/carousel"
	"github.com/liamwears/cinematch/internal/config"
	"github.com/liamwears/cinematch/internal/database"
	"github.com/liamwears/cinematch/internal/events"
	"github.com/liamwears/cinematch/internal/handlers"
	"github.com/liamwears/cinematch/internal/logging"
	"github.com/liamwears/cinematch/internal/middleware"
	"github.com/liamwears/cinematch/internal/services"
	"github.com/liamwears/cinematch/internal/supervisor"
	"github.com/rs/zerolog"
)

func main() {
	// Check for migrate command
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrations()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info().Str("env", cfg.Server.Env).Str("store", cfg.Store.Backend).Msg("Starting CineMatch server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Server exited")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := map[string]handlers.HealthChecker{}

	// Optional Redis: catalog cache, rate limiting and the redis store
	var redisClient *database.RedisClient
	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(database.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			TLS:      cfg.Redis.TLS,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		redisClient = client
		health["redis"] = redisClient
	}

	// Optional Postgres for the postgres store
	var db *database.DB
	if cfg.Store.Backend == "postgres" {
		pg, err := database.New(ctx, database.Config{URL: cfg.Database.URL}, logger)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pg.Close()
		if err := database.NewMigrator(pg.Pool, logger).Up(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		health["database"] = pg
		db = pg
	}

	kv, err := database.NewKV(database.KVOptions{
		Backend:    cfg.Store.Backend,
		BadgerPath: cfg.Store.BadgerPath,
		Redis:      redisClient,
		DB:         db,
	}, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()
	health["store"] = kv

	// Catalog and backend clients
	var pageCache services.PageCache
	if redisClient != nil {
		pageCache = database.NewRedisCache(redisClient, "cinematch:catalog", cfg.TMDB.CacheTTL)
	}
	tmdb := services.NewTMDBService(services.TMDBConfig{
		APIKey:       cfg.TMDB.APIKey,
		ReadToken:    cfg.TMDB.ReadToken,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Language:     cfg.TMDB.Language,
		Timeout:      cfg.TMDB.Timeout,
	}, pageCache, logger)
	backend := services.NewBackendClient(services.BackendConfig{
		URL:     cfg.Backend.URL,
		Timeout: cfg.Backend.RecommendTimeout,
	}, logger)

	// Favorites drive recommendations and change events
	favorites := services.NewFavoritesStore(kv, cfg.Keys.Favorites, logger)

	recommendations := services.NewRecommendationService(backend, cfg.Backend.RecommendTimeout, logger)
	detach := recommendations.Attach(favorites)
	defer detach()

	publisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer publisher.Close()
	unsubscribe := favorites.Subscribe(publisher.OnFavoritesChanged)
	defer unsubscribe()

	intro := services.NewIntroService(kv, backend, cfg.Keys.Intro, cfg.Backend.IntroLimit, logger)

	// Carousels and the feeds that fill them
	registry := carousel.NewRegistry()
	for _, name := range []string{carousel.Popular, carousel.Upcoming} {
		c := carousel.New(name, cfg.Carousel.Window)
		registry.Register(c, carousel.NewRotator(c, cfg.Carousel.Interval, logger))
	}

	upcoming := services.NewUpcomingService(tmdb, services.UpcomingConfig{
		Language: cfg.Upcoming.Language,
		MaxPages: cfg.Upcoming.MaxPages,
	}, logger)
	feed := services.NewFeedService(tmdb, upcoming, registry, services.FeedConfig{
		PopularLimit:     cfg.TMDB.PopularLimit,
		UpcomingLimit:    cfg.Upcoming.Limit,
		Interval:         cfg.Server.FeedRefreshInterval,
		RequestTimeout:   cfg.TMDB.Timeout,
		PopularCarousel:  carousel.Popular,
		UpcomingCarousel: carousel.Upcoming,
	}, logger)

	// HTTP surface
	validate := validator.New(validator.WithRequiredStructEnabled())
	h := handlers.Handlers{
		Favorites:       handlers.NewFavoritesHandler(favorites, validate, logger),
		Recommendations: handlers.NewRecommendationHandler(recommendations, favorites),
		TMDB: handlers.NewTMDBHandler(tmdb, feed, upcoming, recommendations, handlers.TMDBConfig{
			Region:        cfg.TMDB.Region,
			UpcomingLimit: cfg.Upcoming.Limit,
		}, logger),
		Carousels: handlers.NewCarouselHandler(registry, validate, logger),
		Intro:     handlers.NewIntroHandler(intro, logger),
		Health:    handlers.NewHealthHandler(health),
	}

	// 100 req/min in production, effectively unlimited in local/dev
	maxRequests := 1000
	if cfg.IsProduction() {
		maxRequests = 100
	}
	rateLimit := middleware.LocalLimit(maxRequests, time.Minute)
	if redisClient != nil {
		rateLimit = middleware.NewRateLimiter(redisClient.Client, maxRequests, time.Minute, cfg.IsProduction(), logger).Limit
	}

	router := handlers.NewRouter(h, handlers.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      rateLimit,
		Logger:         logger.With().Str("component", "http").Logger(),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logger.With().Str("component", "supervisor").Logger(), supervisor.TreeConfig{
		ShutdownTimeout: 30 * time.Second,
	})
	for _, rotator := range registry.Rotators() {
		tree.AddWorker(rotator)
	}
	tree.AddWorker(feed)
	tree.AddAPIService(supervisor.NewHTTPService(srv, 30*time.Second))

	logger.Info().Str("addr", addr).Msg("Server listening")
	err = tree.Serve(ctx)

	logger.Info().Msg("Shutting down server...")
	tree.LogUnstopped()
	recommendations.Wait()

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// runMigrations runs database migrations
func runMigrations() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Database.URL == "" {
		logger.Fatal().Msg("DATABASE_URL is required for migrations")
	}

	db, err := database.New(context.Background(), database.Config{URL: cfg.Database.URL}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Pool, logger)

	ctx := context.Background()
	direction := "up"
	if len(os.Args) > 2 {
		direction = os.Args[2]
	}

	switch direction {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	default:
		logger.Fatal().Str("direction", direction).Msg("Unknown migration direction")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("direction", direction).Msg("Migration failed")
	}

	logger.Info().Str("direction", direction).Msg("Migrations completed successfully")
}
