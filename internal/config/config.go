package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	TMDB     TMDBConfig
	Backend  BackendConfig
	Upcoming UpcomingConfig
	Carousel CarouselConfig
	NATS     NATSConfig
	Keys     KeysConfig
}

type ServerConfig struct {
	Env                 string `validate:"required"`
	Port                string `validate:"required,numeric"`
	AllowedOrigins      []string
	FeedRefreshInterval time.Duration `validate:"gt=0"`
}

type LogConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

// StoreConfig selects the durable key-value backend for favorites and the intro flag
type StoreConfig struct {
	Backend    string `validate:"oneof=badger redis postgres memory"`
	BadgerPath string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TLS      bool
}

type TMDBConfig struct {
	APIKey       string
	ReadToken    string
	BaseURL      string `validate:"required,url"`
	ImageBaseURL string `validate:"required,url"`
	Language     string `validate:"required"`
	Region       string `validate:"required,len=2"`
	PopularLimit int    `validate:"gte=1,lte=20"`
	CacheTTL     time.Duration
	Timeout      time.Duration `validate:"gt=0"`
}

// BackendConfig points at the recommendation backend
type BackendConfig struct {
	URL              string        `validate:"required,url"`
	RecommendTimeout time.Duration `validate:"gt=0"`
	IntroLimit       int           `validate:"gte=1"`
}

type UpcomingConfig struct {
	Language string `validate:"required"`
	Limit    int    `validate:"gte=1"`
	MaxPages int    `validate:"gte=1"`
}

type CarouselConfig struct {
	Window   int           `validate:"gte=1"`
	Interval time.Duration `validate:"gt=0"`
}

type NATSConfig struct {
	URL     string
	Subject string
}

// KeysConfig holds the durable keys used for persisted client state
type KeysConfig struct {
	Favorites string `validate:"required"`
	Intro     string `validate:"required"`
}

// Load reads environment variables and returns a Config struct
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Env:                 getEnv("APP_ENV", "local"),
			Port:                getEnv("PORT", "4000"),
			AllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			FeedRefreshInterval: getEnvDuration("FEED_REFRESH_INTERVAL", 30*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", "badger"),
			BadgerPath: getEnv("BADGER_PATH", "data/badger"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TLS:      getEnvBool("REDIS_TLS", false),
		},
		TMDB: TMDBConfig{
			APIKey:       getEnv("TMDB_KEY", ""),
			ReadToken:    getEnv("TMDB_READ_TOKEN", ""),
			BaseURL:      getEnv("TMDB_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL: getEnv("TMDB_IMAGE_URL", "https://image.tmdb.org/t/p/original"),
			Language:     getEnv("TMDB_LANGUAGE", "es-ES"),
			Region:       getEnv("TMDB_REGION", "ES"),
			PopularLimit: getEnvInt("POPULAR_LIMIT", 10),
			CacheTTL:     getEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute),
			Timeout:      getEnvDuration("TMDB_TIMEOUT", 10*time.Second),
		},
		Backend: BackendConfig{
			URL:              getEnv("BACKEND_URL", "http://localhost:5000"),
			RecommendTimeout: getEnvDuration("RECOMMEND_TIMEOUT", 20*time.Second),
			IntroLimit:       getEnvInt("INTRO_LIMIT", 100),
		},
		Upcoming: UpcomingConfig{
			Language: getEnv("UPCOMING_LANGUAGE", "en"),
			Limit:    getEnvInt("UPCOMING_LIMIT", 20),
			MaxPages: getEnvInt("UPCOMING_MAX_PAGES", 10),
		},
		Carousel: CarouselConfig{
			Window:   getEnvInt("CAROUSEL_WINDOW", 5),
			Interval: getEnvDuration("CAROUSEL_INTERVAL", 8*time.Second),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "cinematch.favorites.changed"),
		},
		Keys: KeysConfig{
			Favorites: getEnv("FAVORITES_KEY", "cinematch:favorites"),
			Intro:     getEnv("INTRO_KEY", "cinematch:hasSeenIntro"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct constraints and the cross-field requirements
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.TMDB.APIKey == "" && c.TMDB.ReadToken == "" {
		return fmt.Errorf("TMDB_KEY or TMDB_READ_TOKEN is required")
	}
	switch c.Store.Backend {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("REDIS_HOST is required for the redis store")
		}
	case "memory":
		if c.IsProduction() {
			return fmt.Errorf("the memory store is not allowed in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment returns true if running in development/local mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "local" || c.Server.Env == "development"
}

// RedisEnabled reports whether a Redis server is configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// RedisAddr returns the Redis address in host:port format
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
