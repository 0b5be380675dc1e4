package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	App      AppConfig
	Storage  StorageConfig
	Geofence GeofenceConfig
	Geocoder GeocoderConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	OfficeCacheTTL time.Duration
	OrphanQueueKey string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// StorageConfig controls where attendance photos live and how they are served
type StorageConfig struct {
	BasePath     string
	BaseURL      string
	URLExpiry    time.Duration
	MaxDimension int
	JPEGQuality  int
}

// GeofenceConfig holds defaults used when the office row leaves them unset
type GeofenceConfig struct {
	DefaultRadiusMeters float64
	LocationTimeout     time.Duration
	LocationMaxAge      time.Duration
}

type GeocoderConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type CronConfig struct {
	Enabled             bool
	OrphanSweepInterval time.Duration
	OrphanBatchSize     int64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Warn("No .env file found, using environment variables only")
	}

	l := &loader{}
	config := &Config{}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     l.int("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "ops_portal"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(l.int("DB_MAX_CONNS", 25)),
		MinConns: int32(l.int("DB_MIN_CONNS", 5)),
	}

	// Redis configuration
	config.Redis = RedisConfig{
		Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
		Password:       getEnv("REDIS_PASSWORD", ""),
		DB:             l.int("REDIS_DB", 0),
		OfficeCacheTTL: l.duration("OFFICE_CACHE_TTL", 5*time.Minute),
		OrphanQueueKey: getEnv("ORPHAN_PHOTO_QUEUE_KEY", "attendance:orphaned_photos"),
	}

	// Application configuration
	config.App = AppConfig{
		Port:           l.int("APP_PORT", 8080),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Storage configuration
	config.Storage = StorageConfig{
		BasePath:     getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:      getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
		URLExpiry:    l.duration("PHOTO_URL_EXPIRY", 15*time.Minute),
		MaxDimension: l.int("PHOTO_MAX_DIMENSION", 1280),
		JPEGQuality:  l.int("PHOTO_JPEG_QUALITY", 80),
	}

	// Geofence defaults
	config.Geofence = GeofenceConfig{
		DefaultRadiusMeters: l.float("GEOFENCE_DEFAULT_RADIUS_METERS", 100),
		LocationTimeout:     l.duration("LOCATION_TIMEOUT", 15*time.Second),
		LocationMaxAge:      l.duration("LOCATION_MAX_AGE", 30*time.Second),
	}

	config.Geocoder = GeocoderConfig{
		Enabled:   l.bool("GEOCODER_ENABLED", true),
		BaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		UserAgent: getEnv("GEOCODER_USER_AGENT", "ops-portal/1.0"),
		Timeout:   l.duration("GEOCODER_TIMEOUT", 5*time.Second),
	}

	config.Cron = CronConfig{
		Enabled:             l.bool("CRON_ENABLED", true),
		OrphanSweepInterval: l.duration("ORPHAN_SWEEP_INTERVAL", 10*time.Minute),
		OrphanBatchSize:     int64(l.int("ORPHAN_SWEEP_BATCH_SIZE", 100)),
	}

	if l.err != nil {
		return nil, l.err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Geofence.DefaultRadiusMeters <= 0 {
		return fmt.Errorf("GEOFENCE_DEFAULT_RADIUS_METERS must be positive")
	}
	if c.Storage.JPEGQuality < 1 || c.Storage.JPEGQuality > 100 {
		return fmt.Errorf("PHOTO_JPEG_QUALITY must be between 1 and 100")
	}
	if c.Cron.OrphanSweepInterval <= 0 {
		return fmt.Errorf("ORPHAN_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// Location returns the time zone that defines the attendance calendar day
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// SlogLevel parses LOG_LEVEL, falling back to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// loader keeps the first parse error so Load can report it once
type loader struct {
	err error
}

func (l *loader) fail(key string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (l *loader) int(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return n
}

func (l *loader) float(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return f
}

func (l *loader) bool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return b
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
