package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	goredis "github.com/redis/go-redis/v9"
)

const officeSettingsKey = "office:settings"

type cachedLocation struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}

type cachedSettings struct {
	Office          *cachedLocation `json:"office,omitempty"`
	GeofenceEnabled bool            `json:"geofence_enabled"`
	RadiusMeters    float64         `json:"radius_meters"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// officeCache is a read-through cache in front of the office settings store.
// Redis failures are logged and the store is used directly.
type officeCache struct {
	next   office.OfficeRepository
	client *goredis.Client
	ttl    time.Duration
}

func NewOfficeCache(next office.OfficeRepository, client *goredis.Client, ttl time.Duration) office.OfficeRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &officeCache{next: next, client: client, ttl: ttl}
}

// Get implements office.OfficeRepository.
func (c *officeCache) Get(ctx context.Context) (office.Settings, error) {
	raw, err := c.client.Get(ctx, officeSettingsKey).Bytes()
	if err == nil {
		var cached cachedSettings
		if err := json.Unmarshal(raw, &cached); err == nil {
			return fromCache(cached), nil
		}
		slog.Warn("Discarding unreadable office settings cache entry", "error", err)
	} else if !errors.Is(err, goredis.Nil) {
		slog.Warn("Office settings cache unavailable", "error", err)
	}

	settings, err := c.next.Get(ctx)
	if err != nil {
		return office.Settings{}, err
	}

	c.store(ctx, settings)
	return settings, nil
}

// Upsert implements office.OfficeRepository.
func (c *officeCache) Upsert(ctx context.Context, settings office.Settings) (office.Settings, error) {
	saved, err := c.next.Upsert(ctx, settings)
	if err != nil {
		return office.Settings{}, err
	}

	c.store(ctx, saved)
	return saved, nil
}

func (c *officeCache) store(ctx context.Context, settings office.Settings) {
	payload, err := json.Marshal(toCache(settings))
	if err != nil {
		slog.Warn("Failed to encode office settings for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, officeSettingsKey, payload, c.ttl).Err(); err != nil {
		slog.Warn("Failed to cache office settings", "error", err)
		// A stale entry must not outlive a write
		c.client.Del(ctx, officeSettingsKey)
	}
}

func toCache(s office.Settings) cachedSettings {
	cached := cachedSettings{
		GeofenceEnabled: s.Geofence.Enabled,
		RadiusMeters:    s.Geofence.RadiusMeters,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Office != nil {
		cached.Office = &cachedLocation{
			Name:      s.Office.Name,
			Latitude:  s.Office.Latitude,
			Longitude: s.Office.Longitude,
			Address:   s.Office.Address,
		}
	}
	return cached
}

func fromCache(c cachedSettings) office.Settings {
	settings := office.Settings{
		Geofence:  office.GeofenceConfig{Enabled: c.GeofenceEnabled, RadiusMeters: c.RadiusMeters},
		UpdatedAt: c.UpdatedAt,
	}
	if c.Office != nil {
		settings.Office = &office.Location{
			Name:      c.Office.Name,
			Latitude:  c.Office.Latitude,
			Longitude: c.Office.Longitude,
			Address:   c.Office.Address,
		}
	}
	return settings
}
