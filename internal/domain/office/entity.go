package office

import (
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
)

// Location is the registered office position that check-ins are measured against.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	Address   *string
}

func (l Location) Coordinates() geo.Coordinates {
	return geo.Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

type GeofenceConfig struct {
	Enabled      bool
	RadiusMeters float64
}

// Settings is the singleton office configuration row. Office is nil when no
// office location has been registered yet.
type Settings struct {
	Office    *Location
	Geofence  GeofenceConfig
	UpdatedAt *time.Time
}

// Configured reports whether an office location is registered.
func (s Settings) Configured() bool {
	return s.Office != nil
}

// EffectiveSettings applies the loading policy to a stored row:
// a missing row or office location disables geofencing (fail open),
// and a non-positive radius falls back to defaultRadius.
func EffectiveSettings(stored *Settings, defaultRadius float64) Settings {
	if stored == nil {
		return Settings{Geofence: GeofenceConfig{Enabled: false, RadiusMeters: defaultRadius}}
	}

	effective := *stored
	if effective.Geofence.RadiusMeters <= 0 {
		effective.Geofence.RadiusMeters = defaultRadius
	}
	if effective.Office == nil {
		effective.Geofence.Enabled = false
	}
	return effective
}
