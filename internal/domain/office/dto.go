package office

import (
	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/validator"
)

type OfficeConfigResponse struct {
	Configured      bool     `json:"configured"`
	Name            string   `json:"name,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Address         *string  `json:"address,omitempty"`
	GeofenceEnabled bool     `json:"geofence_enabled"`
	RadiusMeters    float64  `json:"geofence_radius_meters"`
	UpdatedAt       *string  `json:"updated_at,omitempty"`
}

type UpdateOfficeConfigRequest struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Address         *string `json:"address,omitempty" validate:"omitempty,max=255"`
	GeofenceEnabled bool    `json:"geofence_enabled"`
	RadiusMeters    float64 `json:"geofence_radius_meters" validate:"gt=0,lte=100000"`
}

func (r *UpdateOfficeConfigRequest) Validate() error {
	errs := validator.ValidateStruct(r)

	if !geo.ValidCoordinates(r.Latitude, r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "latitude must be between -90 and 90 and longitude between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *UpdateOfficeConfigRequest) ToSettings() Settings {
	return Settings{
		Office: &Location{
			Name:      r.Name,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Address:   r.Address,
		},
		Geofence: GeofenceConfig{
			Enabled:      r.GeofenceEnabled,
			RadiusMeters: r.RadiusMeters,
		},
	}
}
