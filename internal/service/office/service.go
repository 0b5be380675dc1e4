package office

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
)

type OfficeServiceImpl struct {
	repo          office.OfficeRepository
	defaultRadius float64
}

func NewOfficeService(repo office.OfficeRepository, defaultRadius float64) office.OfficeService {
	return &OfficeServiceImpl{
		repo:          repo,
		defaultRadius: defaultRadius,
	}
}

// Settings implements office.OfficeService. An office that was never
// configured yields disabled geofencing rather than an error.
func (s *OfficeServiceImpl) Settings(ctx context.Context) (office.Settings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, office.ErrOfficeNotConfigured) {
			return office.EffectiveSettings(nil, s.defaultRadius), nil
		}
		return office.Settings{}, fmt.Errorf("failed to load office settings: %w", err)
	}

	return office.EffectiveSettings(&stored, s.defaultRadius), nil
}

// GetConfig implements office.OfficeService.
func (s *OfficeServiceImpl) GetConfig(ctx context.Context) (office.OfficeConfigResponse, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return office.OfficeConfigResponse{}, err
	}
	return mapSettingsToResponse(settings), nil
}

// UpdateConfig implements office.OfficeService.
func (s *OfficeServiceImpl) UpdateConfig(ctx context.Context, req office.UpdateOfficeConfigRequest) (office.OfficeConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return office.OfficeConfigResponse{}, err
	}

	saved, err := s.repo.Upsert(ctx, req.ToSettings())
	if err != nil {
		return office.OfficeConfigResponse{}, fmt.Errorf("failed to update office settings: %w", err)
	}

	return mapSettingsToResponse(office.EffectiveSettings(&saved, s.defaultRadius)), nil
}

func mapSettingsToResponse(settings office.Settings) office.OfficeConfigResponse {
	resp := office.OfficeConfigResponse{
		Configured:      settings.Configured(),
		GeofenceEnabled: settings.Geofence.Enabled,
		RadiusMeters:    settings.Geofence.RadiusMeters,
	}

	if settings.Office != nil {
		lat, lng := settings.Office.Latitude, settings.Office.Longitude
		resp.Name = settings.Office.Name
		resp.Latitude = &lat
		resp.Longitude = &lng
		resp.Address = settings.Office.Address
	}

	if settings.UpdatedAt != nil {
		updatedAt := settings.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &updatedAt
	}

	return resp
}
