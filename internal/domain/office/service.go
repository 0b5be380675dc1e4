package office

import "context"

type OfficeService interface {
	// Settings returns the effective configuration used by attendance
	Settings(ctx context.Context) (Settings, error)

	// GetConfig returns the configuration for display
	GetConfig(ctx context.Context) (OfficeConfigResponse, error)

	// UpdateConfig replaces the office location and geofence (admin)
	UpdateConfig(ctx context.Context, req UpdateOfficeConfigRequest) (OfficeConfigResponse, error)
}
