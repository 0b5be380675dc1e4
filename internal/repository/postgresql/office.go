package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type officeRepository struct {
	db *database.DB
}

func NewOfficeRepository(db *database.DB) office.OfficeRepository {
	return &officeRepository{db: db}
}

func scanSettings(row pgx.Row) (office.Settings, error) {
	var loc office.Location
	var settings office.Settings
	var updatedAt time.Time

	err := row.Scan(
		&loc.Name, &loc.Latitude, &loc.Longitude, &loc.Address,
		&settings.Geofence.Enabled, &settings.Geofence.RadiusMeters, &updatedAt,
	)
	if err != nil {
		return office.Settings{}, err
	}

	settings.Office = &loc
	settings.UpdatedAt = &updatedAt
	return settings, nil
}

// Get implements office.OfficeRepository.
func (o *officeRepository) Get(ctx context.Context) (office.Settings, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT name, latitude, longitude, address,
			   geofence_enabled, geofence_radius_meters, updated_at
		FROM office_settings
		WHERE id = 1
	`

	settings, err := scanSettings(q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return office.Settings{}, office.ErrOfficeNotConfigured
		}
		return office.Settings{}, fmt.Errorf("failed to get office settings: %w", err)
	}

	return settings, nil
}

// Upsert implements office.OfficeRepository.
func (o *officeRepository) Upsert(ctx context.Context, settings office.Settings) (office.Settings, error) {
	if settings.Office == nil {
		return office.Settings{}, office.ErrOfficeNotConfigured
	}

	q := GetQuerier(ctx, o.db)

	query := `
		INSERT INTO office_settings (
			id, name, latitude, longitude, address, geofence_enabled, geofence_radius_meters, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			geofence_enabled = EXCLUDED.geofence_enabled,
			geofence_radius_meters = EXCLUDED.geofence_radius_meters,
			updated_at = NOW()
		RETURNING name, latitude, longitude, address,
				  geofence_enabled, geofence_radius_meters, updated_at
	`

	saved, err := scanSettings(q.QueryRow(ctx, query,
		settings.Office.Name,
		settings.Office.Latitude,
		settings.Office.Longitude,
		settings.Office.Address,
		settings.Geofence.Enabled,
		settings.Geofence.RadiusMeters,
	))
	if err != nil {
		return office.Settings{}, fmt.Errorf("failed to save office settings: %w", err)
	}

	return saved, nil
}
