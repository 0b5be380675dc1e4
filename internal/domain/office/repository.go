package office

import "context"

// OfficeRepository stores the singleton office configuration.
type OfficeRepository interface {
	// Get returns ErrOfficeNotConfigured when no configuration row exists
	Get(ctx context.Context) (Settings, error)

	// Upsert replaces the configuration row
	Upsert(ctx context.Context, settings Settings) (Settings, error)
}
