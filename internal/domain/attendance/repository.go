package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
)

// AttendanceRepository defines data access methods for attendance records.
// (user_id, attendance_date) is unique; the store is the final authority on
// double check-in.
type AttendanceRepository interface {
	// Create inserts the check-in row. Returns ErrDuplicateAttendance on a
	// uniqueness violation.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByUserAndDate returns nil, nil when no row exists for the date
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*Attendance, error)

	// UpdateCheckOut records the check-out keyed by (user_id, attendance_date).
	// Returns ErrCheckOutConflict when the row is missing or already closed.
	UpdateCheckOut(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves attendance by ID
	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByIDForUpdate locks the row for the surrounding transaction
	GetByIDForUpdate(ctx context.Context, id string) (Attendance, error)

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// UpdateReview stores status, notes and reviewer
	UpdateReview(ctx context.Context, attendance Attendance) error
}

// PhotoCleanupQueue holds uploaded photo paths whose compensating delete
// failed, so a background sweep can remove them later.
type PhotoCleanupQueue interface {
	Enqueue(ctx context.Context, path string) error
	Dequeue(ctx context.Context, limit int64) ([]string, error)
}

// ReverseGeocoder maps coordinates to a readable place. Best effort only.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c geo.Coordinates) (geo.Place, error)
}
