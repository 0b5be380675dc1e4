package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// CheckIn validates and records the first attendance of the day
	CheckIn(ctx context.Context, req SubmitRequest) (AttendanceResponse, error)

	// CheckOut validates and closes today's attendance
	CheckOut(ctx context.Context, req SubmitRequest) (AttendanceResponse, error)

	// GetTodayStatus returns the derived state for the caller's current date
	GetTodayStatus(ctx context.Context, userID string) (TodayStatusResponse, error)

	// ListAttendance retrieves attendance records with filters. Set
	// filter.UserID to restrict to one user.
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// GetAttendance retrieves a single attendance record by ID
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)

	// ApproveAttendance approves an attendance record
	ApproveAttendance(ctx context.Context, req ApproveAttendanceRequest) (AttendanceResponse, error)

	// RejectAttendance rejects an attendance record with notes
	RejectAttendance(ctx context.Context, req RejectAttendanceRequest) (AttendanceResponse, error)

	// GetPhotoURL returns time-limited view URLs for the record's photos.
	// Only the owner or a reviewer may request them.
	GetPhotoURL(ctx context.Context, id string, requesterID string, requesterIsReviewer bool) (PhotoURLResponse, error)
}
