package attendance

import (
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
)

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapAttendanceToResponse(att attendance.Attendance) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:                       att.ID,
		UserID:                   att.UserID,
		AttendanceDate:           att.AttendanceDate.Format("2006-01-02"),
		PhotoURL:                 att.PhotoURL,
		CheckOutPhotoURL:         att.CheckOutPhotoURL,
		LocationLatitude:         att.LocationLatitude,
		LocationLongitude:        att.LocationLongitude,
		LocationAddress:          att.LocationAddress,
		City:                     att.City,
		CheckInTime:              timePtrToString(att.CheckInTime),
		CheckOutTime:             timePtrToString(att.CheckOutTime),
		Status:                   string(att.Status),
		GeofenceValid:            att.GeofenceValid,
		DistanceFromOfficeMeters: att.DistanceFromOfficeMeters,
		ManagerNotes:             att.ManagerNotes,
		ReviewedBy:               att.ReviewedBy,
		ReviewedAt:               timePtrToString(att.ReviewedAt),
		CreatedAt:                att.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:                att.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
