package attendance

import (
	"io"
	"time"
)

type Status string

const (
	StatusCheckedIn       Status = "checked_in"
	StatusCheckedOut      Status = "checked_out"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
)

var StatusValues = []string{
	string(StatusCheckedIn),
	string(StatusCheckedOut),
	string(StatusPendingApproval),
	string(StatusApproved),
	string(StatusRejected),
}

// Reviewed reports whether a manager has already approved or rejected the record.
func (s Status) Reviewed() bool {
	return s == StatusApproved || s == StatusRejected
}

type Action string

const (
	ActionCheckIn  Action = "checkin"
	ActionCheckOut Action = "checkout"
)

// Attendance is one row per user per calendar date.
type Attendance struct {
	ID                       string
	UserID                   string
	AttendanceDate           time.Time // calendar date, time component is zero
	PhotoURL                 string
	CheckOutPhotoURL         *string
	LocationLatitude         float64
	LocationLongitude        float64
	LocationAddress          *string
	City                     *string
	CheckInTime              *time.Time
	CheckOutTime             *time.Time
	Status                   Status
	GeofenceValid            bool
	DistanceFromOfficeMeters *float64
	ManagerNotes             *string
	ReviewedBy               *string
	ReviewedAt               *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Photo is the attendance proof selected by the user. The engine only looks
// at whether it is present; content checks happen at upload time.
type Photo struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// CalendarDate returns the calendar date of t as observed in loc, as a UTC
// midnight value suitable for DATE columns.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
