package attendance

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/pkg/validator"
)

// MaxPhotoSize is the largest accepted attendance photo upload.
const MaxPhotoSize = 10 << 20

// ========================================
// SUBMISSION DTOs
// ========================================

// SubmitRequest carries a check-in or check-out attempt. The location fields
// are whatever the device managed to report; Photo is nil when the user did
// not attach one. A lone latitude or longitude counts as no location.
type SubmitRequest struct {
	UserID         string     `json:"-"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	AccuracyMeters *float64   `json:"accuracy_meters,omitempty" validate:"omitempty,gte=0"`
	CapturedAt     *time.Time `json:"captured_at,omitempty"`
	LocationError  *string    `json:"location_error,omitempty" validate:"omitempty,oneof=permission_denied unavailable timeout"`
	Photo          *Photo     `json:"-"`
}

func (r *SubmitRequest) Validate() error {
	errs := validator.ValidateStruct(r)

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if r.Photo != nil {
		ext := strings.ToLower(filepath.Ext(r.Photo.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "invalid file type: only jpg, jpeg, png allowed",
			})
		} else if r.Photo.Size > MaxPhotoSize {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "attendance photo size must not exceed 10MB",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Location exposes the reported fields as a LocationProvider.
func (r *SubmitRequest) Location() ReportedLocation {
	loc := ReportedLocation{
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
		CapturedAt:     r.CapturedAt,
	}
	if r.LocationError != nil && *r.LocationError != "" {
		failure := LocationFailure(*r.LocationError)
		loc.Failure = &failure
	}
	return loc
}

type AttendanceResponse struct {
	ID                       string   `json:"id"`
	UserID                   string   `json:"user_id"`
	AttendanceDate           string   `json:"attendance_date"`
	PhotoURL                 string   `json:"photo_url"`
	CheckOutPhotoURL         *string  `json:"check_out_photo_url,omitempty"`
	LocationLatitude         float64  `json:"location_latitude"`
	LocationLongitude        float64  `json:"location_longitude"`
	LocationAddress          *string  `json:"location_address,omitempty"`
	City                     *string  `json:"city,omitempty"`
	CheckInTime              *string  `json:"check_in_time,omitempty"`
	CheckOutTime             *string  `json:"check_out_time,omitempty"`
	Status                   string   `json:"status"`
	GeofenceValid            bool     `json:"geofence_valid"`
	DistanceFromOfficeMeters *float64 `json:"distance_from_office_meters,omitempty"`
	ManagerNotes             *string  `json:"manager_notes,omitempty"`
	ReviewedBy               *string  `json:"reviewed_by,omitempty"`
	ReviewedAt               *string  `json:"reviewed_at,omitempty"`
	CreatedAt                string   `json:"created_at"`
	UpdatedAt                string   `json:"updated_at"`
}

// ========================================
// TODAY STATUS DTOs
// ========================================

type TodayStatusResponse struct {
	Date          string              `json:"date"`
	HasCheckedIn  bool                `json:"has_checked_in"`
	HasCheckedOut bool                `json:"has_checked_out"`
	CheckInTime   *string             `json:"check_in_time,omitempty"`
	CheckOutTime  *string             `json:"check_out_time,omitempty"`
	CanCheckIn    bool                `json:"can_check_in"`
	CanCheckOut   bool                `json:"can_check_out"`
	Today         *AttendanceResponse `json:"today_attendance,omitempty"`
	Geofence      GeofenceInfo        `json:"geofence"`
	Message       string              `json:"message"`
}

type GeofenceInfo struct {
	Enabled          bool     `json:"enabled"`
	RadiusMeters     float64  `json:"radius_meters"`
	OfficeConfigured bool     `json:"office_configured"`
	OfficeName       string   `json:"office_name,omitempty"`
	OfficeLatitude   *float64 `json:"office_latitude,omitempty"`
	OfficeLongitude  *float64 `json:"office_longitude,omitempty"`
}

// ========================================
// LIST DTOs
// ========================================

type AttendanceFilter struct {
	// Search & Filter
	UserID        *string `json:"user_id,omitempty"`
	Date          *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate     *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate       *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status        *string `json:"status,omitempty"`
	GeofenceValid *bool   `json:"geofence_valid,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // attendance_date, check_in_time, check_out_time, status, distance
	SortOrder string `json:"sort_order"` // asc, desc
}

var sortFields = []string{"attendance_date", "check_in_time", "check_out_time", "status", "distance"}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.UserID != nil && !validator.IsValidUUID(*f.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id must be a valid UUID",
		})
	}

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues, ", "),
		})
	}

	dates := []struct {
		field string
		value *string
	}{
		{"date", f.Date},
		{"start_date", f.StartDate},
		{"end_date", f.EndDate},
	}
	for _, d := range dates {
		if d.value == nil || *d.value == "" {
			continue
		}
		if _, valid := validator.IsValidDate(*d.value); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   d.field,
				Message: d.field + " must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && f.EndDate != nil {
		start, okStart := validator.IsValidDate(*f.StartDate)
		end, okEnd := validator.IsValidDate(*f.EndDate)
		if okStart && okEnd && end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	// Sort validation
	if f.SortBy != "" {
		if !validator.IsInSlice(f.SortBy, sortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: " + strings.Join(sortFields, ", "),
			})
		}
	} else {
		f.SortBy = "attendance_date" // Default sort
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

// ========================================
// REVIEW DTOs
// ========================================

// ApproveAttendanceRequest for approving attendance
type ApproveAttendanceRequest struct {
	ID         string  `json:"-"`
	ReviewerID string  `json:"-"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *ApproveAttendanceRequest) Validate() error {
	if errs := validator.ValidateStruct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

// RejectAttendanceRequest for rejecting attendance
type RejectAttendanceRequest struct {
	ID         string `json:"-"`
	ReviewerID string `json:"-"`
	Notes      string `json:"notes" validate:"required,max=500"`
}

func (r *RejectAttendanceRequest) Validate() error {
	errs := validator.ValidateStruct(r)

	if r.Notes != "" && validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PhotoURLResponse struct {
	PhotoURL         string  `json:"photo_url"`
	CheckOutPhotoURL *string `json:"check_out_photo_url,omitempty"`
	ExpiresAt        string  `json:"expires_at"`
}
