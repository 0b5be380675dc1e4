package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/domain/user"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/jwt"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/storage"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/validator"
)

var kindStatus = map[attendance.Kind]int{
	attendance.KindPhotoRequired:       http.StatusBadRequest,
	attendance.KindLocationRequired:    http.StatusBadRequest,
	attendance.KindLocationUnavailable: http.StatusBadRequest,
	attendance.KindOutsideGeofence:     http.StatusForbidden,
	attendance.KindAlreadyCheckedIn:    http.StatusConflict,
	attendance.KindAlreadyCheckedOut:   http.StatusConflict,
	attendance.KindMustCheckInFirst:    http.StatusConflict,
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	if kind, ok := attendance.KindOf(err); ok {
		handleSubmissionError(w, kind, err)
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrUnknownRole):
		Forbidden(w, "Unknown role")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidPhoto):
		BadRequest(w, "Attendance photo must be a readable jpg or png image", nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, "You are not allowed to access this attendance record")
	case errors.Is(err, attendance.ErrAttendanceAlreadyReviewed):
		Conflict(w, "Attendance has already been approved or rejected")
	case errors.Is(err, attendance.ErrPhotoNotAvailable):
		NotFound(w, "Attendance photo not available")

	// Office errors
	case errors.Is(err, office.ErrOfficeNotConfigured):
		NotFound(w, "Office location is not configured")

	// File errors
	case errors.Is(err, storage.ErrFileNotFound):
		NotFound(w, "File not found")
	case errors.Is(err, storage.ErrInvalidPath):
		BadRequest(w, "Invalid file path", nil)
	case errors.Is(err, jwt.ErrPathMismatch):
		Forbidden(w, "Link is not valid for this file")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func handleSubmissionError(w http.ResponseWriter, kind attendance.Kind, err error) {
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusBadRequest
	}

	var details map[string]string

	var subErr *attendance.SubmissionError
	if errors.As(err, &subErr) && kind == attendance.KindOutsideGeofence {
		details = map[string]string{
			"radius_meters": strconv.FormatFloat(subErr.RadiusMeters, 'f', -1, 64),
		}
	}

	message := err.Error()
	var locErr *attendance.LocationError
	if errors.As(err, &locErr) {
		// The wrapped cause is internal; users only see the reason
		message = attendance.ErrLocationUnavailable.Error()
		details = map[string]string{"reason": string(locErr.Reason)}
	}

	Refused(w, status, string(kind), message, details)
}
