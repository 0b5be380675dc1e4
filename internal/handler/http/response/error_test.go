package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"photo required", attendance.NewSubmissionError(attendance.KindPhotoRequired), http.StatusBadRequest, "PhotoRequired"},
		{"location required", attendance.NewSubmissionError(attendance.KindLocationRequired), http.StatusBadRequest, "LocationRequired"},
		{"outside geofence", &attendance.SubmissionError{Kind: attendance.KindOutsideGeofence, RadiusMeters: 100}, http.StatusForbidden, "OutsideGeofence"},
		{"already checked in", attendance.NewSubmissionError(attendance.KindAlreadyCheckedIn), http.StatusConflict, "AlreadyCheckedIn"},
		{"already checked out", attendance.NewSubmissionError(attendance.KindAlreadyCheckedOut), http.StatusConflict, "AlreadyCheckedOut"},
		{"must check in first", attendance.NewSubmissionError(attendance.KindMustCheckInFirst), http.StatusConflict, "MustCheckInFirst"},
		{"location unavailable", &attendance.LocationError{Reason: attendance.LocationTimeout}, http.StatusBadRequest, "LocationUnavailable"},
		{"invalid photo", fmt.Errorf("%w: bad header", attendance.ErrInvalidPhoto), http.StatusBadRequest, "BAD_REQUEST"},
		{"validation", validator.ValidationErrors{{Field: "notes", Message: "notes is required"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"not found", attendance.ErrAttendanceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"not owner", attendance.ErrUnauthorized, http.StatusForbidden, "FORBIDDEN"},
		{"already reviewed", attendance.ErrAttendanceAlreadyReviewed, http.StatusConflict, "CONFLICT"},
		{"office missing", office.ErrOfficeNotConfigured, http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.False(t, body.Success)
		})
	}
}

func TestHandleError_LocationReasonHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, &attendance.LocationError{Reason: attendance.LocationPermissionDenied, Err: errors.New("internal detail")})

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "permission_denied", body.Error.Details["reason"])
	assert.NotContains(t, body.Error.Message, "internal detail")
}

func TestHandleError_WrappedSubmissionError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, fmt.Errorf("check-in: %w", &attendance.SubmissionError{Kind: attendance.KindOutsideGeofence, RadiusMeters: 250}))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "250", body.Error.Details["radius_meters"])
	assert.Contains(t, body.Error.Message, "250 meters")
}
