package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/ops-portal/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationMap(t *testing.T, err error) map[string]string {
	t.Helper()
	var errs validator.ValidationErrors
	require.True(t, errors.As(err, &errs), "expected validation errors, got %v", err)
	return errs.ToMap()
}

func TestSubmitRequest_Validate(t *testing.T) {
	t.Run("valid without photo", func(t *testing.T) {
		req := SubmitRequest{UserID: "u-1", Latitude: ptr(1.0), Longitude: ptr(2.0)}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing user", func(t *testing.T) {
		req := SubmitRequest{}
		assert.Contains(t, validationMap(t, req.Validate()), "user_id")
	})

	t.Run("half a coordinate is left to the gate", func(t *testing.T) {
		req := SubmitRequest{UserID: "u-1", Latitude: ptr(1.0)}
		assert.NoError(t, req.Validate())

		_, err := req.Location().Locate(context.Background())
		assert.ErrorIs(t, err, ErrNoLocationReported)
	})

	t.Run("photo type", func(t *testing.T) {
		req := SubmitRequest{UserID: "u-1", Photo: &Photo{Filename: "selfie.gif", Size: 10}}
		assert.Contains(t, validationMap(t, req.Validate()), "photo")
	})

	t.Run("photo size", func(t *testing.T) {
		req := SubmitRequest{UserID: "u-1", Photo: &Photo{Filename: "selfie.JPG", Size: MaxPhotoSize + 1}}
		assert.Contains(t, validationMap(t, req.Validate()), "photo")
	})

	t.Run("unknown location error", func(t *testing.T) {
		req := SubmitRequest{UserID: "u-1", LocationError: ptr("stale")}
		assert.Contains(t, validationMap(t, req.Validate()), "location_error")
	})
}

func TestSubmitRequest_Location(t *testing.T) {
	req := SubmitRequest{UserID: "u-1", LocationError: ptr("permission_denied")}

	loc := req.Location()

	require.NotNil(t, loc.Failure)
	assert.Equal(t, LocationPermissionDenied, *loc.Failure)
}

func TestAttendanceFilter_Validate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := AttendanceFilter{}
		require.NoError(t, f.Validate())
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, 20, f.Limit)
		assert.Equal(t, "attendance_date", f.SortBy)
		assert.Equal(t, "desc", f.SortOrder)
	})

	t.Run("invalid values", func(t *testing.T) {
		f := AttendanceFilter{
			Limit:     500,
			Status:    ptr("late"),
			StartDate: ptr("2026-03-10"),
			EndDate:   ptr("2026-03-01"),
			SortBy:    "salary",
			SortOrder: "up",
		}
		fields := validationMap(t, f.Validate())
		for _, field := range []string{"limit", "status", "end_date", "sort_by", "sort_order"} {
			assert.Contains(t, fields, field)
		}
	})
}

func TestRejectAttendanceRequest_Validate(t *testing.T) {
	assert.Contains(t, validationMap(t, (&RejectAttendanceRequest{}).Validate()), "notes")
	assert.Contains(t, validationMap(t, (&RejectAttendanceRequest{Notes: "   "}).Validate()), "notes")
	assert.NoError(t, (&RejectAttendanceRequest{Notes: "blurry photo"}).Validate())
}
