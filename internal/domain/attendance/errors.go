package attendance

import (
	"errors"
	"fmt"
)

// Kind is the stable, user-facing name of a submission failure.
type Kind string

const (
	KindPhotoRequired       Kind = "PhotoRequired"
	KindLocationRequired    Kind = "LocationRequired"
	KindOutsideGeofence     Kind = "OutsideGeofence"
	KindAlreadyCheckedIn    Kind = "AlreadyCheckedIn"
	KindAlreadyCheckedOut   Kind = "AlreadyCheckedOut"
	KindMustCheckInFirst    Kind = "MustCheckInFirst"
	KindLocationUnavailable Kind = "LocationUnavailable"
)

// Submission errors, matched with errors.Is against a *SubmissionError or *LocationError
var (
	ErrPhotoRequired       = errors.New("attendance photo is required")
	ErrLocationRequired    = errors.New("location is required")
	ErrOutsideGeofence     = errors.New("you are outside the allowed radius")
	ErrAlreadyCheckedIn    = errors.New("you have already checked in today")
	ErrAlreadyCheckedOut   = errors.New("you have already checked out today")
	ErrMustCheckInFirst    = errors.New("you have not checked in yet")
	ErrLocationUnavailable = errors.New("location is unavailable")
)

// Store and review errors
var (
	ErrDuplicateAttendance       = errors.New("attendance for this user and date already exists")
	ErrCheckOutConflict          = errors.New("attendance is not open for check-out")
	ErrAttendanceNotFound        = errors.New("attendance record not found")
	ErrUnauthorized              = errors.New("unauthorized to access this attendance record")
	ErrAttendanceAlreadyReviewed = errors.New("attendance has already been approved or rejected")
	ErrInvalidPhoto              = errors.New("attendance photo could not be processed")
	ErrPhotoNotAvailable         = errors.New("attendance photo is not available")
)

var kindErrors = map[Kind]error{
	KindPhotoRequired:       ErrPhotoRequired,
	KindLocationRequired:    ErrLocationRequired,
	KindOutsideGeofence:     ErrOutsideGeofence,
	KindAlreadyCheckedIn:    ErrAlreadyCheckedIn,
	KindAlreadyCheckedOut:   ErrAlreadyCheckedOut,
	KindMustCheckInFirst:    ErrMustCheckInFirst,
	KindLocationUnavailable: ErrLocationUnavailable,
}

// SubmissionError is returned when a check-in or check-out is refused.
type SubmissionError struct {
	Kind Kind
	// RadiusMeters is set for KindOutsideGeofence
	RadiusMeters float64
}

func NewSubmissionError(kind Kind) *SubmissionError {
	return &SubmissionError{Kind: kind}
}

func (e *SubmissionError) Error() string {
	if e.Kind == KindOutsideGeofence {
		return fmt.Sprintf("%s of %.0f meters", ErrOutsideGeofence.Error(), e.RadiusMeters)
	}
	if err, ok := kindErrors[e.Kind]; ok {
		return err.Error()
	}
	return string(e.Kind)
}

func (e *SubmissionError) Unwrap() error {
	return kindErrors[e.Kind]
}

type LocationFailure string

const (
	LocationPermissionDenied LocationFailure = "permission_denied"
	LocationUnavailable      LocationFailure = "unavailable"
	LocationTimeout          LocationFailure = "timeout"
	LocationStale            LocationFailure = "stale"
)

// LocationError reports why no usable location sample could be acquired.
// Its kind is always KindLocationUnavailable.
type LocationError struct {
	Reason LocationFailure
	Err    error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrLocationUnavailable.Error(), e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrLocationUnavailable.Error(), e.Reason)
}

func (e *LocationError) Is(target error) bool {
	return target == ErrLocationUnavailable
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

// KindOf returns the submission kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr.Kind, true
	}
	var locErr *LocationError
	if errors.As(err, &locErr) {
		return KindLocationUnavailable, true
	}
	return "", false
}
