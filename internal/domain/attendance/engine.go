package attendance

import (
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
)

type GeofenceResult struct {
	Valid          bool
	DistanceMeters float64
}

// EvaluateGeofence measures sample against the office location. With the
// geofence disabled every sample is valid and the distance is informational.
func EvaluateGeofence(sample geo.Coordinates, loc office.Location, config office.GeofenceConfig) GeofenceResult {
	distance := geo.DistanceMeters(sample, loc.Coordinates())
	if !config.Enabled {
		return GeofenceResult{Valid: true, DistanceMeters: distance}
	}
	return GeofenceResult{Valid: distance <= config.RadiusMeters, DistanceMeters: distance}
}

// State is the user's attendance progress for a single calendar date.
type State struct {
	HasCheckedIn  bool
	HasCheckedOut bool
	CheckInTime   *time.Time
	CheckOutTime  *time.Time
}

// DeriveState projects the record for the caller-supplied date onto a State.
// A nil record means the day has not started.
func DeriveState(today *Attendance) State {
	if today == nil {
		return State{}
	}
	return State{
		HasCheckedIn:  today.CheckInTime != nil,
		HasCheckedOut: today.CheckOutTime != nil,
		CheckInTime:   today.CheckInTime,
		CheckOutTime:  today.CheckOutTime,
	}
}

// CanCheckIn reports whether a check-in would pass the state checks.
func (s State) CanCheckIn() bool {
	return !s.HasCheckedIn
}

// CanCheckOut reports whether a check-out would pass the state checks.
func (s State) CanCheckOut() bool {
	return s.HasCheckedIn && !s.HasCheckedOut
}

type GeofenceDecision struct {
	Enabled      bool
	Valid        bool
	RadiusMeters float64
}

type SubmissionInput struct {
	Action         Action
	Photo          *Photo
	LocationSample *geo.Coordinates
	Geofence       GeofenceDecision
	CurrentState   State
}

type ValidatedSubmission struct {
	Action   Action
	Photo    *Photo
	Location geo.Coordinates
}

// ValidateSubmission decides whether a check-in or check-out may proceed.
// Checks run in a fixed order and the first failure is returned.
func ValidateSubmission(input SubmissionInput) (ValidatedSubmission, error) {
	if input.Photo == nil {
		return ValidatedSubmission{}, NewSubmissionError(KindPhotoRequired)
	}

	if input.LocationSample == nil {
		return ValidatedSubmission{}, NewSubmissionError(KindLocationRequired)
	}

	if input.Geofence.Enabled && !input.Geofence.Valid {
		return ValidatedSubmission{}, &SubmissionError{
			Kind:         KindOutsideGeofence,
			RadiusMeters: input.Geofence.RadiusMeters,
		}
	}

	switch input.Action {
	case ActionCheckIn:
		if input.CurrentState.HasCheckedIn {
			return ValidatedSubmission{}, NewSubmissionError(KindAlreadyCheckedIn)
		}
	case ActionCheckOut:
		if !input.CurrentState.HasCheckedIn {
			return ValidatedSubmission{}, NewSubmissionError(KindMustCheckInFirst)
		}
		if input.CurrentState.HasCheckedOut {
			return ValidatedSubmission{}, NewSubmissionError(KindAlreadyCheckedOut)
		}
	}

	return ValidatedSubmission{
		Action:   input.Action,
		Photo:    input.Photo,
		Location: *input.LocationSample,
	}, nil
}
