package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/metrics"
	"github.com/cmlabs-hris/ops-portal/internal/service/file"
)

// Transactor runs fn inside a transaction carried by ctx
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Dependencies struct {
	Repository    attendance.AttendanceRepository
	OfficeService office.OfficeService
	FileService   file.FileService
	Transactor    Transactor

	// Optional collaborators
	Geocoder     attendance.ReverseGeocoder
	CleanupQueue attendance.PhotoCleanupQueue
	Metrics      *metrics.Recorder
}

type Options struct {
	// Location defines the calendar day attendance is recorded against
	Location       *time.Location
	Acquire        attendance.AcquireOptions
	PhotoURLExpiry time.Duration
	Now            func() time.Time
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	officeService office.OfficeService
	fileService   file.FileService
	tx            Transactor
	geocoder      attendance.ReverseGeocoder
	cleanupQueue  attendance.PhotoCleanupQueue
	metrics       *metrics.Recorder

	loc       *time.Location
	acquire   attendance.AcquireOptions
	urlExpiry time.Duration
	now       func() time.Time
}

func NewAttendanceService(deps Dependencies, opts Options) attendance.AttendanceService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PhotoURLExpiry <= 0 {
		opts.PhotoURLExpiry = 15 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Acquire.Now == nil {
		opts.Acquire.Now = opts.Now
	}

	return &AttendanceServiceImpl{
		AttendanceRepository: deps.Repository,
		officeService:        deps.OfficeService,
		fileService:          deps.FileService,
		tx:                   deps.Transactor,
		geocoder:             deps.Geocoder,
		cleanupQueue:         deps.CleanupQueue,
		metrics:              deps.Metrics,
		loc:                  opts.Location,
		acquire:              opts.Acquire,
		urlExpiry:            opts.PhotoURLExpiry,
		now:                  opts.Now,
	}
}

// submission is an attempt that passed the gate
type submission struct {
	validated attendance.ValidatedSubmission
	today     *attendance.Attendance
	date      time.Time
	now       time.Time
	decision  attendance.GeofenceDecision
	distance  *float64
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.SubmitRequest) (attendance.AttendanceResponse, error) {
	sub, err := a.prepare(ctx, req, attendance.ActionCheckIn)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	place := a.reverseGeocode(ctx, sub.validated.Location)

	photoPath, err := a.uploadPhoto(ctx, req.UserID, sub)
	if err != nil {
		return attendance.AttendanceResponse{}, a.fail(attendance.ActionCheckIn, err)
	}

	data := attendance.Attendance{
		UserID:                   req.UserID,
		AttendanceDate:           sub.date,
		PhotoURL:                 photoPath,
		LocationLatitude:         sub.validated.Location.Latitude,
		LocationLongitude:        sub.validated.Location.Longitude,
		LocationAddress:          nonEmpty(place.Address),
		City:                     nonEmpty(place.City),
		CheckInTime:              &sub.now,
		Status:                   attendance.StatusCheckedIn,
		GeofenceValid:            sub.decision.Valid,
		DistanceFromOfficeMeters: sub.distance,
	}

	created, err := a.AttendanceRepository.Create(ctx, data)
	if err != nil {
		a.rollbackPhoto(ctx, photoPath)
		if errors.Is(err, attendance.ErrDuplicateAttendance) {
			// Lost a race with a concurrent check-in for the same day
			return attendance.AttendanceResponse{}, a.fail(attendance.ActionCheckIn, attendance.NewSubmissionError(attendance.KindAlreadyCheckedIn))
		}
		return attendance.AttendanceResponse{}, a.fail(attendance.ActionCheckIn, fmt.Errorf("failed to create attendance record: %w", err))
	}

	a.metrics.Submission(string(attendance.ActionCheckIn), metrics.OutcomeAccepted)
	slog.Info("Attendance check-in recorded",
		"attendance_id", created.ID,
		"user_id", created.UserID,
		"date", created.AttendanceDate.Format("2006-01-02"),
		"geofence_valid", created.GeofenceValid)

	return mapAttendanceToResponse(created), nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.SubmitRequest) (attendance.AttendanceResponse, error) {
	sub, err := a.prepare(ctx, req, attendance.ActionCheckOut)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	photoPath, err := a.uploadPhoto(ctx, req.UserID, sub)
	if err != nil {
		return attendance.AttendanceResponse{}, a.fail(attendance.ActionCheckOut, err)
	}

	checkOutTime := sub.now
	if sub.today.CheckInTime != nil && checkOutTime.Before(*sub.today.CheckInTime) {
		checkOutTime = *sub.today.CheckInTime
	}

	// A record reviewed before check-out keeps its review outcome
	status := attendance.StatusCheckedOut
	if sub.today.Status.Reviewed() {
		status = sub.today.Status
	}

	updated, err := a.AttendanceRepository.UpdateCheckOut(ctx, attendance.Attendance{
		UserID:           req.UserID,
		AttendanceDate:   sub.date,
		CheckOutTime:     &checkOutTime,
		CheckOutPhotoURL: &photoPath,
		Status:           status,
	})
	if err != nil {
		a.rollbackPhoto(ctx, photoPath)
		if errors.Is(err, attendance.ErrCheckOutConflict) {
			return attendance.AttendanceResponse{}, a.fail(attendance.ActionCheckOut, attendance.NewSubmissionError(attendance.KindAlreadyCheckedOut))
		}
		return attendance.AttendanceResponse{}, a.fail(attendance.ActionCheckOut, fmt.Errorf("failed to record check-out: %w", err))
	}

	a.metrics.Submission(string(attendance.ActionCheckOut), metrics.OutcomeAccepted)
	slog.Info("Attendance check-out recorded",
		"attendance_id", updated.ID,
		"user_id", updated.UserID,
		"date", updated.AttendanceDate.Format("2006-01-02"))

	return mapAttendanceToResponse(updated), nil
}

// prepare gathers office settings, the device location and today's record,
// then runs the submission gate.
func (a *AttendanceServiceImpl) prepare(ctx context.Context, req attendance.SubmitRequest, action attendance.Action) (submission, error) {
	if err := req.Validate(); err != nil {
		return submission{}, err
	}

	now := a.now()
	date := attendance.CalendarDate(now, a.loc)

	settings, err := a.officeService.Settings(ctx)
	if err != nil {
		return submission{}, a.fail(action, fmt.Errorf("failed to load office settings: %w", err))
	}

	var sample *geo.Coordinates
	var locErr error
	locSample, err := attendance.AcquireLocation(ctx, req.Location(), a.acquire)
	switch {
	case err == nil:
		coords := locSample.Coordinates()
		sample = &coords
	case errors.Is(err, attendance.ErrNoLocationReported):
		// nothing to report; the gate answers LocationRequired
	default:
		locErr = err
	}

	decision := attendance.GeofenceDecision{
		Enabled:      settings.Geofence.Enabled,
		Valid:        true,
		RadiusMeters: settings.Geofence.RadiusMeters,
	}
	var distance *float64
	if sample != nil && settings.Office != nil {
		result := attendance.EvaluateGeofence(*sample, *settings.Office, settings.Geofence)
		decision.Valid = result.Valid
		distance = &result.DistanceMeters
		a.metrics.Distance(string(action), result.DistanceMeters)
	}

	today, err := a.AttendanceRepository.GetByUserAndDate(ctx, req.UserID, date)
	if err != nil {
		return submission{}, a.fail(action, fmt.Errorf("failed to get today's attendance: %w", err))
	}

	validated, err := attendance.ValidateSubmission(attendance.SubmissionInput{
		Action:         action,
		Photo:          req.Photo,
		LocationSample: sample,
		Geofence:       decision,
		CurrentState:   attendance.DeriveState(today),
	})
	if err != nil {
		if locErr != nil && errors.Is(err, attendance.ErrLocationRequired) {
			err = locErr
		}
		return submission{}, a.fail(action, err)
	}

	return submission{
		validated: validated,
		today:     today,
		date:      date,
		now:       now.UTC(),
		decision:  decision,
		distance:  distance,
	}, nil
}

func (a *AttendanceServiceImpl) uploadPhoto(ctx context.Context, userID string, sub submission) (string, error) {
	photo := sub.validated.Photo
	photoPath, err := a.fileService.UploadAttendanceProof(ctx, userID, sub.date, photo.Content, photo.Filename, sub.validated.Action)
	if err != nil {
		if errors.Is(err, file.ErrInvalidImage) {
			return "", fmt.Errorf("%w: %v", attendance.ErrInvalidPhoto, err)
		}
		return "", fmt.Errorf("failed to upload attendance photo: %w", err)
	}
	return photoPath, nil
}

// rollbackPhoto deletes a photo whose attendance write failed. If the delete
// fails too the path is queued for the orphan sweeper.
func (a *AttendanceServiceImpl) rollbackPhoto(ctx context.Context, photoPath string) {
	ctx = context.WithoutCancel(ctx)

	err := a.fileService.DeleteFile(ctx, photoPath)
	if err == nil {
		return
	}

	slog.Error("Failed to delete attendance photo after write failure", "path", photoPath, "error", err)
	a.metrics.OrphanedPhoto()

	if a.cleanupQueue == nil {
		return
	}
	if qErr := a.cleanupQueue.Enqueue(ctx, photoPath); qErr != nil {
		slog.Error("Failed to queue orphaned attendance photo", "path", photoPath, "error", qErr)
	}
}

func (a *AttendanceServiceImpl) reverseGeocode(ctx context.Context, c geo.Coordinates) geo.Place {
	if a.geocoder == nil {
		return geo.Place{}
	}
	place, err := a.geocoder.Reverse(ctx, c)
	if err != nil {
		slog.Warn("Reverse geocoding failed, storing attendance without address", "error", err)
		return geo.Place{}
	}
	return place
}

// fail counts a refused or failed submission and returns err unchanged
func (a *AttendanceServiceImpl) fail(action attendance.Action, err error) error {
	outcome := metrics.OutcomeError
	if kind, ok := attendance.KindOf(err); ok {
		outcome = string(kind)
	}
	a.metrics.Submission(string(action), outcome)
	return err
}

// GetTodayStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetTodayStatus(ctx context.Context, userID string) (attendance.TodayStatusResponse, error) {
	date := attendance.CalendarDate(a.now(), a.loc)

	settings, err := a.officeService.Settings(ctx)
	if err != nil {
		return attendance.TodayStatusResponse{}, fmt.Errorf("failed to load office settings: %w", err)
	}

	today, err := a.AttendanceRepository.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		return attendance.TodayStatusResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	state := attendance.DeriveState(today)

	resp := attendance.TodayStatusResponse{
		Date:          date.Format("2006-01-02"),
		HasCheckedIn:  state.HasCheckedIn,
		HasCheckedOut: state.HasCheckedOut,
		CheckInTime:   timePtrToString(state.CheckInTime),
		CheckOutTime:  timePtrToString(state.CheckOutTime),
		CanCheckIn:    state.CanCheckIn(),
		CanCheckOut:   state.CanCheckOut(),
		Geofence: attendance.GeofenceInfo{
			Enabled:          settings.Geofence.Enabled,
			RadiusMeters:     settings.Geofence.RadiusMeters,
			OfficeConfigured: settings.Configured(),
		},
	}

	if settings.Office != nil {
		lat, lng := settings.Office.Latitude, settings.Office.Longitude
		resp.Geofence.OfficeName = settings.Office.Name
		resp.Geofence.OfficeLatitude = &lat
		resp.Geofence.OfficeLongitude = &lng
	}

	if today != nil {
		mapped := mapAttendanceToResponse(*today)
		resp.Today = &mapped
	}

	switch {
	case !state.HasCheckedIn:
		resp.Message = "You have not checked in today"
	case !state.HasCheckedOut:
		resp.Message = "You are checked in, remember to check out"
	default:
		resp.Message = "Attendance complete for today"
	}

	return resp, nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	attendances, total, err := a.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	// Map to response
	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, mapAttendanceToResponse(att))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	offset := (filter.Page - 1) * filter.Limit
	showing := fmt.Sprintf("0 of %d", total)
	if int64(offset) < total {
		showing = fmt.Sprintf("%d-%d of %d", offset+1, min(offset+filter.Limit, int(total)), total)
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	att, err := a.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return mapAttendanceToResponse(att), nil
}

// ApproveAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ApproveAttendance(ctx context.Context, req attendance.ApproveAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.review(ctx, req.ID, req.ReviewerID, attendance.StatusApproved, req.Notes)
}

// RejectAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RejectAttendance(ctx context.Context, req attendance.RejectAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	notes := strings.TrimSpace(req.Notes)
	return a.review(ctx, req.ID, req.ReviewerID, attendance.StatusRejected, &notes)
}

func (a *AttendanceServiceImpl) review(ctx context.Context, id, reviewerID string, status attendance.Status, notes *string) (attendance.AttendanceResponse, error) {
	var reviewed attendance.Attendance

	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		att, err := a.AttendanceRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if att.Status.Reviewed() {
			return attendance.ErrAttendanceAlreadyReviewed
		}

		now := a.now().UTC()
		att.Status = status
		att.ManagerNotes = notes
		att.ReviewedBy = &reviewerID
		att.ReviewedAt = &now

		if err := a.AttendanceRepository.UpdateReview(ctx, att); err != nil {
			return err
		}

		reviewed = att
		return nil
	})
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) || errors.Is(err, attendance.ErrAttendanceAlreadyReviewed) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to review attendance: %w", err)
	}

	slog.Info("Attendance reviewed", "attendance_id", reviewed.ID, "status", reviewed.Status, "reviewed_by", reviewerID)

	return mapAttendanceToResponse(reviewed), nil
}

// GetPhotoURL implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetPhotoURL(ctx context.Context, id string, requesterID string, requesterIsReviewer bool) (attendance.PhotoURLResponse, error) {
	att, err := a.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.PhotoURLResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.PhotoURLResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	if att.UserID != requesterID && !requesterIsReviewer {
		return attendance.PhotoURLResponse{}, attendance.ErrUnauthorized
	}

	if att.PhotoURL == "" {
		return attendance.PhotoURLResponse{}, attendance.ErrPhotoNotAvailable
	}

	expiresAt := a.now().Add(a.urlExpiry).UTC()

	photoURL, err := a.fileService.GetFileURL(ctx, att.PhotoURL, a.urlExpiry)
	if err != nil {
		return attendance.PhotoURLResponse{}, fmt.Errorf("failed to sign photo url: %w", err)
	}

	resp := attendance.PhotoURLResponse{
		PhotoURL:  photoURL,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}

	if att.CheckOutPhotoURL != nil && *att.CheckOutPhotoURL != "" {
		checkOutURL, err := a.fileService.GetFileURL(ctx, *att.CheckOutPhotoURL, a.urlExpiry)
		if err != nil {
			return attendance.PhotoURLResponse{}, fmt.Errorf("failed to sign check-out photo url: %w", err)
		}
		resp.CheckOutPhotoURL = &checkOutURL
	}

	return resp, nil
}
