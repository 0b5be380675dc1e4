package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/domain/user"
	"github.com/cmlabs-hris/ops-portal/internal/handler/http/middleware"
	"github.com/cmlabs-hris/ops-portal/internal/handler/http/response"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// Multipart bodies above this are rejected before the service sees them
const maxSubmitBody = attendance.MaxPhotoSize + 1<<20

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	PhotoURL(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	req, cleanup, ok := parseSubmitRequest(w, r)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in successful", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	req, cleanup, ok := parseSubmitRequest(w, r)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check out successful", result)
}

// parseSubmitRequest reads the multipart 'data' JSON and optional 'photo'
// part. A missing photo or location is left for the submission gate to
// report, so callers get the same error kinds as any other client.
func parseSubmitRequest(w http.ResponseWriter, r *http.Request) (attendance.SubmitRequest, func(), bool) {
	var req attendance.SubmitRequest
	noop := func() {}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return req, noop, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	if err := r.ParseMultipartForm(maxSubmitBody); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return req, noop, false
	}

	if dataJSON := r.FormValue("data"); dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			slog.Error("Failed to unmarshal JSON data", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return req, noop, false
		}
	}
	req.UserID = identity.UserID

	file, fileHeader, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, noop, true
	case err != nil:
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return req, noop, false
	}

	req.Photo = &attendance.Photo{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  file,
	}
	return req, func() { file.Close() }, true
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	result, err := h.attendanceService.GetTodayStatus(r.Context(), identity.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := parseAttendanceFilter(r)

	// User ID filter
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filter.UserID = &userID
	}

	results, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	filter := parseAttendanceFilter(r)
	filter.UserID = &identity.UserID

	results, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

func parseAttendanceFilter(r *http.Request) attendance.AttendanceFilter {
	query := r.URL.Query()
	filter := attendance.AttendanceFilter{}

	// Date filter
	if date := query.Get("date"); date != "" {
		filter.Date = &date
	}

	// Date range filters
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}

	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	// Status filter
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}

	if geofenceValid := query.Get("geofence_valid"); geofenceValid != "" {
		if valid, err := strconv.ParseBool(geofenceValid); err == nil {
			filter.GeofenceValid = &valid
		}
	}

	// Pagination
	page := 1
	if p := query.Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 20
	if l := query.Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	// Sorting
	filter.SortBy = query.Get("sort_by")
	filter.SortOrder = query.Get("sort_order")

	return filter
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	id, err := attendanceID(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetAttendance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.UserID != identity.UserID && !user.HasPermission(identity.Role, user.PermissionAttendanceViewAll) {
		response.HandleError(w, attendance.ErrUnauthorized)
		return
	}

	response.Success(w, result)
}

// Approve implements AttendanceHandler.
func (h *attendanceHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	id, err := attendanceID(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.ApproveAttendanceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}
	req.ID = id
	req.ReviewerID = identity.UserID

	result, err := h.attendanceService.ApproveAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance approved successfully", result)
}

// Reject implements AttendanceHandler.
func (h *attendanceHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	id, err := attendanceID(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.RejectAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = id
	req.ReviewerID = identity.UserID

	result, err := h.attendanceService.RejectAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance rejected successfully", result)
}

// PhotoURL implements AttendanceHandler.
func (h *attendanceHandlerImpl) PhotoURL(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	id, err := attendanceID(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetPhotoURL(r.Context(), id, identity.UserID, identity.IsReviewer())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// attendanceID reads the {id} route param. Anything that is not a UUID can
// never match a record.
func attendanceID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		return "", attendance.ErrAttendanceNotFound
	}
	return id, nil
}
