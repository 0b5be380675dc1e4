package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/domain/user"
	"github.com/cmlabs-hris/ops-portal/internal/handler/http/response"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/jwt"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestAccessExp = "1h"
	handlerTestUserID    = "11111111-1111-1111-1111-111111111111"
	handlerTestRecordID  = "22222222-2222-2222-2222-222222222222"
)

type stubAttendanceService struct {
	lastSubmit attendance.SubmitRequest
	lastFilter attendance.AttendanceFilter
	lastPhoto  []byte
	submitErr  error
	record     attendance.AttendanceResponse
	lookups    int
}

func (s *stubAttendanceService) submit(req attendance.SubmitRequest) (attendance.AttendanceResponse, error) {
	s.lastSubmit = req
	if req.Photo != nil {
		s.lastPhoto, _ = io.ReadAll(req.Photo.Content)
	}
	if s.submitErr != nil {
		return attendance.AttendanceResponse{}, s.submitErr
	}
	return attendance.AttendanceResponse{ID: "att-1", UserID: req.UserID, Status: "checked_in"}, nil
}

func (s *stubAttendanceService) CheckIn(ctx context.Context, req attendance.SubmitRequest) (attendance.AttendanceResponse, error) {
	return s.submit(req)
}

func (s *stubAttendanceService) CheckOut(ctx context.Context, req attendance.SubmitRequest) (attendance.AttendanceResponse, error) {
	return s.submit(req)
}

func (s *stubAttendanceService) GetTodayStatus(ctx context.Context, userID string) (attendance.TodayStatusResponse, error) {
	return attendance.TodayStatusResponse{Date: "2026-03-02", CanCheckIn: true}, nil
}

func (s *stubAttendanceService) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	s.lastFilter = filter
	return attendance.ListAttendanceResponse{Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *stubAttendanceService) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	s.lookups++
	if id != s.record.ID {
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
	}
	return s.record, nil
}

func (s *stubAttendanceService) ApproveAttendance(ctx context.Context, req attendance.ApproveAttendanceRequest) (attendance.AttendanceResponse, error) {
	s.lookups++
	return attendance.AttendanceResponse{ID: req.ID, Status: "approved", ReviewedBy: &req.ReviewerID}, nil
}

func (s *stubAttendanceService) RejectAttendance(ctx context.Context, req attendance.RejectAttendanceRequest) (attendance.AttendanceResponse, error) {
	s.lookups++
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return attendance.AttendanceResponse{ID: req.ID, Status: "rejected"}, nil
}

func (s *stubAttendanceService) GetPhotoURL(ctx context.Context, id string, requesterID string, requesterIsReviewer bool) (attendance.PhotoURLResponse, error) {
	s.lookups++
	if requesterID != s.record.UserID && !requesterIsReviewer {
		return attendance.PhotoURLResponse{}, attendance.ErrUnauthorized
	}
	return attendance.PhotoURLResponse{PhotoURL: "http://files.test/" + s.record.PhotoURL}, nil
}

type stubOfficeService struct {
	updated *office.UpdateOfficeConfigRequest
}

func (s *stubOfficeService) Settings(ctx context.Context) (office.Settings, error) {
	return office.Settings{}, nil
}

func (s *stubOfficeService) GetConfig(ctx context.Context) (office.OfficeConfigResponse, error) {
	return office.OfficeConfigResponse{Configured: true, Name: "HQ", GeofenceEnabled: true, RadiusMeters: 100}, nil
}

func (s *stubOfficeService) UpdateConfig(ctx context.Context, req office.UpdateOfficeConfigRequest) (office.OfficeConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return office.OfficeConfigResponse{}, err
	}
	s.updated = &req
	return office.OfficeConfigResponse{Configured: true, Name: req.Name}, nil
}

type stubFileService struct {
	files map[string]string
}

func (s *stubFileService) UploadAttendanceProof(ctx context.Context, userID string, date time.Time, file io.Reader, filename string, action attendance.Action) (string, error) {
	return "", errors.New("not used")
}

func (s *stubFileService) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	content, ok := s.files[path]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *stubFileService) DeleteFile(ctx context.Context, path string) error {
	return nil
}

func (s *stubFileService) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "", errors.New("not used")
}

type staticHealth bool

func (h staticHealth) Healthy(ctx context.Context) bool {
	return bool(h)
}

type routerFixture struct {
	handler    http.Handler
	jwt        jwt.Service
	attendance *stubAttendanceService
	office     *stubOfficeService
}

func newRouterFixture(t *testing.T, redisUp bool) *routerFixture {
	t.Helper()
	jwtSvc := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	f := &routerFixture{
		jwt: jwtSvc,
		attendance: &stubAttendanceService{record: attendance.AttendanceResponse{
			ID:       handlerTestRecordID,
			UserID:   handlerTestUserID,
			PhotoURL: "attendance/2026-03-02/a.jpg",
		}},
		office: &stubOfficeService{},
	}
	files := &stubFileService{files: map[string]string{"attendance/2026-03-02/a.jpg": "jpeg-bytes"}}

	f.handler = NewRouter(
		jwtSvc.JWTAuth(),
		RouterOptions{AllowedOrigins: []string{"http://localhost:3000"}},
		NewAttendanceHandler(f.attendance),
		NewOfficeHandler(f.office),
		NewFileHandler(files, jwtSvc),
		NewHealthHandler(map[string]HealthChecker{"database": staticHealth(true), "redis": staticHealth(redisUp)}),
	)
	return f
}

func (f *routerFixture) token(t *testing.T, userID string, role user.Role) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var body response.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func multipartSubmit(t *testing.T, path string, data string, photo []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != "" {
		require.NoError(t, mw.WriteField("data", data))
	}
	if photo != nil {
		part, err := mw.CreateFormFile("photo", "selfie.jpg")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRouter_RequiresAccessToken(t *testing.T) {
	f := newRouterFixture(t, true)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	photoToken, err := f.jwt.SignPath("attendance/2026-03-02/a.jpg", time.Minute)
	require.NoError(t, err)
	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil), photoToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil), f.token(t, handlerTestUserID, user.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
}

func TestRouter_UnknownRoleIsForbidden(t *testing.T) {
	f := newRouterFixture(t, true)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil), f.token(t, handlerTestUserID, user.Role("owner")))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceHandler_CheckIn(t *testing.T) {
	f := newRouterFixture(t, true)
	req := multipartSubmit(t, "/api/v1/attendance/check-in",
		`{"latitude":12.97,"longitude":77.59,"accuracy_meters":8,"user_id":"someone-else"}`, []byte("jpeg"))

	rec, body := f.do(t, req, f.token(t, handlerTestUserID, user.RoleUser))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, body.Success)
	got := f.attendance.lastSubmit
	assert.Equal(t, handlerTestUserID, got.UserID)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 12.97, *got.Latitude)
	require.NotNil(t, got.Photo)
	assert.Equal(t, "selfie.jpg", got.Photo.Filename)
	assert.Equal(t, []byte("jpeg"), f.attendance.lastPhoto)
}

func TestAttendanceHandler_MissingPartsReachTheGate(t *testing.T) {
	f := newRouterFixture(t, true)
	f.attendance.submitErr = attendance.NewSubmissionError(attendance.KindPhotoRequired)
	req := multipartSubmit(t, "/api/v1/attendance/check-in", "", nil)

	rec, body := f.do(t, req, f.token(t, handlerTestUserID, user.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "PhotoRequired", body.Error.Code)
	assert.Nil(t, f.attendance.lastSubmit.Photo)
	assert.Nil(t, f.attendance.lastSubmit.Latitude)
}

func TestAttendanceHandler_OutsideGeofence(t *testing.T) {
	f := newRouterFixture(t, true)
	f.attendance.submitErr = &attendance.SubmissionError{Kind: attendance.KindOutsideGeofence, RadiusMeters: 150}
	req := multipartSubmit(t, "/api/v1/attendance/check-out", `{"latitude":1,"longitude":1}`, []byte("jpeg"))

	rec, body := f.do(t, req, f.token(t, handlerTestUserID, user.RoleUser))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "OutsideGeofence", body.Error.Code)
	assert.Equal(t, "150", body.Error.Details["radius_meters"])
}

func TestAttendanceHandler_InvalidData(t *testing.T) {
	f := newRouterFixture(t, true)
	req := multipartSubmit(t, "/api/v1/attendance/check-in", `{"latitude":`, []byte("jpeg"))

	rec, _ := f.do(t, req, f.token(t, handlerTestUserID, user.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandler_ListRequiresViewAll(t *testing.T) {
	f := newRouterFixture(t, true)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil), f.token(t, handlerTestUserID, user.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?page=2&limit=5&status=approved&user_id="+handlerTestUserID, nil)
	rec, _ = f.do(t, req, f.token(t, "mgr", user.RoleManager))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, f.attendance.lastFilter.Page)
	assert.Equal(t, 5, f.attendance.lastFilter.Limit)
	require.NotNil(t, f.attendance.lastFilter.Status)
	assert.Equal(t, "approved", *f.attendance.lastFilter.Status)
}

func TestAttendanceHandler_MyAttendanceIsScopedToCaller(t *testing.T) {
	f := newRouterFixture(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/my?user_id=someone-else", nil)
	rec, _ := f.do(t, req, f.token(t, handlerTestUserID, user.RoleUser))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.attendance.lastFilter.UserID)
	assert.Equal(t, handlerTestUserID, *f.attendance.lastFilter.UserID)
}

func TestAttendanceHandler_GetChecksOwnership(t *testing.T) {
	f := newRouterFixture(t, true)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/"+handlerTestRecordID, nil), f.token(t, "other-user", user.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/"+handlerTestRecordID, nil), f.token(t, handlerTestUserID, user.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/"+handlerTestRecordID, nil), f.token(t, "mgr", user.RoleManager))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/33333333-3333-3333-3333-333333333333", nil), f.token(t, "mgr", user.RoleManager))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceHandler_MalformedIDIsNotFound(t *testing.T) {
	f := newRouterFixture(t, true)
	token := f.token(t, "admin", user.RoleAdmin)

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/attendance/not-a-uuid", ""},
		{http.MethodGet, "/api/v1/attendance/not-a-uuid/photo-url", ""},
		{http.MethodPost, "/api/v1/attendance/not-a-uuid/approve", ""},
		{http.MethodPost, "/api/v1/attendance/not-a-uuid/reject", `{"notes":"blurry photo"}`},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec, body := f.do(t, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)), token)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, "NOT_FOUND", body.Error.Code)
		})
	}
	assert.Zero(t, f.attendance.lookups)
}

func TestAttendanceHandler_Review(t *testing.T) {
	f := newRouterFixture(t, true)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/attendance/"+handlerTestRecordID+"/approve", nil), f.token(t, handlerTestUserID, user.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/attendance/"+handlerTestRecordID+"/approve", nil), f.token(t, "mgr", user.RoleManager))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/"+handlerTestRecordID+"/reject", strings.NewReader(`{"notes":""}`))
	rec, body = f.do(t, req, f.token(t, "admin", user.RoleAdmin))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, body.Error)
	assert.Contains(t, body.Error.Details, "notes")
}

func TestAttendanceHandler_PhotoURL(t *testing.T) {
	f := newRouterFixture(t, true)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/"+handlerTestRecordID+"/photo-url", nil), f.token(t, "other-user", user.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/"+handlerTestRecordID+"/photo-url", nil), f.token(t, "mgr", user.RoleManager))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOfficeHandler(t *testing.T) {
	f := newRouterFixture(t, true)
	payload := `{"name":"HQ","latitude":12.97,"longitude":77.59,"geofence_enabled":true,"geofence_radius_meters":150}`

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/office", nil), f.token(t, handlerTestUserID, user.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodPut, "/api/v1/office", strings.NewReader(payload)), f.token(t, "mgr", user.RoleManager))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, f.office.updated)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodPut, "/api/v1/office", strings.NewReader(payload)), f.token(t, "admin", user.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.office.updated)
	assert.Equal(t, 150.0, f.office.updated.RadiusMeters)

	bad := `{"name":"HQ","latitude":120,"longitude":77.59,"geofence_radius_meters":0}`
	rec, _ = f.do(t, httptest.NewRequest(http.MethodPut, "/api/v1/office", strings.NewReader(bad)), f.token(t, "admin", user.RoleAdmin))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFileHandler_SignedLinks(t *testing.T) {
	f := newRouterFixture(t, true)
	path := "attendance/2026-03-02/a.jpg"

	token, err := f.jwt.SignPath(path, time.Minute)
	require.NoError(t, err)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/files/"+path+"?token="+token, nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/files/"+path, nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := f.jwt.SignPath("attendance/2026-03-02/b.jpg", time.Minute)
	require.NoError(t, err)
	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/files/"+path+"?token="+other, nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	missing := "attendance/2026-03-02/gone.jpg"
	token, err = f.jwt.SignPath(missing, time.Minute)
	require.NoError(t, err)
	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/files/"+missing+"?token="+token, nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	rec, body := newRouterFixture(t, true).do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)

	rec, body = newRouterFixture(t, false).do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "down", body.Error.Details["redis"])
}
