package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
)

type fakeRepo struct {
	records   map[string]*attendance.Attendance
	nextID    int
	createErr error
	updateErr error
	getErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*attendance.Attendance{}}
}

func dayKey(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (r *fakeRepo) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	if r.createErr != nil {
		return attendance.Attendance{}, r.createErr
	}
	key := dayKey(att.UserID, att.AttendanceDate)
	if _, exists := r.records[key]; exists {
		return attendance.Attendance{}, attendance.ErrDuplicateAttendance
	}
	r.nextID++
	att.ID = fmt.Sprintf("att-%d", r.nextID)
	att.CreatedAt = time.Now()
	att.UpdatedAt = att.CreatedAt
	r.records[key] = &att
	return att, nil
}

func (r *fakeRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	att, ok := r.records[dayKey(userID, date)]
	if !ok {
		return nil, nil
	}
	copied := *att
	return &copied, nil
}

func (r *fakeRepo) UpdateCheckOut(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	if r.updateErr != nil {
		return attendance.Attendance{}, r.updateErr
	}
	existing, ok := r.records[dayKey(att.UserID, att.AttendanceDate)]
	if !ok || existing.CheckOutTime != nil {
		return attendance.Attendance{}, attendance.ErrCheckOutConflict
	}
	existing.CheckOutTime = att.CheckOutTime
	existing.CheckOutPhotoURL = att.CheckOutPhotoURL
	existing.Status = att.Status
	return *existing, nil
}

func (r *fakeRepo) byID(id string) (*attendance.Attendance, error) {
	for _, att := range r.records {
		if att.ID == id {
			return att, nil
		}
	}
	return nil, attendance.ErrAttendanceNotFound
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	att, err := r.byID(id)
	if err != nil {
		return attendance.Attendance{}, err
	}
	return *att, nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRepo) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	var out []attendance.Attendance
	for _, att := range r.records {
		if filter.UserID != nil && att.UserID != *filter.UserID {
			continue
		}
		out = append(out, *att)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttendanceDate.Before(out[j].AttendanceDate) })
	total := int64(len(out))
	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := min(start+filter.Limit, len(out))
	return out[start:end], total, nil
}

func (r *fakeRepo) UpdateReview(ctx context.Context, att attendance.Attendance) error {
	existing, err := r.byID(att.ID)
	if err != nil {
		return err
	}
	existing.Status = att.Status
	existing.ManagerNotes = att.ManagerNotes
	existing.ReviewedBy = att.ReviewedBy
	existing.ReviewedAt = att.ReviewedAt
	return nil
}

type fakeFiles struct {
	events    []string
	uploads   []string
	deleted   []string
	deleteErr error
	uploadErr error
}

func (f *fakeFiles) UploadAttendanceProof(ctx context.Context, userID string, date time.Time, file io.Reader, filename string, action attendance.Action) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	path := fmt.Sprintf("attendance/%s/%s-%s-%d.jpg", date.Format("2006-01-02"), userID, action, len(f.uploads)+1)
	f.uploads = append(f.uploads, path)
	f.events = append(f.events, "upload:"+path)
	return path, nil
}

func (f *fakeFiles) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeFiles) DeleteFile(ctx context.Context, path string) error {
	f.events = append(f.events, "delete:"+path)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFiles) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "http://files.test/" + path + "?ttl=" + expiry.String(), nil
}

type fakeOffice struct {
	settings office.Settings
	err      error
}

func (o *fakeOffice) Settings(ctx context.Context) (office.Settings, error) {
	return o.settings, o.err
}

func (o *fakeOffice) GetConfig(ctx context.Context) (office.OfficeConfigResponse, error) {
	return office.OfficeConfigResponse{}, errors.New("not used")
}

func (o *fakeOffice) UpdateConfig(ctx context.Context, req office.UpdateOfficeConfigRequest) (office.OfficeConfigResponse, error) {
	return office.OfficeConfigResponse{}, errors.New("not used")
}

type fakeQueue struct {
	paths []string
}

func (q *fakeQueue) Enqueue(ctx context.Context, path string) error {
	q.paths = append(q.paths, path)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, limit int64) ([]string, error) {
	return nil, nil
}

type fakeGeocoder struct {
	place geo.Place
	err   error
}

func (g fakeGeocoder) Reverse(ctx context.Context, c geo.Coordinates) (geo.Place, error) {
	return g.place, g.err
}

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
