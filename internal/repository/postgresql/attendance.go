package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const attendanceColumns = `
	id, user_id, attendance_date, photo_url, check_out_photo_url,
	location_latitude, location_longitude, location_address, city,
	check_in_time, check_out_time, status, geofence_valid, distance_from_office_meters,
	manager_notes, reviewed_by, reviewed_at, created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	var status string
	err := row.Scan(
		&att.ID, &att.UserID, &att.AttendanceDate, &att.PhotoURL, &att.CheckOutPhotoURL,
		&att.LocationLatitude, &att.LocationLongitude, &att.LocationAddress, &att.City,
		&att.CheckInTime, &att.CheckOutTime, &status, &att.GeofenceValid, &att.DistanceFromOfficeMeters,
		&att.ManagerNotes, &att.ReviewedBy, &att.ReviewedAt, &att.CreatedAt, &att.UpdatedAt,
	)
	att.Status = attendance.Status(status)
	return att, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			user_id, attendance_date, photo_url,
			location_latitude, location_longitude, location_address, city,
			check_in_time, status, geofence_valid, distance_from_office_meters
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		newAttendance.UserID,
		newAttendance.AttendanceDate,
		newAttendance.PhotoURL,
		newAttendance.LocationLatitude,
		newAttendance.LocationLongitude,
		newAttendance.LocationAddress,
		newAttendance.City,
		newAttendance.CheckInTime,
		string(newAttendance.Status),
		newAttendance.GeofenceValid,
		newAttendance.DistanceFromOfficeMeters,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrDuplicateAttendance
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return created, nil
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE user_id = $1 AND attendance_date = $2
		LIMIT 1`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No attendance for that date yet
		}
		return nil, fmt.Errorf("failed to get attendance by user and date: %w", err)
	}

	return &att, nil
}

// UpdateCheckOut implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpdateCheckOut(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET check_out_time = $3,
			check_out_photo_url = $4,
			status = $5,
			updated_at = NOW()
		WHERE user_id = $1
		  AND attendance_date = $2
		  AND check_in_time IS NOT NULL
		  AND check_out_time IS NULL
		RETURNING ` + attendanceColumns

	updated, err := scanAttendance(q.QueryRow(ctx, query,
		att.UserID,
		att.AttendanceDate,
		att.CheckOutTime,
		att.CheckOutPhotoURL,
		string(att.Status),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrCheckOutConflict
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update check-out: %w", err)
	}

	return updated, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	return a.getByID(ctx, id, false)
}

// GetByIDForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return a.getByID(ctx, id, true)
}

func (a *attendanceRepository) getByID(ctx context.Context, id string, forUpdate bool) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	return att, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	addCondition := func(format string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(format, argIdx))
		args = append(args, value)
		argIdx++
	}

	if filter.UserID != nil && *filter.UserID != "" {
		addCondition("user_id = $%d", *filter.UserID)
	}
	if filter.Date != nil && *filter.Date != "" {
		addCondition("attendance_date = $%d", *filter.Date)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		addCondition("attendance_date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		addCondition("attendance_date <= $%d", *filter.EndDate)
	}
	if filter.Status != nil && *filter.Status != "" {
		addCondition("status = $%d", *filter.Status)
	}
	if filter.GeofenceValid != nil {
		addCondition("geofence_valid = $%d", *filter.GeofenceValid)
	}

	where := strings.Join(conditions, " AND ")

	// Count total
	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_records WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "attendance_date"
	switch filter.SortBy {
	case "check_in_time":
		orderByField = "check_in_time"
	case "check_out_time":
		orderByField = "check_out_time"
	case "status":
		orderByField = "status"
	case "distance":
		orderByField = "distance_from_office_meters"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records
		WHERE %s
		ORDER BY %s %s NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, where, orderByField, sortOrder, argIdx, argIdx+1)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	attendances := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, total, nil
}

// UpdateReview implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpdateReview(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET status = $2,
			manager_notes = $3,
			reviewed_by = $4,
			reviewed_at = $5,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, att.ID, string(att.Status), att.ManagerNotes, att.ReviewedBy, att.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to update attendance review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}
