package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkStatus records a student's status for a day in a single statement.
// The UNIQUE (student_id, day) constraint plus the conditional upsert makes
// the whole decision atomic: concurrent submissions for the same day cannot
// duplicate rows or downgrade present to absent.
func (r *AttendanceRepository) MarkStatus(ctx context.Context, studentID string, day time.Time, status attendance.Status) (attendance.Transition, error) {
	// xmax = 0 distinguishes a fresh insert from a conflict-path update.
	// No row comes back at all when the guard below rejects the update,
	// which is exactly the unchanged case.
	query := `
		INSERT INTO attendance (student_id, status, recorded_at, day)
		VALUES ($1, $2, $3, $3::date)
		ON CONFLICT (student_id, day) DO UPDATE SET
			status = EXCLUDED.status,
			recorded_at = EXCLUDED.recorded_at
		WHERE attendance.status = 'absent' AND EXCLUDED.status = 'present'
		RETURNING (xmax = 0)
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query, studentID, status, day).Scan(&inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.TransitionUnchanged, nil
	}
	if err != nil {
		return attendance.TransitionUnchanged, fmt.Errorf("mark status: %w", err)
	}

	if inserted {
		return attendance.TransitionInserted, nil
	}
	return attendance.TransitionUpgraded, nil
}

// Find returns a student's record for a day, or ErrRecordNotFound.
func (r *AttendanceRepository) Find(ctx context.Context, studentID string, day time.Time) (*attendance.Record, error) {
	query := `
		SELECT a.id, a.student_id, a.status, a.recorded_at, s.name, s.roll_number
		FROM attendance a
		JOIN students s ON s.student_id = a.student_id
		WHERE a.student_id = $1 AND a.day = $2::date
	`

	var rec attendance.Record
	err := r.pool.QueryRow(ctx, query, studentID, day).Scan(
		&rec.ID, &rec.StudentID, &rec.Status, &rec.Timestamp, &rec.Name, &rec.RollNumber,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &rec, nil
}

// Query returns attendance joined with the roster. The left join keeps
// students with no rows in the filtered range: they come back once with a
// synthetic absent record (id 0) so the read side never loses roster members
// written before the reconciler existed.
func (r *AttendanceRepository) Query(ctx context.Context, filter database.AttendanceFilter) ([]attendance.Record, error) {
	joinConds := []string{"s.student_id = a.student_id"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.StartDate.IsZero() {
		joinConds = append(joinConds, "a.day >= "+arg(filter.StartDate)+"::date")
	}
	if !filter.EndDate.IsZero() {
		joinConds = append(joinConds, "a.day <= "+arg(filter.EndDate)+"::date")
	}
	if filter.StartTime != "" {
		joinConds = append(joinConds, "to_char(a.recorded_at, 'HH24:MI') >= "+arg(filter.StartTime))
	}
	if filter.EndTime != "" {
		joinConds = append(joinConds, "to_char(a.recorded_at, 'HH24:MI') <= "+arg(filter.EndTime))
	}

	// Synthetic rows need some timestamp to group under; the range start is
	// the only sensible day when a range is given.
	fallbackDay := filter.StartDate
	if fallbackDay.IsZero() {
		fallbackDay = time.Now()
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(a.id, 0), s.student_id, COALESCE(a.status, 'absent'),
		       COALESCE(a.recorded_at, %s), s.name, s.roll_number
		FROM students s
		LEFT JOIN attendance a ON %s
		ORDER BY s.student_id, a.day
	`, arg(fallbackDay), strings.Join(joinConds, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Status, &rec.Timestamp, &rec.Name, &rec.RollNumber); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// Insert adds a manual attendance record, bypassing the monotonic upsert.
// Admin use only; fails on the unique constraint if a record already exists
// for that student and day.
func (r *AttendanceRepository) Insert(ctx context.Context, rec attendance.Record) (int64, error) {
	query := `
		INSERT INTO attendance (student_id, status, recorded_at, day)
		VALUES ($1, $2, $3, $3::date)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, rec.StudentID, rec.Status, rec.Timestamp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert attendance record: %w", err)
	}
	return id, nil
}

// UpdateStatus overwrites a record's status by ID. Admin corrections are
// allowed to downgrade present to absent; only the reconciler path is
// monotonic.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id int64, status attendance.Status) error {
	result, err := r.pool.Exec(ctx, "UPDATE attendance SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	if affected == 0 {
		return database.ErrRecordNotFound
	}
	return nil
}

// Delete removes a record by ID.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	if affected == 0 {
		return database.ErrRecordNotFound
	}
	return nil
}

// Days returns the distinct attendance days present in the table, newest
// first.
func (r *AttendanceRepository) Days(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT DISTINCT day FROM attendance ORDER BY day DESC")
	if err != nil {
		return nil, fmt.Errorf("query attendance days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan attendance day: %w", err)
		}
		days = append(days, attendance.Day(day))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance days: %w", err)
	}
	return days, nil
}

// Verify interface compliance.
var _ database.AttendanceStore = (*AttendanceRepository)(nil)
