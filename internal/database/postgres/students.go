package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/lib/pq"
)

// Postgres error codes worth mapping to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// StudentRepository provides PostgreSQL-backed roster storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// ListStudents returns the full roster ordered by student ID.
func (r *StudentRepository) ListStudents(ctx context.Context) ([]database.Student, error) {
	query := `
		SELECT student_id, name, branch, class, roll_number, created_at
		FROM students
		ORDER BY student_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.StudentID, &s.Name, &s.Branch, &s.Class, &s.RollNumber, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// ListStudentIDs returns just the roster IDs, the universe the reconciler
// infers absence from.
func (r *StudentRepository) ListStudentIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT student_id FROM students ORDER BY student_id")
	if err != nil {
		return nil, fmt.Errorf("query student IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan student ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student IDs: %w", err)
	}
	return ids, nil
}

// GetStudent returns one student or ErrStudentNotFound.
func (r *StudentRepository) GetStudent(ctx context.Context, studentID string) (*database.Student, error) {
	query := `
		SELECT student_id, name, branch, class, roll_number, created_at
		FROM students
		WHERE student_id = $1
	`

	var s database.Student
	err := r.pool.QueryRow(ctx, query, studentID).Scan(
		&s.StudentID, &s.Name, &s.Branch, &s.Class, &s.RollNumber, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	return &s, nil
}

// InsertStudent adds a roster member; duplicate IDs map to ErrStudentExists.
func (r *StudentRepository) InsertStudent(ctx context.Context, s database.Student) error {
	query := `
		INSERT INTO students (student_id, name, branch, class, roll_number)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, s.StudentID, s.Name, s.Branch, s.Class, s.RollNumber)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return database.ErrStudentExists
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// UpdateStudent overwrites a student's descriptive fields.
func (r *StudentRepository) UpdateStudent(ctx context.Context, s database.Student) error {
	query := `
		UPDATE students
		SET name = $2, branch = $3, class = $4, roll_number = $5
		WHERE student_id = $1
	`

	result, err := r.pool.Exec(ctx, query, s.StudentID, s.Name, s.Branch, s.Class, s.RollNumber)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if affected == 0 {
		return database.ErrStudentNotFound
	}
	return nil
}

// DeleteStudent removes a student. Gallery entries cascade, but attendance
// history deliberately does not: the foreign key violation maps to
// ErrStudentHasRecords so history cannot be orphaned by accident.
func (r *StudentRepository) DeleteStudent(ctx context.Context, studentID string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM students WHERE student_id = $1", studentID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return database.ErrStudentHasRecords
		}
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected == 0 {
		return database.ErrStudentNotFound
	}
	return nil
}

// Verify interface compliance.
var _ database.StudentStore = (*StudentRepository)(nil)
