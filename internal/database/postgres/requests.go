package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Its-me-GK/FaceMark/internal/database"
)

// RequestRepository provides PostgreSQL-backed registration request storage.
type RequestRepository struct {
	pool *Pool
}

// NewRequestRepository creates a new PostgreSQL request repository.
func NewRequestRepository(pool *Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

// ListRequests returns all registration requests, pending first, newest
// within each status.
func (r *RequestRepository) ListRequests(ctx context.Context) ([]database.RegistrationRequest, error) {
	query := `
		SELECT request_id, student_id, student_name, branch, class, roll_number,
		       photo1, photo2, photo3, status, created_at
		FROM student_requests
		ORDER BY status = 'pending' DESC, created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query registration requests: %w", err)
	}
	defer rows.Close()

	var requests []database.RegistrationRequest
	for rows.Next() {
		var req database.RegistrationRequest
		if err := rows.Scan(
			&req.RequestID, &req.StudentID, &req.StudentName, &req.Branch, &req.Class, &req.RollNumber,
			&req.PhotoPaths[0], &req.PhotoPaths[1], &req.PhotoPaths[2], &req.Status, &req.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan registration request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration requests: %w", err)
	}
	return requests, nil
}

// GetRequest returns one request or ErrRequestNotFound.
func (r *RequestRepository) GetRequest(ctx context.Context, requestID int64) (*database.RegistrationRequest, error) {
	query := `
		SELECT request_id, student_id, student_name, branch, class, roll_number,
		       photo1, photo2, photo3, status, created_at
		FROM student_requests
		WHERE request_id = $1
	`

	var req database.RegistrationRequest
	err := r.pool.QueryRow(ctx, query, requestID).Scan(
		&req.RequestID, &req.StudentID, &req.StudentName, &req.Branch, &req.Class, &req.RollNumber,
		&req.PhotoPaths[0], &req.PhotoPaths[1], &req.PhotoPaths[2], &req.Status, &req.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query registration request: %w", err)
	}
	return &req, nil
}

// InsertRequest queues a new pending registration request.
func (r *RequestRepository) InsertRequest(ctx context.Context, req database.RegistrationRequest) (int64, error) {
	query := `
		INSERT INTO student_requests (student_id, student_name, branch, class, roll_number, photo1, photo2, photo3)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING request_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		req.StudentID, req.StudentName, req.Branch, req.Class, req.RollNumber,
		req.PhotoPaths[0], req.PhotoPaths[1], req.PhotoPaths[2],
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert registration request: %w", err)
	}
	return id, nil
}

// SetRequestStatus transitions a request out of pending. The WHERE guard
// makes the transition race-free: two admins acting on the same request
// cannot both win.
func (r *RequestRepository) SetRequestStatus(ctx context.Context, requestID int64, status database.RequestStatus) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE student_requests SET status = $1 WHERE request_id = $2 AND status = 'pending'",
		status, requestID,
	)
	if err != nil {
		return fmt.Errorf("update registration request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration request: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already-processed.
		if _, err := r.GetRequest(ctx, requestID); errors.Is(err, database.ErrRequestNotFound) {
			return database.ErrRequestNotFound
		}
		return database.ErrRequestProcessed
	}
	return nil
}

// Verify interface compliance.
var _ database.RequestStore = (*RequestRepository)(nil)
