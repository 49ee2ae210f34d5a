package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/pgvector/pgvector-go"
)

// GalleryRepository provides PostgreSQL-backed storage for enrolled face
// embeddings.
type GalleryRepository struct {
	pool *Pool
}

// NewGalleryRepository creates a new PostgreSQL gallery repository.
func NewGalleryRepository(pool *Pool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

// ListEntries retrieves the full gallery. Batch matching snapshots the result
// once per batch, so ordering only needs to be stable.
func (r *GalleryRepository) ListEntries(ctx context.Context) ([]recognition.GalleryEntry, error) {
	query := `
		SELECT student_id, embedding, image_path
		FROM student_faces
		ORDER BY student_id, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query gallery: %w", err)
	}
	defer rows.Close()

	return scanGalleryEntries(rows)
}

// InsertEntries stores a student's enrollment embeddings, replacing any
// previous ones so re-enrollment never accumulates stale faces.
func (r *GalleryRepository) InsertEntries(ctx context.Context, studentID string, entries []recognition.GalleryEntry) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM student_faces WHERE student_id = $1", studentID); err != nil {
		return fmt.Errorf("delete existing gallery entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO student_faces (student_id, embedding, image_path)
		VALUES ($1, $2::vector, $3)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, entry := range entries {
		vec := pgvector.NewVector(entry.Embedding)
		if _, err := stmt.ExecContext(ctx, studentID, vec, entry.ImagePath); err != nil {
			return fmt.Errorf("insert gallery entry %d for %s: %w", i, studentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteEntries removes all gallery entries for a student.
func (r *GalleryRepository) DeleteEntries(ctx context.Context, studentID string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM student_faces WHERE student_id = $1", studentID); err != nil {
		return fmt.Errorf("delete gallery entries: %w", err)
	}
	return nil
}

// Count returns the total number of gallery entries stored.
func (r *GalleryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM student_faces").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count gallery entries: %w", err)
	}
	return count, nil
}

func scanGalleryEntries(rows *sql.Rows) ([]recognition.GalleryEntry, error) {
	var entries []recognition.GalleryEntry

	for rows.Next() {
		var entry recognition.GalleryEntry
		var vec pgvector.Vector

		if err := rows.Scan(&entry.StudentID, &vec, &entry.ImagePath); err != nil {
			return nil, fmt.Errorf("scan gallery entry: %w", err)
		}

		entry.Embedding = vec.Slice()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery entries: %w", err)
	}

	return entries, nil
}

// Verify interface compliance.
var _ database.GalleryStore = (*GalleryRepository)(nil)
