// Package mariadb imports the student roster from an existing school
// information system running on MariaDB.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/database"
	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// FetchRoster reads the student roster from the information system. Names are
// normalized so diacritic and dash variants compare equal to the locally
// enrolled records.
func (p *Pool) FetchRoster(ctx context.Context) ([]database.Student, error) {
	query := `
		SELECT student_id, full_name, branch, class, roll_number
		FROM students
		WHERE active = 1
		ORDER BY student_id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.StudentID, &s.Name, &s.Branch, &s.Class, &s.RollNumber); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		s.Name = NormalizeName(s.Name)
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster rows: %w", err)
	}
	return students, nil
}

// ImportRoster copies the information system roster into the local student
// store, skipping students that already exist. Returns the number imported.
func ImportRoster(ctx context.Context, source *Pool, dest database.StudentStore) (int, error) {
	roster, err := source.FetchRoster(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch roster: %w", err)
	}

	imported := 0
	for _, s := range roster {
		err := dest.InsertStudent(ctx, s)
		if errors.Is(err, database.ErrStudentExists) {
			continue
		}
		if err != nil {
			return imported, fmt.Errorf("import student %s: %w", s.StudentID, err)
		}
		imported++
	}
	return imported, nil
}
