// Package database defines the persistence contracts of the attendance
// tracker and shared stored types. Concrete backends live in the postgres
// and mariadb subpackages; mock holds in-memory test doubles.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
)

// Sentinel errors shared by all backends.
var (
	// ErrStudentExists signals a duplicate student ID on enrollment.
	ErrStudentExists = errors.New("student already exists")
	// ErrStudentNotFound signals a lookup for an unknown student.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentHasRecords blocks deleting a student who still has
	// attendance rows (referential constraint).
	ErrStudentHasRecords = errors.New("student has attendance records")
	// ErrRequestNotFound signals a lookup for an unknown registration request.
	ErrRequestNotFound = errors.New("registration request not found")
	// ErrRequestProcessed signals an approve/reject on an already-processed
	// registration request.
	ErrRequestProcessed = errors.New("registration request already processed")
	// ErrRecordNotFound signals a lookup for an unknown attendance record.
	ErrRecordNotFound = errors.New("attendance record not found")
)

// Student is one enrolled roster member.
type Student struct {
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	Branch     string    `json:"branch"`
	Class      string    `json:"class"`
	RollNumber string    `json:"roll_number"`
	CreatedAt  time.Time `json:"created_at"`
}

// RequestStatus is the lifecycle state of a registration request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RegistrationRequest is a teacher-submitted enrollment awaiting admin
// approval. The three photo paths reference already-stored uploads.
type RegistrationRequest struct {
	RequestID   int64         `json:"request_id"`
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	Branch      string        `json:"branch"`
	Class       string        `json:"class"`
	RollNumber  string        `json:"roll_number"`
	PhotoPaths  [3]string     `json:"photo_paths"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// GalleryStore persists per-student face embeddings. Entries are never
// mutated: re-enrollment deletes a student's entries wholesale and reinserts.
type GalleryStore interface {
	ListEntries(ctx context.Context) ([]recognition.GalleryEntry, error)
	InsertEntries(ctx context.Context, studentID string, entries []recognition.GalleryEntry) error
	DeleteEntries(ctx context.Context, studentID string) error
}

// AttendanceFilter narrows attendance queries. Zero values mean "no bound".
// Times-of-day are "HH:MM" strings compared against the record timestamp.
type AttendanceFilter struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime string
	EndTime   string
}

// AttendanceStore persists daily attendance. MarkStatus implements the
// atomic insert-or-conditionally-upgrade required by attendance.Store.
type AttendanceStore interface {
	attendance.Store
	Find(ctx context.Context, studentID string, day time.Time) (*attendance.Record, error)
	// Query returns records joined with the roster; students with no row in
	// the filtered range still appear once, as absent, so the read side can
	// infer absence from roster-minus-present.
	Query(ctx context.Context, filter AttendanceFilter) ([]attendance.Record, error)
	Insert(ctx context.Context, rec attendance.Record) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status attendance.Status) error
	Delete(ctx context.Context, id int64) error
	// Days lists the distinct attendance days on record, newest first.
	Days(ctx context.Context) ([]string, error)
}

// StudentStore is the roster: enrollment CRUD plus the registration-request
// queue.
type StudentStore interface {
	ListStudents(ctx context.Context) ([]Student, error)
	ListStudentIDs(ctx context.Context) ([]string, error)
	GetStudent(ctx context.Context, studentID string) (*Student, error)
	InsertStudent(ctx context.Context, s Student) error
	UpdateStudent(ctx context.Context, s Student) error
	DeleteStudent(ctx context.Context, studentID string) error
}

// RequestStore manages pending registration requests.
type RequestStore interface {
	ListRequests(ctx context.Context) ([]RegistrationRequest, error)
	GetRequest(ctx context.Context, requestID int64) (*RegistrationRequest, error)
	InsertRequest(ctx context.Context, req RegistrationRequest) (int64, error)
	// SetRequestStatus transitions a pending request; returns
	// ErrRequestProcessed if it is no longer pending.
	SetRequestStatus(ctx context.Context, requestID int64, status RequestStatus) error
}
