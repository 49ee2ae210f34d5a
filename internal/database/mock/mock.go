// Package mock provides in-memory implementations of the storage interfaces
// for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
)

// MockGalleryStore is an in-memory database.GalleryStore.
type MockGalleryStore struct {
	mu      sync.RWMutex
	entries []recognition.GalleryEntry

	// Error injection
	ListError   error
	InsertError error
	DeleteError error
}

// NewMockGalleryStore creates an empty mock gallery.
func NewMockGalleryStore() *MockGalleryStore {
	return &MockGalleryStore{}
}

// AddEntry seeds the mock gallery.
func (m *MockGalleryStore) AddEntry(entry recognition.GalleryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// ListEntries returns the seeded gallery.
func (m *MockGalleryStore) ListEntries(ctx context.Context) ([]recognition.GalleryEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]recognition.GalleryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// InsertEntries replaces a student's entries.
func (m *MockGalleryStore) InsertEntries(ctx context.Context, studentID string, entries []recognition.GalleryEntry) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.StudentID != studentID {
			kept = append(kept, e)
		}
	}
	m.entries = append(kept, entries...)
	return nil
}

// DeleteEntries removes a student's entries.
func (m *MockGalleryStore) DeleteEntries(ctx context.Context, studentID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.StudentID != studentID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// MockAttendanceStore is an in-memory database.AttendanceStore with the same
// monotonic upsert semantics as the PostgreSQL implementation.
type MockAttendanceStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*attendance.Record
	byKey   map[string]int64 // studentID + "|" + day -> record ID

	// Error injection
	MarkError error
	// FailStudents lists student IDs whose MarkStatus calls fail.
	FailStudents map[string]struct{}
}

// NewMockAttendanceStore creates an empty mock attendance store.
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{
		nextID:  1,
		records: make(map[int64]*attendance.Record),
		byKey:   make(map[string]int64),
	}
}

func attendanceKey(studentID string, day time.Time) string {
	return studentID + "|" + attendance.Day(day)
}

// MarkStatus mirrors the conditional upsert: insert if missing, upgrade
// absent to present, otherwise leave the record alone.
func (m *MockAttendanceStore) MarkStatus(ctx context.Context, studentID string, day time.Time, status attendance.Status) (attendance.Transition, error) {
	if m.MarkError != nil {
		return attendance.TransitionUnchanged, m.MarkError
	}
	if _, fail := m.FailStudents[studentID]; fail {
		return attendance.TransitionUnchanged, context.DeadlineExceeded
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := attendanceKey(studentID, day)
	if id, ok := m.byKey[key]; ok {
		rec := m.records[id]
		if rec.Status == attendance.StatusAbsent && status == attendance.StatusPresent {
			rec.Status = attendance.StatusPresent
			rec.Timestamp = day
			return attendance.TransitionUpgraded, nil
		}
		return attendance.TransitionUnchanged, nil
	}

	id := m.nextID
	m.nextID++
	m.records[id] = &attendance.Record{ID: id, StudentID: studentID, Status: status, Timestamp: day}
	m.byKey[key] = id
	return attendance.TransitionInserted, nil
}

// Find returns a student's record for a day.
func (m *MockAttendanceStore) Find(ctx context.Context, studentID string, day time.Time) (*attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byKey[attendanceKey(studentID, day)]; ok {
		rec := *m.records[id]
		return &rec, nil
	}
	return nil, database.ErrRecordNotFound
}

// Query returns all stored records matching the date bounds. Time-of-day
// filters are ignored in the mock.
func (m *MockAttendanceStore) Query(ctx context.Context, filter database.AttendanceFilter) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []attendance.Record
	for _, rec := range m.records {
		if !filter.StartDate.IsZero() && rec.Day() < attendance.Day(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && rec.Day() > attendance.Day(filter.EndDate) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Insert adds a record unconditionally.
func (m *MockAttendanceStore) Insert(ctx context.Context, rec attendance.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	rec.ID = id
	m.records[id] = &rec
	m.byKey[attendanceKey(rec.StudentID, rec.Timestamp)] = id
	return id, nil
}

// UpdateStatus overwrites a record's status.
func (m *MockAttendanceStore) UpdateStatus(ctx context.Context, id int64, status attendance.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return database.ErrRecordNotFound
	}
	rec.Status = status
	return nil
}

// Delete removes a record.
func (m *MockAttendanceStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return database.ErrRecordNotFound
	}
	delete(m.byKey, attendanceKey(rec.StudentID, rec.Timestamp))
	delete(m.records, id)
	return nil
}

// Days lists the distinct days on record, newest first.
func (m *MockAttendanceStore) Days(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	for _, rec := range m.records {
		seen[rec.Day()] = struct{}{}
	}
	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// MockStudentStore is an in-memory database.StudentStore.
type MockStudentStore struct {
	mu       sync.RWMutex
	students map[string]database.Student

	// Error injection
	ListError   error
	InsertError error

	// HasAttendance marks students whose deletion should be refused.
	HasAttendance map[string]struct{}
}

// NewMockStudentStore creates an empty mock roster.
func NewMockStudentStore() *MockStudentStore {
	return &MockStudentStore{students: make(map[string]database.Student)}
}

// ListStudents returns the roster sorted by ID.
func (m *MockStudentStore) ListStudents(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

// ListStudentIDs returns the roster IDs sorted.
func (m *MockStudentStore) ListStudentIDs(ctx context.Context) ([]string, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.students))
	for id := range m.students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetStudent returns one student.
func (m *MockStudentStore) GetStudent(ctx context.Context, studentID string) (*database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.students[studentID]; ok {
		return &s, nil
	}
	return nil, database.ErrStudentNotFound
}

// InsertStudent adds a student, refusing duplicates.
func (m *MockStudentStore) InsertStudent(ctx context.Context, s database.Student) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.StudentID]; ok {
		return database.ErrStudentExists
	}
	m.students[s.StudentID] = s
	return nil
}

// UpdateStudent overwrites a student.
func (m *MockStudentStore) UpdateStudent(ctx context.Context, s database.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.StudentID]; !ok {
		return database.ErrStudentNotFound
	}
	m.students[s.StudentID] = s
	return nil
}

// DeleteStudent removes a student unless attendance history blocks it.
func (m *MockStudentStore) DeleteStudent(ctx context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[studentID]; !ok {
		return database.ErrStudentNotFound
	}
	if _, blocked := m.HasAttendance[studentID]; blocked {
		return database.ErrStudentHasRecords
	}
	delete(m.students, studentID)
	return nil
}

// MockRequestStore is an in-memory database.RequestStore.
type MockRequestStore struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*database.RegistrationRequest
}

// NewMockRequestStore creates an empty mock request queue.
func NewMockRequestStore() *MockRequestStore {
	return &MockRequestStore{nextID: 1, requests: make(map[int64]*database.RegistrationRequest)}
}

// ListRequests returns all requests sorted by ID.
func (m *MockRequestStore) ListRequests(ctx context.Context) ([]database.RegistrationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]database.RegistrationRequest, 0, len(m.requests))
	for _, req := range m.requests {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out, nil
}

// GetRequest returns one request.
func (m *MockRequestStore) GetRequest(ctx context.Context, requestID int64) (*database.RegistrationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[requestID]; ok {
		out := *req
		return &out, nil
	}
	return nil, database.ErrRequestNotFound
}

// InsertRequest queues a pending request.
func (m *MockRequestStore) InsertRequest(ctx context.Context, req database.RegistrationRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	req.RequestID = id
	req.Status = database.RequestPending
	req.CreatedAt = time.Now()
	m.requests[id] = &req
	return id, nil
}

// SetRequestStatus transitions a pending request.
func (m *MockRequestStore) SetRequestStatus(ctx context.Context, requestID int64, status database.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return database.ErrRequestNotFound
	}
	if req.Status != database.RequestPending {
		return database.ErrRequestProcessed
	}
	req.Status = status
	return nil
}

// Verify interface compliance.
var (
	_ database.GalleryStore    = (*MockGalleryStore)(nil)
	_ database.AttendanceStore = (*MockAttendanceStore)(nil)
	_ database.StudentStore    = (*MockStudentStore)(nil)
	_ database.RequestStore    = (*MockRequestStore)(nil)
)
