// Package attendance turns recognized-identity sets into persisted, monotonic
// per-student daily attendance and provides the grouped read-side views.
package attendance

import "time"

// Status is a student's attendance state for one day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// DayLayout formats a timestamp as its attendance day.
const DayLayout = "2006-01-02"

// Day truncates a timestamp to its attendance day key.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// Record is one persisted attendance row. The day is derived from the
// timestamp; the reconciler targets one logical record per (student, day),
// but the view layer still tolerates physical duplicates.
type Record struct {
	ID         int64     `json:"id"`
	StudentID  string    `json:"student_id"`
	Status     Status    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Name       string    `json:"name,omitempty"`        // joined from the roster
	RollNumber string    `json:"roll_number,omitempty"` // joined from the roster
}

// Day returns the record's attendance day key.
func (r Record) Day() string {
	return Day(r.Timestamp)
}
