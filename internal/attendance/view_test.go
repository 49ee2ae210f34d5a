package attendance

import (
	"testing"
	"time"
)

func rec(id string, status Status, ts time.Time) Record {
	return Record{StudentID: id, Status: status, Timestamp: ts}
}

func TestGroupByDay(t *testing.T) {
	day1 := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)

	records := []Record{
		rec("S001", StatusPresent, day1),
		rec("S002", StatusAbsent, day1),
		rec("S001", StatusAbsent, day2),
	}

	grouped := GroupByDay(records)

	if len(grouped) != 2 {
		t.Fatalf("got %d days, want 2", len(grouped))
	}
	if len(grouped["2026-03-16"]) != 2 {
		t.Errorf("day 1 has %d records, want 2", len(grouped["2026-03-16"]))
	}
	if len(grouped["2026-03-17"]) != 1 {
		t.Errorf("day 2 has %d records, want 1", len(grouped["2026-03-17"]))
	}
}

func TestGroupByDaySplitsSameStudentAcrossDays(t *testing.T) {
	records := []Record{
		rec("S001", StatusPresent, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)),
		rec("S001", StatusPresent, time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)),
	}

	grouped := GroupByDay(records)
	if len(grouped) != 2 {
		t.Errorf("same student on two days should yield two groups, got %d", len(grouped))
	}
}

func TestGroupByDayDuplicatePresentWins(t *testing.T) {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"absent then present", []Status{StatusAbsent, StatusPresent}, StatusPresent},
		{"present then absent", []Status{StatusPresent, StatusAbsent}, StatusPresent},
		{"absent twice", []Status{StatusAbsent, StatusAbsent}, StatusAbsent},
		{"present three times", []Status{StatusPresent, StatusPresent, StatusPresent}, StatusPresent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []Record
			for i, st := range tt.statuses {
				records = append(records, rec("S001", st, day.Add(time.Duration(i)*time.Hour)))
			}

			grouped := GroupByDay(records)
			got := grouped["2026-03-16"]
			if len(got) != 1 {
				t.Fatalf("duplicates not collapsed: %d records", len(got))
			}
			if got[0].Status != tt.want {
				t.Errorf("got status %s, want %s", got[0].Status, tt.want)
			}
		})
	}
}

func TestGroupByDayKeepsFirstAppearanceOrder(t *testing.T) {
	day := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

	records := []Record{
		rec("S003", StatusPresent, day),
		rec("S001", StatusAbsent, day),
		rec("S002", StatusPresent, day),
		rec("S001", StatusPresent, day.Add(time.Hour)), // duplicate, upgrades in place
	}

	got := GroupByDay(records)["2026-03-16"]
	wantOrder := []string{"S003", "S001", "S002"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d records, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].StudentID != id {
			t.Errorf("position %d is %s, want %s", i, got[i].StudentID, id)
		}
	}
	if got[1].Status != StatusPresent {
		t.Error("duplicate upgrade should replace the record in place")
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if got := GroupByDay(nil); len(got) != 0 {
		t.Errorf("got %d groups for no records", len(got))
	}
}

func TestSummarize(t *testing.T) {
	day := time.Now()

	tests := []struct {
		name       string
		rosterSize int
		records    []Record
		want       DaySummary
	}{
		{
			name:       "typical day",
			rosterSize: 5,
			records: []Record{
				rec("S001", StatusPresent, day),
				rec("S002", StatusPresent, day),
				rec("S003", StatusAbsent, day),
			},
			want: DaySummary{Total: 5, Present: 2, Absent: 3},
		},
		{
			name:       "no records",
			rosterSize: 3,
			records:    nil,
			want:       DaySummary{Total: 3, Present: 0, Absent: 3},
		},
		{
			// Roster shrank after records were written; absent clamps at 0.
			name:       "more present than roster",
			rosterSize: 1,
			records: []Record{
				rec("S001", StatusPresent, day),
				rec("S002", StatusPresent, day),
			},
			want: DaySummary{Total: 1, Present: 2, Absent: 0},
		},
		{
			name:       "empty roster",
			rosterSize: 0,
			records:    nil,
			want:       DaySummary{Total: 0, Present: 0, Absent: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.rosterSize, tt.records)
			if got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDayFormatting(t *testing.T) {
	ts := time.Date(2026, 1, 5, 23, 59, 59, 0, time.UTC)
	if got := Day(ts); got != "2026-01-05" {
		t.Errorf("Day() = %q, want 2026-01-05", got)
	}

	r := Record{Timestamp: ts}
	if r.Day() != "2026-01-05" {
		t.Errorf("Record.Day() = %q", r.Day())
	}
}
