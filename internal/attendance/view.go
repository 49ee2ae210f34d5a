package attendance

// DaySummary is the headline count for a day's attendance view.
// Total is the roster size; Absent is inferred as Total - Present and
// clamped so a roster shrink can never push it negative.
type DaySummary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// GroupByDay groups raw attendance rows by attendance day, collapsing
// duplicate per-student entries within a day. Duplicates are a data-layer
// anomaly the reconciler prevents, but the view must tolerate rows written
// before the upsert guard existed: if any duplicate is present, the present
// row wins. Row order within a day follows first appearance.
func GroupByDay(records []Record) map[string][]Record {
	grouped := make(map[string][]Record)
	seen := make(map[string]map[string]int) // day -> student -> index into grouped[day]

	for _, rec := range records {
		day := rec.Day()
		if seen[day] == nil {
			seen[day] = make(map[string]int)
		}

		idx, dup := seen[day][rec.StudentID]
		if !dup {
			seen[day][rec.StudentID] = len(grouped[day])
			grouped[day] = append(grouped[day], rec)
			continue
		}
		if grouped[day][idx].Status != StatusPresent && rec.Status == StatusPresent {
			grouped[day][idx] = rec
		}
	}

	return grouped
}

// Summarize computes the day summary for a set of (already deduplicated)
// records against the roster size.
func Summarize(rosterSize int, records []Record) DaySummary {
	present := 0
	for _, rec := range records {
		if rec.Status == StatusPresent {
			present++
		}
	}

	absent := rosterSize - present
	if absent < 0 {
		absent = 0
	}

	return DaySummary{Total: rosterSize, Present: present, Absent: absent}
}
