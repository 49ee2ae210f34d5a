package attendance

import (
	"context"
	"log"
	"time"
)

// Transition describes what a MarkStatus call did to the stored record.
type Transition int

const (
	// TransitionInserted means no record existed and one was created.
	TransitionInserted Transition = iota
	// TransitionUpgraded means an existing absent record flipped to present.
	TransitionUpgraded
	// TransitionUnchanged means the existing record already satisfied the
	// monotonicity rule (present stays present, absent stays absent).
	TransitionUnchanged
)

// Store persists attendance records. MarkStatus must be atomic: the
// insert-if-absent-else-conditionally-upgrade decision cannot be a separate
// read followed by a write, or two concurrent batch submissions for the same
// day can race into duplicate rows or a present→absent downgrade.
type Store interface {
	MarkStatus(ctx context.Context, studentID string, day time.Time, status Status) (Transition, error)
}

// Summary reports a reconciliation run. Per-student store failures do not
// stop the run, so a partially failed operation is visible in the counts
// rather than as a single boolean.
type Summary struct {
	Present   int `json:"present"`   // students recognized in the batch
	Absent    int `json:"absent"`    // roster members not recognized
	Inserted  int `json:"inserted"`  // new records written
	Upgraded  int `json:"upgraded"`  // absent records flipped to present
	Unchanged int `json:"unchanged"` // no-ops (idempotent re-runs)
	Failed    int `json:"failed"`    // students whose write failed
}

// Reconciler derives and persists each roster member's daily status from a
// batch's recognized set.
type Reconciler struct {
	store Store
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile marks every roster member present or absent for the given day.
// The roster is the universe for absence inference: a member not in
// recognized is marked absent unless already present. The per-student state
// machine allows only absent→present; present is terminal for the day, so
// re-running with the same or a superset recognized set is idempotent.
func (r *Reconciler) Reconcile(ctx context.Context, day time.Time, recognized map[string]struct{}, roster []string) Summary {
	var summary Summary

	for _, studentID := range roster {
		status := StatusAbsent
		if _, ok := recognized[studentID]; ok {
			status = StatusPresent
			summary.Present++
		} else {
			summary.Absent++
		}

		transition, err := r.store.MarkStatus(ctx, studentID, day, status)
		if err != nil {
			// Keep attempting the remaining students.
			log.Printf("reconcile: marking %s %s for %s failed: %v", studentID, status, Day(day), err)
			summary.Failed++
			continue
		}

		switch transition {
		case TransitionInserted:
			summary.Inserted++
		case TransitionUpgraded:
			summary.Upgraded++
		case TransitionUnchanged:
			summary.Unchanged++
		}
	}

	return summary
}
