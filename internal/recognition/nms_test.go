package recognition

import (
	"testing"
)

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name       string
		detections []Detection
		threshold  float64
		wantBoxes  []Box
	}{
		{
			name:       "empty input",
			detections: nil,
			threshold:  0.5,
			wantBoxes:  nil,
		},
		{
			name: "single detection",
			detections: []Detection{
				{Box: Box{X: 0, Y: 0, W: 50, H: 50}, Confidence: 0.9},
			},
			threshold: 0.5,
			wantBoxes: []Box{{X: 0, Y: 0, W: 50, H: 50}},
		},
		{
			// Two boxes for the same face, the weaker one is suppressed.
			name: "overlapping duplicates collapse",
			detections: []Detection{
				{Box: Box{X: 5, Y: 5, W: 98, H: 98}, Confidence: 0.80},
				{Box: Box{X: 0, Y: 0, W: 100, H: 100}, Confidence: 0.95},
			},
			threshold: 0.5,
			wantBoxes: []Box{{X: 0, Y: 0, W: 100, H: 100}},
		},
		{
			name: "disjoint boxes both kept",
			detections: []Detection{
				{Box: Box{X: 0, Y: 0, W: 50, H: 50}, Confidence: 0.7},
				{Box: Box{X: 200, Y: 200, W: 50, H: 50}, Confidence: 0.9},
			},
			threshold: 0.5,
			wantBoxes: []Box{
				{X: 200, Y: 200, W: 50, H: 50},
				{X: 0, Y: 0, W: 50, H: 50},
			},
		},
		{
			// IoU of these boxes is 25/175 ~ 0.14; a tight threshold
			// suppresses them anyway.
			name: "low threshold suppresses light overlap",
			detections: []Detection{
				{Box: Box{X: 0, Y: 0, W: 10, H: 10}, Confidence: 0.9},
				{Box: Box{X: 5, Y: 5, W: 10, H: 10}, Confidence: 0.8},
			},
			threshold: 0.1,
			wantBoxes: []Box{{X: 0, Y: 0, W: 10, H: 10}},
		},
		{
			name: "high threshold keeps light overlap",
			detections: []Detection{
				{Box: Box{X: 0, Y: 0, W: 10, H: 10}, Confidence: 0.9},
				{Box: Box{X: 5, Y: 5, W: 10, H: 10}, Confidence: 0.8},
			},
			threshold: 0.5,
			wantBoxes: []Box{
				{X: 0, Y: 0, W: 10, H: 10},
				{X: 5, Y: 5, W: 10, H: 10},
			},
		},
		{
			// Chain: a overlaps b, b overlaps c, a and c are disjoint.
			// Suppressing b must not suppress c.
			name: "suppression is not transitive",
			detections: []Detection{
				{Box: Box{X: 0, Y: 0, W: 100, H: 100}, Confidence: 0.95},
				{Box: Box{X: 60, Y: 0, W: 100, H: 100}, Confidence: 0.90},
				{Box: Box{X: 120, Y: 0, W: 100, H: 100}, Confidence: 0.85},
			},
			threshold: 0.2,
			wantBoxes: []Box{
				{X: 0, Y: 0, W: 100, H: 100},
				{X: 120, Y: 0, W: 100, H: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deduplicate(tt.detections, tt.threshold)
			if len(got) != len(tt.wantBoxes) {
				t.Fatalf("Deduplicate() kept %d detections, want %d", len(got), len(tt.wantBoxes))
			}
			for i, want := range tt.wantBoxes {
				if got[i].Box != want {
					t.Errorf("kept[%d].Box = %v, want %v", i, got[i].Box, want)
				}
			}
		})
	}
}

func TestDeduplicateOrdersByConfidence(t *testing.T) {
	detections := []Detection{
		{Box: Box{X: 0, Y: 0, W: 10, H: 10}, Confidence: 0.5},
		{Box: Box{X: 100, Y: 0, W: 10, H: 10}, Confidence: 0.9},
		{Box: Box{X: 200, Y: 0, W: 10, H: 10}, Confidence: 0.7},
	}

	got := Deduplicate(detections, 0.5)
	if len(got) != 3 {
		t.Fatalf("kept %d detections, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("kept detections not in descending confidence order: %v", got)
		}
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	detections := []Detection{
		{Box: Box{X: 0, Y: 0, W: 100, H: 100}, Confidence: 0.95},
		{Box: Box{X: 5, Y: 5, W: 98, H: 98}, Confidence: 0.80},
		{Box: Box{X: 300, Y: 300, W: 50, H: 50}, Confidence: 0.70},
	}

	once := Deduplicate(detections, 0.5)
	twice := Deduplicate(once, 0.5)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed the result: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("detection %d changed on second pass: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestDeduplicateDoesNotMutateInput(t *testing.T) {
	detections := []Detection{
		{Box: Box{X: 0, Y: 0, W: 10, H: 10}, Confidence: 0.5},
		{Box: Box{X: 100, Y: 0, W: 10, H: 10}, Confidence: 0.9},
	}
	original := make([]Detection, len(detections))
	copy(original, detections)

	Deduplicate(detections, 0.5)

	for i := range detections {
		if detections[i] != original[i] {
			t.Errorf("input slice mutated at %d: %v vs %v", i, detections[i], original[i])
		}
	}
}
