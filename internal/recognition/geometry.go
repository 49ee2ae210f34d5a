package recognition

// IoU calculates Intersection over Union between two bounding boxes.
// Returns 0 when the boxes do not overlap or when the union area is zero
// (degenerate boxes). Always defined for finite, non-negative inputs.
func IoU(a, b Box) float64 {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.W, b.X+b.W)
	y2 := min(a.Y+a.H, b.Y+b.H)

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := (x2 - x1) * (y2 - y1)

	union := a.W*a.H + b.W*b.H - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}
