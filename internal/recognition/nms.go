package recognition

import "sort"

// Deduplicate applies greedy non-maximum suppression over scored detections.
// Detections are ranked by confidence (stable, so ties keep their original
// order); the highest-confidence remaining detection is kept and every
// remaining detection whose IoU with it is >= iouThreshold is discarded.
// Kept detections are returned in selection order, highest confidence first.
func Deduplicate(detections []Detection, iouThreshold float64) []Detection {
	if len(detections) == 0 {
		return nil
	}

	ranked := make([]Detection, len(detections))
	copy(ranked, detections)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	kept := make([]Detection, 0, len(ranked))
	for len(ranked) > 0 {
		best := ranked[0]
		kept = append(kept, best)

		remaining := ranked[:0]
		for _, d := range ranked[1:] {
			if IoU(best.Box, d.Box) < iouThreshold {
				remaining = append(remaining, d)
			}
		}
		ranked = remaining
	}

	return kept
}
