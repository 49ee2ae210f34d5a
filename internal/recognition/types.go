// Package recognition implements the identity matching engine: detection
// deduplication, gallery matching, and per-photo and per-batch orchestration.
package recognition

import "image"

// Box is an axis-aligned bounding box in image pixel space, top-left origin.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect converts the box to an image.Rectangle, truncating to pixel bounds.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X), int(b.Y), int(b.X+b.W), int(b.Y+b.H))
}

// Detection is a candidate face location reported by the detector,
// prior to deduplication.
type Detection struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"` // in [0,1]
}

// GalleryEntry is one stored face embedding for an enrolled student.
// Multiple entries may exist per student, one per enrollment photo.
type GalleryEntry struct {
	StudentID string
	Embedding []float32
	ImagePath string
}

// FaceResult describes a single matched (or unmatched) face within a photo.
type FaceResult struct {
	Detection Detection
	StudentID string  // empty when the face is unknown
	Score     float64 // best cosine similarity against the gallery
}

// Outcome is the per-photo recognition result. Recognized holds the set of
// accepted identities; Annotated carries the audit image with boxes drawn,
// nil when the photo yielded no detections or could not be processed.
type Outcome struct {
	Recognized map[string]struct{}
	Faces      []FaceResult
	Annotated  image.Image
}

// NewOutcome returns an empty outcome.
func NewOutcome() Outcome {
	return Outcome{Recognized: make(map[string]struct{})}
}
