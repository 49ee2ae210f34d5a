package recognition

import (
	"context"
	"image"
	"log"

	"github.com/Its-me-GK/FaceMark/internal/imaging"
)

// Detector reports face locations in a photo. The minimum-confidence filter
// is applied by the detector itself; every returned detection carries a
// confidence in [0,1] and a box in pixel coordinates.
type Detector interface {
	Detect(ctx context.Context, imageData []byte, minConfidence float64) ([]Detection, error)
}

// Embedder turns a fixed-size normalized face crop into a unit-norm,
// fixed-dimension embedding vector.
type Embedder interface {
	Embed(ctx context.Context, faceImage []byte) ([]float32, error)
}

// UnknownLabel is drawn on faces whose best match fell below the acceptance
// threshold.
const UnknownLabel = "Unknown"

// PipelineConfig carries the tunable thresholds of per-photo processing.
// Call sites use different profiles, so none of these are constants.
type PipelineConfig struct {
	IoUThreshold    float64 // NMS suppression threshold
	MinConfidence   float64 // detector minimum confidence
	AcceptThreshold float64 // cosine score above which a match is accepted
	FaceSize        int     // square crop size expected by the embedder
	Enhance         bool    // apply the low-light pre-filter before detection
}

// Pipeline runs the per-photo recognition flow: detect, deduplicate, embed
// each face, match against the gallery, and annotate an audit image.
type Pipeline struct {
	detector Detector
	embedder Embedder
	cfg      PipelineConfig
}

// NewPipeline wires the external detector and embedder into a pipeline.
func NewPipeline(detector Detector, embedder Embedder, cfg PipelineConfig) *Pipeline {
	if cfg.FaceSize <= 0 {
		cfg.FaceSize = 160
	}
	return &Pipeline{detector: detector, embedder: embedder, cfg: cfg}
}

// Process runs the pipeline on one photo against a gallery matcher snapshot.
// Failures degrade: an undecodable photo, a failed or timed-out detector
// call, or zero detections all yield an empty outcome so the rest of the
// batch can proceed. Per-face embedding failures skip only that face.
func (p *Pipeline) Process(ctx context.Context, photo []byte, matcher Matcher) Outcome {
	outcome := NewOutcome()

	img, err := imaging.Decode(photo)
	if err != nil {
		log.Printf("pipeline: skipping undecodable photo: %v", err)
		return outcome
	}

	detectInput := photo
	if p.cfg.Enhance {
		img = imaging.Enhance(img)
		if enhanced, err := imaging.EncodeJPEG(img); err == nil {
			detectInput = enhanced
		}
	}

	detections, err := p.detector.Detect(ctx, detectInput, p.cfg.MinConfidence)
	if err != nil {
		log.Printf("pipeline: detector failed, degrading photo to zero detections: %v", err)
		return outcome
	}

	detections = Deduplicate(detections, p.cfg.IoUThreshold)
	if len(detections) == 0 {
		return outcome
	}

	for _, det := range detections {
		face, ok := p.matchFace(ctx, img, det, matcher)
		if !ok {
			continue
		}
		outcome.Faces = append(outcome.Faces, face)
		if face.StudentID != "" {
			outcome.Recognized[face.StudentID] = struct{}{}
		}
	}

	outcome.Annotated = annotate(img, outcome.Faces)
	return outcome
}

// matchFace crops, embeds, and matches a single detection. Returns ok=false
// when the face could not be embedded; the face is then left out of the
// outcome entirely.
func (p *Pipeline) matchFace(ctx context.Context, img image.Image, det Detection, matcher Matcher) (FaceResult, bool) {
	crop, err := imaging.CropFace(img, det.Box.Rect(), p.cfg.FaceSize)
	if err != nil {
		log.Printf("pipeline: dropping face with unusable box: %v", err)
		return FaceResult{}, false
	}

	cropData, err := imaging.EncodeJPEG(crop)
	if err != nil {
		log.Printf("pipeline: dropping face, crop encode failed: %v", err)
		return FaceResult{}, false
	}

	embedding, err := p.embedder.Embed(ctx, cropData)
	if err != nil {
		log.Printf("pipeline: dropping face, embedder failed: %v", err)
		return FaceResult{}, false
	}

	studentID, score := matcher.Match(embedding)
	if score <= p.cfg.AcceptThreshold {
		studentID = "" // below acceptance: the face stays unknown
	}

	return FaceResult{Detection: det, StudentID: studentID, Score: score}, true
}

func annotate(img image.Image, faces []FaceResult) image.Image {
	annotations := make([]imaging.Annotation, 0, len(faces))
	for _, f := range faces {
		a := imaging.Annotation{Rect: f.Detection.Box.Rect(), Label: f.StudentID, Known: true}
		if f.StudentID == "" {
			a.Label = UnknownLabel
			a.Known = false
		}
		annotations = append(annotations, a)
	}
	return imaging.Annotate(img, annotations)
}
