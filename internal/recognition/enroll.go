package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/Its-me-GK/FaceMark/internal/imaging"
)

// Enrollment photo validation errors.
var (
	ErrNoFace        = errors.New("no face detected in enrollment photo")
	ErrMultipleFaces = errors.New("enrollment photo must contain exactly one face")
)

// ExtractEnrollmentEmbedding validates an enrollment photo and returns its
// face embedding. Unlike Process, enrollment does not degrade: a photo with
// zero or multiple faces is rejected outright, because a bad gallery entry
// poisons every future batch it matches against.
func (p *Pipeline) ExtractEnrollmentEmbedding(ctx context.Context, photo []byte) ([]float32, error) {
	img, err := imaging.Decode(photo)
	if err != nil {
		return nil, fmt.Errorf("decode enrollment photo: %w", err)
	}

	detections, err := p.detector.Detect(ctx, photo, p.cfg.MinConfidence)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	detections = Deduplicate(detections, p.cfg.IoUThreshold)
	switch {
	case len(detections) == 0:
		return nil, ErrNoFace
	case len(detections) > 1:
		return nil, ErrMultipleFaces
	}

	crop, err := imaging.CropFace(img, detections[0].Box.Rect(), p.cfg.FaceSize)
	if err != nil {
		return nil, fmt.Errorf("crop face: %w", err)
	}

	cropData, err := imaging.EncodeJPEG(crop)
	if err != nil {
		return nil, fmt.Errorf("encode face crop: %w", err)
	}

	embedding, err := p.embedder.Embed(ctx, cropData)
	if err != nil {
		return nil, fmt.Errorf("embed face: %w", err)
	}

	return embedding, nil
}
