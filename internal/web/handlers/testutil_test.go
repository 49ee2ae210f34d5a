package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/go-chi/chi/v5"
)

// fakeDetector reports the same detections for every photo. Stateless, so it
// is safe under the batch coordinator's workers.
type fakeDetector struct {
	detections []recognition.Detection
	err        error
}

func (d fakeDetector) Detect(ctx context.Context, imageData []byte, minConfidence float64) ([]recognition.Detection, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.detections, nil
}

// fakeEmbedder returns a fixed embedding for every crop.
type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (e fakeEmbedder) Embed(ctx context.Context, faceImage []byte) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.embedding, nil
}

func testPipelineConfig() recognition.PipelineConfig {
	return recognition.PipelineConfig{
		IoUThreshold:    0.5,
		MinConfidence:   0.9,
		AcceptThreshold: 0.6,
		FaceSize:        160,
	}
}

// oneFacePipeline always detects a single face and embeds it as embedding.
func oneFacePipeline(embedding []float32) *recognition.Pipeline {
	detector := fakeDetector{detections: []recognition.Detection{
		{Box: recognition.Box{X: 20, Y: 20, W: 100, H: 100}, Confidence: 0.97},
	}}
	return recognition.NewPipeline(detector, fakeEmbedder{embedding: embedding}, testPipelineConfig())
}

// noFacePipeline never detects anything.
func noFacePipeline() *recognition.Pipeline {
	return recognition.NewPipeline(fakeDetector{}, fakeEmbedder{embedding: []float32{1}}, testPipelineConfig())
}

// twoFacePipeline detects two well-separated faces.
func twoFacePipeline() *recognition.Pipeline {
	detector := fakeDetector{detections: []recognition.Detection{
		{Box: recognition.Box{X: 10, Y: 10, W: 60, H: 60}, Confidence: 0.97},
		{Box: recognition.Box{X: 120, Y: 20, W: 60, H: 60}, Confidence: 0.95},
	}}
	return recognition.NewPipeline(detector, fakeEmbedder{embedding: []float32{1}}, testPipelineConfig())
}

func makeJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 200, 200)), nil); err != nil {
		t.Fatalf("encoding test photo: %v", err)
	}
	return buf.Bytes()
}

// multipartBody builds a multipart form with text fields and photo files
// under the given file field name.
func multipartBody(t *testing.T, fields map[string]string, fileField string, photos [][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("writing field %s: %v", key, err)
		}
	}
	for i, photo := range photos {
		part, err := writer.CreateFormFile(fileField, "photo.jpg")
		if err != nil {
			t.Fatalf("creating file part %d: %v", i, err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("writing file part %d: %v", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

// withChiParam attaches a chi URL parameter to the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody parses a JSON response body into target.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// wantStatus fails the test when the recorded status differs.
func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
