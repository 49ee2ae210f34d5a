package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDetect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("got path %s, want /detect", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if r.FormValue("min_confidence") != "0.85" {
			t.Errorf("min_confidence = %q, want 0.85", r.FormValue("min_confidence"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 2,
			"faces": []map[string]any{
				{"box": map[string]float64{"x": 10, "y": 20, "w": 100, "h": 110}, "confidence": 0.97},
				{"box": map[string]float64{"x": 200, "y": 30, "w": 90, "h": 95}, "confidence": 0.88},
			},
			"model": "mtcnn",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	detections, err := client.Detect(context.Background(), []byte("fake image data"), 0.85)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}

	if len(detections) != 2 {
		t.Fatalf("got %d detections, want 2", len(detections))
	}
	if detections[0].Box.X != 10 || detections[0].Box.W != 100 {
		t.Errorf("unexpected first box: %+v", detections[0].Box)
	}
	if detections[0].Confidence != 0.97 {
		t.Errorf("confidence = %v, want 0.97", detections[0].Confidence)
	}
}

func TestDetectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Detect(context.Background(), []byte("data"), 0.9); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestDetectMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Detect(context.Background(), []byte("data"), 0.9); err == nil {
		t.Fatal("expected an error for a malformed response")
	}
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("got path %s, want /embed", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"dim":       4,
			"embedding": []float32{0.1, 0.2, 0.3, 0.4},
			"model":     "facenet",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	embedding, err := client.Embed(context.Background(), []byte("face crop"))
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(embedding) != 4 {
		t.Fatalf("got embedding of length %d, want 4", len(embedding))
	}
	if embedding[2] != 0.3 {
		t.Errorf("embedding[2] = %v, want 0.3", embedding[2])
	}
}

func TestEmbedEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"dim": 0, "embedding": []float32{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Embed(context.Background(), []byte("face crop")); err == nil {
		t.Fatal("expected an error for an empty embedding")
	}
}

func TestClientTimeout(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	client := NewClient(server.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := client.Detect(context.Background(), []byte("data"), 0.9)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v, the per-call deadline did not apply", elapsed)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0)
	if c.baseURL != defaultModelURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, defaultModelURL)
	}
	if c.timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", c.timeout)
	}

	c = NewClient("http://model:8000/", time.Minute)
	if c.baseURL != "http://model:8000" {
		t.Errorf("trailing slash not trimmed: %q", c.baseURL)
	}
}
