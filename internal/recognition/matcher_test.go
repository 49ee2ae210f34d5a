package recognition

import (
	"math"
	"math/rand"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: -1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0,
		},
		{
			name:     "scaled vector keeps similarity",
			a:        []float32{1, 2, 3},
			b:        []float32{2, 4, 6},
			expected: 1.0,
		},
		{
			name:     "length mismatch",
			a:        []float32{1, 2},
			b:        []float32{1, 2, 3},
			expected: 0,
		},
		{
			name:     "empty vectors",
			a:        nil,
			b:        nil,
			expected: 0,
		},
		{
			name:     "zero vector",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLinearMatcherEmptyGallery(t *testing.T) {
	m := NewLinearMatcher(nil)

	id, score := m.Match([]float32{1, 0, 0})
	if id != "" {
		t.Errorf("Match() id = %q, want empty", id)
	}
	if score != NoMatchScore {
		t.Errorf("Match() score = %v, want %v", score, float64(NoMatchScore))
	}
}

func TestLinearMatcherPicksBestEntry(t *testing.T) {
	gallery := []GalleryEntry{
		{StudentID: "S001", Embedding: []float32{1, 0, 0}},
		{StudentID: "S002", Embedding: []float32{0, 1, 0}},
		{StudentID: "S003", Embedding: []float32{0, 0, 1}},
	}
	m := NewLinearMatcher(gallery)

	id, score := m.Match([]float32{0.1, 0.9, 0.1})
	if id != "S002" {
		t.Errorf("Match() id = %q, want S002", id)
	}
	if score <= 0.9 {
		t.Errorf("Match() score = %v, want > 0.9", score)
	}
}

func TestLinearMatcherTieKeepsFirst(t *testing.T) {
	// Two students with the identical embedding: the first one in gallery
	// order must win every time.
	gallery := []GalleryEntry{
		{StudentID: "S001", Embedding: []float32{1, 1, 0}},
		{StudentID: "S002", Embedding: []float32{1, 1, 0}},
	}
	m := NewLinearMatcher(gallery)

	for i := 0; i < 10; i++ {
		id, _ := m.Match([]float32{1, 1, 0})
		if id != "S001" {
			t.Fatalf("Match() id = %q, want S001 on exact tie", id)
		}
	}
}

func TestLinearMatcherDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	gallery := make([]GalleryEntry, 20)
	for i := range gallery {
		gallery[i] = GalleryEntry{
			StudentID: string(rune('A' + i)),
			Embedding: randomEmbedding(rng, 32),
		}
	}
	m := NewLinearMatcher(gallery)
	query := randomEmbedding(rng, 32)

	firstID, firstScore := m.Match(query)
	for i := 0; i < 5; i++ {
		id, score := m.Match(query)
		if id != firstID || score != firstScore {
			t.Fatalf("Match() not deterministic: (%q, %v) vs (%q, %v)", id, score, firstID, firstScore)
		}
	}
}

func TestHNSWMatcherEmptyGallery(t *testing.T) {
	m := NewHNSWMatcher(nil)

	id, score := m.Match([]float32{1, 0, 0})
	if id != "" {
		t.Errorf("Match() id = %q, want empty", id)
	}
	if score != NoMatchScore {
		t.Errorf("Match() score = %v, want %v", score, float64(NoMatchScore))
	}
}

func TestHNSWMatcherAgreesWithLinear(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	gallery := make([]GalleryEntry, 50)
	for i := range gallery {
		gallery[i] = GalleryEntry{
			StudentID: string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Embedding: randomEmbedding(rng, 64),
		}
	}

	linear := NewLinearMatcher(gallery)
	indexed := NewHNSWMatcher(gallery)

	// Query with the stored embeddings themselves so the true nearest
	// neighbor is unambiguous and the graph cannot miss it.
	for _, entry := range gallery {
		wantID, wantScore := linear.Match(entry.Embedding)
		gotID, gotScore := indexed.Match(entry.Embedding)
		if gotID != wantID {
			t.Errorf("Match(%s) = %q, linear says %q", entry.StudentID, gotID, wantID)
		}
		if math.Abs(gotScore-wantScore) > 1e-6 {
			t.Errorf("Match(%s) score = %v, linear says %v", entry.StudentID, gotScore, wantScore)
		}
	}
}

func randomEmbedding(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}
