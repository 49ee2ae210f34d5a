package recognition

import (
	"math"

	"github.com/coder/hnsw"
)

// NoMatchScore is the sentinel score returned when no match is possible
// (empty gallery).
const NoMatchScore = -1

// Matcher resolves a query face embedding to the best-matching enrolled
// student. Implementations may scan the gallery linearly or consult an
// approximate nearest-neighbor index; callers apply the acceptance threshold.
type Matcher interface {
	// Match returns the gallery entry with the highest cosine similarity to
	// the query, and that similarity. An empty gallery yields ("", -1).
	Match(query []float32) (studentID string, score float64)
}

// CosineSimilarity computes the cosine similarity between two embedding
// vectors. Returns a value between -1 and 1, where 1 means identical.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// LinearMatcher is a nearest-neighbor classifier over an unindexed gallery
// snapshot. Cost is O(gallery size) per query. Ties on the maximum score keep
// the first maximum encountered in gallery iteration order, so the winner of
// an exact tie depends on the order entries were listed.
type LinearMatcher struct {
	gallery []GalleryEntry
}

// NewLinearMatcher creates a matcher over the given gallery snapshot.
// The snapshot is not copied; it must not be mutated while in use.
func NewLinearMatcher(gallery []GalleryEntry) *LinearMatcher {
	return &LinearMatcher{gallery: gallery}
}

// Match implements Matcher.
func (m *LinearMatcher) Match(query []float32) (string, float64) {
	best, bestScore := "", float64(NoMatchScore)
	for _, entry := range m.gallery {
		score := CosineSimilarity(query, entry.Embedding)
		if score > bestScore {
			bestScore = score
			best = entry.StudentID
		}
	}
	return best, bestScore
}

// HNSWMatcher answers gallery queries through an in-memory HNSW graph.
// It satisfies the same contract as LinearMatcher and can be swapped in
// without changing callers once the gallery grows beyond linear-scan scale.
type HNSWMatcher struct {
	graph   *hnsw.Graph[int]
	entries []GalleryEntry
}

// hnswMaxNeighbors is the M parameter of the graph.
const hnswMaxNeighbors = 16

// NewHNSWMatcher builds an HNSW index over the gallery snapshot.
func NewHNSWMatcher(gallery []GalleryEntry) *HNSWMatcher {
	g := hnsw.NewGraph[int]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	m := &HNSWMatcher{graph: g, entries: gallery}
	for i, entry := range gallery {
		if len(entry.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, entry.Embedding))
	}
	return m
}

// Match implements Matcher.
func (m *HNSWMatcher) Match(query []float32) (string, float64) {
	if len(m.entries) == 0 {
		return "", NoMatchScore
	}

	neighbors := m.graph.Search(query, 1)
	if len(neighbors) == 0 {
		return "", NoMatchScore
	}

	entry := m.entries[neighbors[0].Key]
	// Score with the exact cosine similarity rather than the graph's
	// internal distance so both matcher implementations agree.
	return entry.StudentID, CosineSimilarity(query, entry.Embedding)
}
