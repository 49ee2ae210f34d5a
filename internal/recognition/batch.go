package recognition

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// GallerySource supplies the enrolled-face gallery. The coordinator reads it
// once per batch so all photos in a batch match against the same snapshot.
type GallerySource interface {
	ListEntries(ctx context.Context) ([]GalleryEntry, error)
}

// MatcherFactory builds a matcher over a gallery snapshot. Defaults to the
// linear scan; swap in NewHNSWMatcher for large galleries.
type MatcherFactory func(gallery []GalleryEntry) Matcher

// BatchResult aggregates recognition across a multi-photo submission.
type BatchResult struct {
	// Recognized is the union of per-photo recognized sets: a student need
	// only be matched in one photo of the batch to appear here.
	Recognized map[string]struct{}
	// Annotated holds the audit images in intake order. Photos that yielded
	// no detections contribute no image.
	Annotated []image.Image
}

// RecognizedIDs returns the recognized set as a sorted-insensitive slice.
func (r BatchResult) RecognizedIDs() []string {
	ids := make([]string, 0, len(r.Recognized))
	for id := range r.Recognized {
		ids = append(ids, id)
	}
	return ids
}

// Coordinator fans a batch of photos out over a bounded worker pool and
// merges the per-photo outcomes.
type Coordinator struct {
	pipeline    *Pipeline
	gallery     GallerySource
	newMatcher  MatcherFactory
	concurrency int
}

// NewCoordinator creates a batch coordinator. concurrency bounds the number
// of photos processed in parallel (default 5 when <= 0).
func NewCoordinator(pipeline *Pipeline, gallery GallerySource, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Coordinator{
		pipeline:    pipeline,
		gallery:     gallery,
		newMatcher:  func(g []GalleryEntry) Matcher { return NewLinearMatcher(g) },
		concurrency: concurrency,
	}
}

// SetMatcherFactory replaces the matcher construction, e.g. with the
// HNSW-backed implementation.
func (c *Coordinator) SetMatcherFactory(f MatcherFactory) {
	c.newMatcher = f
}

type photoOutcome struct {
	index   int
	outcome Outcome
}

// Run processes every photo of the batch concurrently and merges results.
// Workers share a read-only gallery snapshot and write no shared state; the
// merge happens after all workers complete. onProgress, if non-nil, is called
// once per finished photo. Only a gallery read failure fails the batch;
// per-photo problems degrade inside the pipeline.
func (c *Coordinator) Run(ctx context.Context, photos [][]byte, onProgress func(done, total int)) (BatchResult, error) {
	result := BatchResult{Recognized: make(map[string]struct{})}
	if len(photos) == 0 {
		return result, nil
	}

	entries, err := c.gallery.ListEntries(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read gallery: %w", err)
	}
	matcher := c.newMatcher(entries)

	resultsChan := make(chan photoOutcome, len(photos))
	semaphore := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	var done int
	reportProgress := func() {
		if onProgress == nil {
			return
		}
		progressMu.Lock()
		done++
		current := done
		progressMu.Unlock()
		onProgress(current, len(photos))
	}

	for i := range photos {
		wg.Add(1)
		go func(idx int, photo []byte) {
			defer wg.Done()

			// Acquire semaphore
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				resultsChan <- photoOutcome{index: idx, outcome: NewOutcome()}
				reportProgress()
				return
			}

			resultsChan <- photoOutcome{index: idx, outcome: c.pipeline.Process(ctx, photo, matcher)}
			reportProgress()
		}(i, photos[i])
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results maintaining intake order, not completion order.
	ordered := make([]Outcome, len(photos))
	for r := range resultsChan {
		ordered[r.index] = r.outcome
	}

	for _, outcome := range ordered {
		for id := range outcome.Recognized {
			result.Recognized[id] = struct{}{}
		}
		if outcome.Annotated != nil {
			result.Annotated = append(result.Annotated, outcome.Annotated)
		}
	}

	return result, nil
}
