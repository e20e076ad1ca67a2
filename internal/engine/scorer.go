package engine

import (
	"math"
	"time"

	"github.com/stratamem/strata/internal/model"
)

// Relevance scoring: a weighted sum of four signals, clamped to [0, 1].
// The score is computed fresh per query and is fully determined by the item
// state, the query tags, and the supplied clock reading.
const (
	weightRecency   = 0.35
	weightFrequency = 0.15
	weightPriority  = 0.30
	weightTags      = 0.20

	// recencyFloor keeps old-but-present items discoverable.
	recencyFloor = 0.1

	// frequencySaturation is the access count at which the frequency signal
	// maxes out.
	frequencySaturation = 10.0
)

// relevance scores an item against a query. Tags must already be normalized
// (lowercased, deduped).
func relevance(it model.MemoryItem, queryTags []string, now time.Time, opts Options) float64 {
	rec := recencyScore(it, now, opts.halfLife(it.Tier))
	freq := math.Min(float64(it.AccessCount)/frequencySaturation, 1.0)
	pri := it.Priority.Weight()
	overlap := jaccard(it.Tags, queryTags)

	score := weightRecency*rec + weightFrequency*freq + weightPriority*pri + weightTags*overlap
	return math.Min(math.Max(score, 0.0), 1.0)
}

// recencyScore applies exponential half-life decay to the time since last
// access. Clock skew that puts the access in the future reads as fully
// fresh.
func recencyScore(it model.MemoryItem, now time.Time, halfLife time.Duration) float64 {
	elapsed := it.SinceAccess(now)
	if elapsed <= 0 {
		return 1.0
	}
	decay := math.Exp2(-elapsed.Hours() / halfLife.Hours())
	if decay < recencyFloor {
		return recencyFloor
	}
	return decay
}

// jaccard computes set overlap between item tags and query tags; 0 when
// either side is empty. Both sides are assumed deduped.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	intersection := 0
	for _, s := range b {
		if setA[s] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
