package engine

import (
	"time"

	"github.com/stratamem/strata/internal/model"
)

// Statistics is a point-in-time view of store contents and query activity.
type Statistics struct {
	Tiers               map[model.Tier]int `json:"tiers"`
	TotalItems          int                `json:"total_items"`
	QueriesProcessed    int64              `json:"queries_processed"`
	AverageResponseTime time.Duration      `json:"average_response_time"`
	// CacheHitRate is the fraction of queries answered from the inverted
	// indexes rather than a full tier scan.
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// Statistics returns current counters.
func (e *Engine) Statistics() Statistics {
	counts := e.store.counts()
	total := 0
	for _, n := range counts {
		total += n
	}

	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	st := Statistics{
		Tiers:            counts,
		TotalItems:       total,
		QueriesProcessed: e.queries,
	}
	if e.queries > 0 {
		st.AverageResponseTime = e.queryTime / time.Duration(e.queries)
	}
	if lookups := e.indexHits + e.indexMisses; lookups > 0 {
		st.CacheHitRate = float64(e.indexHits) / float64(lookups)
	}
	return st
}
