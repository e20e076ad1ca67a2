package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stratamem/strata/internal/model"
)

// Query defaults.
const (
	DefaultMinRelevance = 0.1
	DefaultLimit        = 10
)

// QueryOptions controls candidate filtering and ranking.
type QueryOptions struct {
	Tiers        []model.Tier     // empty = all tiers
	Categories   []model.Category // empty = all categories
	MinRelevance float64          // 0 = DefaultMinRelevance, negative = no floor
	Limit        int              // <= 0 = DefaultLimit
}

func (o QueryOptions) minRelevance() float64 {
	if o.MinRelevance == 0 {
		return DefaultMinRelevance
	}
	if o.MinRelevance < 0 {
		return 0
	}
	return o.MinRelevance
}

func (o QueryOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

// ScoredItem pairs an item with its query-time relevance score.
type ScoredItem struct {
	Item  model.MemoryItem `json:"item"`
	Score float64          `json:"score"`
}

// QueryResult is a ranked page of items plus the candidate count before
// truncation.
type QueryResult struct {
	Items      []ScoredItem  `json:"items"`
	TotalFound int           `json:"total_found"`
	SearchTime time.Duration `json:"search_time"`
}

// Query resolves candidates through the indexes (falling back to a full
// scan of the requested tiers when neither text nor tags were given),
// scores and ranks them, and bumps access metadata on the returned page.
func (e *Engine) Query(ctx context.Context, text string, tags []string, opts QueryOptions) (*QueryResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", model.ErrTimeout)
	}

	tags = normalizeTags(tags)
	tokens := tokenizeText(text)

	var candidates []model.MemoryItem
	indexed := len(tags) > 0 || len(tokens) > 0
	if indexed {
		ids := e.index.candidates(tokens, tags)
		candidates = e.store.resolve(ids, opts.Tiers, opts.Categories)
	} else {
		wantCat := categorySet(opts.Categories)
		for it := range e.store.all(opts.Tiers...) {
			if wantCat != nil && !wantCat[it.Category] {
				continue
			}
			candidates = append(candidates, it)
		}
	}
	e.recordLookup(indexed)

	now := e.now()
	minRel := opts.minRelevance()
	scored := make([]ScoredItem, 0, len(candidates))
	for _, it := range candidates {
		s := relevance(it, tags, now, e.opts)
		if s < minRel {
			continue
		}
		scored = append(scored, ScoredItem{Item: it, Score: s})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		a, b := scored[i].Item, scored[j].Item
		if !a.LastAccessedAt.Equal(b.LastAccessedAt) {
			return a.LastAccessedAt.After(b.LastAccessedAt)
		}
		return a.ID < b.ID
	})

	total := len(scored)
	if limit := opts.limit(); len(scored) > limit {
		scored = scored[:limit]
	}

	// Deadline check before the mutation step: an expired context leaves
	// no partial access bumps behind.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", model.ErrTimeout)
	}

	ids := make([]string, len(scored))
	for i := range scored {
		ids[i] = scored[i].Item.ID
	}
	updated := e.store.touch(ids)
	for i := range scored {
		if it, ok := updated[scored[i].Item.ID]; ok {
			scored[i].Item = it
			if it.Tier == model.TierLong {
				e.markDirty(it.ID)
			}
		}
	}

	elapsed := time.Since(start)
	e.recordQuery(elapsed)
	return &QueryResult{Items: scored, TotalFound: total, SearchTime: elapsed}, nil
}
