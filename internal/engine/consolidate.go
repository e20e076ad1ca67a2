package engine

import (
	"errors"
	"log"
	"slices"
	"sort"
	"time"

	"github.com/stratamem/strata/internal/model"
)

// Consolidation policy, evaluated once per pass:
//
//	short → medium: access_count >= 3 OR priority ∈ {critical, high} OR age >= 1h
//	medium → long:  access_count >= 5 OR priority == critical OR age >= 24h
//	short eviction:  idle > 2h
//	medium eviction: priority == low AND idle > 48h
//	long: never auto-evicted
//
// Plus cap enforcement on short and medium: oldest by (created_at,
// access_count) beyond the cap are evicted, oldest first. Thresholds come
// from Options.

// Start runs one consolidation pass immediately and then keeps a single
// background loop that fires on the configured interval and on insert
// kicks. Calling it again is a no-op. Stop it with Close.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.loopDone = make(chan struct{})

		e.runPass()

		go func() {
			defer close(e.loopDone)
			ticker := time.NewTicker(e.opts.Interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					e.runPass()
				case <-e.kickCh:
					e.runPass()
				case <-e.stopCh:
					return
				}
			}
		}()
	})
}

// kick nudges the consolidation loop without blocking the caller.
func (e *Engine) kick() {
	select {
	case e.kickCh <- struct{}{}:
	default:
	}
}

// runPass applies the promotion/eviction policy to every item once, then
// enforces tier caps and retries stale durable writes.
func (e *Engine) runPass() {
	now := e.now()
	promoted, evicted := 0, 0

	for it := range e.store.all(model.TierShort) {
		if it.SinceAccess(now) > e.opts.ShortIdleEvict {
			if e.evict(it.ID) {
				evicted++
			}
			continue
		}
		if it.AccessCount >= e.opts.ShortPromoteAccess ||
			it.Priority == model.PriorityCritical ||
			it.Priority == model.PriorityHigh ||
			it.Age(now) >= e.opts.ShortMaxAge {
			if e.promote(it.ID, model.TierShort, model.TierMedium) {
				promoted++
			}
		}
	}

	for it := range e.store.all(model.TierMedium) {
		if it.Priority == model.PriorityLow && it.SinceAccess(now) > e.opts.MediumIdleEvict {
			if e.evict(it.ID) {
				evicted++
			}
			continue
		}
		if it.AccessCount >= e.opts.MediumPromoteAccess ||
			it.Priority == model.PriorityCritical ||
			it.Age(now) >= e.opts.MediumMaxAge {
			if e.promote(it.ID, model.TierMedium, model.TierLong) {
				promoted++
				if cur, err := e.store.get(it.ID); err == nil {
					e.enqueueSave(cur)
				}
			}
		}
	}

	evicted += e.enforceCap(model.TierShort, e.opts.ShortCap)
	evicted += e.enforceCap(model.TierMedium, e.opts.MediumCap)

	e.flushDirty()

	if promoted > 0 || evicted > 0 {
		log.Printf("consolidate: promoted %d, evicted %d", promoted, evicted)
	}
}

// promote moves an item up one tier. A tier conflict means a racing mover
// got there first; the move is retried once against the re-read tier, and
// skipped if the item already reached (or passed) the target.
func (e *Engine) promote(id string, from, to model.Tier) bool {
	err := e.store.move(id, from, to)
	if err == nil {
		return true
	}
	if !errors.Is(err, model.ErrTierConflict) {
		if !errors.Is(err, model.ErrNotFound) {
			log.Printf("consolidate: move %s: %v", id, err)
		}
		return false
	}

	cur, gerr := e.store.get(id)
	if gerr != nil {
		return false
	}
	if !cur.Tier.Before(to) {
		return false
	}
	if err := e.store.move(id, cur.Tier, to); err != nil {
		log.Printf("consolidate: move %s retry: %v", id, err)
		return false
	}
	return true
}

// evict removes an item and its index entries; persisted items lose their
// durable record too.
func (e *Engine) evict(id string) bool {
	removed, err := e.store.remove(id)
	if err != nil {
		return false
	}
	e.index.remove(removed)
	if removed.Tier == model.TierLong {
		e.enqueueDelete(removed.ID)
	}
	return true
}

// enforceCap evicts the items beyond the tier's size cap, oldest by
// (created_at, access_count) first.
func (e *Engine) enforceCap(tier model.Tier, limit int) int {
	if limit <= 0 {
		return 0
	}
	items := slices.Collect(e.store.all(tier))
	if len(items) <= limit {
		return 0
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		if items[i].AccessCount != items[j].AccessCount {
			return items[i].AccessCount < items[j].AccessCount
		}
		return items[i].ID < items[j].ID
	})

	evicted := 0
	for _, it := range items[:len(items)-limit] {
		if e.evict(it.ID) {
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("consolidate: %s tier over cap, evicted %d oldest", tier, evicted)
	}
	return evicted
}
