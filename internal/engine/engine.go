// Package engine implements the tiered, relevance-ranked memory engine:
// tier storage, inverted indexing, scoring, scheduled consolidation, and
// the query façade. Long-tier items are additionally persisted through the
// store package.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stratamem/strata/internal/model"
	"github.com/stratamem/strata/internal/store"
)

// Engine owns the three tiers, the indexes, and the consolidation schedule.
// All caller-facing mutation goes through its methods.
type Engine struct {
	opts  Options
	store *tierStore
	index *index
	db    *store.DB

	// nowFn is the clock; tests override it.
	nowFn func() time.Time

	stopCh     chan struct{}
	kickCh     chan struct{}
	loopDone   chan struct{}
	persistCh  chan persistOp
	workerDone chan struct{}
	startOnce  sync.Once
	closeOnce  sync.Once

	// dirty tracks long-tier ids whose durable record is stale (failed or
	// deferred writes, access bumps). The next consolidation pass re-saves
	// them, giving at-least-once durability.
	dirtyMu sync.Mutex
	dirty   map[string]struct{}

	statsMu     sync.Mutex
	queries     int64
	queryTime   time.Duration
	indexHits   int64
	indexMisses int64
}

// New creates an Engine backed by the given durable store and repopulates
// the long tier from it. Call Start to begin scheduled consolidation and
// Close to shut everything down.
func New(db *store.DB, opts Options) (*Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("engine: nil store")
	}

	e := &Engine{
		opts:       opts.withDefaults(),
		index:      newIndex(),
		db:         db,
		nowFn:      time.Now,
		stopCh:     make(chan struct{}),
		kickCh:     make(chan struct{}, 1),
		workerDone: make(chan struct{}),
		dirty:      make(map[string]struct{}),
	}
	e.store = newTierStore(func() time.Time { return e.nowFn() })
	e.persistCh = make(chan persistOp, e.opts.PersistQueueSize)

	items, err := db.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load persisted items: %w", err)
	}
	loaded := 0
	for _, it := range items {
		it.Tier = model.TierLong // durable records belong to the long tier
		stored, err := e.store.restore(it)
		if err != nil {
			log.Printf("load: skipping %s: %v", it.ID, err)
			continue
		}
		e.index.add(stored)
		loaded++
	}
	if loaded > 0 {
		log.Printf("load: restored %d long-tier items", loaded)
	}

	go e.persistWorker()
	return e, nil
}

// Store validates and inserts a new item, indexes it, and nudges the
// consolidator. Long-tier inserts are queued for durable write.
func (e *Engine) Store(ctx context.Context, spec ItemSpec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("store: %w", model.ErrTimeout)
	}

	it, err := e.store.insert(spec)
	if err != nil {
		return "", err
	}
	e.index.add(it)
	if it.Tier == model.TierLong {
		e.enqueueSave(it)
	}
	e.kick()
	return it.ID, nil
}

// Get returns an item by id, bumping its access metadata.
func (e *Engine) Get(ctx context.Context, id string) (model.MemoryItem, error) {
	if err := ctx.Err(); err != nil {
		return model.MemoryItem{}, fmt.Errorf("get: %w", model.ErrTimeout)
	}

	it, err := e.store.get(id)
	if err != nil {
		return model.MemoryItem{}, err
	}
	if updated, ok := e.store.touch([]string{id})[id]; ok {
		it = updated
	}
	if it.Tier == model.TierLong {
		e.markDirty(it.ID)
	}
	return it, nil
}

// UpdateContext merges a metadata patch into the item.
func (e *Engine) UpdateContext(ctx context.Context, id string, patch map[string]string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("update context: %w", model.ErrTimeout)
	}

	it, err := e.store.updateMetadata(id, patch)
	if err != nil {
		return err
	}
	if it.Tier == model.TierLong {
		e.enqueueSave(it)
	}
	return nil
}

// Remove deletes an item from its tier, tears down its index entries, and
// removes its durable record if it was persisted.
func (e *Engine) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("remove: %w", model.ErrTimeout)
	}

	removed, err := e.store.remove(id)
	if err != nil {
		return err
	}
	e.index.remove(removed)
	if removed.Tier == model.TierLong {
		e.enqueueDelete(removed.ID)
	}
	return nil
}

// Close stops the consolidation loop, re-enqueues any stale durable
// records, and drains the persistence queue. No other Engine method may be
// called after Close.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.stopCh)
		if e.loopDone != nil {
			<-e.loopDone
		}
		e.flushDirty()
		close(e.persistCh)
		<-e.workerDone
	})
	return nil
}

func (e *Engine) now() time.Time {
	return e.nowFn().UTC()
}

func (e *Engine) recordLookup(indexed bool) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	if indexed {
		e.indexHits++
	} else {
		e.indexMisses++
	}
}

func (e *Engine) recordQuery(elapsed time.Duration) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.queries++
	e.queryTime += elapsed
}
