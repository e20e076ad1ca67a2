package engine

import (
	"log"

	"github.com/stratamem/strata/internal/model"
)

// Durable writes for long-tier items flow through a bounded queue and a
// single worker goroutine so insert/query latency never waits on disk.
// A failed or deferred save lands in the dirty set and is re-enqueued by
// the next consolidation pass, so every long-tier write lands eventually.

type persistOp struct {
	save     *model.MemoryItem
	deleteID string
}

func (e *Engine) persistWorker() {
	defer close(e.workerDone)
	for op := range e.persistCh {
		if op.save != nil {
			if err := e.db.SaveItem(*op.save); err != nil {
				log.Printf("persist: save %s: %v", op.save.ID, err)
				e.markDirty(op.save.ID)
			} else {
				e.clearDirty(op.save.ID)
			}
			continue
		}
		if err := e.db.DeleteItem(op.deleteID); err != nil {
			log.Printf("persist: delete %s: %v", op.deleteID, err)
		}
	}
}

func (e *Engine) enqueueSave(it model.MemoryItem) {
	cp := it.Clone()
	select {
	case e.persistCh <- persistOp{save: &cp}:
	default:
		log.Printf("persist: queue full, deferring save of %s", it.ID)
		e.markDirty(it.ID)
	}
}

// enqueueDelete queues removal of a durable record. Deletes must not be
// lost, so a full queue falls back to a synchronous write.
func (e *Engine) enqueueDelete(id string) {
	select {
	case e.persistCh <- persistOp{deleteID: id}:
	default:
		if err := e.db.DeleteItem(id); err != nil {
			log.Printf("persist: delete %s: %v", id, err)
		}
	}
}

func (e *Engine) markDirty(id string) {
	e.dirtyMu.Lock()
	defer e.dirtyMu.Unlock()
	e.dirty[id] = struct{}{}
}

func (e *Engine) clearDirty(id string) {
	e.dirtyMu.Lock()
	defer e.dirtyMu.Unlock()
	delete(e.dirty, id)
}

// flushDirty re-enqueues saves for long-tier items whose durable record is
// stale. Ids that left the long tier since being marked are dropped.
func (e *Engine) flushDirty() {
	e.dirtyMu.Lock()
	ids := make([]string, 0, len(e.dirty))
	for id := range e.dirty {
		ids = append(ids, id)
	}
	e.dirtyMu.Unlock()

	for _, id := range ids {
		it, err := e.store.get(id)
		if err != nil || it.Tier != model.TierLong {
			e.clearDirty(id)
			continue
		}
		e.clearDirty(id)
		e.enqueueSave(it)
	}
}
