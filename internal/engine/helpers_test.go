package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stratamem/strata/internal/model"
	"github.com/stratamem/strata/internal/store"
)

// testClock is a settable clock shared between a test and the engine.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEngine builds an engine over an in-memory database with a fixed
// clock. Consolidation is driven manually via runPass.
func testEngine(t *testing.T, opts Options) (*Engine, *testClock) {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng, err := New(db, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	clock := newTestClock()
	eng.nowFn = clock.Now
	return eng, clock
}

func testSpec(category model.Category, priority model.Priority, tags ...string) ItemSpec {
	return ItemSpec{
		Content:  map[string]any{"note": "the user prefers tabs over spaces"},
		Category: category,
		Priority: priority,
		Tags:     tags,
	}
}
