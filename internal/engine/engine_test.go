package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stratamem/strata/internal/model"
	"github.com/stratamem/strata/internal/store"
)

func TestGetBumpsAccess(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	id, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityMedium))

	it, err := eng.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if it.AccessCount != 1 {
		t.Errorf("access count = %d, want 1", it.AccessCount)
	}

	if _, err := eng.Get(ctx, "no-such-id"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestUpdateContextMergesMetadata(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	id, _ := eng.Store(ctx, ItemSpec{
		Content:  map[string]any{"note": "deploy checklist"},
		Category: model.CategoryProcedural,
		Metadata: map[string]string{"source": "onboarding", "owner": "infra"},
	})

	if err := eng.UpdateContext(ctx, id, map[string]string{"owner": "platform", "reviewed": "yes"}); err != nil {
		t.Fatalf("update context: %v", err)
	}

	it, _ := eng.store.get(id)
	want := map[string]string{"source": "onboarding", "owner": "platform", "reviewed": "yes"}
	for k, v := range want {
		if it.Metadata[k] != v {
			t.Errorf("metadata[%s] = %q, want %q", k, it.Metadata[k], v)
		}
	}
}

func TestRemoveDeletesDurableRecord(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	id, err := eng.Store(ctx, ItemSpec{
		Content:  map[string]any{"note": "permanent fact"},
		Tier:     model.TierLong,
		Category: model.CategorySemantic,
		Priority: model.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := eng.Remove(ctx, id); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := eng.Get(ctx, id); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("get after remove err = %v, want ErrNotFound", err)
	}

	eng.Close()
	n, err := eng.db.CountItems()
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if n != 0 {
		t.Errorf("durable rows after remove = %d, want 0", n)
	}
}

// Long-tier items must survive a full engine restart against the same
// database file.
func TestLongTierSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strata.db")
	ctx := context.Background()

	db, err := store.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	eng, err := New(db, DefaultOptions())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	id, err := eng.Store(ctx, ItemSpec{
		Content:  map[string]any{"note": "the API gateway lives in us-east-1"},
		Tier:     model.TierLong,
		Category: model.CategorySemantic,
		Priority: model.PriorityCritical,
		Tags:     []string{"infra"},
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	eng.Close()
	db.Close()

	db2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	eng2, err := New(db2, DefaultOptions())
	if err != nil {
		t.Fatalf("restart engine: %v", err)
	}
	defer eng2.Close()

	it, err := eng2.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after restart: %v", err)
	}
	if it.Tier != model.TierLong {
		t.Errorf("tier after restart = %s, want long", it.Tier)
	}
	if it.Content["note"] != "the API gateway lives in us-east-1" {
		t.Errorf("content lost across restart: %v", it.Content)
	}
	if it.Priority != model.PriorityCritical || it.Category != model.CategorySemantic {
		t.Errorf("attributes lost across restart: %+v", it)
	}

	// Index entries are rebuilt on load.
	res, err := eng2.Query(ctx, "", []string{"infra"}, QueryOptions{})
	if err != nil {
		t.Fatalf("query after restart: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Item.ID != id {
		t.Errorf("restarted index returned %+v", res.Items)
	}
}

// An access bump on a long-tier item after the last consolidation pass must
// still reach disk when the engine shuts down.
func TestCloseFlushesPendingAccessBumps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strata.db")
	ctx := context.Background()

	db, err := store.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	eng, err := New(db, DefaultOptions())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	id, err := eng.Store(ctx, ItemSpec{
		Content:  map[string]any{"note": "billing runs on the first"},
		Tier:     model.TierLong,
		Category: model.CategoryFactual,
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := eng.Get(ctx, id); err != nil {
		t.Fatalf("get: %v", err)
	}
	eng.Close()
	db.Close()

	db2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	eng2, err := New(db2, DefaultOptions())
	if err != nil {
		t.Fatalf("restart engine: %v", err)
	}
	defer eng2.Close()

	it, err := eng2.store.get(id)
	if err != nil {
		t.Fatalf("get after restart: %v", err)
	}
	if it.AccessCount != 1 {
		t.Errorf("access count after restart = %d, want 1", it.AccessCount)
	}
}

func TestStartAndCloseAreIdempotent(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	eng, err := New(db, DefaultOptions())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	eng.Start()
	eng.Start() // no second loop

	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
