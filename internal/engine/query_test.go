package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stratamem/strata/internal/model"
)

func TestQueryRanksByPriority(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	lowID, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityLow, "project"))
	critID, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityCritical, "project"))
	highID, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityHigh, "project"))

	res, err := eng.Query(ctx, "", []string{"project"}, QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(res.Items))
	}

	wantOrder := []string{critID, highID, lowID}
	for i, want := range wantOrder {
		if res.Items[i].Item.ID != want {
			t.Errorf("position %d: got %s, want %s", i, res.Items[i].Item.ID, want)
		}
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].Score > res.Items[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, res.Items[i].Score, res.Items[i-1].Score)
		}
	}
}

func TestQueryMinRelevance(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	critID, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityCritical, "project"))
	eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityLow, "project"))

	// A fresh critical item with full overlap scores 0.85, a low one 0.67;
	// a 0.8 floor keeps only the critical item.
	res, err := eng.Query(ctx, "", []string{"project"}, QueryOptions{MinRelevance: 0.8})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.TotalFound != 1 || len(res.Items) != 1 {
		t.Fatalf("total = %d, items = %d, want 1 and 1", res.TotalFound, len(res.Items))
	}
	if res.Items[0].Item.ID != critID {
		t.Errorf("got %s, want the critical item", res.Items[0].Item.ID)
	}

	// A negative floor disables filtering entirely.
	res, err = eng.Query(ctx, "", []string{"project"}, QueryOptions{MinRelevance: -1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.TotalFound != 2 {
		t.Errorf("total with no floor = %d, want 2", res.TotalFound)
	}
}

func TestQueryLimitAndTotalFound(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityMedium, "bulk"))
	}

	res, err := eng.Query(ctx, "", []string{"bulk"}, QueryOptions{Limit: 5})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Items) != 5 {
		t.Errorf("page size = %d, want 5", len(res.Items))
	}
	if res.TotalFound != 15 {
		t.Errorf("total found = %d, want 15", res.TotalFound)
	}

	// Default limit applies when none is given.
	res, _ = eng.Query(ctx, "", []string{"bulk"}, QueryOptions{})
	if len(res.Items) != DefaultLimit {
		t.Errorf("default page size = %d, want %d", len(res.Items), DefaultLimit)
	}
}

func TestQueryBumpsAccessOnReturnedItems(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	id, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityMedium, "counted"))

	for want := int64(1); want <= 3; want++ {
		res, err := eng.Query(ctx, "", []string{"counted"}, QueryOptions{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if res.Items[0].Item.AccessCount != want {
			t.Errorf("access count after query %d = %d, want %d", want, res.Items[0].Item.AccessCount, want)
		}
	}

	it, _ := eng.store.get(id)
	if it.AccessCount != 3 {
		t.Errorf("stored access count = %d, want 3", it.AccessCount)
	}
}

func TestQueryFullScanFallback(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityMedium))
	eng.Store(ctx, testSpec(model.CategoryEpisodic, model.PriorityMedium))

	res, err := eng.Query(ctx, "", nil, QueryOptions{MinRelevance: -1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Items) != 2 {
		t.Errorf("full scan returned %d items, want 2", len(res.Items))
	}

	res, err = eng.Query(ctx, "", nil, QueryOptions{
		Categories:   []model.Category{model.CategoryEpisodic},
		MinRelevance: -1,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Item.Category != model.CategoryEpisodic {
		t.Errorf("category filter not applied: %+v", res.Items)
	}
}

func TestQueryTierFilter(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	shortID, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityMedium, "scoped"))
	medID, _ := eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityMedium, "scoped"))
	if err := eng.store.move(medID, model.TierShort, model.TierMedium); err != nil {
		t.Fatalf("move: %v", err)
	}

	res, err := eng.Query(ctx, "", []string{"scoped"}, QueryOptions{
		Tiers: []model.Tier{model.TierMedium},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Item.ID != medID {
		t.Fatalf("tier filter returned %+v, want only %s", res.Items, medID)
	}
	for _, si := range res.Items {
		if si.Item.ID == shortID {
			t.Error("short-tier item leaked through the tier filter")
		}
	}
}

func TestQueryCancelledContext(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.Query(ctx, "", nil, QueryOptions{}); !errors.Is(err, model.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestStatisticsCounters(t *testing.T) {
	eng, _ := testEngine(t, DefaultOptions())
	ctx := context.Background()

	eng.Store(ctx, testSpec(model.CategoryFactual, model.PriorityMedium, "tracked"))

	// One indexed lookup and one full scan.
	if _, err := eng.Query(ctx, "", []string{"tracked"}, QueryOptions{}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if _, err := eng.Query(ctx, "", nil, QueryOptions{MinRelevance: -1}); err != nil {
		t.Fatalf("query: %v", err)
	}

	st := eng.Statistics()
	if st.TotalItems != 1 || st.Tiers[model.TierShort] != 1 {
		t.Errorf("counts = %+v, want 1 short item", st.Tiers)
	}
	if st.QueriesProcessed != 2 {
		t.Errorf("queries processed = %d, want 2", st.QueriesProcessed)
	}
	if st.CacheHitRate != 0.5 {
		t.Errorf("cache hit rate = %v, want 0.5", st.CacheHitRate)
	}
	if st.AverageResponseTime < 0 || st.AverageResponseTime > time.Second {
		t.Errorf("average response time implausible: %v", st.AverageResponseTime)
	}
}
