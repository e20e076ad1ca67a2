package engine

import (
	"fmt"
	"iter"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stratamem/strata/internal/model"
)

// ItemSpec describes a new item to insert.
type ItemSpec struct {
	Content  map[string]any
	Tier     model.Tier // empty means TierShort
	Category model.Category
	Priority model.Priority // empty means PriorityMedium
	Tags     []string
	Metadata map[string]string
}

// tierStore is the exclusive owner of tier membership. One lock guards the
// three tier maps and the id → tier index, so an item is in exactly one
// tier at every observable instant.
type tierStore struct {
	mu      sync.RWMutex
	tiers   map[model.Tier]map[string]*model.MemoryItem
	loc     map[string]model.Tier
	entropy *rand.Rand
	nowFn   func() time.Time
}

func newTierStore(nowFn func() time.Time) *tierStore {
	return &tierStore{
		tiers: map[model.Tier]map[string]*model.MemoryItem{
			model.TierShort:  {},
			model.TierMedium: {},
			model.TierLong:   {},
		},
		loc:     make(map[string]model.Tier),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFn:   nowFn,
	}
}

// insert validates the spec, stamps identity and timestamps, and places the
// item in the requested (or default short) tier.
func (s *tierStore) insert(spec ItemSpec) (model.MemoryItem, error) {
	if len(spec.Content) == 0 {
		return model.MemoryItem{}, fmt.Errorf("%w: content is empty", model.ErrValidation)
	}

	tier := spec.Tier
	if tier == "" {
		tier = model.TierShort
	}
	if !tier.Valid() {
		return model.MemoryItem{}, fmt.Errorf("%w: unknown tier %q", model.ErrValidation, spec.Tier)
	}
	if !spec.Category.Valid() {
		return model.MemoryItem{}, fmt.Errorf("%w: unknown category %q", model.ErrValidation, spec.Category)
	}
	priority := spec.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return model.MemoryItem{}, fmt.Errorf("%w: unknown priority %q", model.ErrValidation, spec.Priority)
	}

	now := s.nowFn().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	it := &model.MemoryItem{
		ID:             ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Tier:           tier,
		Category:       spec.Category,
		Priority:       priority,
		CreatedAt:      now,
		LastAccessedAt: now,
		Tags:           normalizeTags(spec.Tags),
	}
	cp := model.MemoryItem{Content: spec.Content, Metadata: spec.Metadata}.Clone()
	it.Content = cp.Content
	it.Metadata = cp.Metadata

	s.tiers[tier][it.ID] = it
	s.loc[it.ID] = tier
	return it.Clone(), nil
}

// restore places a fully formed item (from disk or an import) into its
// recorded tier, preserving id, timestamps, and counters. It returns the
// stored value, with tags normalized, so callers index exactly what the
// store holds.
func (s *tierStore) restore(it model.MemoryItem) (model.MemoryItem, error) {
	if it.ID == "" {
		return model.MemoryItem{}, fmt.Errorf("%w: empty id", model.ErrValidation)
	}
	if len(it.Content) == 0 {
		return model.MemoryItem{}, fmt.Errorf("%w: content is empty", model.ErrValidation)
	}
	if !it.Tier.Valid() {
		return model.MemoryItem{}, fmt.Errorf("%w: unknown tier %q", model.ErrValidation, it.Tier)
	}
	if !it.Category.Valid() {
		return model.MemoryItem{}, fmt.Errorf("%w: unknown category %q", model.ErrValidation, it.Category)
	}
	if !it.Priority.Valid() {
		return model.MemoryItem{}, fmt.Errorf("%w: unknown priority %q", model.ErrValidation, it.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loc[it.ID]; exists {
		return model.MemoryItem{}, fmt.Errorf("%w: item %s already present", model.ErrValidation, it.ID)
	}

	cp := it.Clone()
	cp.Tags = normalizeTags(cp.Tags)
	s.tiers[cp.Tier][cp.ID] = &cp
	s.loc[cp.ID] = cp.Tier
	return cp.Clone(), nil
}

// get returns a copy of the item without touching access metadata.
func (s *tierStore) get(id string) (model.MemoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tier, ok := s.loc[id]
	if !ok {
		return model.MemoryItem{}, fmt.Errorf("get %s: %w", id, model.ErrNotFound)
	}
	return s.tiers[tier][id].Clone(), nil
}

// move relocates an item from one tier to another atomically. If the item
// is no longer in the expected source tier, another mover won the race and
// ErrTierConflict is returned.
func (s *tierStore) move(id string, from, to model.Tier) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: move %s: bad tier %q → %q", model.ErrValidation, id, from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.loc[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, model.ErrNotFound)
	}
	if cur != from {
		return fmt.Errorf("move %s: item is in %s, not %s: %w", id, cur, from, model.ErrTierConflict)
	}

	it := s.tiers[from][id]
	delete(s.tiers[from], id)
	it.Tier = to
	s.tiers[to][id] = it
	s.loc[id] = to
	return nil
}

// remove deletes the item from whichever tier holds it and returns the
// removed value so callers can tear down indexes and durable records.
func (s *tierStore) remove(id string) (model.MemoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tier, ok := s.loc[id]
	if !ok {
		return model.MemoryItem{}, fmt.Errorf("remove %s: %w", id, model.ErrNotFound)
	}
	it := s.tiers[tier][id]
	delete(s.tiers[tier], id)
	delete(s.loc, id)
	return it.Clone(), nil
}

// touch bumps access_count and last_accessed_at together under one lock and
// returns the updated items keyed by id. Unknown ids are skipped.
func (s *tierStore) touch(ids []string) map[string]model.MemoryItem {
	now := s.nowFn().UTC()
	updated := make(map[string]model.MemoryItem, len(ids))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		tier, ok := s.loc[id]
		if !ok {
			continue
		}
		it := s.tiers[tier][id]
		it.AccessCount++
		it.LastAccessedAt = now
		updated[id] = it.Clone()
	}
	return updated
}

// updateMetadata merges the patch into the item's metadata map.
func (s *tierStore) updateMetadata(id string, patch map[string]string) (model.MemoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tier, ok := s.loc[id]
	if !ok {
		return model.MemoryItem{}, fmt.Errorf("update %s: %w", id, model.ErrNotFound)
	}
	it := s.tiers[tier][id]
	if it.Metadata == nil {
		it.Metadata = make(map[string]string, len(patch))
	}
	for k, v := range patch {
		it.Metadata[k] = v
	}
	return it.Clone(), nil
}

// resolve maps candidate ids to item copies, applying tier and category
// filters. Ids that have been removed since candidate generation are
// silently dropped.
func (s *tierStore) resolve(ids []string, tiers []model.Tier, categories []model.Category) []model.MemoryItem {
	wantTier := tierSet(tiers)
	wantCat := categorySet(categories)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MemoryItem, 0, len(ids))
	for _, id := range ids {
		tier, ok := s.loc[id]
		if !ok {
			continue
		}
		if wantTier != nil && !wantTier[tier] {
			continue
		}
		it := s.tiers[tier][id]
		if wantCat != nil && !wantCat[it.Category] {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

// all returns a lazy, restartable sequence over the items in the given
// tiers (all tiers when none are specified). Membership is snapshotted up
// front but each item is resolved at yield time, so an id is never seen
// twice even if consolidation moves it mid-iteration.
func (s *tierStore) all(tiers ...model.Tier) iter.Seq[model.MemoryItem] {
	if len(tiers) == 0 {
		tiers = model.Tiers
	}
	want := tierSet(tiers)

	return func(yield func(model.MemoryItem) bool) {
		s.mu.RLock()
		var ids []string
		for tier := range want {
			for id := range s.tiers[tier] {
				ids = append(ids, id)
			}
		}
		s.mu.RUnlock()
		slices.Sort(ids)

		for _, id := range ids {
			s.mu.RLock()
			cur, ok := s.loc[id]
			var it model.MemoryItem
			if ok && want[cur] {
				it = s.tiers[cur][id].Clone()
			} else {
				ok = false
			}
			s.mu.RUnlock()

			if !ok {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}

// counts returns the number of items per tier.
func (s *tierStore) counts() map[model.Tier]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[model.Tier]int, len(s.tiers))
	for tier, m := range s.tiers {
		out[tier] = len(m)
	}
	return out
}

func tierSet(tiers []model.Tier) map[model.Tier]bool {
	if len(tiers) == 0 {
		return nil
	}
	set := make(map[model.Tier]bool, len(tiers))
	for _, t := range tiers {
		set[t] = true
	}
	return set
}

func categorySet(categories []model.Category) map[model.Category]bool {
	if len(categories) == 0 {
		return nil
	}
	set := make(map[model.Category]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return set
}

// normalizeTags lowercases, trims, dedupes, and sorts a tag list.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}
