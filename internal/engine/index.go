package engine

import (
	"fmt"
	"slices"
	"sync"
	"unicode"

	"github.com/stratamem/strata/internal/model"
)

// index maintains the two inverted indexes used to narrow query candidates:
// lower-cased content tokens → item ids, and tags → item ids. Entries are
// built on insert and torn down on remove; nothing else mutates them.
type index struct {
	mu    sync.RWMutex
	words map[string]map[string]struct{}
	tags  map[string]map[string]struct{}
}

func newIndex() *index {
	return &index{
		words: make(map[string]map[string]struct{}),
		tags:  make(map[string]map[string]struct{}),
	}
}

func (ix *index) add(it model.MemoryItem) {
	tokens := contentTokens(it.Content)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, tok := range tokens {
		set, ok := ix.words[tok]
		if !ok {
			set = make(map[string]struct{})
			ix.words[tok] = set
		}
		set[it.ID] = struct{}{}
	}
	for _, tag := range it.Tags {
		set, ok := ix.tags[tag]
		if !ok {
			set = make(map[string]struct{})
			ix.tags[tag] = set
		}
		set[it.ID] = struct{}{}
	}
}

func (ix *index) remove(it model.MemoryItem) {
	tokens := contentTokens(it.Content)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, tok := range tokens {
		if set, ok := ix.words[tok]; ok {
			delete(set, it.ID)
			if len(set) == 0 {
				delete(ix.words, tok)
			}
		}
	}
	for _, tag := range it.Tags {
		if set, ok := ix.tags[tag]; ok {
			delete(set, it.ID)
			if len(set) == 0 {
				delete(ix.tags, tag)
			}
		}
	}
}

// candidates returns the union of ids matching any requested tag, or, when
// no tags are given, the union of ids matching any query token. The result
// is sorted for deterministic downstream ordering.
func (ix *index) candidates(tokens, tags []string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]struct{})
	if len(tags) > 0 {
		for _, tag := range tags {
			for id := range ix.tags[tag] {
				seen[id] = struct{}{}
			}
		}
	} else {
		for _, tok := range tokens {
			for id := range ix.words[tok] {
				seen[id] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// contentTokens flattens the content map to text and tokenizes it. Keys are
// indexed along with values so structured payloads stay findable.
func contentTokens(content map[string]any) []string {
	seen := make(map[string]bool)
	var out []string
	for k, v := range content {
		for _, tok := range tokenizeText(k) {
			if !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
		for _, tok := range tokenizeText(fmt.Sprintf("%v", v)) {
			if !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
	}
	return out
}

// tokenizeText lowercases and splits on non-alphanumeric runes. Single-rune
// tokens are dropped as noise.
func tokenizeText(s string) []string {
	var out []string
	var b []rune
	flush := func() {
		if len(b) >= 2 {
			out = append(out, string(b))
		}
		b = b[:0]
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b = append(b, unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}
