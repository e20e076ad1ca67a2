// Package model defines the core memory data types.
package model

import (
	"maps"
	"slices"
	"time"
)

// MemoryItem is a unit of retained content. ID, CreatedAt and Content are
// immutable after creation; Tier only moves forward (Short → Medium → Long)
// until the item is evicted or deleted.
type MemoryItem struct {
	ID             string            `json:"id"`
	Content        map[string]any    `json:"content"`
	Tier           Tier              `json:"tier"`
	Category       Category          `json:"category"`
	Priority       Priority          `json:"priority"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	AccessCount    int64             `json:"access_count"`
	Tags           []string          `json:"tags,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Clone returns a copy whose maps and slices are independent of the
// original. Content values are treated as opaque; callers must not mutate
// nested structures.
func (m MemoryItem) Clone() MemoryItem {
	cp := m
	if m.Content != nil {
		cp.Content = maps.Clone(m.Content)
	}
	cp.Tags = slices.Clone(m.Tags)
	if m.Metadata != nil {
		cp.Metadata = maps.Clone(m.Metadata)
	}
	return cp
}

// Age returns how long the item has existed relative to now.
func (m MemoryItem) Age(now time.Time) time.Duration {
	return now.Sub(m.CreatedAt)
}

// SinceAccess returns how long ago the item was last read relative to now.
func (m MemoryItem) SinceAccess(now time.Time) time.Duration {
	return now.Sub(m.LastAccessedAt)
}
