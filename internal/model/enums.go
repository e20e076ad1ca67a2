package model

import (
	"fmt"
	"strings"
)

// Tier is the retention level an item occupies. Items move forward through
// tiers (Short → Medium → Long); only eviction or explicit deletion removes
// them.
type Tier string

const (
	TierShort  Tier = "short"
	TierMedium Tier = "medium"
	TierLong   Tier = "long"
)

// Tiers lists all tiers in promotion order.
var Tiers = []Tier{TierShort, TierMedium, TierLong}

func (t Tier) Valid() bool {
	switch t {
	case TierShort, TierMedium, TierLong:
		return true
	}
	return false
}

func (t Tier) rank() int {
	switch t {
	case TierShort:
		return 0
	case TierMedium:
		return 1
	case TierLong:
		return 2
	}
	return -1
}

// Before reports whether t precedes other in the promotion order.
func (t Tier) Before(other Tier) bool {
	return t.rank() < other.rank()
}

// ParseTier converts a string to a Tier, case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown tier %q", ErrValidation, s)
	}
	return t, nil
}

// Category classifies what kind of knowledge an item holds.
type Category string

const (
	CategoryFactual    Category = "factual"
	CategoryProcedural Category = "procedural"
	CategoryEpisodic   Category = "episodic"
	CategorySemantic   Category = "semantic"
	CategoryContextual Category = "contextual"
)

// Categories lists all valid categories.
var Categories = []Category{
	CategoryFactual,
	CategoryProcedural,
	CategoryEpisodic,
	CategorySemantic,
	CategoryContextual,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFactual, CategoryProcedural, CategoryEpisodic, CategorySemantic, CategoryContextual:
		return true
	}
	return false
}

// ParseCategory converts a string to a Category, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
	return c, nil
}

// Priority ranks how important an item is to retain.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Weight returns the scoring weight for the priority.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityCritical:
		return 1.0
	case PriorityHigh:
		return 0.8
	case PriorityMedium:
		return 0.6
	case PriorityLow:
		return 0.4
	}
	return 0.4
}

// ParsePriority converts a string to a Priority, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
	}
	return p, nil
}
