package engine

import (
	"time"

	"github.com/stratamem/strata/internal/model"
)

// Options holds all engine policy knobs: tier caps, decay half-lives,
// promotion/eviction thresholds, and the consolidation schedule. The engine
// takes these as an explicit constructor argument; there is no ambient
// configuration.
type Options struct {
	// Tier size caps. When exceeded, the oldest items by
	// (created_at, access_count) are evicted regardless of other rules.
	// The long tier is never capped.
	ShortCap  int
	MediumCap int

	// Recency half-lives per tier.
	ShortHalfLife  time.Duration
	MediumHalfLife time.Duration
	LongHalfLife   time.Duration

	// Promotion thresholds.
	ShortPromoteAccess  int64         // short → medium at this access count
	MediumPromoteAccess int64         // medium → long at this access count
	ShortMaxAge         time.Duration // short → medium at this age
	MediumMaxAge        time.Duration // medium → long at this age

	// Eviction thresholds, measured against last access.
	ShortIdleEvict  time.Duration
	MediumIdleEvict time.Duration // applies to low-priority items only

	// Interval between consolidation passes.
	Interval time.Duration

	// PersistQueueSize bounds the background persistence queue.
	PersistQueueSize int
}

// DefaultOptions returns the stock policy.
func DefaultOptions() Options {
	return Options{
		ShortCap:  100,
		MediumCap: 100,

		ShortHalfLife:  time.Hour,
		MediumHalfLife: 24 * time.Hour,
		LongHalfLife:   7 * 24 * time.Hour,

		ShortPromoteAccess:  3,
		MediumPromoteAccess: 5,
		ShortMaxAge:         time.Hour,
		MediumMaxAge:        24 * time.Hour,

		ShortIdleEvict:  2 * time.Hour,
		MediumIdleEvict: 48 * time.Hour,

		Interval: time.Minute,

		PersistQueueSize: 256,
	}
}

// withDefaults fills any zero field from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ShortCap == 0 {
		o.ShortCap = def.ShortCap
	}
	if o.MediumCap == 0 {
		o.MediumCap = def.MediumCap
	}
	if o.ShortHalfLife == 0 {
		o.ShortHalfLife = def.ShortHalfLife
	}
	if o.MediumHalfLife == 0 {
		o.MediumHalfLife = def.MediumHalfLife
	}
	if o.LongHalfLife == 0 {
		o.LongHalfLife = def.LongHalfLife
	}
	if o.ShortPromoteAccess == 0 {
		o.ShortPromoteAccess = def.ShortPromoteAccess
	}
	if o.MediumPromoteAccess == 0 {
		o.MediumPromoteAccess = def.MediumPromoteAccess
	}
	if o.ShortMaxAge == 0 {
		o.ShortMaxAge = def.ShortMaxAge
	}
	if o.MediumMaxAge == 0 {
		o.MediumMaxAge = def.MediumMaxAge
	}
	if o.ShortIdleEvict == 0 {
		o.ShortIdleEvict = def.ShortIdleEvict
	}
	if o.MediumIdleEvict == 0 {
		o.MediumIdleEvict = def.MediumIdleEvict
	}
	if o.Interval == 0 {
		o.Interval = def.Interval
	}
	if o.PersistQueueSize == 0 {
		o.PersistQueueSize = def.PersistQueueSize
	}
	return o
}

func (o Options) halfLife(tier model.Tier) time.Duration {
	switch tier {
	case model.TierShort:
		return o.ShortHalfLife
	case model.TierMedium:
		return o.MediumHalfLife
	case model.TierLong:
		return o.LongHalfLife
	}
	return o.ShortHalfLife
}
