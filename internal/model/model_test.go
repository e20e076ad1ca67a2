package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"short", TierShort, false},
		{"  Long ", TierLong, false},
		{"MEDIUM", TierMedium, false},
		{"eternal", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParseTier(%q) err = %v, want ErrValidation", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTier(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestTierOrder(t *testing.T) {
	if !TierShort.Before(TierMedium) || !TierMedium.Before(TierLong) {
		t.Error("promotion order broken")
	}
	if TierLong.Before(TierShort) || TierShort.Before(TierShort) {
		t.Error("Before should be strict")
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCategory("vibes"); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestPriorityWeights(t *testing.T) {
	order := []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
	for i := 1; i < len(order); i++ {
		if order[i].Weight() >= order[i-1].Weight() {
			t.Errorf("weight of %s should be below %s", order[i], order[i-1])
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	orig := MemoryItem{
		ID:       "x",
		Content:  map[string]any{"k": "v"},
		Tags:     []string{"a"},
		Metadata: map[string]string{"m": "1"},
	}

	cp := orig.Clone()
	cp.Content["k"] = "changed"
	cp.Tags[0] = "changed"
	cp.Metadata["m"] = "changed"

	if orig.Content["k"] != "v" || orig.Tags[0] != "a" || orig.Metadata["m"] != "1" {
		t.Errorf("clone shares state with original: %+v", orig)
	}
}

func TestAgeAndSinceAccess(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	it := MemoryItem{CreatedAt: created, LastAccessedAt: created.Add(30 * time.Minute)}
	now := created.Add(time.Hour)

	if it.Age(now) != time.Hour {
		t.Errorf("age = %v, want 1h", it.Age(now))
	}
	if it.SinceAccess(now) != 30*time.Minute {
		t.Errorf("since access = %v, want 30m", it.SinceAccess(now))
	}
}
