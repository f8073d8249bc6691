package server

import "testing"

type tiersPayload struct {
	PaxTiers []int `json:"pax_tiers" validate:"omitempty,pax_tiers"`
}

// TestValidatorPaxTiers проверяет правило pax_tiers.
func TestValidatorPaxTiers(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&tiersPayload{PaxTiers: []int{16, 21, 26}}); err != nil {
		t.Fatalf("expected valid tiers, got %v", err)
	}
	if err := v.Validate(&tiersPayload{}); err != nil {
		t.Fatalf("expected empty tiers to be allowed, got %v", err)
	}
	if err := v.Validate(&tiersPayload{PaxTiers: []int{1, 16}}); err == nil {
		t.Fatal("expected error for tier 1")
	}
	if err := v.Validate(&tiersPayload{PaxTiers: []int{21, 16}}); err == nil {
		t.Fatal("expected error for unordered tiers")
	}
}
