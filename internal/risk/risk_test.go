package risk

import "testing"

func TestAllow(t *testing.T) {
	limits := Limits{MaxSizePerIntentE6: 50}
	if !limits.Allow(50) {
		t.Fatalf("expected size at limit to pass")
	}
	if limits.Allow(51) {
		t.Fatalf("expected size above limit to fail")
	}
}

func TestZeroMeansUnlimited(t *testing.T) {
	var limits Limits
	if !limits.Allow(1 << 60) {
		t.Fatalf("expected zero limit to allow any size")
	}
}
