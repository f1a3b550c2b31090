package insert

import (
	"testing"

	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

func pt(timeText, valueText string) *pwl.Point {
	return pwl.NewPoint(timeText, valueText, false)
}

func TestEmptyListDefaults(t *testing.T) {
	timeText, valueText := EmptyDefaults()
	if timeText != "0" || valueText != "0" {
		t.Errorf("EmptyDefaults = %q, %q", timeText, valueText)
	}
}

func TestNextAfterZeroIsOneMicro(t *testing.T) {
	if got := NextAfter(pt("0", "0")); got != "1u" {
		t.Errorf("NextAfter(0) = %q, want 1u", got)
	}
}

func TestTimeBelowKeepsPrefixStepping(t *testing.T) {
	cases := []struct {
		current string
		want    string
	}{
		{"1n", "2n"},
		{"20n", "30n"},
		{"200n", "250n"},
		{"5u", "6u"},
	}
	for _, c := range cases {
		if got := TimeBelow(pt(c.current, "0"), nil); got != c.want {
			t.Errorf("TimeBelow(%q) = %q, want %q", c.current, got, c.want)
		}
	}
}

func TestTimeBelowFromZeroUsesOptimal(t *testing.T) {
	if got := TimeBelow(pt("0", "0"), nil); got != "1u" {
		t.Errorf("TimeBelow(0) = %q, want 1u", got)
	}
}

func TestTimeBelowStaysBetweenNeighbors(t *testing.T) {
	got := TimeBelow(pt("1u", "0"), pt("10u", "5"))
	if got != "2u" {
		t.Errorf("TimeBelow(1u, 10u) = %q, want 2u", got)
	}
}

func TestTimeBelowTightGapFallsBackToExact(t *testing.T) {
	// No clean round value fits strictly between 1u and 1.05u, so the raw
	// half-gap candidate is rendered in the current point's prefix.
	got := TimeBelow(pt("1u", "0"), pt("1.05u", "5"))
	if got != "1.025u" {
		t.Errorf("TimeBelow(1u, 1.05u) = %q, want 1.025u", got)
	}
}

func TestTimeAboveWithoutPredecessor(t *testing.T) {
	if got := TimeAbove(pt("1u", "0"), nil); got != "0u" {
		t.Errorf("TimeAbove(1u) = %q, want 0u", got)
	}
	if got := TimeAbove(pt("30n", "0"), nil); got != "20n" {
		t.Errorf("TimeAbove(30n) = %q, want 20n", got)
	}
}

func TestTimeAboveSnapsMidpoint(t *testing.T) {
	got := TimeAbove(pt("10u", "5"), pt("0", "0"))
	if got != "5u" {
		t.Errorf("TimeAbove(0..10u) = %q, want 5u", got)
	}
}

func TestTimeAboveWideSpanSnapsClean(t *testing.T) {
	got := TimeAbove(pt("10m", "5"), pt("1u", "0"))
	if got != "5m" {
		t.Errorf("TimeAbove(1u..10m) = %q, want 5m", got)
	}
}

func TestTimeAboveTinyGapMidpoint(t *testing.T) {
	got := TimeAbove(pt("1.002u", "5"), pt("1u", "0"))
	if got != "1.001u" {
		t.Errorf("TimeAbove(1u..1.002u) = %q, want 1.001u", got)
	}
}

func TestStepSizeBands(t *testing.T) {
	cases := []struct {
		text string
		val  float64
		want float64
	}{
		{"1n", 1e-9, 1e-9},
		{"20n", 2e-8, 1e-8},
		{"600n", 6e-7, 1e-7},
		{"5e-3", 5e-3, 1e-3},
		{"10e-3", 1e-2, 1e-2},
		{"0", 0, 1e-6},
		{"0.5", 0.5, 1e-3},
		{"2.5", 2.5, 0.1},
	}
	for _, c := range cases {
		if got := stepSize(c.text, c.val); got != c.want {
			t.Errorf("stepSize(%q) = %g, want %g", c.text, got, c.want)
		}
	}
}
