package domain

import (
	"math"
	"testing"
)

func TestDot(t *testing.T) {
	a := Vector{1, 0, 2}
	b := Vector{3, 5, -1}
	if got := Dot(a, b); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
}

func TestNormalize_UnitNorm(t *testing.T) {
	v := Normalize(Vector{3, 4})
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sq)-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", math.Sqrt(sq))
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected direction: %v", v)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := Normalize(Vector{0, 0, 0})
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector must stay zero, got %v", v)
		}
	}
}

func TestSeasonIsValid(t *testing.T) {
	for _, s := range []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn, SeasonAll} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Season("Monsoon").IsValid() {
		t.Error("unknown season should be invalid")
	}
}
