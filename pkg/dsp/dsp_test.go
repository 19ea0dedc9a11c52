package dsp

import (
	"math"
	"testing"
)

func TestCircularStackPrevOrder(t *testing.T) {
	s := NewCircularStack[int]()
	s.Push(10)
	s.Push(20)
	s.Push(30)
	if got := s.Prev(1); got != 30 {
		t.Errorf("Prev(1) = %d, want 30", got)
	}
	if got := s.Prev(2); got != 20 {
		t.Errorf("Prev(2) = %d, want 20", got)
	}
	if got := s.Prev(3); got != 10 {
		t.Errorf("Prev(3) = %d, want 10", got)
	}
}

func TestCircularStackEviction(t *testing.T) {
	s := NewCircularStack[int]()
	for i := 1; i <= 6; i++ {
		s.Push(i * 10)
	}
	// capacity is 4, so only the last four pushes (30,40,50,60) survive.
	if got := s.Prev(1); got != 60 {
		t.Errorf("Prev(1) = %d, want 60", got)
	}
	if got := s.Prev(4); got != 30 {
		t.Errorf("Prev(4) = %d, want 30", got)
	}
}

func TestCircularStackLenClamped(t *testing.T) {
	s := NewCircularStack[int]()
	s.Push(42)
	if got := s.Prev(3); got != 42 {
		t.Errorf("Prev(3) with one entry = %d, want 42", got)
	}
}

func TestFixedParabolaPassesThroughSamples(t *testing.T) {
	tests := []struct{ f0, f1, f2 float32 }{
		{1, 2, 3},
		{0, 10, 0},
		{-5, 5, -5},
		{100, 90, 80},
	}
	for _, tt := range tests {
		p := NewFixedParabola(tt.f0, tt.f1, tt.f2)
		checks := []struct {
			x, want float32
		}{
			{0, tt.f0},
			{1, tt.f1},
			{2, tt.f2},
		}
		for _, c := range checks {
			got := p.Eval(c.x)
			if math.Abs(float64(got-c.want)) > 0.001 {
				t.Errorf("f0=%v f1=%v f2=%v: Eval(%v) = %v, want %v", tt.f0, tt.f1, tt.f2, c.x, got, c.want)
			}
		}
	}
}

func TestFixedParabolaExtrapolates(t *testing.T) {
	p := NewFixedParabola(1, 2, 3)
	// A line through (0,1),(1,2),(2,3) extrapolates linearly at x=3.
	got := p.Eval(3)
	if math.Abs(float64(got-4)) > 0.001 {
		t.Errorf("Eval(3) = %v, want 4", got)
	}
}

func TestUniformRange(t *testing.T) {
	rng := NewPseudoRandom(314)
	for i := 0; i < 10000; i++ {
		v := rng.Uniform()
		if v < -1 || v >= 1 {
			t.Fatalf("Uniform() out of range: %v", v)
		}
	}
}

func TestTriangleRange(t *testing.T) {
	rng := NewPseudoRandom(314)
	for i := 0; i < 10000; i++ {
		v := rng.Triangle()
		if v < -1 || v >= 1 {
			t.Fatalf("Triangle() out of range: %v", v)
		}
	}
}

func TestPseudoRandomDeterministic(t *testing.T) {
	a := NewPseudoRandom(314)
	b := NewPseudoRandom(314)
	for i := 0; i < 100; i++ {
		if a.Uniform() != b.Uniform() {
			t.Fatalf("sequences diverged at step %d", i)
		}
	}
}

func TestTriangleMoreCentered(t *testing.T) {
	// A triangular distribution concentrates mass near 0 more than a
	// uniform one, so a tighter band around 0 should capture proportionally
	// more triangle() draws than uniform() draws.
	rngU := NewPseudoRandom(314)
	rngT := NewPseudoRandom(314)
	const n = 20000
	var inBandU, inBandT int
	for i := 0; i < n; i++ {
		if u := rngU.Uniform(); u > -0.25 && u < 0.25 {
			inBandU++
		}
		if tr := rngT.Triangle(); tr > -0.25 && tr < 0.25 {
			inBandT++
		}
	}
	if inBandT <= inBandU {
		t.Errorf("expected triangle() to concentrate more mass near 0: triangle=%d uniform=%d", inBandT, inBandU)
	}
}
