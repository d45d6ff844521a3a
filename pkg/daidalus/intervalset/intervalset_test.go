package intervalset

import "testing"

func TestUnionMerge(t *testing.T) {
	s := New(Interval{0, 5}, Interval{4, 10}, Interval{20, 30})
	if len(s.Intervals()) != 2 {
		t.Fatalf("expected 2 merged intervals, got %d: %v", len(s.Intervals()), s.Intervals())
	}
	if !s.Contains(7) || s.Contains(15) {
		t.Errorf("unexpected membership result")
	}
}

func TestIntersect(t *testing.T) {
	a := New(Interval{0, 10})
	b := New(Interval{5, 15})
	c := a.Intersect(b)
	ivs := c.Intervals()
	if len(ivs) != 1 || ivs[0].Lo != 5 || ivs[0].Hi != 10 {
		t.Fatalf("unexpected intersection: %v", ivs)
	}
}

func TestComplement(t *testing.T) {
	s := New(Interval{2, 4}, Interval{6, 8})
	comp := s.Complement(0, 10)
	ivs := comp.Intervals()
	if len(ivs) != 3 {
		t.Fatalf("expected 3 intervals, got %v", ivs)
	}
	want := []Interval{{0, 2}, {4, 6}, {8, 10}}
	for i, w := range want {
		if ivs[i] != w {
			t.Errorf("interval %d: got %v, want %v", i, ivs[i], w)
		}
	}
}

func TestEmptyComplementIsFull(t *testing.T) {
	s := Set{}
	comp := s.Complement(0, 10)
	ivs := comp.Intervals()
	if len(ivs) != 1 || ivs[0] != (Interval{0, 10}) {
		t.Fatalf("expected full [0,10], got %v", ivs)
	}
}
