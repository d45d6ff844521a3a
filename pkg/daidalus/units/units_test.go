package units

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		q Quantity
		u string
		x float64
	}{
		{Distance, "nmi", 12.5},
		{Distance, "ft", 10000},
		{Speed, "knot", 200},
		{Speed, "fpm", 1500},
		{Acceleration, "G", 2.0},
		{Angle, "deg", 97.3},
		{Time, "s", 60},
	}

	for _, c := range cases {
		si, ok := From(c.q, c.u, c.x)
		if !ok {
			t.Fatalf("From(%v, %q, %v): not recognized", c.q, c.u, c.x)
		}
		back, ok := To(c.q, c.u, si)
		if !ok {
			t.Fatalf("To(%v, %q, %v): not recognized", c.q, c.u, si)
		}
		if diff := back - c.x; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("round trip %q %v: got %v, want %v", c.u, c.x, back, c.x)
		}
	}
}

func TestUnrecognized(t *testing.T) {
	if _, ok := From(Distance, "furlong", 1); ok {
		t.Errorf("expected furlong to be unrecognized")
	}
	if IsRecognized(Speed, "furlong") {
		t.Errorf("expected furlong to be unrecognized")
	}
}
