package scenario

import (
	"math"
	"testing"
)

func TestToAircraftStateConvertsUnits(t *testing.T) {
	f := AircraftFixture{
		ID:            "ownship",
		LatDeg:        37.0,
		LonDeg:        -122.0,
		AltFt:         5000,
		HeadingDeg:    90,
		GroundSpeedKt: 150,
		VerticalFpm:   500,
		AlerterIndex:  1,
	}
	st, err := f.ToAircraftState()
	if err != nil {
		t.Fatalf("ToAircraftState: %v", err)
	}
	if diff := math.Abs(st.Pos.Lat - 37.0*math.Pi/180); diff > 1e-9 {
		t.Errorf("lat: got %v rad, want %v rad", st.Pos.Lat, 37.0*math.Pi/180)
	}
	if diff := math.Abs(st.Pos.Alt - 5000*0.3048); diff > 1e-6 {
		t.Errorf("alt: got %v m, want %v m", st.Pos.Alt, 5000*0.3048)
	}
	wantSpeed := 150 * 1852.0 / 3600.0
	if diff := math.Abs(st.GroundVel.HorizontalNorm() - wantSpeed); diff > 1e-6 {
		t.Errorf("ground speed: got %v m/s, want %v m/s", st.GroundVel.HorizontalNorm(), wantSpeed)
	}
	// heading 90deg (east) -> track() measures clockwise from north, so X
	// (east) should carry the full horizontal speed and Y (north) ~0.
	if diff := math.Abs(st.GroundVel.X - wantSpeed); diff > 1e-6 {
		t.Errorf("east component at heading 90: got %v, want %v", st.GroundVel.X, wantSpeed)
	}
	if st.AlerterIndex != 1 {
		t.Errorf("alerter index: got %d, want 1", st.AlerterIndex)
	}
}

func TestToWindVectorBlowsToward(t *testing.T) {
	// Wind from the north (0deg) blows toward the south: ENU Y negative.
	w := WindFixture{DirectionDeg: 0, SpeedKt: 20}
	v := w.ToWindVector()
	if v.Y >= 0 {
		t.Errorf("wind from the north should blow toward the south (Y<0), got %+v", v)
	}
	wantSpeed := 20 * 1852.0 / 3600.0
	if diff := math.Abs(v.HorizontalNorm() - wantSpeed); diff > 1e-6 {
		t.Errorf("wind speed: got %v, want %v", v.HorizontalNorm(), wantSpeed)
	}
}

func TestLoadParametersDefaultsWithoutFile(t *testing.T) {
	s := &Scenario{}
	p, err := s.LoadParameters()
	if err != nil {
		t.Fatalf("LoadParameters: %v", err)
	}
	if p.Alerters.Len() == 0 {
		t.Errorf("default parameters should carry a usable alerter table")
	}
}

func TestBundledScenariosLoad(t *testing.T) {
	scenarios, err := Bundled()
	if err != nil {
		t.Fatalf("Bundled: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatalf("expected at least one bundled scenario")
	}
	for _, s := range scenarios {
		if s.Name == "" {
			t.Errorf("bundled scenario missing a name")
		}
		if s.Ownship.ID == "" {
			t.Errorf("scenario %s: ownship missing an ID", s.Name)
		}
		if _, err := s.Ownship.ToAircraftState(); err != nil {
			t.Errorf("scenario %s: ownship fixture doesn't convert: %v", s.Name, err)
		}
		for _, tr := range s.Traffic {
			if _, err := tr.ToAircraftState(); err != nil {
				t.Errorf("scenario %s: traffic %s doesn't convert: %v", s.Name, tr.ID, err)
			}
		}
	}
}

func TestBundledByNameUnknown(t *testing.T) {
	if _, err := BundledByName("does-not-exist"); err == nil {
		t.Errorf("expected an error for an unknown bundled scenario name")
	}
}
