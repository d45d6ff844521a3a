package daa

import (
	"math"
	"testing"

	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
	"github.com/picogrid/daidalus-go/pkg/daidalus/units"
)

func meters(q units.Quantity, unit string, v float64) float64 {
	r, _ := units.From(q, unit, v)
	return r
}

func TestNewDefaultsToStandardAlerter(t *testing.T) {
	d := New()
	if d.Parameters().Alerters.Len() == 0 {
		t.Fatalf("New() should carry a usable default alerter table")
	}
}

func TestHeadOnAlertLevel(t *testing.T) {
	d := New()
	origin := geom.LatLonAlt{Lat: 0, Lon: 0, Alt: meters(units.Distance, "ft", 10000)}
	d.SetOwnshipState("ownship", origin, geom.Mkv(0, meters(units.Speed, "knot", 200), 0), 0, 0)

	intrPos := geom.LatLonAlt{
		Lat: meters(units.Distance, "nmi", 3) / 6371000.0,
		Lon: 0,
		Alt: origin.Alt,
	}
	if _, err := d.AddTrafficState("intruder", intrPos, geom.Mkv(math.Pi, meters(units.Speed, "knot", 200), 0), 1, nil); err != nil {
		t.Fatalf("AddTrafficState: %v", err)
	}

	if lvl := d.AlertLevel("intruder"); lvl < 1 {
		t.Errorf("head-on closure: want alert level >= 1, got %d", lvl)
	}
}

func TestLastTimeToManeuverBisectsToClearBoundary(t *testing.T) {
	d := New()
	origin := geom.LatLonAlt{Lat: 0, Lon: 0, Alt: 0}
	ownSpeed := meters(units.Speed, "knot", 150)
	d.SetOwnshipState("ownship", origin, geom.Mkv(0, ownSpeed, 0), 0, 0)

	// Intruder starts 0.1nmi ahead, flying the same track but faster, so
	// it diverges monotonically out of the FAR cylinder.
	s0 := meters(units.Distance, "nmi", 0.1)
	intrPos := geom.LatLonAlt{Lat: s0 / 6371000.0, Lon: 0, Alt: 0}
	intrSpeed := meters(units.Speed, "knot", 300)
	if _, err := d.AddTrafficState("intruder", intrPos, geom.Mkv(0, intrSpeed, 0), 1, nil); err != nil {
		t.Fatalf("AddTrafficState: %v", err)
	}

	det := detectors.Detector{Kind: detectors.CD3D, D: meters(units.Distance, "nmi", 1.0), H: meters(units.Distance, "ft", 700)}
	relSpeed := intrSpeed - ownSpeed
	wantT := (det.D - s0) / relSpeed

	got := d.LastTimeToManeuver("intruder", det)
	if math.IsNaN(got) || math.IsInf(got, -1) {
		t.Fatalf("LastTimeToManeuver: want a finite bisected time, got %v", got)
	}
	if diff := math.Abs(got - wantT); diff > 1.0 {
		t.Errorf("LastTimeToManeuver: got %.2fs, want ~%.2fs", got, wantT)
	}
}

func TestLastTimeToManeuverNaNWhenNoConflict(t *testing.T) {
	d := New()
	origin := geom.LatLonAlt{Lat: 0, Lon: 0, Alt: 0}
	d.SetOwnshipState("ownship", origin, geom.Mkv(0, meters(units.Speed, "knot", 150), 0), 0, 0)

	farPos := geom.LatLonAlt{Lat: meters(units.Distance, "nmi", 200) / 6371000.0, Lon: 0, Alt: 0}
	if _, err := d.AddTrafficState("intruder", farPos, geom.Mkv(0, meters(units.Speed, "knot", 150), 0), 1, nil); err != nil {
		t.Fatalf("AddTrafficState: %v", err)
	}

	det := detectors.Detector{Kind: detectors.CD3D, D: meters(units.Distance, "nmi", 1.0), H: meters(units.Distance, "ft", 700)}
	if got := d.LastTimeToManeuver("intruder", det); !math.IsNaN(got) {
		t.Errorf("LastTimeToManeuver with no conflict: want NaN, got %v", got)
	}
}

func TestRemoveTrafficState(t *testing.T) {
	d := New()
	d.SetOwnshipState("ownship", geom.LatLonAlt{}, geom.Vector3D{}, 0, 0)
	if _, err := d.AddTrafficState("intruder", geom.LatLonAlt{Lat: 0.001}, geom.Vector3D{}, 1, nil); err != nil {
		t.Fatalf("AddTrafficState: %v", err)
	}
	if err := d.RemoveTrafficState("intruder"); err != nil {
		t.Fatalf("RemoveTrafficState: %v", err)
	}
	if err := d.RemoveTrafficState("intruder"); err == nil {
		t.Errorf("removing an already-removed intruder should error")
	}
}
