package core

import (
	"math"
	"testing"

	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
	"github.com/picogrid/daidalus-go/pkg/daidalus/params"
	"github.com/picogrid/daidalus-go/pkg/daidalus/units"
)

func nmiToMeters(n float64) float64 {
	v, _ := units.From(units.Distance, "nmi", n)
	return v
}

func ftToMeters(f float64) float64 {
	v, _ := units.From(units.Distance, "ft", f)
	return v
}

func ktToMps(k float64) float64 {
	v, _ := units.From(units.Speed, "knot", k)
	return v
}

// northOffset returns a position a given distance due north of an
// origin at lat=0,lon=0 — directly ahead of an aircraft flying track 0.
func northOffset(distMeters float64) geom.LatLonAlt {
	const earthRadiusMeters = 6371000.0
	return geom.LatLonAlt{Lat: distMeters / earthRadiusMeters, Lon: 0, Alt: ftToMeters(10000)}
}

// TestHeadOnConflict mirrors spec.md's S1 converging-head-on vector: an
// intruder a few miles out closing head-on penetrates the FAR cylinder
// well inside both the default lookahead and the alerting horizon, so
// the engine must report a nonzero alert level.
func TestHeadOnConflict(t *testing.T) {
	e := NewEngine(params.Default())
	own := AircraftState{
		ID:        "ownship",
		Pos:       geom.LatLonAlt{Lat: 0, Lon: 0, Alt: ftToMeters(10000)},
		GroundVel: geom.Mkv(0, ktToMps(200), 0),
	}
	e.SetOwnship(own, 0)

	intr := AircraftState{
		ID:           "intruder",
		Pos:          northOffset(nmiToMeters(3)),
		GroundVel:    geom.Mkv(math.Pi, ktToMps(200), 0),
		AlerterIndex: 1,
	}
	if _, err := e.AddTraffic(intr); err != nil {
		t.Fatalf("AddTraffic: %v", err)
	}

	lvl := e.AlertLevel("intruder")
	if lvl < 1 {
		t.Errorf("head-on closure at 3nmi/400kt: want alert level >= 1, got %d", lvl)
	}
}

// TestDivergingNoConflict mirrors spec.md's S2: same positions, but the
// intruder flies away. No alert should ever fire.
func TestDivergingNoConflict(t *testing.T) {
	e := NewEngine(params.Default())
	own := AircraftState{
		ID:        "ownship",
		Pos:       geom.LatLonAlt{Lat: 0, Lon: 0, Alt: ftToMeters(10000)},
		GroundVel: geom.Mkv(0, ktToMps(200), 0),
	}
	e.SetOwnship(own, 0)

	intr := AircraftState{
		ID:           "intruder",
		Pos:          northOffset(nmiToMeters(3)),
		GroundVel:    geom.Mkv(0, ktToMps(200), 0),
		AlerterIndex: 1,
	}
	if _, err := e.AddTraffic(intr); err != nil {
		t.Fatalf("AddTraffic: %v", err)
	}

	lvl := e.AlertLevel("intruder")
	if lvl != 0 {
		t.Errorf("diverging traffic: want alert level 0, got %d", lvl)
	}
	snap, ok := e.Snapshot("intruder")
	if !ok {
		t.Fatalf("Snapshot: not found")
	}
	if !math.IsInf(snap.TimeToCorrective, 1) {
		t.Errorf("diverging traffic: want TimeToCorrective=+Inf, got %v", snap.TimeToCorrective)
	}
}

func TestAddTrafficOwnshipCollision(t *testing.T) {
	e := NewEngine(params.Default())
	e.SetOwnship(AircraftState{ID: "a"}, 0)
	if _, err := e.AddTraffic(AircraftState{ID: "a"}); err == nil {
		t.Errorf("expected ErrOwnshipNameCollision when traffic ID matches ownship")
	}
}

func TestRemoveTrafficUnknown(t *testing.T) {
	e := NewEngine(params.Default())
	if err := e.RemoveTraffic("nope"); err == nil {
		t.Errorf("expected ErrUnknownTraffic for an untracked ID")
	}
}

func TestSetOwnshipClearsHysteresisOnIdentityChange(t *testing.T) {
	e := NewEngine(params.Default())
	e.SetOwnship(AircraftState{ID: "a"}, 0)
	e.alertWindows["x"] = nil // simulate stale state from a prior identity
	e.SetOwnship(AircraftState{ID: "b"}, 1)
	if _, ok := e.alertWindows["x"]; ok {
		t.Errorf("changing ownship identity should clear alertWindows")
	}
}

func TestConflictAtUntrackedReturnsNotOK(t *testing.T) {
	e := NewEngine(params.Default())
	e.SetOwnship(AircraftState{ID: "a"}, 0)
	_, ok := e.ConflictAt("nope", detectors.Detector{Kind: detectors.CD3D, D: 100, H: 50}, 10)
	if ok {
		t.Errorf("ConflictAt on an untracked id should return ok=false")
	}
}

func TestLinearProjectionAdvancesPosition(t *testing.T) {
	e := NewEngine(params.Default())
	own := AircraftState{
		ID:        "a",
		Pos:       geom.LatLonAlt{Lat: 0, Lon: 0, Alt: 0},
		GroundVel: geom.Mkv(0, 100, 0), // 100 m/s north
	}
	e.SetOwnship(own, 0)
	e.LinearProjection(10)
	if e.ownship.Pos.Lat <= 0 {
		t.Errorf("flying north should increase latitude, got %v", e.ownship.Pos.Lat)
	}
}
