package feed

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
)

type recordingSink struct {
	ids []string
	lla []geom.LatLonAlt
	vel []geom.Vector3D
}

func (s *recordingSink) AddTrafficState(id string, lla geom.LatLonAlt, groundVel geom.Vector3D, alerterIndex int, sigma *detectors.Sigma6) (int, error) {
	s.ids = append(s.ids, id)
	s.lla = append(s.lla, lla)
	s.vel = append(s.vel, groundVel)
	return len(s.ids), nil
}

func newTestFeed(sink Sink) *Feed {
	return &Feed{sink: sink, log: daalog.New(), history: make(map[string]trackSample)}
}

func TestConvertPrefersTrackNameOverUUID(t *testing.T) {
	f := newTestFeed(&recordingSink{})
	x, y, z := latLonAltToECEF(0.5, 1.0, 2000)
	loc := TrackLocationResponse{
		TrackID:   uuid.New(),
		Position:  &GeomPoint{Coordinates: []float64{x, y, z}},
		CreatedAt: time.Now(),
		Track:     &TrackResponse{Name: "bandit-1"},
	}
	id, lla, _, err := f.convert(loc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if id != "bandit-1" {
		t.Errorf("id: got %q, want %q", id, "bandit-1")
	}
	if diff := lla.Lat - 0.5; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("lat: got %v, want ~0.5", lla.Lat)
	}
}

func TestConvertMissingPositionErrors(t *testing.T) {
	f := newTestFeed(&recordingSink{})
	_, _, _, err := f.convert(TrackLocationResponse{TrackID: uuid.New()})
	if err == nil {
		t.Errorf("expected an error for a location with no position")
	}
}

func TestConvertUsesUpstreamVelocityWhenPresent(t *testing.T) {
	f := newTestFeed(&recordingSink{})
	x, y, z := latLonAltToECEF(0, 0, 1000)
	loc := TrackLocationResponse{
		TrackID:   uuid.New(),
		Position:  &GeomPoint{Coordinates: []float64{x, y, z}},
		Velocity:  &GeomPoint{Coordinates: []float64{1, 2, 3}},
		CreatedAt: time.Now(),
	}
	_, _, vel, err := f.convert(loc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	// lat=0,lon=0: East=ECEF-y, North=ECEF-z, Up=ECEF-x, per the ENU test.
	if vel.X != 2 || vel.Y != 3 || vel.Z != 1 {
		t.Errorf("velocity: got %+v, want X=2,Y=3,Z=1", vel)
	}
}

func TestConvertDerivesVelocityFromHistoryOnSecondSighting(t *testing.T) {
	f := newTestFeed(&recordingSink{})
	id := uuid.New()
	t0 := time.Now()

	x0, y0, z0 := latLonAltToECEF(0, 0, 1000)
	loc0 := TrackLocationResponse{TrackID: id, Position: &GeomPoint{Coordinates: []float64{x0, y0, z0}}, CreatedAt: t0}
	_, _, vel0, err := f.convert(loc0)
	if err != nil {
		t.Fatalf("convert (first sighting): %v", err)
	}
	if vel0 != (geom.Vector3D{}) {
		t.Errorf("first sighting should have zero derived velocity, got %+v", vel0)
	}

	// Move 100m east (approximately, at the equator 1 deg lon ~111km) one
	// second later.
	x1, y1, z1 := latLonAltToECEF(0, 100.0/6378137.0, 1000)
	loc1 := TrackLocationResponse{TrackID: id, Position: &GeomPoint{Coordinates: []float64{x1, y1, z1}}, CreatedAt: t0.Add(time.Second)}
	_, _, vel1, err := f.convert(loc1)
	if err != nil {
		t.Fatalf("convert (second sighting): %v", err)
	}
	if vel1.X < 50 || vel1.X > 150 {
		t.Errorf("derived eastward velocity: got %v, want roughly 100 m/s", vel1.X)
	}
}
